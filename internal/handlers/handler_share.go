package handlers

import (
	"net/http"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/dto"
	"github.com/gin-gonic/gin"
)

// shareHandler handles sharing links with groups and users.
type shareHandler struct {
	shareService portssvc.ShareSvcFacade
}

func newShareHandler(ss portssvc.ShareSvcFacade) *shareHandler {
	return &shareHandler{shareService: ss}
}

// registerShareRoutes registers the share routes that are not nested under a link.
func registerShareRoutes(rg *gin.RouterGroup, shareService portssvc.ShareSvcFacade) {
	h := newShareHandler(shareService)
	rg.DELETE("/shares/:share_id", h.revokeShare)
	rg.GET("/shared-with-me", h.listSharedWithMe)
}

// createShare godoc
// @Summary Share a link
// @Description Shares a link owned by the caller with exactly one group or user.
// @Tags shares
// @Accept json
// @Produce json
// @Param link_id path string true "Link ID"
// @Param share body dto.CreateShareRequest true "Target group or user"
// @Success 201 {object} dto.ShareResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already shared with this target"
// @Router /links/{link_id}/shares [post]
func (h *shareHandler) createShare(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	var (
		share *domain.Share
		err   error
	)
	linkID := c.Param("link_id")
	if req.GroupID != nil {
		share, err = h.shareService.ShareWithGroup(c.Request.Context(), userID, linkID, *req.GroupID)
	} else {
		share, err = h.shareService.ShareWithUser(c.Request.Context(), userID, linkID, *req.UserID)
	}
	if err != nil {
		respondWithError(c, err, "Failed to share link")
		return
	}
	c.JSON(http.StatusCreated, dto.ToShareResponse(share))
}

// listSharesForLink godoc
// @Summary List shares of a link
// @Tags shares
// @Produce json
// @Param link_id path string true "Link ID"
// @Success 200 {object} dto.ListSharesResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /links/{link_id}/shares [get]
func (h *shareHandler) listSharesForLink(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	shares, err := h.shareService.ListSharesForLink(c.Request.Context(), userID, c.Param("link_id"))
	if err != nil {
		respondWithError(c, err, "Failed to list shares")
		return
	}
	c.JSON(http.StatusOK, dto.ToListSharesResponse(shares))
}

// revokeShare godoc
// @Summary Revoke a share
// @Description Allowed to the link owner and to whoever created the share.
// @Tags shares
// @Param share_id path string true "Share ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /shares/{share_id} [delete]
func (h *shareHandler) revokeShare(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.shareService.RevokeShare(c.Request.Context(), userID, c.Param("share_id")); err != nil {
		respondWithError(c, err, "Failed to revoke share")
		return
	}
	c.Status(http.StatusNoContent)
}

// listSharedWithMe godoc
// @Summary Links shared with me
// @Description Links shared with the caller directly or through a group they belong to.
// @Tags shares
// @Produce json
// @Success 200 {object} dto.ListSharedWithMeResponse
// @Failure 401 {object} ErrorResponse
// @Router /shared-with-me [get]
func (h *shareHandler) listSharedWithMe(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	links, err := h.shareService.ListSharedWithMe(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err, "Failed to list shared links")
		return
	}
	c.JSON(http.StatusOK, dto.ToListSharedWithMeResponse(links))
}

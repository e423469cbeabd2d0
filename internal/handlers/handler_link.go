package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/dto"
	"github.com/SscSPs/referral_vault/internal/middleware"
	"github.com/gin-gonic/gin"
)

// linkHandler handles HTTP requests related to referral links and their clicks.
type linkHandler struct {
	linkService portssvc.LinkSvcFacade
}

func newLinkHandler(ls portssvc.LinkSvcFacade) *linkHandler {
	return &linkHandler{linkService: ls}
}

// registerLinkRoutes registers /links and the per-link click and share routes.
func registerLinkRoutes(rg *gin.RouterGroup, linkService portssvc.LinkSvcFacade, shareService portssvc.ShareSvcFacade) {
	h := newLinkHandler(linkService)
	sh := newShareHandler(shareService)

	links := rg.Group("/links")
	{
		links.POST("", h.createLink)
		links.GET("", h.listLinks)
		links.GET("/categories", h.listCategories)
	}

	link := rg.Group("/links/:link_id")
	{
		link.GET("", h.getLink)
		link.PUT("", h.updateLink)
		link.DELETE("", h.deleteLink)
		link.POST("/clicks", h.recordClick)
		link.GET("/shares", sh.listSharesForLink)
		link.POST("/shares", sh.createShare)
	}
}

// createLink godoc
// @Summary Store a referral link
// @Tags links
// @Accept json
// @Produce json
// @Param link body dto.CreateLinkRequest true "Link details"
// @Success 201 {object} dto.LinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /links [post]
func (h *linkHandler) createLink(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	link, err := h.linkService.CreateLink(c.Request.Context(), userID, req)
	if err != nil {
		respondWithError(c, err, "Failed to create link")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Link created", slog.String("link_id", link.LinkID))
	c.JSON(http.StatusCreated, dto.ToLinkResponse(link))
}

// listLinks godoc
// @Summary List my links
// @Description Newest first, keyset paginated. Pass nextToken from the previous page.
// @Tags links
// @Produce json
// @Param category query string false "Category filter"
// @Param limit query int false "Page size (1-200)" default(50)
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListLinksResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /links [get]
func (h *linkHandler) listLinks(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var params dto.ListLinksParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondWithBindError(c, err)
		return
	}

	links, next, err := h.linkService.ListLinks(c.Request.Context(), userID, params)
	if err != nil {
		respondWithError(c, err, "Failed to list links")
		return
	}
	c.JSON(http.StatusOK, dto.ToListLinksResponse(links, next))
}

// listCategories godoc
// @Summary List my link categories
// @Tags links
// @Produce json
// @Success 200 {object} dto.CategoriesResponse
// @Failure 401 {object} ErrorResponse
// @Router /links/categories [get]
func (h *linkHandler) listCategories(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	categories, err := h.linkService.ListCategories(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err, "Failed to list categories")
		return
	}
	c.JSON(http.StatusOK, dto.CategoriesResponse{Categories: categories})
}

// getLink godoc
// @Summary Get a link
// @Description Visible to the owner and to users the link is shared with.
// @Tags links
// @Produce json
// @Param link_id path string true "Link ID"
// @Success 200 {object} dto.LinkResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /links/{link_id} [get]
func (h *linkHandler) getLink(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	link, err := h.linkService.GetLinkByID(c.Request.Context(), userID, c.Param("link_id"))
	if err != nil {
		respondWithError(c, err, "Failed to get link")
		return
	}
	c.JSON(http.StatusOK, dto.ToLinkResponse(link))
}

// updateLink godoc
// @Summary Update a link
// @Tags links
// @Accept json
// @Produce json
// @Param link_id path string true "Link ID"
// @Param link body dto.UpdateLinkRequest true "Fields to change"
// @Success 200 {object} dto.LinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /links/{link_id} [put]
func (h *linkHandler) updateLink(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	link, err := h.linkService.UpdateLink(c.Request.Context(), userID, c.Param("link_id"), req)
	if err != nil {
		respondWithError(c, err, "Failed to update link")
		return
	}
	c.JSON(http.StatusOK, dto.ToLinkResponse(link))
}

// deleteLink godoc
// @Summary Delete a link
// @Tags links
// @Param link_id path string true "Link ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /links/{link_id} [delete]
func (h *linkHandler) deleteLink(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.linkService.DeleteLink(c.Request.Context(), userID, c.Param("link_id")); err != nil {
		respondWithError(c, err, "Failed to delete link")
		return
	}
	c.Status(http.StatusNoContent)
}

// recordClick godoc
// @Summary Record a click on a link
// @Description Allowed to the owner and to users the link is shared with. Increments the click count by one.
// @Tags links
// @Produce json
// @Param link_id path string true "Link ID"
// @Success 201 {object} dto.ClickResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /links/{link_id}/clicks [post]
func (h *linkHandler) recordClick(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	click, count, err := h.linkService.RecordClick(c.Request.Context(), userID, c.Param("link_id"), middleware.RequestMeta(c))
	if err != nil {
		respondWithError(c, err, "Failed to record click")
		return
	}
	c.JSON(http.StatusCreated, dto.ClickResponse{
		ClickID:    click.ClickID,
		LinkID:     click.LinkID,
		ClickedAt:  click.ClickedAt,
		ClickCount: count,
	})
}

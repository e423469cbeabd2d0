package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/dto"
	"github.com/SscSPs/referral_vault/internal/middleware"
	"github.com/gin-gonic/gin"
)

// groupHandler handles HTTP requests related to groups and their members.
type groupHandler struct {
	groupService portssvc.GroupSvcFacade
}

// newGroupHandler creates a new groupHandler.
func newGroupHandler(gs portssvc.GroupSvcFacade) *groupHandler {
	return &groupHandler{
		groupService: gs,
	}
}

// registerGroupRoutes registers routes related to groups and their members.
func registerGroupRoutes(rg *gin.RouterGroup, groupService portssvc.GroupSvcFacade) {
	h := newGroupHandler(groupService)

	groupsTopLevel := rg.Group("/groups")
	{
		groupsTopLevel.POST("", h.createGroup)
		groupsTopLevel.GET("", h.listUserGroups)
	}

	groupSpecific := rg.Group("/groups/:group_id")
	{
		groupSpecific.GET("", h.getGroup)
		groupSpecific.PUT("", h.updateGroup)
		groupSpecific.DELETE("", h.deleteGroup)

		members := groupSpecific.Group("/members")
		{
			members.GET("", h.listMembers)
			members.POST("", h.addMember)
			members.DELETE("/:user_id", h.removeMember)
		}
	}
}

// createGroup godoc
// @Summary Create a new group
// @Description Creates a new group with the caller as owner and first member.
// @Tags groups
// @Accept  json
// @Produce  json
// @Param   group body dto.CreateGroupRequest true "Group details"
// @Success 201 {object} dto.GroupResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Failed to create group"
// @Router /groups [post]
func (h *groupHandler) createGroup(c *gin.Context) {
	creatorUserID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logger.Info("Received request to create group", slog.String("group_name", req.Name))

	group, err := h.groupService.CreateGroup(c.Request.Context(), creatorUserID, req)
	if err != nil {
		respondWithError(c, err, "Failed to create group")
		return
	}

	logger.Info("Group created successfully", slog.String("group_id", group.GroupID))
	c.JSON(http.StatusCreated, dto.ToGroupResponse(group))
}

// listUserGroups godoc
// @Summary List groups for current user
// @Description Retrieves the groups the authenticated user owns or belongs to.
// @Tags groups
// @Produce  json
// @Success 200 {object} dto.ListGroupsResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Failed to list groups"
// @Router /groups [get]
func (h *groupHandler) listUserGroups(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	groups, err := h.groupService.ListGroups(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err, "Failed to list groups")
		return
	}
	c.JSON(http.StatusOK, dto.ToListGroupsResponse(groups))
}

// getGroup godoc
// @Summary Get a group
// @Tags groups
// @Produce json
// @Param group_id path string true "Group ID"
// @Success 200 {object} dto.GroupResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /groups/{group_id} [get]
func (h *groupHandler) getGroup(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	group, err := h.groupService.GetGroupByID(c.Request.Context(), userID, c.Param("group_id"))
	if err != nil {
		respondWithError(c, err, "Failed to get group")
		return
	}
	c.JSON(http.StatusOK, dto.ToGroupResponse(group))
}

// updateGroup godoc
// @Summary Update a group
// @Description Owner only.
// @Tags groups
// @Accept json
// @Produce json
// @Param group_id path string true "Group ID"
// @Param group body dto.UpdateGroupRequest true "Fields to change"
// @Success 200 {object} dto.GroupResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /groups/{group_id} [put]
func (h *groupHandler) updateGroup(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}
	group, err := h.groupService.UpdateGroup(c.Request.Context(), userID, c.Param("group_id"), req)
	if err != nil {
		respondWithError(c, err, "Failed to update group")
		return
	}
	c.JSON(http.StatusOK, dto.ToGroupResponse(group))
}

// deleteGroup godoc
// @Summary Delete a group
// @Description Owner only. Shares into the group are removed with it.
// @Tags groups
// @Param group_id path string true "Group ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /groups/{group_id} [delete]
func (h *groupHandler) deleteGroup(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.groupService.DeleteGroup(c.Request.Context(), userID, c.Param("group_id")); err != nil {
		respondWithError(c, err, "Failed to delete group")
		return
	}
	c.Status(http.StatusNoContent)
}

// listMembers godoc
// @Summary List group members
// @Tags groups
// @Produce json
// @Param group_id path string true "Group ID"
// @Success 200 {object} dto.ListGroupMembersResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /groups/{group_id}/members [get]
func (h *groupHandler) listMembers(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	members, err := h.groupService.ListMembers(c.Request.Context(), userID, c.Param("group_id"))
	if err != nil {
		respondWithError(c, err, "Failed to list group members")
		return
	}
	c.JSON(http.StatusOK, dto.ToListGroupMembersResponse(members))
}

// addMember godoc
// @Summary Add a user to a group
// @Description Owner only. The invitee is identified by user ID or email.
// @Tags groups
// @Accept  json
// @Produce  json
// @Param   group_id path string true "Group ID"
// @Param   member body dto.AddGroupMemberRequest true "User to add"
// @Success 201 {object} dto.GroupMemberResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Group or user not found"
// @Router /groups/{group_id}/members [post]
func (h *groupHandler) addMember(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.AddGroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}
	member, err := h.groupService.AddMember(c.Request.Context(), userID, c.Param("group_id"), req)
	if err != nil {
		respondWithError(c, err, "Failed to add group member")
		return
	}
	c.JSON(http.StatusCreated, dto.ToGroupMemberResponse(member))
}

// removeMember godoc
// @Summary Remove a member from a group
// @Description The owner may remove anyone but themselves; members may leave.
// @Tags groups
// @Param group_id path string true "Group ID"
// @Param user_id path string true "Member user ID"
// @Success 204
// @Failure 400 {object} ErrorResponse "Owner cannot be removed"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /groups/{group_id}/members/{user_id} [delete]
func (h *groupHandler) removeMember(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.groupService.RemoveMember(c.Request.Context(), userID, c.Param("group_id"), c.Param("user_id")); err != nil {
		respondWithError(c, err, "Failed to remove group member")
		return
	}
	c.Status(http.StatusNoContent)
}

package dto

import (
	"time"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// --- Group DTOs ---

// CreateGroupRequest defines data for creating a new group.
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// UpdateGroupRequest defines the editable fields of a group.
type UpdateGroupRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// GroupResponse defines data returned for a group.
type GroupResponse struct {
	GroupID       string    `json:"groupID"`
	OwnerID       string    `json:"ownerID"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	MemberCount   int       `json:"memberCount"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// ToGroupResponse converts domain.Group to DTO.
func ToGroupResponse(g *domain.Group) GroupResponse {
	return GroupResponse{
		GroupID:       g.GroupID,
		OwnerID:       g.OwnerID,
		Name:          g.Name,
		Description:   g.Description,
		MemberCount:   g.MemberCount,
		CreatedAt:     g.CreatedAt,
		LastUpdatedAt: g.LastUpdatedAt,
	}
}

// ListGroupsResponse wraps a list of groups.
type ListGroupsResponse struct {
	Groups []GroupResponse `json:"groups"`
}

// ToListGroupsResponse converts a slice of domain.Group to DTO.
func ToListGroupsResponse(gs []domain.Group) ListGroupsResponse {
	list := make([]GroupResponse, len(gs))
	for i := range gs {
		list[i] = ToGroupResponse(&gs[i])
	}
	return ListGroupsResponse{Groups: list}
}

// --- Group Membership DTOs ---

// AddGroupMemberRequest identifies the invitee by user ID or email.
type AddGroupMemberRequest struct {
	UserID *string `json:"userID" binding:"required_without=Email,omitempty,uuid"`
	Email  *string `json:"email" binding:"required_without=UserID,omitempty,email"`
}

// GroupMemberResponse defines data returned about a membership.
type GroupMemberResponse struct {
	UserID   string    `json:"userID"`
	GroupID  string    `json:"groupID"`
	Name     string    `json:"name"`
	IsOwner  bool      `json:"isOwner"`
	JoinedAt time.Time `json:"joinedAt"`
}

// ToGroupMemberResponse converts domain.GroupMember to DTO.
func ToGroupMemberResponse(m *domain.GroupMember) GroupMemberResponse {
	return GroupMemberResponse{
		UserID:   m.UserID,
		GroupID:  m.GroupID,
		Name:     m.UserName,
		IsOwner:  m.IsOwner,
		JoinedAt: m.JoinedAt,
	}
}

// ListGroupMembersResponse wraps a list of members.
type ListGroupMembersResponse struct {
	Members []GroupMemberResponse `json:"members"`
}

// ToListGroupMembersResponse converts a slice of domain.GroupMember to DTO.
func ToListGroupMembersResponse(ms []domain.GroupMember) ListGroupMembersResponse {
	list := make([]GroupMemberResponse, len(ms))
	for i := range ms {
		list[i] = ToGroupMemberResponse(&ms[i])
	}
	return ListGroupMembersResponse{Members: list}
}

package services

import (
	"context"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	"github.com/SscSPs/referral_vault/internal/dto"
)

// GroupReaderSvc defines read operations for group data
type GroupReaderSvc interface {
	// GetGroupByID retrieves a group the user can access.
	GetGroupByID(ctx context.Context, userID, groupID string) (*domain.Group, error)

	// ListGroups retrieves groups the user owns or belongs to.
	ListGroups(ctx context.Context, userID string) ([]domain.Group, error)

	// ListMembers lists members of a group the user can access.
	ListMembers(ctx context.Context, userID, groupID string) ([]domain.GroupMember, error)
}

// GroupWriterSvc defines write operations for group data
type GroupWriterSvc interface {
	// CreateGroup persists a new group with the creator as owner and first member.
	CreateGroup(ctx context.Context, userID string, req dto.CreateGroupRequest) (*domain.Group, error)

	// UpdateGroup renames or redescribes a group. Owner only.
	UpdateGroup(ctx context.Context, userID, groupID string, req dto.UpdateGroupRequest) (*domain.Group, error)

	// DeleteGroup removes a group. Owner only.
	DeleteGroup(ctx context.Context, userID, groupID string) error
}

// GroupMembershipSvc defines operations for managing group membership
type GroupMembershipSvc interface {
	// AddMember invites a user by ID or email. Owner only.
	AddMember(ctx context.Context, userID, groupID string, req dto.AddGroupMemberRequest) (*domain.GroupMember, error)

	// RemoveMember removes a member. Owner only, except members may remove themselves.
	// The owner can never be removed.
	RemoveMember(ctx context.Context, userID, groupID, memberUserID string) error
}

// GroupSvcFacade combines all group-related service interfaces
// This is a facade for clients that need access to all operations
type GroupSvcFacade interface {
	GroupReaderSvc
	GroupWriterSvc
	GroupMembershipSvc
}

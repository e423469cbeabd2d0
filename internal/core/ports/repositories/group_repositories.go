package repositories

import (
	"context"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// GroupReader defines read operations for group data
type GroupReader interface {
	// FindGroupByID retrieves a specific group by its ID.
	FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error)

	// ListGroupsByUserID retrieves groups the user owns or belongs to.
	ListGroupsByUserID(ctx context.Context, userID string) ([]domain.Group, error)
}

// GroupWriter defines write operations for group data
type GroupWriter interface {
	// SaveGroup persists a new group and its owner's membership in one transaction.
	SaveGroup(ctx context.Context, group domain.Group) error

	UpdateGroup(ctx context.Context, group domain.Group) error

	// DeleteGroup removes the group together with its memberships and shares.
	DeleteGroup(ctx context.Context, groupID string) error
}

// GroupMembershipManager defines operations for managing group memberships
type GroupMembershipManager interface {
	// AddGroupMember adds a user to a group. Existing members are left untouched.
	AddGroupMember(ctx context.Context, member domain.GroupMember) error

	// RemoveGroupMember removes a user from a group. Returns apperrors.ErrNotFound if not a member.
	RemoveGroupMember(ctx context.Context, groupID, userID string) error

	// ListGroupMembers lists members with their display names.
	ListGroupMembers(ctx context.Context, groupID string) ([]domain.GroupMember, error)

	// IsGroupMember reports whether userID is in membersOf(group).
	IsGroupMember(ctx context.Context, groupID, userID string) (bool, error)
}

// GroupRepositoryFacade combines all group-related repository interfaces
// This is a facade for clients that need access to all operations
type GroupRepositoryFacade interface {
	GroupReader
	GroupWriter
	GroupMembershipManager
}

package services

import (
	"context"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// AuthorizationGuard is the predicate family evaluated before every read or
// write of a link, group, share or click.
type AuthorizationGuard interface {
	OwnsLink(userID string, link *domain.Link) bool
	CanAccessGroup(ctx context.Context, userID string, group *domain.Group) (bool, error)
	CanEditGroup(userID string, group *domain.Group) bool
	CanShareToGroup(ctx context.Context, userID string, group *domain.Group) (bool, error)

	// CanActOnLink is true for the owner, or when a share targets the user
	// directly or a group the user belongs to.
	CanActOnLink(ctx context.Context, userID string, link *domain.Link) (bool, error)
}

// ResourceAuthorizer loads a resource and applies a predicate: a missing
// resource yields apperrors.ErrNotFound and a denied one apperrors.ErrForbidden.
type ResourceAuthorizer interface {
	AuthorizeLinkOwner(ctx context.Context, userID, linkID string) (*domain.Link, error)
	AuthorizeLinkAction(ctx context.Context, userID, linkID string) (*domain.Link, error)
	AuthorizeGroupAccess(ctx context.Context, userID, groupID string) (*domain.Group, error)
	AuthorizeGroupEdit(ctx context.Context, userID, groupID string) (*domain.Group, error)
	AuthorizeGroupShare(ctx context.Context, userID, groupID string) (*domain.Group, error)
}

// AuthorizationSvcFacade combines both guard interfaces.
type AuthorizationSvcFacade interface {
	AuthorizationGuard
	ResourceAuthorizer
}

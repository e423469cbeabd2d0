package repositories

import (
	"context"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// ShareReader defines read operations for share data
type ShareReader interface {
	FindShareByID(ctx context.Context, shareID string) (*domain.Share, error)

	// ListSharesByLinkID returns every share of a link.
	ListSharesByLinkID(ctx context.Context, linkID string) ([]domain.Share, error)

	// ListLinksSharedWithUser returns links shared with the user directly or
	// through a group the user belongs to.
	ListLinksSharedWithUser(ctx context.Context, userID string) ([]domain.SharedLink, error)
}

// ShareWriter defines write operations for share data
type ShareWriter interface {
	// SaveShare persists a share. Sharing the same link to the same target twice yields a conflict.
	SaveShare(ctx context.Context, share domain.Share) error
	DeleteShare(ctx context.Context, shareID string) error
}

// ShareRepositoryFacade combines all share-related repository interfaces
type ShareRepositoryFacade interface {
	ShareReader
	ShareWriter
}

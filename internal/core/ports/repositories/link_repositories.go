package repositories

import (
	"context"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// LinkReader defines read operations for link data
type LinkReader interface {
	// FindLinkByID retrieves a specific link by its ID.
	FindLinkByID(ctx context.Context, linkID string) (*domain.Link, error)

	// ListLinksByOwner retrieves the links of an owner, optionally by category.
	ListLinksByOwner(ctx context.Context, ownerID string, filter domain.LinkFilter) ([]domain.Link, error)

	// ListCategories returns the distinct categories an owner has used.
	ListCategories(ctx context.Context, ownerID string) ([]string, error)
}

// LinkWriter defines write operations for link data
type LinkWriter interface {
	SaveLink(ctx context.Context, link domain.Link) error
	UpdateLink(ctx context.Context, link domain.Link) error
	DeleteLink(ctx context.Context, linkID string) error
}

// ClickRecorder records link visits.
type ClickRecorder interface {
	// RecordClick inserts the click and increments the link's click count by
	// exactly one in the same transaction. Returns the new count.
	RecordClick(ctx context.Context, click domain.Click) (int64, error)
}

// LinkRepositoryFacade combines all link-related repository interfaces
type LinkRepositoryFacade interface {
	LinkReader
	LinkWriter
	ClickRecorder
}

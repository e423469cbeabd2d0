package services

import (
	"context"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	"github.com/SscSPs/referral_vault/internal/dto"
)

// LinkReaderSvc defines read operations for links
type LinkReaderSvc interface {
	// GetLinkByID returns a link visible to the user (owner or shared).
	GetLinkByID(ctx context.Context, userID, linkID string) (*domain.Link, error)

	// ListLinks returns a page of the user's own links, optionally filtered by
	// category, and the token of the next page if there is one.
	ListLinks(ctx context.Context, userID string, params dto.ListLinksParams) ([]domain.Link, *string, error)

	// ListCategories returns the distinct categories of the user's links.
	ListCategories(ctx context.Context, userID string) ([]string, error)
}

// LinkWriterSvc defines owner-only write operations for links
type LinkWriterSvc interface {
	CreateLink(ctx context.Context, userID string, req dto.CreateLinkRequest) (*domain.Link, error)
	UpdateLink(ctx context.Context, userID, linkID string, req dto.UpdateLinkRequest) (*domain.Link, error)
	DeleteLink(ctx context.Context, userID, linkID string) error
}

// ClickSvc records link visits.
type ClickSvc interface {
	// RecordClick stores a click by the user and returns it with the link's new click count.
	RecordClick(ctx context.Context, userID, linkID string, meta domain.RequestMeta) (*domain.Click, int64, error)
}

// LinkSvcFacade combines all link-related service interfaces
type LinkSvcFacade interface {
	LinkReaderSvc
	LinkWriterSvc
	ClickSvc
}

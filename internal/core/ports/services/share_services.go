package services

import (
	"context"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// ShareSvcFacade manages link visibility for non-owners.
type ShareSvcFacade interface {
	// ShareWithGroup requires owning the link and being able to share into the group.
	ShareWithGroup(ctx context.Context, userID, linkID, groupID string) (*domain.Share, error)

	// ShareWithUser requires owning the link.
	ShareWithUser(ctx context.Context, userID, linkID, targetUserID string) (*domain.Share, error)

	// ListSharesForLink requires owning the link.
	ListSharesForLink(ctx context.Context, userID, linkID string) ([]domain.Share, error)

	// RevokeShare is allowed to the link owner and the share creator.
	RevokeShare(ctx context.Context, userID, shareID string) error

	// ListSharedWithMe returns links shared with the user directly or via groups.
	ListSharedWithMe(ctx context.Context, userID string) ([]domain.SharedLink, error)
}

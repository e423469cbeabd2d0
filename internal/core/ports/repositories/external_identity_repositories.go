package repositories

import (
	"context"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// ExternalIdentityReader defines read operations for provider links.
type ExternalIdentityReader interface {
	// FindExternalIdentity looks up the link for (provider, providerAccountID).
	FindExternalIdentity(ctx context.Context, provider, providerAccountID string) (*domain.ExternalIdentity, error)
}

// ExternalIdentityWriter defines write operations for provider links.
type ExternalIdentityWriter interface {
	// SaveExternalIdentity attaches a new provider link to an existing user.
	// A duplicate (provider, providerAccountID) yields a conflict error.
	SaveExternalIdentity(ctx context.Context, identity domain.ExternalIdentity) error

	// UpdateExternalIdentityTokens refreshes tokens and raw profile of a link.
	UpdateExternalIdentityTokens(ctx context.Context, identity domain.ExternalIdentity) error

	// CreateUserWithIdentity inserts a user and its first provider link in one
	// transaction. A duplicate provider link rolls back the user as well.
	CreateUserWithIdentity(ctx context.Context, user domain.User, identity domain.ExternalIdentity) error
}

// ExternalIdentityRepositoryFacade combines all provider link interfaces.
type ExternalIdentityRepositoryFacade interface {
	ExternalIdentityReader
	ExternalIdentityWriter
}

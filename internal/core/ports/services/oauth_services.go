package services

import (
	"context"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// IdentityProvider is one configured OAuth/OIDC login strategy.
type IdentityProvider interface {
	// Name is the path segment used in /api/auth/{provider}.
	Name() string

	// AuthCodeURL returns the provider consent URL for the given state.
	AuthCodeURL(state string) string

	// Exchange trades the authorization code for tokens and the caller's profile.
	Exchange(ctx context.Context, code string) (domain.ProviderProfile, domain.ProviderTokens, error)
}

// ProviderRegistry holds the providers activated at startup.
type ProviderRegistry interface {
	Get(name string) (IdentityProvider, bool)
	Names() []string
}

// OAuthStateSvc issues and checks the CSRF state parameter of the OAuth dance.
type OAuthStateSvc interface {
	IssueState(provider string) (string, error)
	VerifyState(state, provider string) error
}

package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	"github.com/SscSPs/referral_vault/internal/platform/config"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCProvider is any OpenID Connect issuer found through discovery.
type OIDCProvider struct {
	name         string
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

// NewOIDCProvider runs issuer discovery, so it needs network access at startup.
func NewOIDCProvider(ctx context.Context, name string, cfg config.OAuthProviderConfig) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s failed: %w", cfg.IssuerURL, err)
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}
	return &OIDCProvider{
		name: name,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     provider.Endpoint(),
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (p *OIDCProvider) Name() string { return p.name }

func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *OIDCProvider) Exchange(ctx context.Context, code string) (domain.ProviderProfile, domain.ProviderTokens, error) {
	tok, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return domain.ProviderProfile{}, domain.ProviderTokens{}, fmt.Errorf("failed to exchange oauth code for token: %w", err)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return domain.ProviderProfile{}, domain.ProviderTokens{}, errors.New("id_token missing from token response")
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return domain.ProviderProfile{}, domain.ProviderTokens{}, fmt.Errorf("id token verification failed: %w", err)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return domain.ProviderProfile{}, domain.ProviderTokens{}, fmt.Errorf("failed to decode id token claims: %w", err)
	}
	profile := profileFromClaims(claims)
	profile.ProviderAccountID = idToken.Subject
	return profile, toProviderTokens(tok), nil
}

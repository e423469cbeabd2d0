package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	"github.com/SscSPs/referral_vault/internal/platform/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// IDTokenValidator checks a Google ID token for the given audience.
type IDTokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// GoogleProvider logs users in with Google and trusts the claims of the
// validated ID token.
type GoogleProvider struct {
	oauth2Config *oauth2.Config
	validate     IDTokenValidator
}

func NewGoogleProvider(cfg config.OAuthProviderConfig) *GoogleProvider {
	return &GoogleProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
		validate: idtoken.Validate,
	}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (domain.ProviderProfile, domain.ProviderTokens, error) {
	tok, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return domain.ProviderProfile{}, domain.ProviderTokens{}, fmt.Errorf("failed to exchange oauth code for token: %w", err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return domain.ProviderProfile{}, domain.ProviderTokens{}, errors.New("id_token missing from google token response")
	}
	payload, err := p.validate(ctx, rawIDToken, p.oauth2Config.ClientID)
	if err != nil {
		return domain.ProviderProfile{}, domain.ProviderTokens{}, fmt.Errorf("google ID token validation failed: %w", err)
	}

	profile := profileFromClaims(payload.Claims)
	profile.ProviderAccountID = payload.Subject
	return profile, toProviderTokens(tok), nil
}

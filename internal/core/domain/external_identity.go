package domain

import (
	"encoding/json"
	"time"
)

// ExternalIdentity links a third-party OAuth account to a local user.
// (Provider, ProviderAccountID) is globally unique.
type ExternalIdentity struct {
	ExternalIdentityID string          `json:"id"`
	UserID             string          `json:"userID"`
	Provider           string          `json:"provider"`
	ProviderAccountID  string          `json:"providerAccountID"`
	AccessToken        string          `json:"-"` // encrypted at rest when a field cipher is configured
	RefreshToken       string          `json:"-"`
	TokenExpiresAt     *time.Time      `json:"-"`
	RawProfile         json.RawMessage `json:"-"`
	CreatedAt          time.Time       `json:"createdAt"`
	LastUpdatedAt      time.Time       `json:"lastUpdatedAt"`
}

// ProviderProfile holds the claims an identity provider returned for the caller.
type ProviderProfile struct {
	ProviderAccountID string
	Email             string
	EmailVerified     bool
	FirstName         string
	LastName          string
	DisplayName       string
	AvatarURL         string
	Raw               map[string]any
}

// ProviderTokens are the OAuth tokens obtained during the callback.
type ProviderTokens struct {
	AccessToken  string
	RefreshToken string
	Expiry       *time.Time
}

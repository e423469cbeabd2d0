package services

import (
	"context"
	"time"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	"github.com/SscSPs/referral_vault/internal/dto"
)

// CredentialVerifier hashes and verifies local passwords.
type CredentialVerifier interface {
	// HashPassword returns an encoded Argon2id hash of plaintext.
	HashPassword(plaintext string) (string, error)

	// VerifyPassword reports whether candidate matches storedHash. Malformed
	// hashes are a mismatch, never an error.
	VerifyPassword(storedHash, candidate string) bool

	// VerifyDummy burns one verification against a fixed hash so that unknown
	// users cost the same as wrong passwords.
	VerifyDummy(candidate string)

	// NeedsRehash reports whether storedHash uses a legacy scheme or outdated cost parameters.
	NeedsRehash(storedHash string) bool
}

// LocalAuthSvc handles email/password signup and login.
type LocalAuthSvc interface {
	// Signup creates a local user with a password credential.
	Signup(ctx context.Context, req dto.SignupRequest, meta domain.RequestMeta) (*domain.User, error)

	// Login verifies the credential and applies the lockout policy.
	Login(ctx context.Context, email, password string, meta domain.RequestMeta) domain.AuthResult

	// GetUserByID returns the current user record.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// ProviderLinkResolver maps a provider callback onto a local user.
type ProviderLinkResolver interface {
	Resolve(ctx context.Context, provider string, profile domain.ProviderProfile, tokens domain.ProviderTokens, meta domain.RequestMeta) domain.AuthResult
}

// SessionAuthority is the single source of truth for "who is the caller".
type SessionAuthority interface {
	// Establish stores a new session for identity and returns the opaque handle.
	Establish(ctx context.Context, identity domain.Identity, meta domain.RequestMeta) (handle string, expiresAt time.Time, err error)

	// Resolve returns the identity behind handle, or nil when the handle is
	// unknown or expired. A non-nil error means the store could not be read.
	Resolve(ctx context.Context, handle string) (*domain.Identity, error)

	// Destroy removes the session behind handle.
	Destroy(ctx context.Context, handle string) error

	// DestroyAllForUser removes every session of a user.
	DestroyAllForUser(ctx context.Context, userID string) error

	// SweepExpired deletes expired session records.
	SweepExpired(ctx context.Context) (int64, error)
}

// PasswordResetSvc runs the forgot/reset password flow.
type PasswordResetSvc interface {
	// RequestReset issues a token when the email is registered. The returned
	// error is only ever a user lookup failure; unknown emails succeed silently
	// and token storage happens after the call returns.
	RequestReset(ctx context.Context, email string, meta domain.RequestMeta) error

	// RedeemReset consumes the secret and sets newPassword. Any invalid, used
	// or expired token yields apperrors.ErrInvalidToken.
	RedeemReset(ctx context.Context, secret, newPassword string, meta domain.RequestMeta) error

	// SweepExpired deletes expired tokens.
	SweepExpired(ctx context.Context) (int64, error)
}

// ResetNotifier delivers the reset secret out of band.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, toEmail, resetURL string) error
}

// AuditRecorder appends audit entries. It never fails the caller.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditLogEntry)
}

// EventTracker sends product analytics events.
type EventTracker interface {
	Track(ctx context.Context, distinctID, event string, properties map[string]any)
}

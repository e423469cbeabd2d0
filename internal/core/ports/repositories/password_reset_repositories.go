package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// PasswordResetRepository stores one-time reset tokens by hash.
type PasswordResetRepository interface {
	// SaveResetToken persists a freshly issued token.
	SaveResetToken(ctx context.Context, token domain.PasswordResetToken) error

	// FindResetTokenByHash returns apperrors.ErrNotFound for unknown hashes.
	FindResetTokenByHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error)

	// RedeemResetToken atomically marks the token used (only if it is unused and
	// unexpired at now) and replaces the owner's credential, clearing lockout
	// state. Returns the owner's user ID, or apperrors.ErrInvalidToken when the
	// conditional update matched nothing.
	RedeemResetToken(ctx context.Context, tokenHash string, newPasswordHash string, now time.Time) (string, error)

	// DeleteExpiredResetTokens sweeps tokens that expired before the given time.
	DeleteExpiredResetTokens(ctx context.Context, before time.Time) (int64, error)
}

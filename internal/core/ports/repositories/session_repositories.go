package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// SessionRepository is the durable session store. Records are keyed by the
// SHA-256 of the session handle.
type SessionRepository interface {
	// SaveSession persists a new session.
	SaveSession(ctx context.Context, session domain.Session) error

	// FindSessionByHash returns apperrors.ErrNotFound for unknown hashes.
	FindSessionByHash(ctx context.Context, tokenHash string) (*domain.Session, error)

	// TouchSession moves the last-seen and expiry timestamps forward.
	TouchSession(ctx context.Context, tokenHash string, lastSeenAt, expiresAt time.Time) error

	// DeleteSession removes a single session. Unknown hashes are not an error.
	DeleteSession(ctx context.Context, tokenHash string) error

	// DeleteSessionsByUserID removes every session of a user.
	DeleteSessionsByUserID(ctx context.Context, userID string) error

	// DeleteExpiredSessions sweeps sessions that expired before the given time.
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

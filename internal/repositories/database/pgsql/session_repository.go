package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxSessionRepository is the default durable session store.
type PgxSessionRepository struct {
	BaseRepository
}

func newPgxSessionRepository(pool *pgxpool.Pool) *PgxSessionRepository {
	return &PgxSessionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SessionRepository = (*PgxSessionRepository)(nil)

func (r *PgxSessionRepository) SaveSession(ctx context.Context, session domain.Session) error {
	query := `
		INSERT INTO sessions (
			token_hash, user_id, email, display_name, avatar_url,
			ip_address, user_agent, created_at, last_seen_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		session.TokenHash,
		session.Identity.UserID,
		session.Identity.Email,
		session.Identity.DisplayName,
		session.Identity.AvatarURL,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
		session.LastSeenAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *PgxSessionRepository) FindSessionByHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	query := `
		SELECT token_hash, user_id, email, display_name, avatar_url,
			ip_address, user_agent, created_at, last_seen_at, expires_at
		FROM sessions
		WHERE token_hash = $1;
	`
	var s domain.Session
	err := r.Pool.QueryRow(ctx, query, tokenHash).Scan(
		&s.TokenHash,
		&s.Identity.UserID,
		&s.Identity.Email,
		&s.Identity.DisplayName,
		&s.Identity.AvatarURL,
		&s.IPAddress,
		&s.UserAgent,
		&s.CreatedAt,
		&s.LastSeenAt,
		&s.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &s, nil
}

func (r *PgxSessionRepository) TouchSession(ctx context.Context, tokenHash string, lastSeenAt, expiresAt time.Time) error {
	query := `UPDATE sessions SET last_seen_at = $1, expires_at = $2 WHERE token_hash = $3;`
	cmdTag, err := r.Pool.Exec(ctx, query, lastSeenAt, expiresAt, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxSessionRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	if _, err := r.Pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1;`, tokenHash); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *PgxSessionRepository) DeleteSessionsByUserID(ctx context.Context, userID string) error {
	if _, err := r.Pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1;`, userID); err != nil {
		return fmt.Errorf("failed to delete sessions of user %s: %w", userID, err)
	}
	return nil
}

func (r *PgxSessionRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1;`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

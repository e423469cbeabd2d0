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

type PgxPasswordResetRepository struct {
	BaseRepository
}

func newPgxPasswordResetRepository(pool *pgxpool.Pool) *PgxPasswordResetRepository {
	return &PgxPasswordResetRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PasswordResetRepository = (*PgxPasswordResetRepository)(nil)

func (r *PgxPasswordResetRepository) SaveResetToken(ctx context.Context, token domain.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (token_id, user_id, token_hash, expires_at, used, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.Pool.Exec(ctx, query,
		token.TokenID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.Used,
		token.UsedAt,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}
	return nil
}

func (r *PgxPasswordResetRepository) FindResetTokenByHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	query := `
		SELECT token_id, user_id, token_hash, expires_at, used, used_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1;
	`
	var t domain.PasswordResetToken
	err := r.Pool.QueryRow(ctx, query, tokenHash).Scan(
		&t.TokenID,
		&t.UserID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.Used,
		&t.UsedAt,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reset token: %w", err)
	}
	return &t, nil
}

// RedeemResetToken consumes the token with a conditional update and sets the
// new credential in the same transaction. Of two concurrent redemptions only
// one matches the WHERE clause.
func (r *PgxPasswordResetRepository) RedeemResetToken(ctx context.Context, tokenHash string, newPasswordHash string, now time.Time) (string, error) {
	var userID string
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		consume := `
			UPDATE password_reset_tokens
			SET used = TRUE, used_at = $2
			WHERE token_hash = $1 AND used = FALSE AND expires_at > $2
			RETURNING user_id;
		`
		if err := tx.QueryRow(ctx, consume, tokenHash, now).Scan(&userID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrInvalidToken
			}
			return fmt.Errorf("failed to consume reset token: %w", err)
		}

		setPassword := `
			UPDATE users
			SET password_hash = $1, failed_login_attempts = 0, account_locked_until = NULL, last_updated_at = $2
			WHERE user_id = $3;
		`
		cmdTag, err := tx.Exec(ctx, setPassword, newPasswordHash, now, userID)
		if err != nil {
			return fmt.Errorf("failed to set new password: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (r *PgxPasswordResetRepository) DeleteExpiredResetTokens(ctx context.Context, before time.Time) (int64, error) {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM password_reset_tokens WHERE expires_at <= $1;`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgxUserRepository struct {
	BaseRepository
}

func newPgxUserRepository(pool *pgxpool.Pool) *PgxUserRepository {
	return &PgxUserRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

const userSelectQuery = `
SELECT
	user_id, email, phone, password_hash, first_name, last_name, avatar_url,
	email_verified, failed_login_attempts, account_locked_until, last_login_at,
	created_at, last_updated_at
FROM users
`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.UserID,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.AvatarURL,
		&u.EmailVerified,
		&u.FailedLoginAttempts,
		&u.AccountLockedUntil,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// insertUser is shared with the identity repository's transactional signup.
func insertUser(ctx context.Context, q querier, user domain.User) error {
	query := `
		INSERT INTO users (
			user_id, email, phone, password_hash, first_name, last_name, avatar_url,
			email_verified, failed_login_attempts, account_locked_until, last_login_at,
			created_at, last_updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := q.Exec(ctx, query,
		user.UserID,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.AvatarURL,
		user.EmailVerified,
		user.FailedLoginAttempts,
		user.AccountLockedUntil,
		user.LastLoginAt,
		user.CreatedAt,
		user.LastUpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("an account with this email or phone already exists")
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	return insertUser(ctx, r.Pool, user)
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := scanUser(r.Pool.QueryRow(ctx, userSelectQuery+`WHERE user_id = $1;`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID %s: %w", userID, err)
	}
	return user, nil
}

func (r *PgxUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.Pool.QueryRow(ctx, userSelectQuery+`WHERE LOWER(email) = LOWER($1);`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

func (r *PgxUserRepository) UpdateUserProfile(ctx context.Context, user domain.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, avatar_url = $3, last_updated_at = $4
		WHERE user_id = $5;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, user.FirstName, user.LastName, user.AvatarURL, user.LastUpdatedAt, user.UserID)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.UserID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxUserRepository) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string, updatedAt time.Time) error {
	query := `UPDATE users SET password_hash = $1, last_updated_at = $2 WHERE user_id = $3;`
	cmdTag, err := r.Pool.Exec(ctx, query, passwordHash, updatedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to update password of user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxUserRepository) UpdateLoginState(ctx context.Context, user domain.User) error {
	query := `
		UPDATE users
		SET failed_login_attempts = $1, account_locked_until = $2, last_login_at = $3
		WHERE user_id = $4;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		user.FailedLoginAttempts,
		user.AccountLockedUntil,
		user.LastLoginAt,
		user.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update login state of user %s: %w", user.UserID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

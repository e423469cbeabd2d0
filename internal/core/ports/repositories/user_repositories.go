package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// UserReader defines read operations for user data
type UserReader interface {
	// FindUserByID retrieves a specific user by their ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByEmail retrieves a user by exact (case-insensitive) email match.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// UserWriter defines write operations for user data
type UserWriter interface {
	// SaveUser persists a new user. A taken email yields a conflict error.
	SaveUser(ctx context.Context, user domain.User) error

	// UpdateUserProfile updates name and avatar fields.
	UpdateUserProfile(ctx context.Context, user domain.User) error

	// UpdatePasswordHash replaces the stored credential, e.g. after a legacy rehash.
	UpdatePasswordHash(ctx context.Context, userID string, passwordHash string, updatedAt time.Time) error
}

// UserLoginStateWriter persists the lockout state machine.
type UserLoginStateWriter interface {
	// UpdateLoginState stores FailedLoginAttempts, AccountLockedUntil and LastLoginAt.
	UpdateLoginState(ctx context.Context, user domain.User) error
}

// UserRepositoryFacade combines all user-related repository interfaces
// This is a facade for clients that need access to all operations
type UserRepositoryFacade interface {
	UserReader
	UserWriter
	UserLoginStateWriter
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/utils"
)

const (
	sessionHandleBytes = 32
	DefaultSessionTTL  = 7 * 24 * time.Hour
)

// sessionService issues opaque handles and keeps only their hashes.
type sessionService struct {
	BaseService
	sessionRepo portsrepo.SessionRepository
	ttl         time.Duration
	sliding     bool
}

// SessionServiceOption configures the session authority.
type SessionServiceOption func(*sessionService)

// WithSessionTTL sets the session lifetime.
func WithSessionTTL(ttl time.Duration) SessionServiceOption {
	return func(s *sessionService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSlidingSessions extends sessions that are past half their lifetime on use.
func WithSlidingSessions(sliding bool) SessionServiceOption {
	return func(s *sessionService) { s.sliding = sliding }
}

// WithSessionClock overrides the time source.
func WithSessionClock(clock func() time.Time) SessionServiceOption {
	return func(s *sessionService) { s.clock = clock }
}

// NewSessionService creates a new SessionAuthority.
func NewSessionService(sessionRepo portsrepo.SessionRepository, opts ...SessionServiceOption) portssvc.SessionAuthority {
	s := &sessionService{
		sessionRepo: sessionRepo,
		ttl:         DefaultSessionTTL,
		sliding:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.SessionAuthority = (*sessionService)(nil)

// Establish stores a new session for identity and returns the opaque handle.
func (s *sessionService) Establish(ctx context.Context, identity domain.Identity, meta domain.RequestMeta) (string, time.Time, error) {
	handle, err := utils.GenerateSecureRandomString(sessionHandleBytes)
	if err != nil {
		s.LogError(ctx, err, "Failed to generate session handle")
		return "", time.Time{}, fmt.Errorf("failed to generate session handle: %w", err)
	}

	now := s.Now()
	session := domain.Session{
		TokenHash:  utils.HashToken(handle),
		Identity:   identity,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.sessionRepo.SaveSession(ctx, session); err != nil {
		s.LogError(ctx, err, "Failed to save session", slog.String("user_id", identity.UserID))
		return "", time.Time{}, fmt.Errorf("failed to save session: %w", err)
	}
	return handle, session.ExpiresAt, nil
}

// Resolve returns (nil, nil) for unknown or expired sessions. A store
// failure is returned as an error so callers do not mistake it for a logout.
func (s *sessionService) Resolve(ctx context.Context, handle string) (*domain.Identity, error) {
	if handle == "" {
		return nil, nil
	}
	hash := utils.HashToken(handle)

	session, err := s.sessionRepo.FindSessionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		s.LogError(ctx, err, "Failed to read session")
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	now := s.Now()
	if session.IsExpired(now) {
		if err := s.sessionRepo.DeleteSession(ctx, hash); err != nil {
			s.LogError(ctx, err, "Failed to delete expired session")
		}
		return nil, nil
	}

	if s.sliding && session.ExpiresAt.Sub(now) < s.ttl/2 {
		if err := s.sessionRepo.TouchSession(ctx, hash, now, now.Add(s.ttl)); err != nil {
			s.LogError(ctx, err, "Failed to extend session", slog.String("user_id", session.Identity.UserID))
		}
	}

	identity := session.Identity
	return &identity, nil
}

// Destroy removes the session behind handle.
func (s *sessionService) Destroy(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteSession(ctx, utils.HashToken(handle)); err != nil {
		s.LogError(ctx, err, "Failed to delete session")
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DestroyAllForUser removes every session of a user.
func (s *sessionService) DestroyAllForUser(ctx context.Context, userID string) error {
	if err := s.sessionRepo.DeleteSessionsByUserID(ctx, userID); err != nil {
		s.LogError(ctx, err, "Failed to delete user sessions", slog.String("user_id", userID))
		return fmt.Errorf("failed to delete sessions of user %s: %w", userID, err)
	}
	return nil
}

// SweepExpired deletes expired session records.
func (s *sessionService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.DeleteExpiredSessions(ctx, s.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired sessions: %w", err)
	}
	return n, nil
}

// Package redisstore keeps sessions in Redis as an alternative to the
// Postgres sessions table.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	"github.com/SscSPs/referral_vault/internal/middleware"
	"github.com/go-redis/redis/v8"
)

// SessionStore stores each session as JSON under session:<hash> with a TTL
// equal to its remaining lifetime, plus a per-user index set used by
// DeleteSessionsByUserID.
type SessionStore struct {
	client *redis.Client
	now    func() time.Time
}

var _ portsrepo.SessionRepository = (*SessionStore)(nil)

// NewSessionStore wraps an existing client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client, now: time.Now}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}
	return client, nil
}

func sessionKey(tokenHash string) string {
	return "session:" + tokenHash
}

func userIndexKey(userID string) string {
	return "user:" + userID + ":sessions"
}

// ttlUntil returns the time left before expiresAt, or 0 if none is left.
func ttlUntil(now, expiresAt time.Time) time.Duration {
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return 0
	}
	return ttl
}

func (s *SessionStore) SaveSession(ctx context.Context, session domain.Session) error {
	ttl := ttlUntil(s.now(), session.ExpiresAt)
	if ttl == 0 {
		return apperrors.NewValidationFailedError("session already expired")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	indexKey := userIndexKey(session.Identity.UserID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.TokenHash), data, ttl)
	pipe.SAdd(ctx, indexKey, session.TokenHash)
	pipe.Expire(ctx, indexKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionStore) FindSessionByHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) TouchSession(ctx context.Context, tokenHash string, lastSeenAt, expiresAt time.Time) error {
	session, err := s.FindSessionByHash(ctx, tokenHash)
	if err != nil {
		return err
	}
	session.LastSeenAt = lastSeenAt
	session.ExpiresAt = expiresAt
	return s.SaveSession(ctx, *session)
}

func (s *SessionStore) DeleteSession(ctx context.Context, tokenHash string) error {
	session, err := s.FindSessionByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(tokenHash))
	pipe.SRem(ctx, userIndexKey(session.Identity.UserID), tokenHash)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteSessionsByUserID(ctx context.Context, userID string) error {
	indexKey := userIndexKey(userID)
	hashes, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list sessions of user %s: %w", userID, err)
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, sessionKey(h))
	}
	keys = append(keys, indexKey)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete sessions of user %s: %w", userID, err)
	}
	return nil
}

// DeleteExpiredSessions is a no-op: Redis expires session keys on its own.
func (s *SessionStore) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	middleware.GetLoggerFromCtx(ctx).Debug("Redis session store relies on key expiry", slog.Time("before", before))
	return 0, nil
}

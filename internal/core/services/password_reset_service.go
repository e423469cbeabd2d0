package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/utils"
	"github.com/google/uuid"
)

const (
	resetSecretBytes     = 32
	DefaultResetTokenTTL = time.Hour
	notificationTimeout  = 30 * time.Second
	reasonUnknownEmail   = "unknown_email"
	reasonUserHasNoEmail = "no_email_on_account"
)

// errInvalidResetToken is the single error callers see for unknown, used and expired tokens.
var errInvalidResetToken = apperrors.NewAppError(http.StatusBadRequest, "Invalid or expired reset token", apperrors.ErrInvalidToken)

// passwordResetService runs the forgot/reset password flow.
type passwordResetService struct {
	BaseService
	userRepo     portsrepo.UserRepositoryFacade
	resetRepo    portsrepo.PasswordResetRepository
	credentials  portssvc.CredentialVerifier
	sessions     portssvc.SessionAuthority
	notifier     portssvc.ResetNotifier
	audit        portssvc.AuditRecorder
	ttl          time.Duration
	resetPageURL string
	// dispatch runs token issuance and mailing; asynchronous outside tests.
	dispatch func(func())
}

// PasswordResetServiceOption configures the password reset service.
type PasswordResetServiceOption func(*passwordResetService)

// WithResetTokenTTL sets how long a reset token stays redeemable.
func WithResetTokenTTL(ttl time.Duration) PasswordResetServiceOption {
	return func(s *passwordResetService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithResetClock overrides the time source.
func WithResetClock(clock func() time.Time) PasswordResetServiceOption {
	return func(s *passwordResetService) { s.clock = clock }
}

// WithSynchronousNotifications issues and mails reset tokens inline.
func WithSynchronousNotifications() PasswordResetServiceOption {
	return func(s *passwordResetService) { s.dispatch = func(f func()) { f() } }
}

// NewPasswordResetService creates a new PasswordResetSvc. resetPageURL is the
// frontend page that receives the secret as the "token" query parameter.
func NewPasswordResetService(
	userRepo portsrepo.UserRepositoryFacade,
	resetRepo portsrepo.PasswordResetRepository,
	credentials portssvc.CredentialVerifier,
	sessions portssvc.SessionAuthority,
	notifier portssvc.ResetNotifier,
	audit portssvc.AuditRecorder,
	resetPageURL string,
	opts ...PasswordResetServiceOption,
) portssvc.PasswordResetSvc {
	s := &passwordResetService{
		userRepo:     userRepo,
		resetRepo:    resetRepo,
		credentials:  credentials,
		sessions:     sessions,
		notifier:     notifier,
		audit:        audit,
		ttl:          DefaultResetTokenTTL,
		resetPageURL: resetPageURL,
		dispatch:     func(f func()) { go f() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.PasswordResetSvc = (*passwordResetService)(nil)

// RequestReset looks the email up and returns. Known addresses get a token
// stored and mailed by the dispatcher, so the caller sees the same work and
// result whether or not the address is registered.
func (s *passwordResetService) RequestReset(ctx context.Context, email string, meta domain.RequestMeta) error {
	email = NormalizeEmail(email)

	secret, err := utils.GenerateSecureRandomString(resetSecretBytes)
	if err != nil {
		s.LogError(ctx, err, "Failed to generate reset secret")
		return fmt.Errorf("failed to generate reset secret: %w", err)
	}

	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.audit.Record(ctx, failureEntry(domain.AuditActionPasswordResetRequested, domain.ProviderLocal, nil, reasonUnknownEmail, meta))
			return nil
		}
		s.LogError(ctx, err, "Failed to look up user for password reset")
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user.Email == nil {
		s.audit.Record(ctx, failureEntry(domain.AuditActionPasswordResetRequested, domain.ProviderLocal, &user.UserID, reasonUserHasNoEmail, meta))
		return nil
	}

	s.audit.Record(ctx, successEntry(domain.AuditActionPasswordResetRequested, domain.ProviderLocal, user.UserID, meta))

	userID, to := user.UserID, *user.Email
	s.dispatch(func() {
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
		defer cancel()
		s.issueReset(bgCtx, userID, to, secret)
	})
	return nil
}

// issueReset stores the hash of secret and mails the link. Failures are only
// logged; the requester already has its answer.
func (s *passwordResetService) issueReset(ctx context.Context, userID, to, secret string) {
	now := s.Now()
	token := domain.PasswordResetToken{
		TokenID:   uuid.NewString(),
		UserID:    userID,
		TokenHash: utils.HashToken(secret),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.resetRepo.SaveResetToken(ctx, token); err != nil {
		s.LogError(ctx, err, "Failed to save reset token", slog.String("user_id", userID))
		return
	}
	if err := s.notifier.SendPasswordReset(ctx, to, s.resetLink(secret)); err != nil {
		s.LogError(ctx, err, "Failed to send password reset notification", slog.String("user_id", userID))
	}
}

// RedeemReset consumes the secret and sets newPassword.
func (s *passwordResetService) RedeemReset(ctx context.Context, secret, newPassword string, meta domain.RequestMeta) error {
	hash := utils.HashToken(secret)

	token, err := s.resetRepo.FindResetTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.audit.Record(ctx, failureEntry(domain.AuditActionPasswordReset, domain.ProviderLocal, nil, string(domain.ResetTokenUnknown), meta))
			return errInvalidResetToken
		}
		s.LogError(ctx, err, "Failed to look up reset token")
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	now := s.Now()
	if status := token.Status(now); status != domain.ResetTokenValid {
		s.audit.Record(ctx, failureEntry(domain.AuditActionPasswordReset, domain.ProviderLocal, &token.UserID, string(status), meta))
		return errInvalidResetToken
	}

	newHash, err := s.credentials.HashPassword(newPassword)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash new password")
		return fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.resetRepo.RedeemResetToken(ctx, hash, newHash, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidToken) {
			// lost the race against a concurrent redemption
			s.audit.Record(ctx, failureEntry(domain.AuditActionPasswordReset, domain.ProviderLocal, &token.UserID, string(domain.ResetTokenUsed), meta))
			return errInvalidResetToken
		}
		s.LogError(ctx, err, "Failed to redeem reset token", slog.String("user_id", token.UserID))
		return fmt.Errorf("failed to reset password: %w", err)
	}

	if err := s.sessions.DestroyAllForUser(ctx, userID); err != nil {
		s.LogError(ctx, err, "Failed to revoke sessions after password reset", slog.String("user_id", userID))
	}

	s.audit.Record(ctx, successEntry(domain.AuditActionPasswordReset, domain.ProviderLocal, userID, meta))
	s.LogInfo(ctx, "Password reset completed", slog.String("user_id", userID))
	return nil
}

// SweepExpired deletes expired tokens.
func (s *passwordResetService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.resetRepo.DeleteExpiredResetTokens(ctx, s.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep reset tokens: %w", err)
	}
	return n, nil
}

func (s *passwordResetService) resetLink(secret string) string {
	u, err := url.Parse(s.resetPageURL)
	if err != nil {
		return s.resetPageURL + "?token=" + url.QueryEscape(secret)
	}
	q := u.Query()
	q.Set("token", secret)
	u.RawQuery = q.Encode()
	return u.String()
}

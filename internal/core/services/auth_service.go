package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/dto"
	"github.com/google/uuid"
)

// localAuthService implements email/password signup and login with the
// lockout state machine.
type localAuthService struct {
	BaseService
	userRepo    portsrepo.UserRepositoryFacade
	credentials portssvc.CredentialVerifier
	audit       portssvc.AuditRecorder
	tracker     portssvc.EventTracker
	policy      domain.LockoutPolicy
}

// LocalAuthServiceOption configures the local auth service.
type LocalAuthServiceOption func(*localAuthService)

// WithLockoutPolicy overrides the default 5 attempts / 30 minutes policy.
func WithLockoutPolicy(policy domain.LockoutPolicy) LocalAuthServiceOption {
	return func(s *localAuthService) { s.policy = policy }
}

// WithLocalAuthClock overrides the time source.
func WithLocalAuthClock(clock func() time.Time) LocalAuthServiceOption {
	return func(s *localAuthService) { s.clock = clock }
}

// WithLocalAuthTracker sends signup/login analytics events.
func WithLocalAuthTracker(tracker portssvc.EventTracker) LocalAuthServiceOption {
	return func(s *localAuthService) { s.tracker = tracker }
}

// NewLocalAuthService creates a new LocalAuthSvc.
func NewLocalAuthService(userRepo portsrepo.UserRepositoryFacade, credentials portssvc.CredentialVerifier, audit portssvc.AuditRecorder, opts ...LocalAuthServiceOption) portssvc.LocalAuthSvc {
	s := &localAuthService{
		userRepo:    userRepo,
		credentials: credentials,
		audit:       audit,
		policy:      domain.DefaultLockoutPolicy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.LocalAuthSvc = (*localAuthService)(nil)

// NormalizeEmail lowercases and trims an email address for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a local user with a password credential.
func (s *localAuthService) Signup(ctx context.Context, req dto.SignupRequest, meta domain.RequestMeta) (*domain.User, error) {
	var email, phone *string
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		e := NormalizeEmail(*req.Email)
		email = &e

		if _, err := s.userRepo.FindUserByEmail(ctx, e); err == nil {
			return nil, apperrors.NewConflictError("an account with this email already exists")
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to check email availability")
			return nil, fmt.Errorf("failed to check email availability: %w", err)
		}
	}
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		p := strings.TrimSpace(*req.Phone)
		phone = &p
	}
	if email == nil && phone == nil {
		return nil, apperrors.NewValidationFailedError("email or phone is required")
	}

	hash, err := s.credentials.HashPassword(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.Now()
	user := domain.User{
		UserID:        uuid.NewString(),
		Email:         email,
		Phone:         phone,
		PasswordHash:  &hash,
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		EmailVerified: false,
		LastLoginAt:   &now,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to save new user")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.Record(ctx, successEntry(domain.AuditActionSignup, domain.ProviderLocal, user.UserID, meta))
	s.track(ctx, user.UserID, "signup", domain.ProviderLocal)
	s.LogInfo(ctx, "User signed up", slog.String("user_id", user.UserID))
	return &user, nil
}

// Login verifies the credential and applies the lockout policy.
func (s *localAuthService) Login(ctx context.Context, email, password string, meta domain.RequestMeta) domain.AuthResult {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.credentials.VerifyDummy(password)
			return s.reject(ctx, nil, domain.ReasonUnknownUser, meta)
		}
		s.LogError(ctx, err, "Failed to look up user for login")
		return domain.Failed(fmt.Errorf("failed to look up user: %w", err))
	}

	now := s.Now()
	if user.IsLocked(now) {
		return s.reject(ctx, &user.UserID, domain.ReasonAccountLocked, meta)
	}

	if !user.HasPassword() {
		s.credentials.VerifyDummy(password)
		return s.reject(ctx, &user.UserID, domain.ReasonNoLocalPassword, meta)
	}

	if !s.credentials.VerifyPassword(*user.PasswordHash, password) {
		locked := user.RegisterFailedLogin(now, s.policy)
		if err := s.userRepo.UpdateLoginState(ctx, *user); err != nil {
			s.LogError(ctx, err, "Failed to persist failed login attempt", slog.String("user_id", user.UserID))
			return domain.Failed(fmt.Errorf("failed to record login attempt: %w", err))
		}
		if locked {
			s.LogWarn(ctx, "Account locked after repeated failed logins",
				slog.String("user_id", user.UserID),
				slog.Time("locked_until", *user.AccountLockedUntil))
		}
		return s.reject(ctx, &user.UserID, domain.ReasonInvalidPassword, meta)
	}

	user.RegisterSuccessfulLogin(now)
	if err := s.userRepo.UpdateLoginState(ctx, *user); err != nil {
		s.LogError(ctx, err, "Failed to persist successful login", slog.String("user_id", user.UserID))
		return domain.Failed(fmt.Errorf("failed to record login: %w", err))
	}
	s.upgradeHash(ctx, user, password)

	s.audit.Record(ctx, successEntry(domain.AuditActionLogin, domain.ProviderLocal, user.UserID, meta))
	s.track(ctx, user.UserID, "login", domain.ProviderLocal)
	return domain.Accepted(user)
}

// GetUserByID returns the current user record.
func (s *localAuthService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get user by ID", slog.String("user_id", userID))
		}
		return nil, err
	}
	return user, nil
}

// upgradeHash re-hashes legacy or under-cost credentials after a successful
// login. Failure leaves the old, still valid hash in place.
func (s *localAuthService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	if !s.credentials.NeedsRehash(*user.PasswordHash) {
		return
	}
	hash, err := s.credentials.HashPassword(password)
	if err != nil {
		s.LogError(ctx, err, "Failed to rehash password", slog.String("user_id", user.UserID))
		return
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.UserID, hash, s.Now()); err != nil {
		s.LogError(ctx, err, "Failed to store rehashed password", slog.String("user_id", user.UserID))
		return
	}
	user.PasswordHash = &hash
	s.LogInfo(ctx, "Upgraded password hash", slog.String("user_id", user.UserID))
}

func (s *localAuthService) reject(ctx context.Context, userID *string, reason domain.AuthFailureReason, meta domain.RequestMeta) domain.AuthResult {
	s.audit.Record(ctx, failureEntry(domain.AuditActionLoginFailed, domain.ProviderLocal, userID, string(reason), meta))
	s.LogInfo(ctx, "Login rejected", slog.String("reason", string(reason)))
	return domain.Rejected(reason)
}

func (s *localAuthService) track(ctx context.Context, userID, event, provider string) {
	if s.tracker == nil {
		return
	}
	s.tracker.Track(ctx, userID, event, map[string]any{"provider": provider})
}

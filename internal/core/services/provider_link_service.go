package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/google/uuid"
)

// resolveAttempts bounds the retries after a lost insert race.
const resolveAttempts = 3

// providerLinkService maps provider callbacks to local users.
type providerLinkService struct {
	BaseService
	userRepo     portsrepo.UserRepositoryFacade
	identityRepo portsrepo.ExternalIdentityRepositoryFacade
	audit        portssvc.AuditRecorder
	tracker      portssvc.EventTracker
}

// ProviderLinkServiceOption configures the provider link resolver.
type ProviderLinkServiceOption func(*providerLinkService)

// WithProviderLinkClock overrides the time source.
func WithProviderLinkClock(clock func() time.Time) ProviderLinkServiceOption {
	return func(s *providerLinkService) { s.clock = clock }
}

// WithProviderLinkTracker sends login/signup analytics events.
func WithProviderLinkTracker(tracker portssvc.EventTracker) ProviderLinkServiceOption {
	return func(s *providerLinkService) { s.tracker = tracker }
}

// NewProviderLinkService creates a new ProviderLinkResolver.
func NewProviderLinkService(userRepo portsrepo.UserRepositoryFacade, identityRepo portsrepo.ExternalIdentityRepositoryFacade, audit portssvc.AuditRecorder, opts ...ProviderLinkServiceOption) portssvc.ProviderLinkResolver {
	s := &providerLinkService{
		userRepo:     userRepo,
		identityRepo: identityRepo,
		audit:        audit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.ProviderLinkResolver = (*providerLinkService)(nil)

// Resolve applies, in order: existing provider link, link by verified email,
// new user. Insert races on the unique keys restart the resolution so that
// duplicate callbacks converge on the same user.
func (s *providerLinkService) Resolve(ctx context.Context, provider string, profile domain.ProviderProfile, tokens domain.ProviderTokens, meta domain.RequestMeta) domain.AuthResult {
	if profile.ProviderAccountID == "" {
		s.audit.Record(ctx, failureEntry(domain.AuditActionLoginFailed, provider, nil, string(domain.ReasonMissingAccount), meta))
		return domain.Rejected(domain.ReasonMissingAccount)
	}
	profile.Email = NormalizeEmail(profile.Email)

	rawProfile, err := json.Marshal(profile.Raw)
	if err != nil {
		rawProfile = []byte("{}")
	}

	var (
		user    *domain.User
		created bool
	)
	for attempt := 0; attempt < resolveAttempts && user == nil; attempt++ {
		var result *domain.AuthResult
		user, created, result = s.resolveOnce(ctx, provider, profile, tokens, rawProfile, meta)
		if result != nil {
			return *result
		}
	}
	if user == nil {
		err := fmt.Errorf("could not resolve %s identity after %d attempts", provider, resolveAttempts)
		s.LogError(ctx, err, "Provider identity resolution did not converge")
		return domain.Failed(err)
	}

	now := s.Now()
	user.FailedLoginAttempts = 0
	user.LastLoginAt = &now
	if err := s.userRepo.UpdateLoginState(ctx, *user); err != nil {
		s.LogError(ctx, err, "Failed to record provider login", slog.String("user_id", user.UserID))
		return domain.Failed(fmt.Errorf("failed to record login: %w", err))
	}

	if created {
		s.audit.Record(ctx, successEntry(domain.AuditActionSignup, provider, user.UserID, meta))
		s.track(ctx, user.UserID, "signup", provider)
	}
	s.audit.Record(ctx, successEntry(domain.AuditActionLogin, provider, user.UserID, meta))
	s.track(ctx, user.UserID, "login", provider)
	s.LogInfo(ctx, "Provider login resolved", slog.String("provider", provider), slog.String("user_id", user.UserID), slog.Bool("new_user", created))
	return domain.Accepted(user)
}

// resolveOnce runs one pass of the resolution order. A nil user with a nil
// result means a concurrent insert won and the caller should retry.
func (s *providerLinkService) resolveOnce(ctx context.Context, provider string, profile domain.ProviderProfile, tokens domain.ProviderTokens, rawProfile []byte, meta domain.RequestMeta) (*domain.User, bool, *domain.AuthResult) {
	now := s.Now()

	// 1. known provider account
	identity, err := s.identityRepo.FindExternalIdentity(ctx, provider, profile.ProviderAccountID)
	switch {
	case err == nil:
		identity.AccessToken = tokens.AccessToken
		if tokens.RefreshToken != "" {
			identity.RefreshToken = tokens.RefreshToken
		}
		identity.TokenExpiresAt = tokens.Expiry
		identity.RawProfile = rawProfile
		identity.LastUpdatedAt = now
		if err := s.identityRepo.UpdateExternalIdentityTokens(ctx, *identity); err != nil {
			return nil, false, s.failed(ctx, err, "Failed to refresh provider tokens")
		}
		user, err := s.userRepo.FindUserByID(ctx, identity.UserID)
		if err != nil {
			return nil, false, s.failed(ctx, err, "Failed to load user of provider identity")
		}
		s.refreshProfile(ctx, user, profile, now)
		return user, false, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, false, s.failed(ctx, err, "Failed to look up provider identity")
	}

	newIdentity := domain.ExternalIdentity{
		ExternalIdentityID: uuid.NewString(),
		Provider:           provider,
		ProviderAccountID:  profile.ProviderAccountID,
		AccessToken:        tokens.AccessToken,
		RefreshToken:       tokens.RefreshToken,
		TokenExpiresAt:     tokens.Expiry,
		RawProfile:         rawProfile,
		CreatedAt:          now,
		LastUpdatedAt:      now,
	}

	// 2. existing user with the same email
	if profile.Email != "" {
		existing, err := s.userRepo.FindUserByEmail(ctx, profile.Email)
		switch {
		case err == nil:
			if !profile.EmailVerified {
				s.audit.Record(ctx, failureEntry(domain.AuditActionLoginFailed, provider, &existing.UserID, string(domain.ReasonEmailUnverified), meta))
				s.LogWarn(ctx, "Refusing to link provider identity with unverified email", slog.String("provider", provider))
				result := domain.Rejected(domain.ReasonEmailUnverified)
				return nil, false, &result
			}
			newIdentity.UserID = existing.UserID
			if err := s.identityRepo.SaveExternalIdentity(ctx, newIdentity); err != nil {
				if errors.Is(err, apperrors.ErrDuplicate) {
					return nil, false, nil
				}
				return nil, false, s.failed(ctx, err, "Failed to link provider identity to existing user")
			}
			s.LogInfo(ctx, "Linked provider identity to existing user by email", slog.String("provider", provider), slog.String("user_id", existing.UserID))
			return existing, false, nil
		case !errors.Is(err, apperrors.ErrNotFound):
			return nil, false, s.failed(ctx, err, "Failed to look up user by provider email")
		}
	}

	// 3. brand new user
	user := newUserFromProfile(profile, now)
	newIdentity.UserID = user.UserID
	if err := s.identityRepo.CreateUserWithIdentity(ctx, user, newIdentity); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, false, nil
		}
		return nil, false, s.failed(ctx, err, "Failed to create user from provider profile")
	}
	return &user, true, nil
}

// refreshProfile copies the provider avatar onto user and fills names the
// user never set. Local edits to names win. Failures are logged only.
func (s *providerLinkService) refreshProfile(ctx context.Context, user *domain.User, profile domain.ProviderProfile, now time.Time) {
	fresh := newUserFromProfile(profile, now)
	changed := false
	if fresh.AvatarURL != nil && (user.AvatarURL == nil || *user.AvatarURL != *fresh.AvatarURL) {
		user.AvatarURL = fresh.AvatarURL
		changed = true
	}
	if user.FirstName == "" && user.LastName == "" && (fresh.FirstName != "" || fresh.LastName != "") {
		user.FirstName, user.LastName = fresh.FirstName, fresh.LastName
		changed = true
	}
	if !changed {
		return
	}
	user.LastUpdatedAt = now
	if err := s.userRepo.UpdateUserProfile(ctx, *user); err != nil {
		s.LogError(ctx, err, "Failed to refresh profile from provider", slog.String("user_id", user.UserID))
	}
}

func (s *providerLinkService) failed(ctx context.Context, err error, msg string) *domain.AuthResult {
	s.LogError(ctx, err, msg)
	result := domain.Failed(fmt.Errorf("%s: %w", strings.ToLower(msg[:1])+msg[1:], err))
	return &result
}

func (s *providerLinkService) track(ctx context.Context, userID, event, provider string) {
	if s.tracker == nil {
		return
	}
	s.tracker.Track(ctx, userID, event, map[string]any{"provider": provider})
}

func newUserFromProfile(profile domain.ProviderProfile, now time.Time) domain.User {
	first, last := strings.TrimSpace(profile.FirstName), strings.TrimSpace(profile.LastName)
	if first == "" && last == "" && profile.DisplayName != "" {
		parts := strings.SplitN(strings.TrimSpace(profile.DisplayName), " ", 2)
		first = parts[0]
		if len(parts) == 2 {
			last = strings.TrimSpace(parts[1])
		}
	}

	user := domain.User{
		UserID:        uuid.NewString(),
		FirstName:     first,
		LastName:      last,
		EmailVerified: profile.EmailVerified,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	// an unverified address is not stored, so it cannot squat on a local signup
	if profile.Email != "" && profile.EmailVerified {
		email := profile.Email
		user.Email = &email
	}
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		user.AvatarURL = &avatar
	}
	return user
}

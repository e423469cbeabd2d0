package services

import (
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/platform/config"
)

// Dependencies are the non-repository collaborators built in main.
type Dependencies struct {
	Credentials portssvc.CredentialVerifier
	Notifier    portssvc.ResetNotifier
	Tracker     portssvc.EventTracker
	Providers   portssvc.ProviderRegistry
	OAuthState  portssvc.OAuthStateSvc
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, deps Dependencies) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{
		Providers:  deps.Providers,
		OAuthState: deps.OAuthState,
		Tracker:    deps.Tracker,
	}

	// Audit and sessions first; the auth services depend on them
	container.Audit = NewAuditService(repos.AuditLogRepo)
	container.Sessions = NewSessionService(
		repos.SessionRepo,
		WithSessionTTL(cfg.SessionTTL),
		WithSlidingSessions(cfg.SessionSliding),
	)

	container.LocalAuth = NewLocalAuthService(
		repos.UserRepo,
		deps.Credentials,
		container.Audit,
		WithLockoutPolicy(domain.LockoutPolicy{
			MaxFailedAttempts: cfg.LockoutMaxAttempts,
			LockoutDuration:   cfg.LockoutDuration,
		}),
		WithLocalAuthTracker(deps.Tracker),
	)
	container.ProviderResolver = NewProviderLinkService(
		repos.UserRepo,
		repos.ExternalIdentityRepo,
		container.Audit,
		WithProviderLinkTracker(deps.Tracker),
	)
	container.PasswordReset = NewPasswordResetService(
		repos.UserRepo,
		repos.PasswordResetRepo,
		deps.Credentials,
		container.Sessions,
		deps.Notifier,
		container.Audit,
		cfg.FrontendBaseURL+"/reset-password",
		WithResetTokenTTL(cfg.ResetTokenTTL),
	)

	container.Guard = NewAuthorizationService(repos.LinkRepo, repos.GroupRepo, repos.ShareRepo)
	container.Link = NewLinkService(repos.LinkRepo, container.Guard, WithLinkTracker(deps.Tracker))
	container.Group = NewGroupService(repos.GroupRepo, repos.UserRepo, container.Guard)
	container.Share = NewShareService(
		repos.ShareRepo,
		repos.LinkRepo,
		repos.UserRepo,
		container.Guard,
		WithShareTracker(deps.Tracker),
	)

	return container
}

package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	LocalAuth        LocalAuthSvc
	ProviderResolver ProviderLinkResolver
	Sessions         SessionAuthority
	PasswordReset    PasswordResetSvc
	Guard            AuthorizationSvcFacade
	Link             LinkSvcFacade
	Group            GroupSvcFacade
	Share            ShareSvcFacade
	Providers        ProviderRegistry
	OAuthState       OAuthStateSvc
	Audit            AuditRecorder
	Tracker          EventTracker
}

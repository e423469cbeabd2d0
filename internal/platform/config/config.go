package config

import (
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	insecureSessionSecret = "default_insecure_session_secret_please_change_this_!@#$"

	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

// OAuthProviderConfig holds the credentials of one login provider.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	IssuerURL    string // generic OIDC only
	RedirectURL  string
	Scopes       []string
}

// Enabled reports whether both halves of the client credentials are present.
func (p OAuthProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// SMTPConfig configures outbound mail for password resets.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether a mail server is configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// Sessions
	SessionSecret       string
	SessionTTL          time.Duration
	SessionSliding      bool
	SessionCookieName   string
	SessionCookieSecure bool
	SessionStore        string
	RedisURL            string

	// Credentials
	EncryptionKey      string // hex, 32 bytes
	LockoutMaxAttempts int
	LockoutDuration    time.Duration
	ResetTokenTTL      time.Duration
	Argon2MemoryKiB    uint32
	Argon2Iterations   uint32
	Argon2Parallelism  uint8
	LoginRateLimit     string
	APIRateLimit       string

	// HTTP
	CORSAllowedOrigins   []string
	FrontendBaseURL      string
	OAuthCallbackBaseURL string

	// OAuthProviders maps provider name (google, github, or OIDC_NAME) to its
	// credentials. Only fully configured providers are present.
	OAuthProviders map[string]OAuthProviderConfig

	SMTP                SMTPConfig
	PosthogAPIKey       string
	PosthogEndpoint     string
	MaintenanceInterval time.Duration
}

// ProviderNames returns the configured provider names in a stable order.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.OAuthProviders))
	for name := range c.OAuthProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	setDefaults()

	// Actual environment variables override .env values and defaults.
	viper.AutomaticEnv()

	return fromViper()
}

func setDefaults() {
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("SESSION_SECRET", insecureSessionSecret)
	viper.SetDefault("SESSION_TTL", "168h")
	viper.SetDefault("SESSION_SLIDING", true)
	viper.SetDefault("SESSION_COOKIE_NAME", "rv_sid")
	viper.SetDefault("SESSION_COOKIE_SECURE", false)
	viper.SetDefault("SESSION_STORE", SessionStorePostgres)
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("ENCRYPTION_KEY", "")
	viper.SetDefault("LOCKOUT_MAX_ATTEMPTS", 5)
	viper.SetDefault("LOCKOUT_DURATION", "30m")
	viper.SetDefault("RESET_TOKEN_TTL", "1h")
	viper.SetDefault("ARGON2_MEMORY_KIB", 64*1024)
	viper.SetDefault("ARGON2_ITERATIONS", 1)
	viper.SetDefault("ARGON2_PARALLELISM", 4)
	viper.SetDefault("LOGIN_RATE_LIMIT", "10-M")
	viper.SetDefault("API_RATE_LIMIT", "300-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	viper.SetDefault("OAUTH_CALLBACK_BASE_URL", "http://localhost:8080")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("GITHUB_CLIENT_ID", "")
	viper.SetDefault("GITHUB_CLIENT_SECRET", "")
	viper.SetDefault("OIDC_CLIENT_ID", "")
	viper.SetDefault("OIDC_CLIENT_SECRET", "")
	viper.SetDefault("OIDC_ISSUER_URL", "")
	viper.SetDefault("OIDC_NAME", "oidc")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SMTP_FROM", "no-reply@localhost")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "")
	viper.SetDefault("MAINTENANCE_INTERVAL", "15m")
}

func fromViper() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.SessionSecret = viper.GetString("SESSION_SECRET")
	if cfg.SessionSecret == "" || cfg.SessionSecret == insecureSessionSecret {
		if cfg.IsProduction {
			return nil, errors.New("SESSION_SECRET must be set in production")
		}
		log.Println("Warning: SESSION_SECRET is not set, using default insecure secret. THIS IS NOT FOR PRODUCTION.")
		cfg.SessionSecret = insecureSessionSecret
	}
	cfg.SessionTTL = durationOr("SESSION_TTL", 7*24*time.Hour)
	cfg.SessionSliding = viper.GetBool("SESSION_SLIDING")
	cfg.SessionCookieName = viper.GetString("SESSION_COOKIE_NAME")
	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = "rv_sid"
	}
	cfg.SessionCookieSecure = viper.GetBool("SESSION_COOKIE_SECURE") || cfg.IsProduction

	cfg.SessionStore = strings.ToLower(viper.GetString("SESSION_STORE"))
	switch cfg.SessionStore {
	case SessionStorePostgres, SessionStoreRedis:
	default:
		log.Printf("Warning: unknown SESSION_STORE ('%s'). Defaulting to %s.\n", cfg.SessionStore, SessionStorePostgres)
		cfg.SessionStore = SessionStorePostgres
	}
	cfg.RedisURL = viper.GetString("REDIS_URL")

	cfg.EncryptionKey = viper.GetString("ENCRYPTION_KEY")
	if cfg.EncryptionKey == "" {
		if cfg.IsProduction {
			return nil, errors.New("ENCRYPTION_KEY must be set in production")
		}
		log.Println("Warning: ENCRYPTION_KEY not set. Link URLs, notes and provider tokens are stored in plaintext.")
	}

	cfg.LockoutMaxAttempts = viper.GetInt("LOCKOUT_MAX_ATTEMPTS")
	if cfg.LockoutMaxAttempts <= 0 {
		cfg.LockoutMaxAttempts = 5
	}
	cfg.LockoutDuration = durationOr("LOCKOUT_DURATION", 30*time.Minute)
	cfg.ResetTokenTTL = durationOr("RESET_TOKEN_TTL", time.Hour)
	cfg.Argon2MemoryKiB = viper.GetUint32("ARGON2_MEMORY_KIB")
	cfg.Argon2Iterations = viper.GetUint32("ARGON2_ITERATIONS")
	cfg.Argon2Parallelism = uint8(viper.GetUint("ARGON2_PARALLELISM"))
	cfg.LoginRateLimit = viper.GetString("LOGIN_RATE_LIMIT")
	cfg.APIRateLimit = viper.GetString("API_RATE_LIMIT")

	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.FrontendBaseURL = strings.TrimRight(viper.GetString("FRONTEND_BASE_URL"), "/")
	cfg.OAuthCallbackBaseURL = strings.TrimRight(viper.GetString("OAUTH_CALLBACK_BASE_URL"), "/")

	cfg.OAuthProviders = buildProviders(cfg.OAuthCallbackBaseURL)

	cfg.SMTP = SMTPConfig{
		Host:     viper.GetString("SMTP_HOST"),
		Port:     viper.GetInt("SMTP_PORT"),
		Username: viper.GetString("SMTP_USERNAME"),
		Password: viper.GetString("SMTP_PASSWORD"),
		From:     viper.GetString("SMTP_FROM"),
	}
	if !cfg.SMTP.Enabled() {
		log.Println("Warning: SMTP_HOST not set. Password reset mails are only logged.")
	}

	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PosthogEndpoint = viper.GetString("POSTHOG_ENDPOINT")
	cfg.MaintenanceInterval = durationOr("MAINTENANCE_INTERVAL", 15*time.Minute)

	return cfg, nil
}

// buildProviders activates each provider only when both client ID and secret are set.
func buildProviders(callbackBase string) map[string]OAuthProviderConfig {
	candidates := map[string]OAuthProviderConfig{
		"google": {
			ClientID:     viper.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: viper.GetString("GOOGLE_CLIENT_SECRET"),
			Scopes:       []string{"openid", "email", "profile"},
		},
		"github": {
			ClientID:     viper.GetString("GITHUB_CLIENT_ID"),
			ClientSecret: viper.GetString("GITHUB_CLIENT_SECRET"),
			Scopes:       []string{"read:user", "user:email"},
		},
	}
	if issuer := viper.GetString("OIDC_ISSUER_URL"); issuer != "" {
		name := strings.ToLower(viper.GetString("OIDC_NAME"))
		if name == "" || name == "google" || name == "github" {
			name = "oidc"
		}
		candidates[name] = OAuthProviderConfig{
			ClientID:     viper.GetString("OIDC_CLIENT_ID"),
			ClientSecret: viper.GetString("OIDC_CLIENT_SECRET"),
			IssuerURL:    issuer,
			Scopes:       []string{"openid", "email", "profile"},
		}
	}

	providers := make(map[string]OAuthProviderConfig)
	for name, p := range candidates {
		if !p.Enabled() {
			if p.ClientID != "" || p.ClientSecret != "" {
				log.Printf("Warning: %s OAuth is half configured (client ID and secret are both required). It will not be enabled.\n", name)
			}
			continue
		}
		p.RedirectURL = callbackBase + "/api/auth/" + name + "/callback"
		providers[name] = p
	}
	return providers
}

func durationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		}
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

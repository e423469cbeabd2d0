package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	"github.com/SscSPs/referral_vault/internal/core/services"
	"github.com/SscSPs/referral_vault/internal/handlers"
	"github.com/SscSPs/referral_vault/internal/middleware"
	"github.com/SscSPs/referral_vault/internal/platform/analytics"
	"github.com/SscSPs/referral_vault/internal/platform/config"
	"github.com/SscSPs/referral_vault/internal/platform/mailer"
	"github.com/SscSPs/referral_vault/internal/platform/oauth"
	"github.com/SscSPs/referral_vault/internal/repositories/cache/redisstore"
	"github.com/SscSPs/referral_vault/internal/repositories/database/pgsql"
	"github.com/SscSPs/referral_vault/internal/utils"
	"github.com/SscSPs/referral_vault/pkg/database"
	"github.com/gin-gonic/gin"
)

// @title Referral Vault API
// @version 1.0
// @description Stores referral links, shares them with people and groups, and counts clicks.

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name rv_sid
// @description Signed session cookie set by /auth/login, /auth/signup or a provider callback.
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	hasher, err := utils.NewPasswordHasher(utils.Argon2Params{
		MemoryKiB:   cfg.Argon2MemoryKiB,
		Iterations:  cfg.Argon2Iterations,
		Parallelism: cfg.Argon2Parallelism,
		SaltLength:  utils.DefaultArgon2Params.SaltLength,
		KeyLength:   utils.DefaultArgon2Params.KeyLength,
	})
	if err != nil {
		logger.Error("Invalid Argon2 parameters", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cipher, err := utils.NewFieldCipher(cfg.EncryptionKey)
	if err != nil {
		logger.Error("Invalid ENCRYPTION_KEY", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !cipher.Enabled() {
		logger.Warn("ENCRYPTION_KEY not set; link URLs, notes and provider tokens are stored in plaintext")
	}

	var sessionRepo repositories.SessionRepository
	if cfg.SessionStore == config.SessionStoreRedis {
		redisClient, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		sessionRepo = redisstore.NewSessionStore(redisClient)
		logger.Info("Using redis session store")
	}
	repos := pgsql.NewRepositoryProvider(dbPool, cipher, sessionRepo)

	providers, err := oauth.NewRegistry(ctx, cfg.OAuthProviders, logger)
	if err != nil {
		logger.Error("Failed to configure login providers", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Login providers enabled", slog.Any("providers", providers.Names()))

	tracker, err := analytics.NewTracker(cfg.PosthogAPIKey, cfg.PosthogEndpoint)
	if err != nil {
		logger.Error("Failed to initialize analytics", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := tracker.Close(); cerr != nil {
			logger.Error("Error flushing analytics", slog.String("error", cerr.Error()))
		}
	}()

	container := services.NewServiceContainer(cfg, repos, services.Dependencies{
		Credentials: hasher,
		Notifier:    mailer.New(cfg.SMTP),
		Tracker:     tracker,
		Providers:   providers,
		OAuthState:  oauth.NewStateSigner(cfg.SessionSecret),
	})

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, cors)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), middleware.CORS(cfg.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, container, dbPool.Ping); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	go runMaintenance(ctx, container.Sessions, container.PasswordReset, cfg.MaintenanceInterval, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown failed", slog.String("error", err.Error()))
	}
}

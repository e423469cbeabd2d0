package handlers

import (
	"fmt"

	"github.com/SscSPs/referral_vault/cmd/docs"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/middleware"
	"github.com/SscSPs/referral_vault/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SessionCookieFromConfig builds the session cookie settings.
func SessionCookieFromConfig(cfg *config.Config) middleware.SessionCookie {
	return middleware.SessionCookie{
		Name:    cfg.SessionCookieName,
		Secret:  cfg.SessionSecret,
		Secure:  cfg.SessionCookieSecure,
		MaxAge:  cfg.SessionTTL,
		Sliding: cfg.SessionSliding,
	}
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	health HealthChecker,
) error {
	if err := registerValidators(); err != nil {
		return err
	}
	cookie := SessionCookieFromConfig(cfg)

	r.GET("/health", getHealth(health))

	api := r.Group("/api", middleware.LoadIdentity(services.Sessions, cookie))

	if err := registerAuthRoutes(api, cfg, services, cookie); err != nil {
		return err
	}

	if err := setupProtectedRoutes(api, cfg, services); err != nil {
		return err
	}

	setupSwaggerRoutes(r, cfg)
	return nil
}

// registerAuthRoutes sets up /api/auth. Credential endpoints share one IP rate limit.
func registerAuthRoutes(api *gin.RouterGroup, cfg *config.Config, services *portssvc.ServiceContainer, cookie middleware.SessionCookie) error {
	ipLimiter, err := middleware.NewIPLimiter(cfg.LoginRateLimit)
	if err != nil {
		return fmt.Errorf("invalid LOGIN_RATE_LIMIT %q: %w", cfg.LoginRateLimit, err)
	}
	limit := middleware.RateLimit(ipLimiter)

	h := newAuthHandler(services, cookie)
	oh := newOAuthHandler(services, cookie, cfg.FrontendBaseURL)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", limit, h.signup)
		auth.POST("/login", limit, h.login)
		auth.POST("/forgot-password", limit, h.forgotPassword)
		auth.POST("/reset-password", limit, h.resetPassword)
		auth.POST("/logout", h.logout)
		auth.GET("/user", h.currentUser)
		auth.GET("/providers", h.listProviders)
		auth.GET("/:provider", oh.authorize)
		auth.GET("/:provider/callback", oh.callback)
	}
	return nil
}

// setupProtectedRoutes registers the resource routes behind RequireIdentity.
// An empty APIRateLimit disables the per-IP API limit.
func setupProtectedRoutes(api *gin.RouterGroup, cfg *config.Config, services *portssvc.ServiceContainer) error {
	protected := api.Group("", middleware.RequireIdentity(), middleware.AnalyticsMiddleware(services.Tracker))
	if cfg.APIRateLimit != "" {
		apiLimiter, err := middleware.NewIPLimiter(cfg.APIRateLimit)
		if err != nil {
			return fmt.Errorf("invalid API_RATE_LIMIT %q: %w", cfg.APIRateLimit, err)
		}
		protected.Use(middleware.GinMiddlewarize(apiLimiter))
	}

	registerLinkRoutes(protected, services.Link, services.Share)
	registerShareRoutes(protected, services.Share)
	registerGroupRoutes(protected, services.Group)
	return nil
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/referral_vault/internal/middleware"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker func(ctx context.Context) error

const healthCheckTimeout = 2 * time.Second

// getHealth godoc
// @Summary Show the status of server.
// @Description Pings the database when a checker is configured.
// @Tags root
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func getHealth(check HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			defer cancel()
			if err := check(ctx); err != nil {
				middleware.GetLoggerFromCtx(ctx).Error("Health check failed", slog.String("error", err.Error()))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

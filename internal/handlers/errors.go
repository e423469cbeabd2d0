package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondWithError maps a service error to its status. Messages of AppErrors
// are client safe; anything else is logged and replaced by a generic text.
func respondWithError(c *gin.Context, err error, fallback string) {
	status := apperrors.StatusCode(err)
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if status >= http.StatusInternalServerError {
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(status, ErrorResponse{Error: "Internal server error"})
		return
	}

	message := http.StatusText(status)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}
	logger.Debug(fallback, slog.Int("status", status), slog.String("error", err.Error()))
	c.JSON(status, ErrorResponse{Error: message})
}

// respondWithBindError answers 400 with per-field rules.
func respondWithBindError(c *gin.Context, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request", slog.String("error", err.Error()))
	fields := fieldErrors(err)
	if fields == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format"})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: fields})
}

// callerID returns the authenticated user ID or answers 401.
func callerID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return "", false
	}
	return userID, true
}

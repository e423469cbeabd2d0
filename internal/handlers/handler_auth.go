package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/dto"
	"github.com/SscSPs/referral_vault/internal/middleware"
	"github.com/gin-gonic/gin"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgAccountLocked      = "Account temporarily locked. Please try again later."
	msgForgotPassword     = "If an account exists for that email, a reset link has been sent."
	msgInvalidResetToken  = "Invalid or expired reset token"
	msgPasswordReset      = "Password has been reset. Please log in."
	msgLoggedOut          = "Logged out"
)

// authHandler serves the local credential and session endpoints.
type authHandler struct {
	auth      portssvc.LocalAuthSvc
	sessions  portssvc.SessionAuthority
	reset     portssvc.PasswordResetSvc
	audit     portssvc.AuditRecorder
	providers portssvc.ProviderRegistry
	cookie    middleware.SessionCookie
}

func newAuthHandler(services *portssvc.ServiceContainer, cookie middleware.SessionCookie) *authHandler {
	return &authHandler{
		auth:      services.LocalAuth,
		sessions:  services.Sessions,
		reset:     services.PasswordReset,
		audit:     services.Audit,
		providers: services.Providers,
		cookie:    cookie,
	}
}

// establish opens a session for user and sets the cookie.
func (h *authHandler) establish(c *gin.Context, user *domain.User) (*dto.AuthResponse, error) {
	handle, expiresAt, err := h.sessions.Establish(c.Request.Context(), user.Identity(), middleware.RequestMeta(c))
	if err != nil {
		return nil, err
	}
	h.cookie.Write(c, handle)
	return &dto.AuthResponse{User: dto.ToUserResponse(user), ExpiresAt: expiresAt}, nil
}

// signup godoc
// @Summary Create a local account
// @Description Creates a user with a password credential and logs them in.
// @Tags auth
// @Accept json
// @Produce json
// @Param signup body dto.SignupRequest true "Signup details"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Email or phone already registered"
// @Failure 500 {object} ErrorResponse
// @Router /auth/signup [post]
func (h *authHandler) signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req, middleware.RequestMeta(c))
	if err != nil {
		respondWithError(c, err, "Failed to sign up")
		return
	}

	resp, err := h.establish(c, user)
	if err != nil {
		respondWithError(c, err, "Failed to establish session after signup")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// login godoc
// @Summary Log in with email and password
// @Description Verifies the credential, applies the lockout policy and sets the session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *authHandler) login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	result := h.auth.Login(c.Request.Context(), req.Email, req.Password, middleware.RequestMeta(c))
	switch result.Outcome {
	case domain.AuthAccepted:
		resp, err := h.establish(c, result.User)
		if err != nil {
			respondWithError(c, err, "Failed to establish session after login")
			return
		}
		c.JSON(http.StatusOK, resp)
	case domain.AuthRejected:
		message := msgInvalidCredentials
		if result.Reason == domain.ReasonAccountLocked {
			message = msgAccountLocked
		}
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: message})
	default:
		err := result.Err
		if err == nil {
			err = errors.New("login failed without a cause")
		}
		respondWithError(c, err, "Login could not be completed")
	}
}

// logout godoc
// @Summary Log out
// @Description Destroys the current session. Succeeds for anonymous callers too.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Router /auth/logout [post]
func (h *authHandler) logout(c *gin.Context) {
	ctx := c.Request.Context()
	if handle, ok := h.cookie.Read(c); ok {
		if err := h.sessions.Destroy(ctx, handle); err != nil {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to destroy session on logout", slog.String("error", err.Error()))
		}
	}
	if identity := middleware.IdentityFromCtx(ctx); identity != nil {
		userID := identity.UserID
		meta := middleware.RequestMeta(c)
		h.audit.Record(ctx, domain.AuditLogEntry{
			UserID:    &userID,
			Action:    domain.AuditActionLogout,
			Provider:  domain.ProviderLocal,
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			Success:   true,
		})
	}
	h.cookie.Clear(c)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msgLoggedOut})
}

// currentUser godoc
// @Summary Current user
// @Description Returns the logged-in user, or null for anonymous callers.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "{\"user\": dto.UserResponse or null}"
// @Failure 500 {object} ErrorResponse
// @Router /auth/user [get]
func (h *authHandler) currentUser(c *gin.Context) {
	identity := middleware.IdentityFromCtx(c.Request.Context())
	if identity == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}

	user, err := h.auth.GetUserByID(c.Request.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		respondWithError(c, err, "Failed to load current user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": dto.ToUserResponse(user)})
}

// forgotPassword godoc
// @Summary Request a password reset
// @Description Always answers with the same message, whether or not the email is registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Account email"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/forgot-password [post]
func (h *authHandler) forgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	if err := h.reset.RequestReset(c.Request.Context(), req.Email, middleware.RequestMeta(c)); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Password reset request failed", slog.String("error", err.Error()))
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msgForgotPassword})
}

// resetPassword godoc
// @Summary Reset a password
// @Description Redeems a one-time reset token. Every unusable token gets the same 400.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Token and new password"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/reset-password [post]
func (h *authHandler) resetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	err := h.reset.RedeemReset(c.Request.Context(), req.Token, req.NewPassword, middleware.RequestMeta(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidToken) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidResetToken})
			return
		}
		respondWithError(c, err, "Failed to reset password")
		return
	}
	h.cookie.Clear(c)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msgPasswordReset})
}

// listProviders godoc
// @Summary List login providers
// @Description Names of the OAuth providers enabled on this deployment.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.ProvidersResponse
// @Router /auth/providers [get]
func (h *authHandler) listProviders(c *gin.Context) {
	names := []string{}
	if h.providers != nil {
		names = h.providers.Names()
	}
	c.JSON(http.StatusOK, dto.ProvidersResponse{Providers: names})
}

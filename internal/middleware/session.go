package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/utils"
	"github.com/gin-gonic/gin"
)

// SessionCookie reads and writes the signed session cookie. The cookie value
// is "<handle>.<hmac>"; a bad signature reads as no cookie at all.
type SessionCookie struct {
	Name    string
	Secret  string
	Secure  bool
	MaxAge  time.Duration
	Sliding bool
}

// Write sets the cookie for a freshly established session.
func (sc SessionCookie) Write(c *gin.Context, handle string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, utils.SignValue(handle, sc.Secret), int(sc.MaxAge.Seconds()), "/", "", sc.Secure, true)
}

// Read returns the verified session handle, if any.
func (sc SessionCookie) Read(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(sc.Name)
	if err != nil || raw == "" {
		return "", false
	}
	return utils.VerifySignedValue(raw, sc.Secret)
}

// Clear expires the cookie in the browser.
func (sc SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, "", -1, "/", "", sc.Secure, true)
}

// LoadIdentity resolves the session cookie into an identity and stores it in
// the request context. Anonymous requests pass through with a nil identity;
// only a session store failure aborts, with 500.
func LoadIdentity(sessions portssvc.SessionAuthority, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		handle, ok := cookie.Read(c)
		if !ok {
			c.Next()
			return
		}

		identity, err := sessions.Resolve(c.Request.Context(), handle)
		if err != nil {
			// The session may still be valid; keep the cookie.
			GetLoggerFromCtx(c.Request.Context()).Error("Failed to resolve session", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if identity == nil {
			cookie.Clear(c)
			c.Next()
			return
		}
		if cookie.Sliding {
			cookie.Write(c, handle)
		}

		ctx := WithIdentity(c.Request.Context(), identity)
		ctx = WithLogger(ctx, GetLoggerFromCtx(ctx).With(slog.String("user_id", identity.UserID)))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireIdentity short-circuits anonymous requests with 401.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFromCtx(c.Request.Context()) == nil {
			GetLoggerFromCtx(c.Request.Context()).Debug("Rejecting anonymous request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Next()
	}
}

// RequestMeta extracts the caller's IP and user agent for audit purposes.
func RequestMeta(c *gin.Context) domain.RequestMeta {
	return domain.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

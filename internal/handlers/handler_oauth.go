package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/middleware"
	"github.com/gin-gonic/gin"
)

const (
	oauthStateCookie = "rv_oauth_state"
	oauthStateMaxAge = 600
	oauthFailedCode  = "oauth_failed"
)

// oauthHandler runs the authorization code flow for every registered provider.
type oauthHandler struct {
	providers   portssvc.ProviderRegistry
	state       portssvc.OAuthStateSvc
	resolver    portssvc.ProviderLinkResolver
	sessions    portssvc.SessionAuthority
	cookie      middleware.SessionCookie
	frontendURL string
}

func newOAuthHandler(services *portssvc.ServiceContainer, cookie middleware.SessionCookie, frontendURL string) *oauthHandler {
	return &oauthHandler{
		providers:   services.Providers,
		state:       services.OAuthState,
		resolver:    services.ProviderResolver,
		sessions:    services.Sessions,
		cookie:      cookie,
		frontendURL: frontendURL,
	}
}

// authorize godoc
// @Summary Start an OAuth login
// @Description Redirects to the provider consent page.
// @Tags auth
// @Param provider path string true "Provider name (google, github, ...)"
// @Success 302
// @Failure 404 {object} ErrorResponse "Unknown or disabled provider"
// @Router /auth/{provider} [get]
func (h *oauthHandler) authorize(c *gin.Context) {
	name := c.Param("provider")
	provider, ok := h.providers.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Unknown login provider"})
		return
	}

	state, err := h.state.IssueState(name)
	if err != nil {
		respondWithError(c, err, "Failed to issue oauth state")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/api/auth", "", h.cookie.Secure, true)
	c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

// callback godoc
// @Summary Finish an OAuth login
// @Description Exchanges the code, links or creates the user, sets the session cookie and redirects to the frontend.
// @Tags auth
// @Param provider path string true "Provider name"
// @Param code query string false "Authorization code"
// @Param state query string true "State issued by /auth/{provider}"
// @Success 302
// @Failure 404 {object} ErrorResponse "Unknown or disabled provider"
// @Router /auth/{provider}/callback [get]
func (h *oauthHandler) callback(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)
	name := c.Param("provider")
	logger = logger.With(slog.String("provider", name))

	provider, ok := h.providers.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Unknown login provider"})
		return
	}

	cookieState, _ := c.Cookie(oauthStateCookie)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, "/api/auth", "", h.cookie.Secure, true)

	queryState := c.Query("state")
	if cookieState == "" || subtle.ConstantTimeCompare([]byte(cookieState), []byte(queryState)) != 1 {
		logger.Warn("OAuth state does not match the state cookie")
		h.fail(c)
		return
	}
	if err := h.state.VerifyState(queryState, name); err != nil {
		logger.Warn("OAuth state rejected", slog.String("error", err.Error()))
		h.fail(c)
		return
	}
	if providerErr := c.Query("error"); providerErr != "" {
		logger.Info("Provider returned an error", slog.String("provider_error", providerErr))
		h.fail(c)
		return
	}
	code := c.Query("code")
	if code == "" {
		h.fail(c)
		return
	}

	profile, tokens, err := provider.Exchange(ctx, code)
	if err != nil {
		logger.Warn("OAuth code exchange failed", slog.String("error", err.Error()))
		h.fail(c)
		return
	}

	result := h.resolver.Resolve(ctx, name, profile, tokens, middleware.RequestMeta(c))
	if result.Outcome != domain.AuthAccepted {
		if result.Err != nil {
			logger.Error("Provider login failed", slog.String("error", result.Err.Error()))
		}
		h.fail(c)
		return
	}

	handle, _, err := h.sessions.Establish(ctx, result.User.Identity(), middleware.RequestMeta(c))
	if err != nil {
		logger.Error("Failed to establish session after provider login", slog.String("error", err.Error()))
		h.fail(c)
		return
	}
	h.cookie.Write(c, handle)
	c.Redirect(http.StatusFound, h.frontendURL+"/")
}

// fail sends the browser back to the login page with a generic error code.
func (h *oauthHandler) fail(c *gin.Context) {
	c.Redirect(http.StatusFound, h.frontendURL+"/login?error="+url.QueryEscape(oauthFailedCode))
}

package handlers_test

import (
	"errors"
	"net/http"
	"time"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

const stateCookieName = "rv_oauth_state"

func (s *HandlerTestSuite) TestAuthorize_UnknownProvider() {
	w := s.do(http.MethodGet, "/api/auth/myspace", nil)

	s.Equal(http.StatusNotFound, w.Code)
	s.state.AssertNotCalled(s.T(), "IssueState", mock.Anything)
}

func (s *HandlerTestSuite) TestAuthorize_RedirectsWithState() {
	s.state.On("IssueState", "github").Return("state-1", nil).Once()

	w := s.do(http.MethodGet, "/api/auth/github", nil)

	s.Equal(http.StatusFound, w.Code)
	s.Equal("https://idp.example.com/authorize?state=state-1", w.Header().Get("Location"))
	cookie := responseCookie(w, stateCookieName)
	s.Require().NotNil(cookie)
	s.Equal("state-1", cookie.Value)
	s.True(cookie.HttpOnly)
}

func (s *HandlerTestSuite) TestCallback_StateMismatch() {
	w := s.do(http.MethodGet, "/api/auth/github/callback?code=abc&state=other", nil,
		&http.Cookie{Name: stateCookieName, Value: "state-1"})

	s.Equal(http.StatusFound, w.Code)
	s.Equal(testFrontend+"/login?error=oauth_failed", w.Header().Get("Location"))
	s.state.AssertNotCalled(s.T(), "VerifyState", mock.Anything, mock.Anything)
	s.provider.AssertNotCalled(s.T(), "Exchange", mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestCallback_MissingStateCookie() {
	w := s.do(http.MethodGet, "/api/auth/github/callback?code=abc&state=state-1", nil)

	s.Equal(http.StatusFound, w.Code)
	s.Equal(testFrontend+"/login?error=oauth_failed", w.Header().Get("Location"))
}

func (s *HandlerTestSuite) TestCallback_ExchangeFails() {
	s.state.On("VerifyState", "state-1", "github").Return(nil).Once()
	s.provider.On("Exchange", mock.Anything, "abc").
		Return(domain.ProviderProfile{}, domain.ProviderTokens{}, errors.New("bad_verification_code")).Once()

	w := s.do(http.MethodGet, "/api/auth/github/callback?code=abc&state=state-1", nil,
		&http.Cookie{Name: stateCookieName, Value: "state-1"})

	s.Equal(http.StatusFound, w.Code)
	s.Equal(testFrontend+"/login?error=oauth_failed", w.Header().Get("Location"))
	s.Nil(responseCookie(w, testCookieName))
}

func (s *HandlerTestSuite) TestCallback_UnverifiedEmailRejected() {
	profile := domain.ProviderProfile{ProviderAccountID: "gh-42", Email: "ada@example.com"}
	s.state.On("VerifyState", "state-1", "github").Return(nil).Once()
	s.provider.On("Exchange", mock.Anything, "abc").Return(profile, domain.ProviderTokens{}, nil).Once()
	s.resolver.On("Resolve", mock.Anything, "github", profile, mock.Anything, mock.Anything).
		Return(domain.Rejected(domain.ReasonEmailUnverified)).Once()

	w := s.do(http.MethodGet, "/api/auth/github/callback?code=abc&state=state-1", nil,
		&http.Cookie{Name: stateCookieName, Value: "state-1"})

	s.Equal(testFrontend+"/login?error=oauth_failed", w.Header().Get("Location"))
	s.Nil(responseCookie(w, testCookieName))
}

func (s *HandlerTestSuite) TestCallback_Success() {
	user := testUser()
	profile := domain.ProviderProfile{ProviderAccountID: "gh-42", Email: "ada@example.com", EmailVerified: true}
	s.state.On("VerifyState", "state-1", "github").Return(nil).Once()
	s.provider.On("Exchange", mock.Anything, "abc").Return(profile, domain.ProviderTokens{AccessToken: "tok"}, nil).Once()
	s.resolver.On("Resolve", mock.Anything, "github", profile, mock.Anything, mock.Anything).
		Return(domain.Accepted(user)).Once()
	s.sessions.On("Establish", mock.Anything, user.Identity(), mock.Anything).
		Return("handle-9", time.Now().Add(time.Hour), nil).Once()

	w := s.do(http.MethodGet, "/api/auth/github/callback?code=abc&state=state-1", nil,
		&http.Cookie{Name: stateCookieName, Value: "state-1"})

	s.Equal(http.StatusFound, w.Code)
	s.Equal(testFrontend+"/", w.Header().Get("Location"))
	cookie := responseCookie(w, testCookieName)
	s.Require().NotNil(cookie)
	s.Equal(signedHandle("handle-9"), cookie.Value)
	cleared := responseCookie(w, stateCookieName)
	s.Require().NotNil(cleared)
	s.True(cleared.MaxAge < 0)
}

package handlers_test

import (
	"errors"
	"net/http"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	"github.com/SscSPs/referral_vault/internal/dto"
	"github.com/SscSPs/referral_vault/internal/utils"
	"github.com/stretchr/testify/mock"
)

func testUser() *domain.User {
	email := "ada@example.com"
	hash := "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA"
	return &domain.User{
		UserID:       "user-1",
		Email:        &email,
		PasswordHash: &hash,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		CreatedAt:    time.Now().UTC(),
	}
}

func (s *HandlerTestSuite) TestSignup_SetsSessionCookie() {
	user := testUser()
	expires := time.Now().Add(time.Hour).UTC()
	s.auth.On("Signup", mock.Anything, mock.MatchedBy(func(req dto.SignupRequest) bool {
		return req.Email != nil && *req.Email == "ada@example.com"
	}), mock.Anything).Return(user, nil).Once()
	s.sessions.On("Establish", mock.Anything, user.Identity(), mock.Anything).Return("handle-1", expires, nil).Once()

	w := s.do(http.MethodPost, "/api/auth/signup", map[string]any{
		"email":     "ada@example.com",
		"password":  "correct horse 1",
		"firstName": "Ada",
	})

	s.Equal(http.StatusCreated, w.Code)
	cookie := responseCookie(w, testCookieName)
	s.Require().NotNil(cookie)
	s.Equal(utils.SignValue("handle-1", testSecret), cookie.Value)
	s.True(cookie.HttpOnly)

	body := s.decode(w)
	u := body["user"].(map[string]any)
	s.Equal("user-1", u["id"])
	s.Equal(true, u["hasPassword"])
	s.NotContains(w.Body.String(), "argon2id")
	s.NotContains(u, "passwordHash")
}

func (s *HandlerTestSuite) TestSignup_WeakPassword() {
	w := s.do(http.MethodPost, "/api/auth/signup", map[string]any{
		"email":    "ada@example.com",
		"password": "onlyletters",
	})

	s.Equal(http.StatusBadRequest, w.Code)
	body := s.decode(w)
	s.Equal("Validation failed", body["error"])
	fields := body["fields"].(map[string]any)
	s.Equal("password", fields["password"])
	s.NotContains(w.Body.String(), "onlyletters")
	s.auth.AssertNotCalled(s.T(), "Signup", mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestSignup_Duplicate() {
	s.auth.On("Signup", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewConflictError("email already registered")).Once()

	w := s.do(http.MethodPost, "/api/auth/signup", map[string]any{
		"email":    "ada@example.com",
		"password": "correct horse 1",
	})

	s.Equal(http.StatusConflict, w.Code)
	s.Equal("email already registered", s.decode(w)["error"])
	s.Nil(responseCookie(w, testCookieName))
}

func (s *HandlerTestSuite) TestLogin_GenericRejection() {
	for _, reason := range []domain.AuthFailureReason{domain.ReasonUnknownUser, domain.ReasonInvalidPassword, domain.ReasonNoLocalPassword} {
		s.auth.On("Login", mock.Anything, "ada@example.com", "wrong-pass-1", mock.Anything).
			Return(domain.Rejected(reason)).Once()

		w := s.do(http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "ada@example.com",
			"password": "wrong-pass-1",
		})

		s.Equal(http.StatusUnauthorized, w.Code, string(reason))
		s.Equal("Invalid email or password", s.decode(w)["error"], string(reason))
		s.Nil(responseCookie(w, testCookieName))
	}
}

func (s *HandlerTestSuite) TestLogin_Locked() {
	s.auth.On("Login", mock.Anything, "ada@example.com", "wrong-pass-1", mock.Anything).
		Return(domain.Rejected(domain.ReasonAccountLocked)).Once()

	w := s.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "ada@example.com",
		"password": "wrong-pass-1",
	})

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Account temporarily locked. Please try again later.", s.decode(w)["error"])
}

func (s *HandlerTestSuite) TestLogin_Success() {
	user := testUser()
	s.auth.On("Login", mock.Anything, "ada@example.com", "correct horse 1", mock.Anything).
		Return(domain.Accepted(user)).Once()
	s.sessions.On("Establish", mock.Anything, user.Identity(), mock.Anything).
		Return("handle-2", time.Now().Add(time.Hour), nil).Once()

	w := s.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "ada@example.com",
		"password": "correct horse 1",
	})

	s.Equal(http.StatusOK, w.Code)
	cookie := responseCookie(w, testCookieName)
	s.Require().NotNil(cookie)
	s.Equal(utils.SignValue("handle-2", testSecret), cookie.Value)
}

func (s *HandlerTestSuite) TestLogin_StoreFailure() {
	s.auth.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.Failed(errors.New("connection refused"))).Once()

	w := s.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "ada@example.com",
		"password": "correct horse 1",
	})

	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "connection refused")
}

func (s *HandlerTestSuite) TestForgotPassword_SameAnswer() {
	s.reset.On("RequestReset", mock.Anything, "known@example.com", mock.Anything).Return(nil).Once()
	s.reset.On("RequestReset", mock.Anything, "unknown@example.com", mock.Anything).Return(nil).Once()
	s.reset.On("RequestReset", mock.Anything, "broken@example.com", mock.Anything).Return(errors.New("db down")).Once()

	var bodies []string
	for _, email := range []string{"known@example.com", "unknown@example.com", "broken@example.com"} {
		w := s.do(http.MethodPost, "/api/auth/forgot-password", map[string]any{"email": email})
		s.Equal(http.StatusOK, w.Code, email)
		bodies = append(bodies, w.Body.String())
	}
	s.Equal(bodies[0], bodies[1])
	s.Equal(bodies[0], bodies[2])
}

func (s *HandlerTestSuite) TestResetPassword_InvalidToken() {
	s.reset.On("RedeemReset", mock.Anything, "stale", "new-pass-123", mock.Anything).
		Return(apperrors.NewAppError(http.StatusBadRequest, "token_expired", apperrors.ErrInvalidToken)).Once()

	w := s.do(http.MethodPost, "/api/auth/reset-password", map[string]any{
		"token":       "stale",
		"newPassword": "new-pass-123",
	})

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Invalid or expired reset token", s.decode(w)["error"])
}

func (s *HandlerTestSuite) TestResetPassword_Success() {
	s.reset.On("RedeemReset", mock.Anything, "fresh", "new-pass-123", mock.Anything).Return(nil).Once()

	w := s.do(http.MethodPost, "/api/auth/reset-password", map[string]any{
		"token":       "fresh",
		"newPassword": "new-pass-123",
	})

	s.Equal(http.StatusOK, w.Code)
	cookie := responseCookie(w, testCookieName)
	s.Require().NotNil(cookie)
	s.True(cookie.MaxAge < 0)
}

func (s *HandlerTestSuite) TestCurrentUser_Anonymous() {
	w := s.do(http.MethodGet, "/api/auth/user", nil)

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"user":null}`, w.Body.String())
}

func (s *HandlerTestSuite) TestCurrentUser_TamperedCookie() {
	w := s.do(http.MethodGet, "/api/auth/user", nil, &http.Cookie{Name: testCookieName, Value: "handle-1.forged"})

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"user":null}`, w.Body.String())
	s.sessions.AssertNotCalled(s.T(), "Resolve", mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestCurrentUser_LoggedIn() {
	cookie := s.loggedIn("handle-1", "user-1")
	s.auth.On("GetUserByID", mock.Anything, "user-1").Return(testUser(), nil).Once()

	w := s.do(http.MethodGet, "/api/auth/user", nil, cookie)

	s.Equal(http.StatusOK, w.Code)
	u := s.decode(w)["user"].(map[string]any)
	s.Equal("Ada Lovelace", u["name"])
	s.NotContains(w.Body.String(), "argon2id")
	s.NotContains(u, "failedLoginAttempts")
}

func (s *HandlerTestSuite) TestLogout() {
	cookie := s.loggedIn("handle-1", "user-1")
	s.sessions.On("Destroy", mock.Anything, "handle-1").Return(nil).Once()
	s.audit.On("Record", mock.Anything, mock.MatchedBy(func(e domain.AuditLogEntry) bool {
		return e.Action == domain.AuditActionLogout && e.UserID != nil && *e.UserID == "user-1"
	})).Once()

	w := s.do(http.MethodPost, "/api/auth/logout", nil, cookie)

	s.Equal(http.StatusOK, w.Code)
	cleared := responseCookie(w, testCookieName)
	s.Require().NotNil(cleared)
	s.True(cleared.MaxAge < 0)
	s.audit.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestLogout_Anonymous() {
	w := s.do(http.MethodPost, "/api/auth/logout", nil)

	s.Equal(http.StatusOK, w.Code)
	s.sessions.AssertNotCalled(s.T(), "Destroy", mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestListProviders() {
	w := s.do(http.MethodGet, "/api/auth/providers", nil)

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"providers":["github"]}`, w.Body.String())
}

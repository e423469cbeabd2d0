package handlers_test

import (
	"errors"
	"net/http"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	"github.com/SscSPs/referral_vault/internal/dto"
	"github.com/stretchr/testify/mock"
)

func (s *HandlerTestSuite) TestProtectedRoute_RequiresSession() {
	w := s.do(http.MethodGet, "/api/links", nil)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.links.AssertNotCalled(s.T(), "ListLinks", mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestProtectedRoute_ExpiredSession() {
	s.sessions.On("Resolve", mock.Anything, "handle-old").Return(nil, nil).Once()
	cookie := &http.Cookie{Name: testCookieName, Value: signedHandle("handle-old")}

	w := s.do(http.MethodGet, "/api/links", nil, cookie)

	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestProtectedRoute_SessionStoreDown() {
	s.sessions.On("Resolve", mock.Anything, "handle-1").
		Return(nil, errors.New("redis: connection refused")).Once()
	cookie := &http.Cookie{Name: testCookieName, Value: signedHandle("handle-1")}

	w := s.do(http.MethodGet, "/api/links", nil, cookie)

	s.Equal(http.StatusInternalServerError, w.Code)
	s.Nil(responseCookie(w, testCookieName), "a valid session must survive a store outage")
	s.NotContains(w.Body.String(), "redis")
}

func (s *HandlerTestSuite) TestCreateLink() {
	cookie := s.loggedIn("handle-1", "user-1")
	created := &domain.Link{
		LinkID:   "link-1",
		OwnerID:  "user-1",
		Title:    "Bank bonus",
		URL:      "https://bank.example.com/r/abc",
		Category: "finance",
		AuditFields: domain.AuditFields{
			CreatedAt: time.Now().UTC(),
			CreatedBy: "user-1",
		},
	}
	s.links.On("CreateLink", mock.Anything, "user-1", mock.MatchedBy(func(req dto.CreateLinkRequest) bool {
		return req.URL == "https://bank.example.com/r/abc"
	})).Return(created, nil).Once()

	w := s.do(http.MethodPost, "/api/links", map[string]any{
		"title":    "Bank bonus",
		"url":      "https://bank.example.com/r/abc",
		"category": "finance",
	}, cookie)

	s.Equal(http.StatusCreated, w.Code)
	body := s.decode(w)
	s.Equal("link-1", body["linkID"])
	s.Equal("https://bank.example.com/r/abc", body["url"])
}

func (s *HandlerTestSuite) TestGetLink_Forbidden() {
	cookie := s.loggedIn("handle-1", "user-2")
	s.links.On("GetLinkByID", mock.Anything, "user-2", "link-1").
		Return(nil, apperrors.NewForbiddenError("You do not have access to this link")).Once()

	w := s.do(http.MethodGet, "/api/links/link-1", nil, cookie)

	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("You do not have access to this link", s.decode(w)["error"])
}

func (s *HandlerTestSuite) TestGetLink_NotFound() {
	cookie := s.loggedIn("handle-1", "user-1")
	s.links.On("GetLinkByID", mock.Anything, "user-1", "missing").
		Return(nil, apperrors.NewNotFoundError("link not found")).Once()

	w := s.do(http.MethodGet, "/api/links/missing", nil, cookie)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestRecordClick() {
	cookie := s.loggedIn("handle-1", "user-2")
	click := &domain.Click{ClickID: "click-1", LinkID: "link-1", UserID: "user-2", ClickedAt: time.Now().UTC()}
	s.links.On("RecordClick", mock.Anything, "user-2", "link-1", mock.Anything).
		Return(click, int64(3), nil).Once()

	w := s.do(http.MethodPost, "/api/links/link-1/clicks", nil, cookie)

	s.Equal(http.StatusCreated, w.Code)
	body := s.decode(w)
	s.Equal("click-1", body["clickID"])
	s.EqualValues(3, body["clickCount"])
}

func (s *HandlerTestSuite) TestRecordClick_Forbidden() {
	cookie := s.loggedIn("handle-1", "user-3")
	s.links.On("RecordClick", mock.Anything, "user-3", "link-1", mock.Anything).
		Return(nil, int64(0), apperrors.NewForbiddenError("You do not have access to this link")).Once()

	w := s.do(http.MethodPost, "/api/links/link-1/clicks", nil, cookie)

	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlerTestSuite) TestDeleteLink() {
	cookie := s.loggedIn("handle-1", "user-1")
	s.links.On("DeleteLink", mock.Anything, "user-1", "link-1").Return(nil).Once()

	w := s.do(http.MethodDelete, "/api/links/link-1", nil, cookie)

	s.Equal(http.StatusNoContent, w.Code)
}

package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock LocalAuthSvc ---
type MockLocalAuth struct {
	mock.Mock
}

func (m *MockLocalAuth) Signup(ctx context.Context, req dto.SignupRequest, meta domain.RequestMeta) (*domain.User, error) {
	args := m.Called(ctx, req, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockLocalAuth) Login(ctx context.Context, email, password string, meta domain.RequestMeta) domain.AuthResult {
	args := m.Called(ctx, email, password, meta)
	return args.Get(0).(domain.AuthResult)
}

func (m *MockLocalAuth) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

var _ portssvc.LocalAuthSvc = (*MockLocalAuth)(nil)

// --- Mock SessionAuthority ---
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Establish(ctx context.Context, identity domain.Identity, meta domain.RequestMeta) (string, time.Time, error) {
	args := m.Called(ctx, identity, meta)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockSessions) Resolve(ctx context.Context, handle string) (*domain.Identity, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockSessions) Destroy(ctx context.Context, handle string) error {
	return m.Called(ctx, handle).Error(0)
}

func (m *MockSessions) DestroyAllForUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockSessions) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

var _ portssvc.SessionAuthority = (*MockSessions)(nil)

// --- Mock PasswordResetSvc ---
type MockPasswordReset struct {
	mock.Mock
}

func (m *MockPasswordReset) RequestReset(ctx context.Context, email string, meta domain.RequestMeta) error {
	return m.Called(ctx, email, meta).Error(0)
}

func (m *MockPasswordReset) RedeemReset(ctx context.Context, secret, newPassword string, meta domain.RequestMeta) error {
	return m.Called(ctx, secret, newPassword, meta).Error(0)
}

func (m *MockPasswordReset) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

var _ portssvc.PasswordResetSvc = (*MockPasswordReset)(nil)

// --- Mock AuditRecorder ---
type MockAudit struct {
	mock.Mock
}

func (m *MockAudit) Record(ctx context.Context, entry domain.AuditLogEntry) {
	m.Called(ctx, entry)
}

// --- Mock LinkSvcFacade ---
type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) GetLinkByID(ctx context.Context, userID, linkID string) (*domain.Link, error) {
	args := m.Called(ctx, userID, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkService) ListLinks(ctx context.Context, userID string, params dto.ListLinksParams) ([]domain.Link, *string, error) {
	args := m.Called(ctx, userID, params)
	var next *string
	if args.Get(1) != nil {
		next = args.Get(1).(*string)
	}
	if args.Get(0) == nil {
		return nil, next, args.Error(2)
	}
	return args.Get(0).([]domain.Link), next, args.Error(2)
}

func (m *MockLinkService) ListCategories(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLinkService) CreateLink(ctx context.Context, userID string, req dto.CreateLinkRequest) (*domain.Link, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkService) UpdateLink(ctx context.Context, userID, linkID string, req dto.UpdateLinkRequest) (*domain.Link, error) {
	args := m.Called(ctx, userID, linkID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkService) DeleteLink(ctx context.Context, userID, linkID string) error {
	return m.Called(ctx, userID, linkID).Error(0)
}

func (m *MockLinkService) RecordClick(ctx context.Context, userID, linkID string, meta domain.RequestMeta) (*domain.Click, int64, error) {
	args := m.Called(ctx, userID, linkID, meta)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*domain.Click), args.Get(1).(int64), args.Error(2)
}

var _ portssvc.LinkSvcFacade = (*MockLinkService)(nil)

// --- Mock ProviderRegistry / IdentityProvider / OAuthStateSvc ---
type MockProvider struct {
	mock.Mock
	name string
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) AuthCodeURL(state string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (m *MockProvider) Exchange(ctx context.Context, code string) (domain.ProviderProfile, domain.ProviderTokens, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.ProviderProfile), args.Get(1).(domain.ProviderTokens), args.Error(2)
}

type staticRegistry map[string]portssvc.IdentityProvider

func (r staticRegistry) Get(name string) (portssvc.IdentityProvider, bool) {
	p, ok := r[name]
	return p, ok
}

func (r staticRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

type MockOAuthState struct {
	mock.Mock
}

func (m *MockOAuthState) IssueState(provider string) (string, error) {
	args := m.Called(provider)
	return args.String(0), args.Error(1)
}

func (m *MockOAuthState) VerifyState(state, provider string) error {
	return m.Called(state, provider).Error(0)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, provider string, profile domain.ProviderProfile, tokens domain.ProviderTokens, meta domain.RequestMeta) domain.AuthResult {
	args := m.Called(ctx, provider, profile, tokens, meta)
	return args.Get(0).(domain.AuthResult)
}

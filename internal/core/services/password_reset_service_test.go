package services_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/core/services"
	"github.com/SscSPs/referral_vault/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PasswordResetServiceTestSuite struct {
	suite.Suite
	users    *memUserRepo
	resets   *memResetRepo
	sessions *memSessionRepo
	audit    *memAuditRepo
	clock    *fakeClock
	notifier *MockResetNotifier

	auth      portssvc.LocalAuthSvc
	authority portssvc.SessionAuthority
	service   portssvc.PasswordResetSvc
	alice     *domain.User
}

func (suite *PasswordResetServiceTestSuite) SetupTest() {
	suite.users = newMemUserRepo()
	suite.resets = newMemResetRepo(suite.users)
	suite.sessions = newMemSessionRepo()
	suite.audit = &memAuditRepo{}
	suite.clock = newFakeClock()
	suite.notifier = new(MockResetNotifier)

	hasher := newTestHasher(suite.T())
	audit := services.NewAuditService(suite.audit)
	suite.auth = services.NewLocalAuthService(suite.users, hasher, audit, services.WithLocalAuthClock(suite.clock.Now))
	suite.authority = services.NewSessionService(suite.sessions, services.WithSessionClock(suite.clock.Now))
	suite.service = services.NewPasswordResetService(
		suite.users, suite.resets, hasher, suite.authority, suite.notifier, audit,
		"https://app.example.com/reset-password",
		services.WithResetClock(suite.clock.Now),
		services.WithSynchronousNotifications(),
	)

	alice, err := suite.auth.Signup(context.Background(), dto.SignupRequest{
		Email:    strPtr("alice@example.com"),
		Password: "old-password-1",
	}, testMeta)
	suite.Require().NoError(err)
	suite.alice = alice
}

func TestPasswordResetServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PasswordResetServiceTestSuite))
}

// requestSecret runs RequestReset and returns the secret from the mailed link.
func (suite *PasswordResetServiceTestSuite) requestSecret() string {
	var link string
	suite.notifier.On("SendPasswordReset", mock.Anything, "alice@example.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { link = args.String(2) }).
		Return(nil).Once()

	suite.Require().NoError(suite.service.RequestReset(context.Background(), "Alice@example.com", testMeta))
	suite.notifier.AssertExpectations(suite.T())

	u, err := url.Parse(link)
	suite.Require().NoError(err)
	suite.Equal("/reset-password", u.Path)
	secret := u.Query().Get("token")
	suite.Require().Len(secret, 64)
	return secret
}

func (suite *PasswordResetServiceTestSuite) TestRedeem_Success() {
	ctx := context.Background()
	handle, _, err := suite.authority.Establish(ctx, suite.alice.Identity(), testMeta)
	suite.Require().NoError(err)

	secret := suite.requestSecret()
	suite.Require().NoError(suite.service.RedeemReset(ctx, secret, "new-password-2", testMeta))

	suite.True(suite.auth.Login(ctx, "alice@example.com", "new-password-2", testMeta).IsAccepted())
	suite.Equal(domain.ReasonInvalidPassword, suite.auth.Login(ctx, "alice@example.com", "old-password-1", testMeta).Reason)
	identity, err := suite.authority.Resolve(ctx, handle)
	suite.Require().NoError(err)
	suite.Nil(identity, "existing sessions are revoked")

	done := suite.audit.byAction(domain.AuditActionPasswordReset)
	suite.Require().Len(done, 1)
	suite.True(done[0].Success)
}

func (suite *PasswordResetServiceTestSuite) TestRedeem_SecondUseFails() {
	ctx := context.Background()
	secret := suite.requestSecret()

	suite.Require().NoError(suite.service.RedeemReset(ctx, secret, "new-password-2", testMeta))
	err := suite.service.RedeemReset(ctx, secret, "other-password-3", testMeta)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidToken)
	suite.Equal(400, apperrors.StatusCode(err))
	suite.True(suite.auth.Login(ctx, "alice@example.com", "new-password-2", testMeta).IsAccepted())

	resets := suite.audit.byAction(domain.AuditActionPasswordReset)
	suite.Require().Len(resets, 2)
	suite.False(resets[1].Success)
	suite.Require().NotNil(resets[1].FailureReason)
	suite.Equal(string(domain.ResetTokenUsed), *resets[1].FailureReason)
}

func (suite *PasswordResetServiceTestSuite) TestRedeem_ConcurrentOnlyOneWins() {
	ctx := context.Background()
	_, _, err := suite.authority.Establish(ctx, suite.alice.Identity(), testMeta)
	suite.Require().NoError(err)
	secret := suite.requestSecret()

	const workers = 10
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = suite.service.RedeemReset(ctx, secret, fmt.Sprintf("new-password-%d", i), testMeta)
		}(i)
	}
	close(start)
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			suite.Equal(-1, winner, "more than one redemption succeeded")
			winner = i
			continue
		}
		suite.ErrorIs(err, apperrors.ErrInvalidToken)
	}
	suite.Require().NotEqual(-1, winner)

	suite.True(suite.auth.Login(ctx, "alice@example.com", fmt.Sprintf("new-password-%d", winner), testMeta).IsAccepted())
	suite.Zero(suite.sessions.countForUser(suite.alice.UserID))

	var succeeded int
	for _, e := range suite.audit.byAction(domain.AuditActionPasswordReset) {
		if e.Success {
			succeeded++
		}
	}
	suite.Equal(1, succeeded)
}

func (suite *PasswordResetServiceTestSuite) TestRedeem_StaleLookupLosesAtRedeem() {
	ctx := context.Background()
	secret := suite.requestSecret()
	suite.Require().Equal(1, suite.resets.count())
	var snapshot domain.PasswordResetToken
	for _, t := range suite.resets.tokens {
		snapshot = t
	}

	suite.Require().NoError(suite.service.RedeemReset(ctx, secret, "new-password-2", testMeta))

	stale := services.NewPasswordResetService(
		suite.users, &staleResetRepo{memResetRepo: suite.resets, snapshot: snapshot},
		newTestHasher(suite.T()), suite.authority, suite.notifier, services.NewAuditService(suite.audit),
		"https://app.example.com/reset-password",
		services.WithResetClock(suite.clock.Now),
		services.WithSynchronousNotifications(),
	)
	err := stale.RedeemReset(ctx, secret, "other-password-3", testMeta)

	suite.ErrorIs(err, apperrors.ErrInvalidToken)
	suite.Equal(400, apperrors.StatusCode(err))
	suite.True(suite.auth.Login(ctx, "alice@example.com", "new-password-2", testMeta).IsAccepted())

	resets := suite.audit.byAction(domain.AuditActionPasswordReset)
	suite.Require().Len(resets, 2)
	suite.Require().NotNil(resets[1].FailureReason)
	suite.Equal(string(domain.ResetTokenUsed), *resets[1].FailureReason)
}

func (suite *PasswordResetServiceTestSuite) TestRedeem_ExpiredFails() {
	secret := suite.requestSecret()
	suite.clock.Advance(61 * time.Minute)

	err := suite.service.RedeemReset(context.Background(), secret, "new-password-2", testMeta)

	suite.ErrorIs(err, apperrors.ErrInvalidToken)
	last := suite.audit.last()
	suite.Require().NotNil(last.FailureReason)
	suite.Equal(string(domain.ResetTokenExpired), *last.FailureReason)
}

func (suite *PasswordResetServiceTestSuite) TestRedeem_ExpiresAtExactlyTTL() {
	secret := suite.requestSecret()
	suite.clock.Advance(services.DefaultResetTokenTTL)

	err := suite.service.RedeemReset(context.Background(), secret, "new-password-2", testMeta)

	suite.ErrorIs(err, apperrors.ErrInvalidToken)
	last := suite.audit.last()
	suite.Require().NotNil(last.FailureReason)
	suite.Equal(string(domain.ResetTokenExpired), *last.FailureReason)
}

func (suite *PasswordResetServiceTestSuite) TestRedeem_UnknownTokenHasSameError() {
	secret := suite.requestSecret()
	suite.Require().NoError(suite.service.RedeemReset(context.Background(), secret, "new-password-2", testMeta))

	unknown := suite.service.RedeemReset(context.Background(), "deadbeef", "new-password-2", testMeta)
	used := suite.service.RedeemReset(context.Background(), secret, "new-password-2", testMeta)

	suite.Equal(used.Error(), unknown.Error())
}

func (suite *PasswordResetServiceTestSuite) TestRedeem_ClearsLockout() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		suite.auth.Login(ctx, "alice@example.com", "bad-password-0", testMeta)
	}
	suite.Require().NotNil(suite.users.get(suite.alice.UserID).AccountLockedUntil)

	secret := suite.requestSecret()
	suite.Require().NoError(suite.service.RedeemReset(ctx, secret, "new-password-2", testMeta))

	suite.True(suite.auth.Login(ctx, "alice@example.com", "new-password-2", testMeta).IsAccepted())
}

func (suite *PasswordResetServiceTestSuite) TestRequest_UnknownEmailIsSilent() {
	err := suite.service.RequestReset(context.Background(), "nobody@example.com", testMeta)

	suite.NoError(err)
	suite.notifier.AssertNotCalled(suite.T(), "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
	suite.Empty(suite.resets.tokens)
	last := suite.audit.last()
	suite.Equal(domain.AuditActionPasswordResetRequested, last.Action)
	suite.False(last.Success)
}

func (suite *PasswordResetServiceTestSuite) TestRequest_KnownEmailDefersIssuance() {
	var pending []func()
	svc := services.NewPasswordResetService(
		suite.users, suite.resets, newTestHasher(suite.T()), suite.authority, suite.notifier, services.NewAuditService(suite.audit),
		"https://app.example.com/reset-password",
		services.WithResetClock(suite.clock.Now),
		services.WithResetDispatcher(func(f func()) { pending = append(pending, f) }),
	)
	ctx := context.Background()

	suite.NoError(svc.RequestReset(ctx, "nobody@example.com", testMeta))
	suite.NoError(svc.RequestReset(ctx, "alice@example.com", testMeta))

	// Both calls returned after the lookup and one audit write.
	suite.Len(suite.audit.byAction(domain.AuditActionPasswordResetRequested), 2)
	suite.Zero(suite.resets.count())
	suite.notifier.AssertNotCalled(suite.T(), "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
	suite.Require().Len(pending, 1)

	suite.notifier.On("SendPasswordReset", mock.Anything, "alice@example.com", mock.AnythingOfType("string")).Return(nil).Once()
	pending[0]()

	suite.Equal(1, suite.resets.count())
	suite.notifier.AssertExpectations(suite.T())
}

func (suite *PasswordResetServiceTestSuite) TestRequest_StoreFailureIsSilent() {
	suite.resets.saveErr = errors.New("db down")

	err := suite.service.RequestReset(context.Background(), "alice@example.com", testMeta)

	suite.NoError(err)
	suite.Zero(suite.resets.count())
	suite.notifier.AssertNotCalled(suite.T(), "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PasswordResetServiceTestSuite) TestRequest_StoresOnlyHash() {
	secret := suite.requestSecret()

	suite.Require().Len(suite.resets.tokens, 1)
	for hash, token := range suite.resets.tokens {
		suite.NotEqual(secret, hash)
		suite.Equal(suite.alice.UserID, token.UserID)
		suite.Equal(suite.clock.Now().Add(time.Hour), token.ExpiresAt)
	}
}

func (suite *PasswordResetServiceTestSuite) TestSweepExpired() {
	suite.requestSecret()
	suite.clock.Advance(2 * time.Hour)

	n, err := suite.service.SweepExpired(context.Background())

	suite.NoError(err)
	suite.Equal(int64(1), n)
}

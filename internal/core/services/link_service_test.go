package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/core/services"
	"github.com/SscSPs/referral_vault/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// vaultFixture wires the link, group and share services over shared in-memory stores.
type vaultFixture struct {
	users  *memUserRepo
	links  *memLinkRepo
	groups *memGroupRepo
	shares *memShareRepo
	clock  *fakeClock

	guard portssvc.AuthorizationSvcFacade
	link  portssvc.LinkSvcFacade
	group portssvc.GroupSvcFacade
	share portssvc.ShareSvcFacade
}

func newVaultFixture(tracker portssvc.EventTracker) *vaultFixture {
	alice, bob, carol := "alice@example.com", "bob@example.com", "carol@example.com"
	f := &vaultFixture{
		users: newMemUserRepo(
			domain.User{UserID: "alice", Email: &alice, FirstName: "Alice"},
			domain.User{UserID: "bob", Email: &bob, FirstName: "Bob"},
			domain.User{UserID: "carol", Email: &carol, FirstName: "Carol"},
		),
		links:  newMemLinkRepo(),
		groups: newMemGroupRepo(),
		clock:  newFakeClock(),
	}
	f.shares = newMemShareRepo(f.links, f.groups)
	f.guard = services.NewAuthorizationService(f.links, f.groups, f.shares)
	f.link = services.NewLinkService(f.links, f.guard, services.WithLinkClock(f.clock.Now), services.WithLinkTracker(tracker))
	f.group = services.NewGroupService(f.groups, f.users, f.guard, services.WithGroupClock(f.clock.Now))
	f.share = services.NewShareService(f.shares, f.links, f.users, f.guard, services.WithShareClock(f.clock.Now))
	return f
}

type LinkServiceTestSuite struct {
	suite.Suite
	f       *vaultFixture
	tracker *MockEventTracker
}

func (suite *LinkServiceTestSuite) SetupTest() {
	suite.tracker = new(MockEventTracker)
	suite.tracker.On("Track", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
	suite.f = newVaultFixture(suite.tracker)
}

func TestLinkServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LinkServiceTestSuite))
}

func (suite *LinkServiceTestSuite) createLink(owner, title, category string) *domain.Link {
	bonus := decimal.RequireFromString("25.00")
	link, err := suite.f.link.CreateLink(context.Background(), owner, dto.CreateLinkRequest{
		Title:      title,
		URL:        "https://bank.example.com/ref/" + title,
		Notes:      "first deposit bonus",
		Category:   category,
		BonusValue: &bonus,
	})
	suite.Require().NoError(err)
	suite.f.clock.Advance(time.Second)
	return link
}

func (suite *LinkServiceTestSuite) TestCreateLink() {
	link := suite.createLink("alice", "chase", "banking")

	suite.NotEmpty(link.LinkID)
	suite.Equal("alice", link.OwnerID)
	suite.Equal("banking", link.Category)
	suite.Zero(link.ClickCount)
	suite.True(decimal.RequireFromString("25").Equal(*link.BonusValue))
}

func (suite *LinkServiceTestSuite) TestCreateLink_RejectsNonHTTPURL() {
	_, err := suite.f.link.CreateLink(context.Background(), "alice", dto.CreateLinkRequest{
		Title: "bad",
		URL:   "javascript:alert(1)",
	})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LinkServiceTestSuite) TestCreateLink_RejectsNegativeBonus() {
	bonus := decimal.NewFromInt(-5)
	_, err := suite.f.link.CreateLink(context.Background(), "alice", dto.CreateLinkRequest{
		Title:      "neg",
		URL:        "https://example.com",
		BonusValue: &bonus,
	})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LinkServiceTestSuite) TestListLinks_PaginatesNewestFirst() {
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		suite.createLink("alice", title, "cards")
	}
	suite.createLink("bob", "bobs", "cards")

	page1, next, err := suite.f.link.ListLinks(ctx, "alice", dto.ListLinksParams{Limit: 2})
	suite.Require().NoError(err)
	suite.Require().Len(page1, 2)
	suite.Equal("e", page1[0].Title)
	suite.Equal("d", page1[1].Title)
	suite.Require().NotNil(next)

	page2, next, err := suite.f.link.ListLinks(ctx, "alice", dto.ListLinksParams{Limit: 2, NextToken: next})
	suite.Require().NoError(err)
	suite.Equal([]string{"c", "b"}, []string{page2[0].Title, page2[1].Title})
	suite.Require().NotNil(next)

	page3, next, err := suite.f.link.ListLinks(ctx, "alice", dto.ListLinksParams{Limit: 2, NextToken: next})
	suite.Require().NoError(err)
	suite.Require().Len(page3, 1)
	suite.Equal("a", page3[0].Title)
	suite.Nil(next)
}

func (suite *LinkServiceTestSuite) TestListLinks_FilterByCategory() {
	suite.createLink("alice", "chase", "banking")
	suite.createLink("alice", "amex", "cards")

	links, _, err := suite.f.link.ListLinks(context.Background(), "alice", dto.ListLinksParams{Category: strPtr("cards")})

	suite.Require().NoError(err)
	suite.Require().Len(links, 1)
	suite.Equal("amex", links[0].Title)

	categories, err := suite.f.link.ListCategories(context.Background(), "alice")
	suite.Require().NoError(err)
	suite.Equal([]string{"banking", "cards"}, categories)
}

func (suite *LinkServiceTestSuite) TestListLinks_InvalidToken() {
	_, _, err := suite.f.link.ListLinks(context.Background(), "alice", dto.ListLinksParams{NextToken: strPtr("%%%")})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LinkServiceTestSuite) TestUpdateAndDelete_OwnerOnly() {
	ctx := context.Background()
	link := suite.createLink("alice", "chase", "banking")

	_, err := suite.f.link.UpdateLink(ctx, "bob", link.LinkID, dto.UpdateLinkRequest{Title: strPtr("mine now")})
	suite.ErrorIs(err, apperrors.ErrForbidden)

	updated, err := suite.f.link.UpdateLink(ctx, "alice", link.LinkID, dto.UpdateLinkRequest{Title: strPtr("Chase Sapphire")})
	suite.Require().NoError(err)
	suite.Equal("Chase Sapphire", updated.Title)
	suite.Equal("banking", updated.Category)

	suite.ErrorIs(suite.f.link.DeleteLink(ctx, "bob", link.LinkID), apperrors.ErrForbidden)
	suite.Require().NoError(suite.f.link.DeleteLink(ctx, "alice", link.LinkID))
	suite.ErrorIs(suite.f.link.DeleteLink(ctx, "alice", link.LinkID), apperrors.ErrNotFound)
}

func (suite *LinkServiceTestSuite) TestRecordClick_UnsharedLinkIsForbidden() {
	link := suite.createLink("alice", "chase", "banking")

	_, _, err := suite.f.link.RecordClick(context.Background(), "bob", link.LinkID, testMeta)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.Equal(403, apperrors.StatusCode(err))
	suite.Empty(suite.f.links.clicks)
}

func (suite *LinkServiceTestSuite) TestRecordClick_MissingLinkIsNotFound() {
	_, _, err := suite.f.link.RecordClick(context.Background(), "bob", "no-such-link", testMeta)
	suite.Equal(404, apperrors.StatusCode(err))
}

func (suite *LinkServiceTestSuite) TestRecordClick_GroupMemberCanClick() {
	ctx := context.Background()
	link := suite.createLink("alice", "chase", "banking")

	group, err := suite.f.group.CreateGroup(ctx, "alice", dto.CreateGroupRequest{Name: "Family"})
	suite.Require().NoError(err)
	_, err = suite.f.group.AddMember(ctx, "alice", group.GroupID, dto.AddGroupMemberRequest{Email: strPtr("bob@example.com")})
	suite.Require().NoError(err)
	_, err = suite.f.share.ShareWithGroup(ctx, "alice", link.LinkID, group.GroupID)
	suite.Require().NoError(err)

	click, count, err := suite.f.link.RecordClick(ctx, "bob", link.LinkID, testMeta)

	suite.Require().NoError(err)
	suite.Equal(int64(1), count)
	suite.Equal("bob", click.UserID)
	suite.Equal(testMeta.IPAddress, click.IPAddress)
	suite.tracker.AssertCalled(suite.T(), "Track", mock.Anything, "bob", "link_clicked", mock.Anything)

	// carol is not in the group
	_, _, err = suite.f.link.RecordClick(ctx, "carol", link.LinkID, testMeta)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	_, count, err = suite.f.link.RecordClick(ctx, "alice", link.LinkID, testMeta)
	suite.Require().NoError(err)
	suite.Equal(int64(2), count)
}

func (suite *LinkServiceTestSuite) TestRecordClick_DirectShare() {
	ctx := context.Background()
	link := suite.createLink("alice", "chase", "banking")

	_, err := suite.f.share.ShareWithUser(ctx, "alice", link.LinkID, "carol")
	suite.Require().NoError(err)

	_, count, err := suite.f.link.RecordClick(ctx, "carol", link.LinkID, testMeta)
	suite.Require().NoError(err)
	suite.Equal(int64(1), count)

	seen, err := suite.f.link.GetLinkByID(ctx, "carol", link.LinkID)
	suite.Require().NoError(err)
	suite.Equal(link.URL, seen.URL)
}

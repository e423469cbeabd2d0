package services_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// In-memory repositories. They copy on read and write so that services never
// share pointers with the store, like the pgsql repositories.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User

	loginStateErr error
}

func newMemUserRepo(users ...domain.User) *memUserRepo {
	r := &memUserRepo{users: map[string]domain.User{}}
	for _, u := range users {
		r.users[u.UserID] = u
	}
	return r
}

func (r *memUserRepo) get(userID string) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID]
}

func (r *memUserRepo) FindUserByID(_ context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email != nil && strings.EqualFold(*u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memUserRepo) SaveUser(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(user)
}

func (r *memUserRepo) insertLocked(user domain.User) error {
	if _, ok := r.users[user.UserID]; ok {
		return apperrors.ErrDuplicate
	}
	if user.Email != nil {
		for _, u := range r.users {
			if u.Email != nil && strings.EqualFold(*u.Email, *user.Email) {
				return apperrors.ErrDuplicate
			}
		}
	}
	r.users[user.UserID] = user
	return nil
}

func (r *memUserRepo) UpdateUserProfile(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[user.UserID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.FirstName, u.LastName, u.AvatarURL = user.FirstName, user.LastName, user.AvatarURL
	r.users[user.UserID] = u
	return nil
}

func (r *memUserRepo) UpdatePasswordHash(_ context.Context, userID string, passwordHash string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.PasswordHash = &passwordHash
	u.LastUpdatedAt = updatedAt
	r.users[userID] = u
	return nil
}

func (r *memUserRepo) UpdateLoginState(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loginStateErr != nil {
		return r.loginStateErr
	}
	u, ok := r.users[user.UserID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.FailedLoginAttempts = user.FailedLoginAttempts
	u.AccountLockedUntil = user.AccountLockedUntil
	u.LastLoginAt = user.LastLoginAt
	r.users[user.UserID] = u
	return nil
}

type memIdentityRepo struct {
	mu         sync.Mutex
	users      *memUserRepo
	identities map[string]domain.ExternalIdentity

	// raceOnce makes the next CreateUserWithIdentity lose to a concurrent
	// callback that already inserted the same provider account.
	raceOnce func()
}

func newMemIdentityRepo(users *memUserRepo) *memIdentityRepo {
	return &memIdentityRepo{users: users, identities: map[string]domain.ExternalIdentity{}}
}

func identityKey(provider, accountID string) string { return provider + "|" + accountID }

func (r *memIdentityRepo) FindExternalIdentity(_ context.Context, provider, providerAccountID string) (*domain.ExternalIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.identities[identityKey(provider, providerAccountID)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &id, nil
}

func (r *memIdentityRepo) SaveExternalIdentity(_ context.Context, identity domain.ExternalIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := identityKey(identity.Provider, identity.ProviderAccountID)
	if _, ok := r.identities[key]; ok {
		return apperrors.ErrDuplicate
	}
	r.identities[key] = identity
	return nil
}

func (r *memIdentityRepo) UpdateExternalIdentityTokens(_ context.Context, identity domain.ExternalIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := identityKey(identity.Provider, identity.ProviderAccountID)
	if _, ok := r.identities[key]; !ok {
		return apperrors.ErrNotFound
	}
	r.identities[key] = identity
	return nil
}

func (r *memIdentityRepo) CreateUserWithIdentity(ctx context.Context, user domain.User, identity domain.ExternalIdentity) error {
	if r.raceOnce != nil {
		race := r.raceOnce
		r.raceOnce = nil
		race()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := identityKey(identity.Provider, identity.ProviderAccountID)
	if _, ok := r.identities[key]; ok {
		return apperrors.ErrDuplicate
	}
	r.users.mu.Lock()
	err := r.users.insertLocked(user)
	r.users.mu.Unlock()
	if err != nil {
		return err
	}
	r.identities[key] = identity
	return nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	touched  int
	readErr  error // returned by FindSessionByHash when set
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]domain.Session{}}
}

func (r *memSessionRepo) SaveSession(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.TokenHash] = session
	return nil
}

func (r *memSessionRepo) FindSessionByHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	s, ok := r.sessions[tokenHash]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &s, nil
}

func (r *memSessionRepo) TouchSession(_ context.Context, tokenHash string, lastSeenAt, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[tokenHash]
	if !ok {
		return apperrors.ErrNotFound
	}
	s.LastSeenAt, s.ExpiresAt = lastSeenAt, expiresAt
	r.sessions[tokenHash] = s
	r.touched++
	return nil
}

func (r *memSessionRepo) DeleteSession(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}

func (r *memSessionRepo) DeleteSessionsByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for hash, s := range r.sessions {
		if s.Identity.UserID == userID {
			delete(r.sessions, hash)
		}
	}
	return nil
}

func (r *memSessionRepo) countForUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.Identity.UserID == userID {
			n++
		}
	}
	return n
}

func (r *memSessionRepo) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for hash, s := range r.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.sessions, hash)
			n++
		}
	}
	return n, nil
}

func (r *memSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

type memResetRepo struct {
	mu      sync.Mutex
	users   *memUserRepo
	tokens  map[string]domain.PasswordResetToken
	saveErr error
}

func newMemResetRepo(users *memUserRepo) *memResetRepo {
	return &memResetRepo{users: users, tokens: map[string]domain.PasswordResetToken{}}
}

func (r *memResetRepo) SaveResetToken(_ context.Context, token domain.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *memResetRepo) FindResetTokenByHash(_ context.Context, tokenHash string) (*domain.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

func (r *memResetRepo) RedeemResetToken(ctx context.Context, tokenHash string, newPasswordHash string, now time.Time) (string, error) {
	r.mu.Lock()
	t, ok := r.tokens[tokenHash]
	if !ok || t.Used || !t.ExpiresAt.After(now) {
		r.mu.Unlock()
		return "", apperrors.ErrInvalidToken
	}
	t.Used = true
	t.UsedAt = &now
	r.tokens[tokenHash] = t
	r.mu.Unlock()

	if err := r.users.UpdatePasswordHash(ctx, t.UserID, newPasswordHash, now); err != nil {
		return "", err
	}
	u := r.users.get(t.UserID)
	u.FailedLoginAttempts = 0
	u.AccountLockedUntil = nil
	_ = r.users.UpdateLoginState(ctx, u)
	return t.UserID, nil
}

func (r *memResetRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// staleResetRepo serves the token as it was before any redemption, like a
// read that raced a concurrent writer.
type staleResetRepo struct {
	*memResetRepo
	snapshot domain.PasswordResetToken
}

func (r *staleResetRepo) FindResetTokenByHash(_ context.Context, _ string) (*domain.PasswordResetToken, error) {
	t := r.snapshot
	return &t, nil
}

func (r *memResetRepo) DeleteExpiredResetTokens(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for hash, t := range r.tokens {
		if !t.ExpiresAt.After(before) {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLogEntry
}

func (r *memAuditRepo) SaveAuditLog(_ context.Context, entry domain.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memAuditRepo) last() domain.AuditLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return domain.AuditLogEntry{}
	}
	return r.entries[len(r.entries)-1]
}

func (r *memAuditRepo) byAction(action domain.AuditAction) []domain.AuditLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditLogEntry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type memLinkRepo struct {
	mu     sync.Mutex
	links  map[string]domain.Link
	clicks []domain.Click
}

func newMemLinkRepo(links ...domain.Link) *memLinkRepo {
	r := &memLinkRepo{links: map[string]domain.Link{}}
	for _, l := range links {
		r.links[l.LinkID] = l
	}
	return r
}

func (r *memLinkRepo) FindLinkByID(_ context.Context, linkID string) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[linkID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &l, nil
}

func (r *memLinkRepo) ListLinksByOwner(_ context.Context, ownerID string, filter domain.LinkFilter) ([]domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Link
	for _, l := range r.links {
		if l.OwnerID != ownerID {
			continue
		}
		if filter.Category != nil && l.Category != *filter.Category {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].LinkID > out[j].LinkID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.AfterCreatedAt != nil {
		var page []domain.Link
		for _, l := range out {
			if l.CreatedAt.Before(*filter.AfterCreatedAt) ||
				(l.CreatedAt.Equal(*filter.AfterCreatedAt) && l.LinkID < filter.AfterLinkID) {
				page = append(page, l)
			}
		}
		out = page
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memLinkRepo) ListCategories(_ context.Context, ownerID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, l := range r.links {
		if l.OwnerID == ownerID && l.Category != "" && !seen[l.Category] {
			seen[l.Category] = true
			out = append(out, l.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memLinkRepo) SaveLink(_ context.Context, link domain.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[link.LinkID] = link
	return nil
}

func (r *memLinkRepo) UpdateLink(_ context.Context, link domain.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[link.LinkID]; !ok {
		return apperrors.ErrNotFound
	}
	r.links[link.LinkID] = link
	return nil
}

func (r *memLinkRepo) DeleteLink(_ context.Context, linkID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[linkID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.links, linkID)
	return nil
}

func (r *memLinkRepo) RecordClick(_ context.Context, click domain.Click) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[click.LinkID]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	l.ClickCount++
	r.links[click.LinkID] = l
	r.clicks = append(r.clicks, click)
	return l.ClickCount, nil
}

type memGroupRepo struct {
	mu      sync.Mutex
	groups  map[string]domain.Group
	members map[string]map[string]domain.GroupMember
}

func newMemGroupRepo() *memGroupRepo {
	return &memGroupRepo{groups: map[string]domain.Group{}, members: map[string]map[string]domain.GroupMember{}}
}

func (r *memGroupRepo) FindGroupByID(_ context.Context, groupID string) (*domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	g.MemberCount = len(r.members[groupID])
	return &g, nil
}

func (r *memGroupRepo) ListGroupsByUserID(_ context.Context, userID string) ([]domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Group
	for id, g := range r.groups {
		if _, ok := r.members[id][userID]; ok {
			g.MemberCount = len(r.members[id])
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *memGroupRepo) SaveGroup(_ context.Context, group domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.GroupID] = group
	r.members[group.GroupID] = map[string]domain.GroupMember{
		group.OwnerID: {GroupID: group.GroupID, UserID: group.OwnerID, IsOwner: true, JoinedAt: group.CreatedAt},
	}
	return nil
}

func (r *memGroupRepo) UpdateGroup(_ context.Context, group domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[group.GroupID]; !ok {
		return apperrors.ErrNotFound
	}
	r.groups[group.GroupID] = group
	return nil
}

func (r *memGroupRepo) DeleteGroup(_ context.Context, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, groupID)
	delete(r.members, groupID)
	return nil
}

func (r *memGroupRepo) AddGroupMember(_ context.Context, member domain.GroupMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[member.GroupID][member.UserID]; ok {
		return nil
	}
	r.members[member.GroupID][member.UserID] = member
	return nil
}

func (r *memGroupRepo) RemoveGroupMember(_ context.Context, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[groupID][userID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.members[groupID], userID)
	return nil
}

func (r *memGroupRepo) ListGroupMembers(_ context.Context, groupID string) ([]domain.GroupMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.GroupMember
	for _, m := range r.members[groupID] {
		out = append(out, m)
	}
	return out, nil
}

func (r *memGroupRepo) IsGroupMember(_ context.Context, groupID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[groupID][userID]
	return ok, nil
}

type memShareRepo struct {
	mu     sync.Mutex
	links  *memLinkRepo
	groups *memGroupRepo
	shares map[string]domain.Share
}

func newMemShareRepo(links *memLinkRepo, groups *memGroupRepo) *memShareRepo {
	return &memShareRepo{links: links, groups: groups, shares: map[string]domain.Share{}}
}

func (r *memShareRepo) FindShareByID(_ context.Context, shareID string) (*domain.Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shares[shareID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &s, nil
}

func (r *memShareRepo) ListSharesByLinkID(_ context.Context, linkID string) ([]domain.Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Share
	for _, s := range r.shares {
		if s.LinkID == linkID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memShareRepo) ListLinksSharedWithUser(ctx context.Context, userID string) ([]domain.SharedLink, error) {
	r.mu.Lock()
	shares := make([]domain.Share, 0, len(r.shares))
	for _, s := range r.shares {
		shares = append(shares, s)
	}
	r.mu.Unlock()

	var out []domain.SharedLink
	for _, s := range shares {
		reaches := s.TargetUserID != nil && *s.TargetUserID == userID
		if s.TargetGroupID != nil {
			isMember, _ := r.groups.IsGroupMember(ctx, *s.TargetGroupID, userID)
			reaches = isMember
		}
		if !reaches {
			continue
		}
		link, err := r.links.FindLinkByID(ctx, s.LinkID)
		if err != nil || link.OwnerID == userID {
			continue
		}
		out = append(out, domain.SharedLink{Link: *link, ShareID: s.ShareID, SharedBy: s.SharedBy, ViaGroup: s.TargetGroupID})
	}
	return out, nil
}

func (r *memShareRepo) SaveShare(_ context.Context, share domain.Share) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shares {
		if s.LinkID != share.LinkID {
			continue
		}
		if (s.TargetGroupID != nil && share.TargetGroupID != nil && *s.TargetGroupID == *share.TargetGroupID) ||
			(s.TargetUserID != nil && share.TargetUserID != nil && *s.TargetUserID == *share.TargetUserID) {
			return apperrors.ErrDuplicate
		}
	}
	r.shares[share.ShareID] = share
	return nil
}

func (r *memShareRepo) DeleteShare(_ context.Context, shareID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shares[shareID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.shares, shareID)
	return nil
}

// --- testify mocks for outbound collaborators ---

type MockResetNotifier struct {
	mock.Mock
}

func (m *MockResetNotifier) SendPasswordReset(ctx context.Context, toEmail, resetURL string) error {
	args := m.Called(ctx, toEmail, resetURL)
	return args.Error(0)
}

type MockEventTracker struct {
	mock.Mock
}

func (m *MockEventTracker) Track(ctx context.Context, distinctID, event string, properties map[string]any) {
	m.Called(ctx, distinctID, event, properties)
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func strPtr(s string) *string { return &s }

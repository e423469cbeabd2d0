package domain

import (
	"strings"
	"time"
)

// User represents an account holder in the domain.
// A user is always reachable by at least one login path: a password
// credential, a linked external identity, or both.
type User struct {
	UserID              string     `json:"userID"` // Primary Key (UUID)
	Email               *string    `json:"email,omitempty"`
	Phone               *string    `json:"phone,omitempty"`
	PasswordHash        *string    `json:"-"` // Argon2id (or legacy bcrypt) encoded hash
	FirstName           string     `json:"firstName"`
	LastName            string     `json:"lastName"`
	AvatarURL           *string    `json:"avatarURL,omitempty"`
	EmailVerified       bool       `json:"emailVerified"`
	FailedLoginAttempts int        `json:"-"`
	AccountLockedUntil  *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	LastUpdatedAt       time.Time  `json:"lastUpdatedAt"`
}

// LockoutPolicy holds the thresholds of the login lockout state machine.
type LockoutPolicy struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
}

// DefaultLockoutPolicy locks an account for 30 minutes after 5 consecutive failures.
var DefaultLockoutPolicy = LockoutPolicy{
	MaxFailedAttempts: 5,
	LockoutDuration:   30 * time.Minute,
}

// HasPassword reports whether the user can log in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// DisplayName returns "First Last", falling back to the email address.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Email != nil {
		return *u.Email
	}
	if u.Phone != nil {
		return *u.Phone
	}
	return ""
}

// IsLocked reports whether the lockout window is still running at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.AccountLockedUntil != nil && now.Before(*u.AccountLockedUntil)
}

// RegisterFailedLogin applies a failed password attempt and returns true when
// the account is locked as a result. The counter never exceeds the threshold.
func (u *User) RegisterFailedLogin(now time.Time, policy LockoutPolicy) bool {
	if u.FailedLoginAttempts < policy.MaxFailedAttempts {
		u.FailedLoginAttempts++
	}
	if u.FailedLoginAttempts >= policy.MaxFailedAttempts {
		lockedUntil := now.Add(policy.LockoutDuration)
		u.AccountLockedUntil = &lockedUntil
		return true
	}
	return false
}

// RegisterSuccessfulLogin clears the lockout state and stamps the login time.
func (u *User) RegisterSuccessfulLogin(now time.Time) {
	u.FailedLoginAttempts = 0
	u.AccountLockedUntil = nil
	u.LastLoginAt = &now
}

// Identity projects the user onto the minimal session identity.
func (u *User) Identity() Identity {
	id := Identity{
		UserID:      u.UserID,
		DisplayName: u.DisplayName(),
	}
	if u.Email != nil {
		id.Email = *u.Email
	}
	if u.AvatarURL != nil {
		id.AvatarURL = *u.AvatarURL
	}
	return id
}

// Identity is the minimal user projection carried by a session. It never
// contains credentials, provider tokens or lockout state.
type Identity struct {
	UserID      string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name"`
	AvatarURL   string `json:"avatar,omitempty"`
}

// RequestMeta describes where an auth-relevant request came from.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

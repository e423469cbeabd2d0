package domain

import "time"

// Session is the server-side record behind a session cookie. It is keyed by
// the SHA-256 of the handle; the handle itself is never stored.
type Session struct {
	TokenHash  string    `json:"tokenHash"`
	Identity   Identity  `json:"identity"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// IsExpired reports whether the session is no longer usable at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

package domain

import "time"

// PasswordResetToken is a one-time reset credential. Only the SHA-256 of the
// issued secret is persisted.
type PasswordResetToken struct {
	TokenID   string     `json:"tokenID"`
	UserID    string     `json:"userID"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ResetTokenStatus is the redeemability of a token at a point in time.
type ResetTokenStatus string

const (
	ResetTokenValid   ResetTokenStatus = "valid"
	ResetTokenUsed    ResetTokenStatus = "token_used"
	ResetTokenExpired ResetTokenStatus = "token_expired"
	ResetTokenUnknown ResetTokenStatus = "token_not_found"
)

// Status evaluates the token at now. A token is expired from ExpiresAt on,
// and a used token reports used even once expired.
func (t *PasswordResetToken) Status(now time.Time) ResetTokenStatus {
	if t.Used {
		return ResetTokenUsed
	}
	if !now.Before(t.ExpiresAt) {
		return ResetTokenExpired
	}
	return ResetTokenValid
}

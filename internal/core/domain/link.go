package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Link is a referral URL stored by its owner. URL and Notes are plaintext in
// the domain; repositories encrypt them at rest.
type Link struct {
	LinkID      string           `json:"linkID"`  // Primary Key (UUID)
	OwnerID     string           `json:"ownerID"` // FK -> users.user_id
	Title       string           `json:"title"`
	URL         string           `json:"url"`
	Notes       string           `json:"notes"`
	Category    string           `json:"category"`
	BonusValue  *decimal.Decimal `json:"bonusValue,omitempty"` // Referral reward, if known
	ClickCount  int64            `json:"clickCount"`
	AuditFields                  // Embed common audit fields
}

// LinkFilter narrows ListLinks. Results are ordered newest first; After
// fields are the keyset position of the previous page's last row.
type LinkFilter struct {
	Category       *string
	Limit          int
	AfterCreatedAt *time.Time
	AfterLinkID    string
}

package domain

import "time"

// Click is one recorded visit of a referral link.
type Click struct {
	ClickID   string    `json:"clickID"`
	LinkID    string    `json:"linkID"`
	UserID    string    `json:"userID"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	ClickedAt time.Time `json:"clickedAt"`
}

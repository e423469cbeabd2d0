package domain

import "time"

// Share grants visibility of a link to either a group or a single user.
// Exactly one of TargetGroupID and TargetUserID is set.
type Share struct {
	ShareID       string    `json:"shareID"`
	LinkID        string    `json:"linkID"`
	SharedBy      string    `json:"sharedBy"`
	TargetGroupID *string   `json:"targetGroupID,omitempty"`
	TargetUserID  *string   `json:"targetUserID,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// IsGroupShare reports whether the share targets a group.
func (s *Share) IsGroupShare() bool {
	return s.TargetGroupID != nil
}

// SharedLink is a link visible to the caller through a share.
type SharedLink struct {
	Link     Link    `json:"link"`
	ShareID  string  `json:"shareID"`
	SharedBy string  `json:"sharedBy"`
	ViaGroup *string `json:"viaGroupID,omitempty"`
}

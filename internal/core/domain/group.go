package domain

import "time"

// Group is a named circle of users that links can be shared into.
type Group struct {
	GroupID     string `json:"groupID"` // Primary Key (UUID)
	OwnerID     string `json:"ownerID"` // FK -> users.user_id
	Name        string `json:"name"`
	Description string `json:"description"`
	MemberCount int    `json:"memberCount"`
	AuditFields        // Embed common audit fields
}

// GroupMember represents the membership of a User in a Group.
type GroupMember struct {
	GroupID  string    `json:"groupID"` // FK -> groups.group_id
	UserID   string    `json:"userID"`  // FK -> users.user_id
	UserName string    `json:"userName"`
	Email    *string   `json:"email,omitempty"`
	IsOwner  bool      `json:"isOwner"`
	JoinedAt time.Time `json:"joinedAt"`
}

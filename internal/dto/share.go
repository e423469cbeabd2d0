package dto

import (
	"time"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// CreateShareRequest targets exactly one of a group or a user.
type CreateShareRequest struct {
	GroupID *string `json:"groupID" binding:"required_without=UserID,excluded_with=UserID,omitempty,uuid"`
	UserID  *string `json:"userID" binding:"required_without=GroupID,excluded_with=GroupID,omitempty,uuid"`
}

// ShareResponse defines data returned for a share.
type ShareResponse struct {
	ShareID       string    `json:"shareID"`
	LinkID        string    `json:"linkID"`
	SharedBy      string    `json:"sharedBy"`
	TargetGroupID *string   `json:"targetGroupID,omitempty"`
	TargetUserID  *string   `json:"targetUserID,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ToShareResponse converts domain.Share to DTO.
func ToShareResponse(s *domain.Share) ShareResponse {
	return ShareResponse{
		ShareID:       s.ShareID,
		LinkID:        s.LinkID,
		SharedBy:      s.SharedBy,
		TargetGroupID: s.TargetGroupID,
		TargetUserID:  s.TargetUserID,
		CreatedAt:     s.CreatedAt,
	}
}

// ListSharesResponse wraps a list of shares.
type ListSharesResponse struct {
	Shares []ShareResponse `json:"shares"`
}

// ToListSharesResponse converts a slice of domain.Share to DTO.
func ToListSharesResponse(shares []domain.Share) ListSharesResponse {
	list := make([]ShareResponse, len(shares))
	for i := range shares {
		list[i] = ToShareResponse(&shares[i])
	}
	return ListSharesResponse{Shares: list}
}

// SharedLinkResponse is a link visible through a share.
type SharedLinkResponse struct {
	Link       LinkResponse `json:"link"`
	ShareID    string       `json:"shareID"`
	SharedBy   string       `json:"sharedBy"`
	ViaGroupID *string      `json:"viaGroupID,omitempty"`
}

// ListSharedWithMeResponse wraps links shared with the caller.
type ListSharedWithMeResponse struct {
	Links []SharedLinkResponse `json:"links"`
}

// ToListSharedWithMeResponse converts a slice of domain.SharedLink to DTO.
func ToListSharedWithMeResponse(links []domain.SharedLink) ListSharedWithMeResponse {
	list := make([]SharedLinkResponse, len(links))
	for i := range links {
		list[i] = SharedLinkResponse{
			Link:       ToLinkResponse(&links[i].Link),
			ShareID:    links[i].ShareID,
			SharedBy:   links[i].SharedBy,
			ViaGroupID: links[i].ViaGroup,
		}
	}
	return ListSharedWithMeResponse{Links: list}
}

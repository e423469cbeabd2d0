package dto

import (
	"time"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateLinkRequest defines data for storing a referral link.
type CreateLinkRequest struct {
	Title      string           `json:"title" binding:"required,max=200"`
	URL        string           `json:"url" binding:"required,url,max=2048"`
	Notes      string           `json:"notes" binding:"max=4000"`
	Category   string           `json:"category" binding:"max=100"`
	BonusValue *decimal.Decimal `json:"bonusValue"`
}

// UpdateLinkRequest uses pointers to tell omitted fields from zero values.
type UpdateLinkRequest struct {
	Title      *string          `json:"title" binding:"omitempty,min=1,max=200"`
	URL        *string          `json:"url" binding:"omitempty,url,max=2048"`
	Notes      *string          `json:"notes" binding:"omitempty,max=4000"`
	Category   *string          `json:"category" binding:"omitempty,max=100"`
	BonusValue *decimal.Decimal `json:"bonusValue"`
}

// ListLinksParams defines query parameters for listing links.
type ListLinksParams struct {
	Category  *string `form:"category"`
	Limit     int     `form:"limit,default=50" binding:"min=1,max=200"`
	NextToken *string `form:"nextToken"`
}

// LinkResponse defines data returned for a link.
type LinkResponse struct {
	LinkID        string           `json:"linkID"`
	OwnerID       string           `json:"ownerID"`
	Title         string           `json:"title"`
	URL           string           `json:"url"`
	Notes         string           `json:"notes"`
	Category      string           `json:"category"`
	BonusValue    *decimal.Decimal `json:"bonusValue,omitempty"`
	ClickCount    int64            `json:"clickCount"`
	CreatedAt     time.Time        `json:"createdAt"`
	LastUpdatedAt time.Time        `json:"lastUpdatedAt"`
}

// ToLinkResponse converts domain.Link to DTO.
func ToLinkResponse(l *domain.Link) LinkResponse {
	return LinkResponse{
		LinkID:        l.LinkID,
		OwnerID:       l.OwnerID,
		Title:         l.Title,
		URL:           l.URL,
		Notes:         l.Notes,
		Category:      l.Category,
		BonusValue:    l.BonusValue,
		ClickCount:    l.ClickCount,
		CreatedAt:     l.CreatedAt,
		LastUpdatedAt: l.LastUpdatedAt,
	}
}

// ListLinksResponse wraps a list of links.
type ListLinksResponse struct {
	Links     []LinkResponse `json:"links"`
	NextToken *string        `json:"nextToken,omitempty"`
}

// ToListLinksResponse converts a slice of domain.Link to DTO.
func ToListLinksResponse(links []domain.Link, nextToken *string) ListLinksResponse {
	list := make([]LinkResponse, len(links))
	for i := range links {
		list[i] = ToLinkResponse(&links[i])
	}
	return ListLinksResponse{Links: list, NextToken: nextToken}
}

// CategoriesResponse lists distinct link categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// ClickResponse is returned after recording a click.
type ClickResponse struct {
	ClickID    string    `json:"clickID"`
	LinkID     string    `json:"linkID"`
	ClickedAt  time.Time `json:"clickedAt"`
	ClickCount int64     `json:"clickCount"`
}

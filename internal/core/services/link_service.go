package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/dto"
	"github.com/SscSPs/referral_vault/internal/utils/pagination"
	"github.com/google/uuid"
)

const (
	defaultLinkPageSize = 50
	maxLinkPageSize     = 200
)

// linkService manages referral links. Every operation on an existing link goes
// through the authorization guard first.
type linkService struct {
	BaseService
	linkRepo portsrepo.LinkRepositoryFacade
	guard    portssvc.ResourceAuthorizer
	tracker  portssvc.EventTracker
}

// LinkServiceOption configures the link service.
type LinkServiceOption func(*linkService)

// WithLinkTracker sends link_clicked analytics events.
func WithLinkTracker(tracker portssvc.EventTracker) LinkServiceOption {
	return func(s *linkService) { s.tracker = tracker }
}

// WithLinkClock overrides the time source.
func WithLinkClock(clock func() time.Time) LinkServiceOption {
	return func(s *linkService) { s.clock = clock }
}

// NewLinkService creates a new LinkSvcFacade.
func NewLinkService(linkRepo portsrepo.LinkRepositoryFacade, guard portssvc.ResourceAuthorizer, opts ...LinkServiceOption) portssvc.LinkSvcFacade {
	s := &linkService{linkRepo: linkRepo, guard: guard}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.LinkSvcFacade = (*linkService)(nil)

// CreateLink stores a new link owned by userID.
func (s *linkService) CreateLink(ctx context.Context, userID string, req dto.CreateLinkRequest) (*domain.Link, error) {
	if err := validateLinkURL(req.URL); err != nil {
		return nil, err
	}
	if req.BonusValue != nil && req.BonusValue.IsNegative() {
		return nil, apperrors.NewValidationFailedError("bonusValue cannot be negative")
	}

	now := s.Now()
	link := domain.Link{
		LinkID:     uuid.NewString(),
		OwnerID:    userID,
		Title:      strings.TrimSpace(req.Title),
		URL:        strings.TrimSpace(req.URL),
		Notes:      req.Notes,
		Category:   strings.TrimSpace(req.Category),
		BonusValue: req.BonusValue,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.linkRepo.SaveLink(ctx, link); err != nil {
		s.LogError(ctx, err, "Failed to save link", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to create link: %w", err)
	}
	s.LogInfo(ctx, "Link created", slog.String("link_id", link.LinkID))
	return &link, nil
}

// GetLinkByID returns a link the user owns or has been shared.
func (s *linkService) GetLinkByID(ctx context.Context, userID, linkID string) (*domain.Link, error) {
	return s.guard.AuthorizeLinkAction(ctx, userID, linkID)
}

// ListLinks returns one page of the user's own links.
func (s *linkService) ListLinks(ctx context.Context, userID string, params dto.ListLinksParams) ([]domain.Link, *string, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLinkPageSize
	}
	if limit > maxLinkPageSize {
		limit = maxLinkPageSize
	}

	filter := domain.LinkFilter{Limit: limit + 1}
	if params.Category != nil && strings.TrimSpace(*params.Category) != "" {
		category := strings.TrimSpace(*params.Category)
		filter.Category = &category
	}
	if params.NextToken != nil && *params.NextToken != "" {
		cursor, err := pagination.DecodeToken(*params.NextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationFailedError("invalid nextToken")
		}
		filter.AfterCreatedAt = &cursor.CreatedAt
		filter.AfterLinkID = cursor.ID
	}

	links, err := s.linkRepo.ListLinksByOwner(ctx, userID, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list links", slog.String("user_id", userID))
		return nil, nil, fmt.Errorf("failed to list links: %w", err)
	}
	if links == nil {
		return []domain.Link{}, nil, nil
	}

	var next *string
	if len(links) > limit {
		links = links[:limit]
		last := links[len(links)-1]
		token := pagination.EncodeToken(last.CreatedAt, last.LinkID)
		next = &token
	}
	return links, next, nil
}

// ListCategories returns the distinct categories of the user's links.
func (s *linkService) ListCategories(ctx context.Context, userID string) ([]string, error) {
	categories, err := s.linkRepo.ListCategories(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list categories", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		return []string{}, nil
	}
	return categories, nil
}

// UpdateLink applies the provided fields. Owner only.
func (s *linkService) UpdateLink(ctx context.Context, userID, linkID string, req dto.UpdateLinkRequest) (*domain.Link, error) {
	link, err := s.guard.AuthorizeLinkOwner(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		link.Title = strings.TrimSpace(*req.Title)
	}
	if req.URL != nil {
		if err := validateLinkURL(*req.URL); err != nil {
			return nil, err
		}
		link.URL = strings.TrimSpace(*req.URL)
	}
	if req.Notes != nil {
		link.Notes = *req.Notes
	}
	if req.Category != nil {
		link.Category = strings.TrimSpace(*req.Category)
	}
	if req.BonusValue != nil {
		if req.BonusValue.IsNegative() {
			return nil, apperrors.NewValidationFailedError("bonusValue cannot be negative")
		}
		link.BonusValue = req.BonusValue
	}
	link.LastUpdatedAt = s.Now()
	link.LastUpdatedBy = userID

	if err := s.linkRepo.UpdateLink(ctx, *link); err != nil {
		s.LogError(ctx, err, "Failed to update link", slog.String("link_id", linkID))
		return nil, fmt.Errorf("failed to update link: %w", err)
	}
	return link, nil
}

// DeleteLink removes a link with its shares and clicks. Owner only.
func (s *linkService) DeleteLink(ctx context.Context, userID, linkID string) error {
	if _, err := s.guard.AuthorizeLinkOwner(ctx, userID, linkID); err != nil {
		return err
	}
	if err := s.linkRepo.DeleteLink(ctx, linkID); err != nil {
		s.LogError(ctx, err, "Failed to delete link", slog.String("link_id", linkID))
		return fmt.Errorf("failed to delete link: %w", err)
	}
	s.LogInfo(ctx, "Link deleted", slog.String("link_id", linkID))
	return nil
}

// RecordClick stores a click by the owner or by a user the link was shared with.
func (s *linkService) RecordClick(ctx context.Context, userID, linkID string, meta domain.RequestMeta) (*domain.Click, int64, error) {
	link, err := s.guard.AuthorizeLinkAction(ctx, userID, linkID)
	if err != nil {
		return nil, 0, err
	}

	click := domain.Click{
		ClickID:   uuid.NewString(),
		LinkID:    link.LinkID,
		UserID:    userID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		ClickedAt: s.Now(),
	}
	count, err := s.linkRepo.RecordClick(ctx, click)
	if err != nil {
		s.LogError(ctx, err, "Failed to record click", slog.String("link_id", linkID))
		return nil, 0, fmt.Errorf("failed to record click: %w", err)
	}

	if s.tracker != nil {
		s.tracker.Track(ctx, userID, "link_clicked", map[string]any{
			"link_id":  link.LinkID,
			"category": link.Category,
			"is_owner": link.OwnerID == userID,
		})
	}
	return &click, count, nil
}

func validateLinkURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return apperrors.NewValidationFailedError("url must be an absolute http or https URL")
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/google/uuid"
)

type shareService struct {
	BaseService
	shareRepo portsrepo.ShareRepositoryFacade
	linkRepo  portsrepo.LinkReader
	userRepo  portsrepo.UserReader
	guard     portssvc.AuthorizationSvcFacade
	tracker   portssvc.EventTracker
}

// ShareServiceOption configures the share service.
type ShareServiceOption func(*shareService)

// WithShareClock overrides the time source.
func WithShareClock(clock func() time.Time) ShareServiceOption {
	return func(s *shareService) { s.clock = clock }
}

// WithShareTracker sends link_shared analytics events.
func WithShareTracker(tracker portssvc.EventTracker) ShareServiceOption {
	return func(s *shareService) { s.tracker = tracker }
}

// NewShareService creates a new ShareSvcFacade.
func NewShareService(
	shareRepo portsrepo.ShareRepositoryFacade,
	linkRepo portsrepo.LinkReader,
	userRepo portsrepo.UserReader,
	guard portssvc.AuthorizationSvcFacade,
	opts ...ShareServiceOption,
) portssvc.ShareSvcFacade {
	s := &shareService{
		shareRepo: shareRepo,
		linkRepo:  linkRepo,
		userRepo:  userRepo,
		guard:     guard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.ShareSvcFacade = (*shareService)(nil)

// ShareWithGroup makes an owned link visible to every member of the group.
func (s *shareService) ShareWithGroup(ctx context.Context, userID, linkID, groupID string) (*domain.Share, error) {
	link, err := s.guard.AuthorizeLinkOwner(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.AuthorizeGroupShare(ctx, userID, groupID); err != nil {
		return nil, err
	}

	target := groupID
	return s.save(ctx, domain.Share{
		ShareID:       uuid.NewString(),
		LinkID:        link.LinkID,
		SharedBy:      userID,
		TargetGroupID: &target,
		CreatedAt:     s.Now(),
	})
}

// ShareWithUser makes an owned link visible to a single user.
func (s *shareService) ShareWithUser(ctx context.Context, userID, linkID, targetUserID string) (*domain.Share, error) {
	link, err := s.guard.AuthorizeLinkOwner(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}
	if targetUserID == userID {
		return nil, apperrors.NewValidationFailedError("cannot share a link with yourself")
	}
	if _, err := s.userRepo.FindUserByID(ctx, targetUserID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user not found")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	target := targetUserID
	return s.save(ctx, domain.Share{
		ShareID:      uuid.NewString(),
		LinkID:       link.LinkID,
		SharedBy:     userID,
		TargetUserID: &target,
		CreatedAt:    s.Now(),
	})
}

// ListSharesForLink lists who a link is shared with. Owner only.
func (s *shareService) ListSharesForLink(ctx context.Context, userID, linkID string) ([]domain.Share, error) {
	if _, err := s.guard.AuthorizeLinkOwner(ctx, userID, linkID); err != nil {
		return nil, err
	}
	shares, err := s.shareRepo.ListSharesByLinkID(ctx, linkID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list shares", slog.String("link_id", linkID))
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	if shares == nil {
		return []domain.Share{}, nil
	}
	return shares, nil
}

// RevokeShare deletes a share. Allowed to the link owner and to whoever created the share.
func (s *shareService) RevokeShare(ctx context.Context, userID, shareID string) error {
	share, err := s.shareRepo.FindShareByID(ctx, shareID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("share not found")
		}
		s.LogError(ctx, err, "Failed to load share", slog.String("share_id", shareID))
		return fmt.Errorf("failed to load share: %w", err)
	}

	if share.SharedBy != userID {
		link, err := s.linkRepo.FindLinkByID(ctx, share.LinkID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("failed to load shared link: %w", err)
		}
		if !s.guard.OwnsLink(userID, link) {
			s.LogWarn(ctx, "Authorization failed: cannot revoke share",
				slog.String("share_id", shareID),
				slog.String("user_id", userID))
			return apperrors.NewForbiddenError("only the link owner or the sharer can revoke this share")
		}
	}

	if err := s.shareRepo.DeleteShare(ctx, shareID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("share not found")
		}
		s.LogError(ctx, err, "Failed to delete share", slog.String("share_id", shareID))
		return fmt.Errorf("failed to revoke share: %w", err)
	}
	s.LogInfo(ctx, "Share revoked", slog.String("share_id", shareID))
	return nil
}

// ListSharedWithMe returns links other users shared with the caller.
func (s *shareService) ListSharedWithMe(ctx context.Context, userID string) ([]domain.SharedLink, error) {
	links, err := s.shareRepo.ListLinksSharedWithUser(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list shared links", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to list shared links: %w", err)
	}
	if links == nil {
		return []domain.SharedLink{}, nil
	}
	return links, nil
}

func (s *shareService) save(ctx context.Context, share domain.Share) (*domain.Share, error) {
	if err := s.shareRepo.SaveShare(ctx, share); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.NewConflictError("link is already shared with this target")
		}
		s.LogError(ctx, err, "Failed to save share", slog.String("link_id", share.LinkID))
		return nil, fmt.Errorf("failed to share link: %w", err)
	}
	if s.tracker != nil {
		s.tracker.Track(ctx, share.SharedBy, "link_shared", map[string]any{
			"link_id":     share.LinkID,
			"group_share": share.IsGroupShare(),
		})
	}
	s.LogInfo(ctx, "Link shared",
		slog.String("share_id", share.ShareID),
		slog.String("link_id", share.LinkID))
	return &share, nil
}

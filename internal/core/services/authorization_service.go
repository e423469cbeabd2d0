package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
)

// authorizationService evaluates ownership and membership predicates. Missing
// resources are reported as not found before any predicate runs; existing
// resources the caller may not touch are forbidden.
type authorizationService struct {
	BaseService
	linkRepo  portsrepo.LinkReader
	groupRepo portsrepo.GroupRepositoryFacade
	shareRepo portsrepo.ShareReader
}

// NewAuthorizationService creates a new AuthorizationSvcFacade.
func NewAuthorizationService(linkRepo portsrepo.LinkReader, groupRepo portsrepo.GroupRepositoryFacade, shareRepo portsrepo.ShareReader) portssvc.AuthorizationSvcFacade {
	return &authorizationService{
		linkRepo:  linkRepo,
		groupRepo: groupRepo,
		shareRepo: shareRepo,
	}
}

var _ portssvc.AuthorizationSvcFacade = (*authorizationService)(nil)

// OwnsLink reports link.ownerId == userID.
func (s *authorizationService) OwnsLink(userID string, link *domain.Link) bool {
	return link != nil && userID != "" && link.OwnerID == userID
}

// CanAccessGroup is true for the owner and for members.
func (s *authorizationService) CanAccessGroup(ctx context.Context, userID string, group *domain.Group) (bool, error) {
	if group == nil || userID == "" {
		return false, nil
	}
	if group.OwnerID == userID {
		return true, nil
	}
	isMember, err := s.groupRepo.IsGroupMember(ctx, group.GroupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return isMember, nil
}

// CanEditGroup is owner only; membership is not enough.
func (s *authorizationService) CanEditGroup(userID string, group *domain.Group) bool {
	return group != nil && userID != "" && group.OwnerID == userID
}

// CanShareToGroup lets any member share into the group.
func (s *authorizationService) CanShareToGroup(ctx context.Context, userID string, group *domain.Group) (bool, error) {
	return s.CanAccessGroup(ctx, userID, group)
}

// CanActOnLink is true for the owner, or when a share targets the user
// directly or a group the user belongs to.
func (s *authorizationService) CanActOnLink(ctx context.Context, userID string, link *domain.Link) (bool, error) {
	if s.OwnsLink(userID, link) {
		return true, nil
	}
	if link == nil || userID == "" {
		return false, nil
	}

	shares, err := s.shareRepo.ListSharesByLinkID(ctx, link.LinkID)
	if err != nil {
		return false, fmt.Errorf("failed to list shares of link: %w", err)
	}
	for _, share := range shares {
		if share.TargetUserID != nil && *share.TargetUserID == userID {
			return true, nil
		}
	}
	for _, share := range shares {
		if share.TargetGroupID == nil {
			continue
		}
		group, err := s.groupRepo.FindGroupByID(ctx, *share.TargetGroupID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return false, fmt.Errorf("failed to load shared group: %w", err)
		}
		ok, err := s.CanAccessGroup(ctx, userID, group)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// AuthorizeLinkOwner loads a link the user owns.
func (s *authorizationService) AuthorizeLinkOwner(ctx context.Context, userID, linkID string) (*domain.Link, error) {
	link, err := s.loadLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if !s.OwnsLink(userID, link) {
		s.deny(ctx, "link", linkID, userID, "not the owner")
		return nil, apperrors.NewForbiddenError("only the link owner can do this")
	}
	return link, nil
}

// AuthorizeLinkAction loads a link the user owns or has been shared.
func (s *authorizationService) AuthorizeLinkAction(ctx context.Context, userID, linkID string) (*domain.Link, error) {
	link, err := s.loadLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanActOnLink(ctx, userID, link)
	if err != nil {
		s.LogError(ctx, err, "Failed to evaluate link access", slog.String("link_id", linkID))
		return nil, err
	}
	if !ok {
		s.deny(ctx, "link", linkID, userID, "no share reaches the user")
		return nil, apperrors.NewForbiddenError("this link has not been shared with you")
	}
	return link, nil
}

// AuthorizeGroupAccess loads a group the user owns or belongs to.
func (s *authorizationService) AuthorizeGroupAccess(ctx context.Context, userID, groupID string) (*domain.Group, error) {
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanAccessGroup(ctx, userID, group)
	if err != nil {
		s.LogError(ctx, err, "Failed to evaluate group access", slog.String("group_id", groupID))
		return nil, err
	}
	if !ok {
		s.deny(ctx, "group", groupID, userID, "not a member")
		return nil, apperrors.NewForbiddenError("you are not a member of this group")
	}
	return group, nil
}

// AuthorizeGroupEdit loads a group the user owns.
func (s *authorizationService) AuthorizeGroupEdit(ctx context.Context, userID, groupID string) (*domain.Group, error) {
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !s.CanEditGroup(userID, group) {
		s.deny(ctx, "group", groupID, userID, "not the owner")
		return nil, apperrors.NewForbiddenError("only the group owner can do this")
	}
	return group, nil
}

// AuthorizeGroupShare loads a group the user may share links into.
func (s *authorizationService) AuthorizeGroupShare(ctx context.Context, userID, groupID string) (*domain.Group, error) {
	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanShareToGroup(ctx, userID, group)
	if err != nil {
		s.LogError(ctx, err, "Failed to evaluate group share permission", slog.String("group_id", groupID))
		return nil, err
	}
	if !ok {
		s.deny(ctx, "group", groupID, userID, "not a member")
		return nil, apperrors.NewForbiddenError("only group members can share into this group")
	}
	return group, nil
}

func (s *authorizationService) loadLink(ctx context.Context, linkID string) (*domain.Link, error) {
	link, err := s.linkRepo.FindLinkByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("link not found")
		}
		s.LogError(ctx, err, "Failed to load link", slog.String("link_id", linkID))
		return nil, fmt.Errorf("failed to load link: %w", err)
	}
	return link, nil
}

func (s *authorizationService) loadGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	group, err := s.groupRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("group not found")
		}
		s.LogError(ctx, err, "Failed to load group", slog.String("group_id", groupID))
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	return group, nil
}

func (s *authorizationService) deny(ctx context.Context, kind, id, userID, why string) {
	s.LogWarn(ctx, "Authorization failed: "+why,
		slog.String("resource", kind),
		slog.String("resource_id", id),
		slog.String("user_id", userID))
}

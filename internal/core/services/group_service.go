package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/dto"
	"github.com/google/uuid"
)

// groupService implements the GroupSvcFacade interface
type groupService struct {
	BaseService
	groupRepo portsrepo.GroupRepositoryFacade
	userRepo  portsrepo.UserReader
	guard     portssvc.ResourceAuthorizer
}

// GroupServiceOption configures the group service.
type GroupServiceOption func(*groupService)

// WithGroupClock overrides the time source.
func WithGroupClock(clock func() time.Time) GroupServiceOption {
	return func(s *groupService) { s.clock = clock }
}

// NewGroupService creates a new group service with the provided dependencies
func NewGroupService(
	groupRepo portsrepo.GroupRepositoryFacade,
	userRepo portsrepo.UserReader,
	guard portssvc.ResourceAuthorizer,
	opts ...GroupServiceOption,
) portssvc.GroupSvcFacade {
	s := &groupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		guard:     guard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.GroupSvcFacade = (*groupService)(nil)

// GetGroupByID retrieves a group the user owns or belongs to
func (s *groupService) GetGroupByID(ctx context.Context, userID, groupID string) (*domain.Group, error) {
	return s.guard.AuthorizeGroupAccess(ctx, userID, groupID)
}

// ListGroups retrieves all groups a user belongs to
func (s *groupService) ListGroups(ctx context.Context, userID string) ([]domain.Group, error) {
	groups, err := s.groupRepo.ListGroupsByUserID(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list groups for user",
			slog.String("user_id", userID))
		return nil, err
	}

	if groups == nil {
		return []domain.Group{}, nil
	}

	s.LogDebug(ctx, "Groups listed successfully",
		slog.Int("count", len(groups)),
		slog.String("user_id", userID))
	return groups, nil
}

// ListMembers lists members of a group the user can see
func (s *groupService) ListMembers(ctx context.Context, userID, groupID string) ([]domain.GroupMember, error) {
	if _, err := s.guard.AuthorizeGroupAccess(ctx, userID, groupID); err != nil {
		return nil, err
	}

	members, err := s.groupRepo.ListGroupMembers(ctx, groupID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list group members",
			slog.String("group_id", groupID))
		return nil, err
	}
	if members == nil {
		return []domain.GroupMember{}, nil
	}
	return members, nil
}

// CreateGroup creates a new group owned by userID
func (s *groupService) CreateGroup(ctx context.Context, userID string, req dto.CreateGroupRequest) (*domain.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationFailedError("group name cannot be empty")
	}

	now := s.Now()
	group := domain.Group{
		GroupID:     uuid.NewString(),
		OwnerID:     userID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		MemberCount: 1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.groupRepo.SaveGroup(ctx, group); err != nil {
		s.LogError(ctx, err, "Failed to save group",
			slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.LogInfo(ctx, "Group created successfully",
		slog.String("group_id", group.GroupID),
		slog.String("owner_id", userID))
	return &group, nil
}

// UpdateGroup changes name and description. Owner only.
func (s *groupService) UpdateGroup(ctx context.Context, userID, groupID string, req dto.UpdateGroupRequest) (*domain.Group, error) {
	group, err := s.guard.AuthorizeGroupEdit(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.NewValidationFailedError("group name cannot be empty")
		}
		group.Name = name
	}
	if req.Description != nil {
		group.Description = strings.TrimSpace(*req.Description)
	}
	group.LastUpdatedAt = s.Now()
	group.LastUpdatedBy = userID

	if err := s.groupRepo.UpdateGroup(ctx, *group); err != nil {
		s.LogError(ctx, err, "Failed to update group",
			slog.String("group_id", groupID))
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return group, nil
}

// DeleteGroup removes a group along with its memberships and shares. Owner only.
func (s *groupService) DeleteGroup(ctx context.Context, userID, groupID string) error {
	if _, err := s.guard.AuthorizeGroupEdit(ctx, userID, groupID); err != nil {
		return err
	}
	if err := s.groupRepo.DeleteGroup(ctx, groupID); err != nil {
		s.LogError(ctx, err, "Failed to delete group",
			slog.String("group_id", groupID))
		return fmt.Errorf("failed to delete group: %w", err)
	}
	s.LogInfo(ctx, "Group deleted", slog.String("group_id", groupID))
	return nil
}

// AddMember adds a user, found by ID or email, to a group. Owner only.
func (s *groupService) AddMember(ctx context.Context, userID, groupID string, req dto.AddGroupMemberRequest) (*domain.GroupMember, error) {
	if _, err := s.guard.AuthorizeGroupEdit(ctx, userID, groupID); err != nil {
		return nil, err
	}

	invitee, err := s.findInvitee(ctx, req)
	if err != nil {
		return nil, err
	}

	member := domain.GroupMember{
		GroupID:  groupID,
		UserID:   invitee.UserID,
		UserName: invitee.DisplayName(),
		Email:    invitee.Email,
		JoinedAt: s.Now(),
	}
	if err := s.groupRepo.AddGroupMember(ctx, member); err != nil {
		s.LogError(ctx, err, "Failed to add user to group",
			slog.String("group_id", groupID),
			slog.String("member_id", invitee.UserID))
		return nil, fmt.Errorf("failed to add group member: %w", err)
	}

	s.LogInfo(ctx, "User added to group",
		slog.String("group_id", groupID),
		slog.String("member_id", invitee.UserID))
	return &member, nil
}

// RemoveMember removes a member. The owner may remove anyone but themselves;
// other members may only leave.
func (s *groupService) RemoveMember(ctx context.Context, userID, groupID, memberUserID string) error {
	group, err := s.guard.AuthorizeGroupAccess(ctx, userID, groupID)
	if err != nil {
		return err
	}

	if memberUserID == group.OwnerID {
		return apperrors.NewValidationFailedError("the group owner cannot be removed")
	}
	if userID != group.OwnerID && userID != memberUserID {
		s.LogWarn(ctx, "Non-owner attempted to remove another member",
			slog.String("group_id", groupID),
			slog.String("user_id", userID))
		return apperrors.NewForbiddenError("only the group owner can remove other members")
	}

	if err := s.groupRepo.RemoveGroupMember(ctx, groupID, memberUserID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("user is not a member of this group")
		}
		s.LogError(ctx, err, "Failed to remove group member",
			slog.String("group_id", groupID),
			slog.String("member_id", memberUserID))
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return nil
}

func (s *groupService) findInvitee(ctx context.Context, req dto.AddGroupMemberRequest) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)
	switch {
	case req.UserID != nil && *req.UserID != "":
		user, err = s.userRepo.FindUserByID(ctx, *req.UserID)
	case req.Email != nil && *req.Email != "":
		user, err = s.userRepo.FindUserByEmail(ctx, NormalizeEmail(*req.Email))
	default:
		return nil, apperrors.NewValidationFailedError("either userID or email is required")
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user not found")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

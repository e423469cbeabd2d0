package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxGroupRepository struct {
	BaseRepository
}

// newPgxGroupRepository creates a new repository for group data.
func newPgxGroupRepository(pool *pgxpool.Pool) *PgxGroupRepository {
	return &PgxGroupRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxGroupRepository implements portsrepo.GroupRepositoryFacade
var _ portsrepo.GroupRepositoryFacade = (*PgxGroupRepository)(nil)

var fullGroupSelectQuery = `
SELECT
	g.group_id, g.owner_id, g.name, g.description,
	(SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = g.group_id) AS member_count,
	g.created_at, g.created_by, g.last_updated_at, g.last_updated_by
FROM user_groups g
`

// getGroups runs fullGroupSelectQuery with the given filter
func (r *PgxGroupRepository) getGroups(ctx context.Context, filterQuery string, args ...any) ([]domain.Group, error) {
	rows, err := r.Pool.Query(ctx, fullGroupSelectQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query groups", err)
	}
	defer rows.Close()

	groups := []domain.Group{}
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(
			&g.GroupID,
			&g.OwnerID,
			&g.Name,
			&g.Description,
			&g.MemberCount,
			&g.CreatedAt,
			&g.CreatedBy,
			&g.LastUpdatedAt,
			&g.LastUpdatedBy,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan group row", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating group rows", err)
	}
	return groups, nil
}

func (r *PgxGroupRepository) FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error) {
	groups, err := r.getGroups(ctx, `WHERE g.group_id = $1`, groupID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &groups[0], nil
}

func (r *PgxGroupRepository) ListGroupsByUserID(ctx context.Context, userID string) ([]domain.Group, error) {
	query := `
		JOIN group_members m ON m.group_id = g.group_id
		WHERE m.user_id = $1
		ORDER BY g.name;
	`
	return r.getGroups(ctx, query, userID)
}

// SaveGroup inserts the group and the owner's membership together.
func (r *PgxGroupRepository) SaveGroup(ctx context.Context, group domain.Group) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO user_groups (
				group_id, owner_id, name, description,
				created_at, created_by, last_updated_at, last_updated_by
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
		`
		if _, err := tx.Exec(ctx, query,
			group.GroupID,
			group.OwnerID,
			group.Name,
			group.Description,
			group.CreatedAt,
			group.CreatedBy,
			group.LastUpdatedAt,
			group.LastUpdatedBy,
		); err != nil {
			if isUniqueViolation(err) {
				return apperrors.NewConflictError("group ID " + group.GroupID + " already exists")
			}
			return apperrors.NewAppError(500, "failed to save group "+group.GroupID, err)
		}

		membership := `INSERT INTO group_members (group_id, user_id, joined_at) VALUES ($1, $2, $3);`
		if _, err := tx.Exec(ctx, membership, group.GroupID, group.OwnerID, group.CreatedAt); err != nil {
			return apperrors.NewAppError(500, "failed to add owner to group "+group.GroupID, err)
		}
		return nil
	})
}

func (r *PgxGroupRepository) UpdateGroup(ctx context.Context, group domain.Group) error {
	query := `
		UPDATE user_groups
		SET name = $1, description = $2, last_updated_at = $3, last_updated_by = $4
		WHERE group_id = $5;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, group.Name, group.Description, group.LastUpdatedAt, group.LastUpdatedBy, group.GroupID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update group "+group.GroupID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteGroup relies on ON DELETE CASCADE for memberships and group shares.
func (r *PgxGroupRepository) DeleteGroup(ctx context.Context, groupID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM user_groups WHERE group_id = $1;`, groupID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete group "+groupID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxGroupRepository) AddGroupMember(ctx context.Context, member domain.GroupMember) error {
	query := `
		INSERT INTO group_members (group_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, user_id) DO NOTHING;
	`
	if _, err := r.Pool.Exec(ctx, query, member.GroupID, member.UserID, member.JoinedAt); err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to add user "+member.UserID+" to group "+member.GroupID, err)
	}
	return nil
}

func (r *PgxGroupRepository) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2;`, groupID, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to remove user "+userID+" from group "+groupID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxGroupRepository) ListGroupMembers(ctx context.Context, groupID string) ([]domain.GroupMember, error) {
	query := `
		SELECT m.group_id, m.user_id, m.joined_at, (g.owner_id = m.user_id) AS is_owner,
			u.email, u.phone, u.first_name, u.last_name
		FROM group_members m
		JOIN user_groups g ON g.group_id = m.group_id
		JOIN users u ON u.user_id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at;
	`
	rows, err := r.Pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query members of group "+groupID, err)
	}
	defer rows.Close()

	members := []domain.GroupMember{}
	for rows.Next() {
		var (
			m domain.GroupMember
			u domain.User
		)
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.JoinedAt, &m.IsOwner, &u.Email, &u.Phone, &u.FirstName, &u.LastName); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan group member row", err)
		}
		m.UserName = u.DisplayName()
		m.Email = u.Email
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating group member rows", err)
	}
	return members, nil
}

func (r *PgxGroupRepository) IsGroupMember(ctx context.Context, groupID, userID string) (bool, error) {
	var one int
	err := r.Pool.QueryRow(ctx, `SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2;`, groupID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check membership of %s in group %s: %w", userID, groupID, err)
	}
	return true, nil
}

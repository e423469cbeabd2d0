package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxShareRepository reads shared links through the link repository so sealed
// fields are opened the same way.
type PgxShareRepository struct {
	BaseRepository
	linkRepo *PgxLinkRepository
}

func newPgxShareRepository(pool *pgxpool.Pool, linkRepo *PgxLinkRepository) *PgxShareRepository {
	return &PgxShareRepository{
		BaseRepository: BaseRepository{Pool: pool},
		linkRepo:       linkRepo,
	}
}

var _ portsrepo.ShareRepositoryFacade = (*PgxShareRepository)(nil)

const shareSelectQuery = `
SELECT share_id, link_id, shared_by, target_group_id, target_user_id, created_at
FROM shares
`

func scanShare(row pgx.Row) (*domain.Share, error) {
	var s domain.Share
	if err := row.Scan(&s.ShareID, &s.LinkID, &s.SharedBy, &s.TargetGroupID, &s.TargetUserID, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PgxShareRepository) SaveShare(ctx context.Context, share domain.Share) error {
	query := `
		INSERT INTO shares (share_id, link_id, shared_by, target_group_id, target_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.Pool.Exec(ctx, query,
		share.ShareID,
		share.LinkID,
		share.SharedBy,
		share.TargetGroupID,
		share.TargetUserID,
		share.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("link " + share.LinkID + " is already shared with this target")
		}
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to save share "+share.ShareID, err)
	}
	return nil
}

func (r *PgxShareRepository) FindShareByID(ctx context.Context, shareID string) (*domain.Share, error) {
	share, err := scanShare(r.Pool.QueryRow(ctx, shareSelectQuery+`WHERE share_id = $1;`, shareID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find share %s: %w", shareID, err)
	}
	return share, nil
}

func (r *PgxShareRepository) ListSharesByLinkID(ctx context.Context, linkID string) ([]domain.Share, error) {
	rows, err := r.Pool.Query(ctx, shareSelectQuery+`WHERE link_id = $1 ORDER BY created_at;`, linkID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query shares of link "+linkID, err)
	}
	defer rows.Close()

	shares := []domain.Share{}
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan share row", err)
		}
		shares = append(shares, *share)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating share rows", err)
	}
	return shares, nil
}

// ListLinksSharedWithUser returns one row per link, preferring the most recent
// share when a link reaches the user through several routes. The user's own
// links are excluded.
func (r *PgxShareRepository) ListLinksSharedWithUser(ctx context.Context, userID string) ([]domain.SharedLink, error) {
	query := `
		SELECT * FROM (
			SELECT DISTINCT ON (l.link_id)
				l.link_id, l.owner_id, l.title, l.url, l.notes, l.category, l.bonus_value, l.click_count,
				l.created_at, l.created_by, l.last_updated_at, l.last_updated_by,
				s.share_id, s.shared_by, s.target_group_id, s.created_at AS shared_at
			FROM shares s
			JOIN links l ON l.link_id = s.link_id
			WHERE l.owner_id <> $1
			  AND (
				s.target_user_id = $1
				OR s.target_group_id IN (SELECT group_id FROM group_members WHERE user_id = $1)
			  )
			ORDER BY l.link_id, s.created_at DESC
		) shared
		ORDER BY shared_at DESC;
	`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query links shared with "+userID, err)
	}
	defer rows.Close()

	result := []domain.SharedLink{}
	for rows.Next() {
		var (
			sl       domain.SharedLink
			sharedAt time.Time
		)
		link, err := r.linkRepo.scanLink(rows, &sl.ShareID, &sl.SharedBy, &sl.ViaGroup, &sharedAt)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan shared link row", err)
		}
		sl.Link = *link
		result = append(result, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating shared link rows", err)
	}
	return result, nil
}

func (r *PgxShareRepository) DeleteShare(ctx context.Context, shareID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM shares WHERE share_id = $1;`, shareID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete share "+shareID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

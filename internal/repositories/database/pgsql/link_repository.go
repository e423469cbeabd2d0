package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	"github.com/SscSPs/referral_vault/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxLinkRepository stores links with URL and notes sealed by the field cipher.
type PgxLinkRepository struct {
	BaseRepository
	cipher *utils.FieldCipher
}

func newPgxLinkRepository(pool *pgxpool.Pool, cipher *utils.FieldCipher) *PgxLinkRepository {
	return &PgxLinkRepository{
		BaseRepository: BaseRepository{Pool: pool},
		cipher:         cipher,
	}
}

var _ portsrepo.LinkRepositoryFacade = (*PgxLinkRepository)(nil)

const linkSelectQuery = `
SELECT
	l.link_id, l.owner_id, l.title, l.url, l.notes, l.category, l.bonus_value, l.click_count,
	l.created_at, l.created_by, l.last_updated_at, l.last_updated_by
FROM links l
`

// scanLink reads the linkSelectQuery columns and opens the sealed fields.
func (r *PgxLinkRepository) scanLink(row pgx.Row, extra ...any) (*domain.Link, error) {
	var l domain.Link
	dest := []any{
		&l.LinkID,
		&l.OwnerID,
		&l.Title,
		&l.URL,
		&l.Notes,
		&l.Category,
		&l.BonusValue,
		&l.ClickCount,
		&l.CreatedAt,
		&l.CreatedBy,
		&l.LastUpdatedAt,
		&l.LastUpdatedBy,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := r.open(&l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *PgxLinkRepository) open(l *domain.Link) error {
	var err error
	if l.URL, err = r.cipher.Decrypt(l.URL); err != nil {
		return fmt.Errorf("failed to decrypt url of link %s: %w", l.LinkID, err)
	}
	if l.Notes, err = r.cipher.Decrypt(l.Notes); err != nil {
		return fmt.Errorf("failed to decrypt notes of link %s: %w", l.LinkID, err)
	}
	return nil
}

func (r *PgxLinkRepository) seal(l domain.Link) (string, string, error) {
	url, err := r.cipher.Encrypt(l.URL)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt url: %w", err)
	}
	notes, err := r.cipher.Encrypt(l.Notes)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt notes: %w", err)
	}
	return url, notes, nil
}

func (r *PgxLinkRepository) getLinks(ctx context.Context, filterQuery string, args ...any) ([]domain.Link, error) {
	rows, err := r.Pool.Query(ctx, linkSelectQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query links", err)
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		link, err := r.scanLink(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan link row", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating link rows", err)
	}
	return links, nil
}

func (r *PgxLinkRepository) FindLinkByID(ctx context.Context, linkID string) (*domain.Link, error) {
	link, err := r.scanLink(r.Pool.QueryRow(ctx, linkSelectQuery+`WHERE l.link_id = $1;`, linkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find link %s: %w", linkID, err)
	}
	return link, nil
}

// ListLinksByOwner pages newest first using (created_at, link_id) as the keyset.
func (r *PgxLinkRepository) ListLinksByOwner(ctx context.Context, ownerID string, filter domain.LinkFilter) ([]domain.Link, error) {
	var (
		conditions = []string{"l.owner_id = $1"}
		args       = []any{ownerID}
	)
	if filter.Category != nil {
		args = append(args, *filter.Category)
		conditions = append(conditions, fmt.Sprintf("l.category = $%d", len(args)))
	}
	if filter.AfterCreatedAt != nil {
		args = append(args, *filter.AfterCreatedAt, filter.AfterLinkID)
		conditions = append(conditions, fmt.Sprintf("(l.created_at, l.link_id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	query := "WHERE " + strings.Join(conditions, " AND ") + " ORDER BY l.created_at DESC, l.link_id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return r.getLinks(ctx, query+";", args...)
}

func (r *PgxLinkRepository) ListCategories(ctx context.Context, ownerID string) ([]string, error) {
	query := `
		SELECT DISTINCT category FROM links
		WHERE owner_id = $1 AND category <> ''
		ORDER BY category;
	`
	rows, err := r.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query categories", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect categories", err)
	}
	return categories, nil
}

func (r *PgxLinkRepository) SaveLink(ctx context.Context, link domain.Link) error {
	url, notes, err := r.seal(link)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO links (
			link_id, owner_id, title, url, notes, category, bonus_value, click_count,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = r.Pool.Exec(ctx, query,
		link.LinkID,
		link.OwnerID,
		link.Title,
		url,
		notes,
		link.Category,
		link.BonusValue,
		link.ClickCount,
		link.CreatedAt,
		link.CreatedBy,
		link.LastUpdatedAt,
		link.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("link ID " + link.LinkID + " already exists")
		}
		if isForeignKeyViolation(err) {
			return apperrors.NewValidationFailedError("link owner does not exist")
		}
		return apperrors.NewAppError(500, "failed to save link "+link.LinkID, err)
	}
	return nil
}

func (r *PgxLinkRepository) UpdateLink(ctx context.Context, link domain.Link) error {
	url, notes, err := r.seal(link)
	if err != nil {
		return err
	}
	query := `
		UPDATE links
		SET title = $1, url = $2, notes = $3, category = $4, bonus_value = $5,
			last_updated_at = $6, last_updated_by = $7
		WHERE link_id = $8;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		link.Title,
		url,
		notes,
		link.Category,
		link.BonusValue,
		link.LastUpdatedAt,
		link.LastUpdatedBy,
		link.LinkID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update link "+link.LinkID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteLink removes the link; shares and clicks go with it via ON DELETE CASCADE.
func (r *PgxLinkRepository) DeleteLink(ctx context.Context, linkID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM links WHERE link_id = $1;`, linkID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete link "+linkID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// RecordClick inserts the click and bumps the counter in one transaction.
func (r *PgxLinkRepository) RecordClick(ctx context.Context, click domain.Click) (int64, error) {
	var count int64
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		insert := `
			INSERT INTO clicks (click_id, link_id, user_id, ip_address, user_agent, clicked_at)
			VALUES ($1, $2, $3, $4, $5, $6);
		`
		if _, err := tx.Exec(ctx, insert,
			click.ClickID,
			click.LinkID,
			click.UserID,
			click.IPAddress,
			click.UserAgent,
			click.ClickedAt,
		); err != nil {
			if isForeignKeyViolation(err) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to insert click: %w", err)
		}

		bump := `UPDATE links SET click_count = click_count + 1 WHERE link_id = $1 RETURNING click_count;`
		if err := tx.QueryRow(ctx, bump, click.LinkID).Scan(&count); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to increment click count: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

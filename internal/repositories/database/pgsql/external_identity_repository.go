package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/referral_vault/internal/apperrors"
	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	"github.com/SscSPs/referral_vault/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxExternalIdentityRepository stores provider links. Access and refresh
// tokens are sealed with the field cipher before they reach the database.
type PgxExternalIdentityRepository struct {
	BaseRepository
	cipher *utils.FieldCipher
}

func newPgxExternalIdentityRepository(pool *pgxpool.Pool, cipher *utils.FieldCipher) *PgxExternalIdentityRepository {
	return &PgxExternalIdentityRepository{
		BaseRepository: BaseRepository{Pool: pool},
		cipher:         cipher,
	}
}

var _ portsrepo.ExternalIdentityRepositoryFacade = (*PgxExternalIdentityRepository)(nil)

const externalIdentitySelectQuery = `
SELECT
	external_identity_id, user_id, provider, provider_account_id,
	access_token, refresh_token, token_expires_at, raw_profile,
	created_at, last_updated_at
FROM external_identities
`

func (r *PgxExternalIdentityRepository) scanIdentity(row pgx.Row) (*domain.ExternalIdentity, error) {
	var (
		id  domain.ExternalIdentity
		raw []byte
	)
	err := row.Scan(
		&id.ExternalIdentityID,
		&id.UserID,
		&id.Provider,
		&id.ProviderAccountID,
		&id.AccessToken,
		&id.RefreshToken,
		&id.TokenExpiresAt,
		&raw,
		&id.CreatedAt,
		&id.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	id.RawProfile = raw

	if id.AccessToken, err = r.cipher.Decrypt(id.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	if id.RefreshToken, err = r.cipher.Decrypt(id.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}
	return &id, nil
}

func (r *PgxExternalIdentityRepository) sealTokens(identity domain.ExternalIdentity) (string, string, error) {
	access, err := r.cipher.Encrypt(identity.AccessToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refresh, err := r.cipher.Encrypt(identity.RefreshToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt refresh token: %w", err)
	}
	return access, refresh, nil
}

func rawProfileOrEmpty(identity domain.ExternalIdentity) []byte {
	if len(identity.RawProfile) == 0 {
		return []byte("{}")
	}
	return identity.RawProfile
}

func (r *PgxExternalIdentityRepository) FindExternalIdentity(ctx context.Context, provider, providerAccountID string) (*domain.ExternalIdentity, error) {
	row := r.Pool.QueryRow(ctx, externalIdentitySelectQuery+`WHERE provider = $1 AND provider_account_id = $2;`, provider, providerAccountID)
	identity, err := r.scanIdentity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find %s identity: %w", provider, err)
	}
	return identity, nil
}

func (r *PgxExternalIdentityRepository) insertIdentity(ctx context.Context, q querier, identity domain.ExternalIdentity) error {
	access, refresh, err := r.sealTokens(identity)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO external_identities (
			external_identity_id, user_id, provider, provider_account_id,
			access_token, refresh_token, token_expires_at, raw_profile,
			created_at, last_updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = q.Exec(ctx, query,
		identity.ExternalIdentityID,
		identity.UserID,
		identity.Provider,
		identity.ProviderAccountID,
		access,
		refresh,
		identity.TokenExpiresAt,
		rawProfileOrEmpty(identity),
		identity.CreatedAt,
		identity.LastUpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(identity.Provider + " account is already linked")
		}
		return fmt.Errorf("failed to save %s identity: %w", identity.Provider, err)
	}
	return nil
}

func (r *PgxExternalIdentityRepository) SaveExternalIdentity(ctx context.Context, identity domain.ExternalIdentity) error {
	return r.insertIdentity(ctx, r.Pool, identity)
}

func (r *PgxExternalIdentityRepository) UpdateExternalIdentityTokens(ctx context.Context, identity domain.ExternalIdentity) error {
	access, refresh, err := r.sealTokens(identity)
	if err != nil {
		return err
	}
	query := `
		UPDATE external_identities
		SET access_token = $1, refresh_token = $2, token_expires_at = $3, raw_profile = $4, last_updated_at = $5
		WHERE provider = $6 AND provider_account_id = $7;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		access,
		refresh,
		identity.TokenExpiresAt,
		rawProfileOrEmpty(identity),
		identity.LastUpdatedAt,
		identity.Provider,
		identity.ProviderAccountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s identity tokens: %w", identity.Provider, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CreateUserWithIdentity inserts both rows in one transaction.
func (r *PgxExternalIdentityRepository) CreateUserWithIdentity(ctx context.Context, user domain.User, identity domain.ExternalIdentity) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		return r.insertIdentity(ctx, tx, identity)
	})
}

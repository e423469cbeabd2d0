package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAuditLogRepository struct {
	BaseRepository
}

func newPgxAuditLogRepository(pool *pgxpool.Pool) *PgxAuditLogRepository {
	return &PgxAuditLogRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AuditLogRepository = (*PgxAuditLogRepository)(nil)

func (r *PgxAuditLogRepository) SaveAuditLog(ctx context.Context, entry domain.AuditLogEntry) error {
	query := `
		INSERT INTO audit_logs (
			audit_log_id, user_id, action, provider, ip_address, user_agent,
			success, failure_reason, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		entry.AuditLogID,
		entry.UserID,
		string(entry.Action),
		entry.Provider,
		entry.IPAddress,
		entry.UserAgent,
		entry.Success,
		entry.FailureReason,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit log entry: %w", err)
	}
	return nil
}

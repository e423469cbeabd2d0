package repositories

import (
	"context"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// AuditLogRepository is append-only.
type AuditLogRepository interface {
	SaveAuditLog(ctx context.Context, entry domain.AuditLogEntry) error
}

package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/referral_vault/internal/core/domain"
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/google/uuid"
)

const auditWriteTimeout = 5 * time.Second

// auditService writes audit entries on a context detached from the request,
// so an aborted request still gets its entry written.
type auditService struct {
	BaseService
	auditRepo portsrepo.AuditLogRepository
}

// NewAuditService creates a new AuditRecorder.
func NewAuditService(auditRepo portsrepo.AuditLogRepository, opts ...AuditServiceOption) portssvc.AuditRecorder {
	s := &auditService{auditRepo: auditRepo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuditServiceOption configures the audit service.
type AuditServiceOption func(*auditService)

// WithAuditClock overrides the time source.
func WithAuditClock(clock func() time.Time) AuditServiceOption {
	return func(s *auditService) { s.clock = clock }
}

var _ portssvc.AuditRecorder = (*auditService)(nil)

// Record persists the entry. Failures are logged, never returned.
func (s *auditService) Record(ctx context.Context, entry domain.AuditLogEntry) {
	if entry.AuditLogID == "" {
		entry.AuditLogID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.Now()
	}
	if entry.Provider == "" {
		entry.Provider = domain.ProviderLocal
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := s.auditRepo.SaveAuditLog(writeCtx, entry); err != nil {
		s.LogError(ctx, err, "Failed to write audit log entry",
			slog.String("action", string(entry.Action)),
			slog.Bool("success", entry.Success))
	}
}

// failureEntry builds a failed-attempt entry with the given internal reason.
func failureEntry(action domain.AuditAction, provider string, userID *string, reason string, meta domain.RequestMeta) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		UserID:        userID,
		Action:        action,
		Provider:      provider,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		Success:       false,
		FailureReason: &reason,
	}
}

// successEntry builds a successful event entry.
func successEntry(action domain.AuditAction, provider string, userID string, meta domain.RequestMeta) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		UserID:    &userID,
		Action:    action,
		Provider:  provider,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Success:   true,
	}
}

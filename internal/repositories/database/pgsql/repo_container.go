package pgsql

import (
	portsrepo "github.com/SscSPs/referral_vault/internal/core/ports/repositories"
	"github.com/SscSPs/referral_vault/internal/utils"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the Postgres repositories. A non-nil sessionRepo
// replaces the Postgres session table (e.g. the Redis store).
func NewRepositoryProvider(dbPool *pgxpool.Pool, cipher *utils.FieldCipher, sessionRepo portsrepo.SessionRepository) portsrepo.RepositoryProvider {
	userRepo := newPgxUserRepository(dbPool)
	identityRepo := newPgxExternalIdentityRepository(dbPool, cipher)
	resetRepo := newPgxPasswordResetRepository(dbPool)
	auditRepo := newPgxAuditLogRepository(dbPool)
	linkRepo := newPgxLinkRepository(dbPool, cipher)
	groupRepo := newPgxGroupRepository(dbPool)
	shareRepo := newPgxShareRepository(dbPool, linkRepo)

	if sessionRepo == nil {
		sessionRepo = newPgxSessionRepository(dbPool)
	}

	return portsrepo.RepositoryProvider{
		UserRepo:             userRepo,
		ExternalIdentityRepo: identityRepo,
		SessionRepo:          sessionRepo,
		PasswordResetRepo:    resetRepo,
		AuditLogRepo:         auditRepo,
		LinkRepo:             linkRepo,
		GroupRepo:            groupRepo,
		ShareRepo:            shareRepo,
	}
}

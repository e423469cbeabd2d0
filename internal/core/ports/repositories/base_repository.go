package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager is implemented by every pgx repository. Multi-row writes
// (reset redemption, group creation, click counting) run inside one of these.
type TransactionManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)

	Commit(ctx context.Context, tx pgx.Tx) error

	Rollback(ctx context.Context, tx pgx.Tx) error
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager runs fn inside a database transaction and hands the
// infra-specific handle (pgx.Tx for Postgres) to repositories through tx.
// Repositories must accept a nil tx and fall back to the non-transactional path.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

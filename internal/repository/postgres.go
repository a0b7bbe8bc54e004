package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

type PostgresStore struct {
	pool        *pgxpool.Pool
	db          dbtx
	inTx        bool
	lockTimeout time.Duration
}

var _ domain.Store = (*PostgresStore)(nil)

// NewPostgresStore returns a store whose transactions give up waiting for a
// row lock after lockTimeout. Zero keeps the server default.
func NewPostgresStore(pool *pgxpool.Pool, lockTimeout time.Duration) *PostgresStore {
	return &PostgresStore{
		pool:        pool,
		db:          pool,
		lockTimeout: lockTimeout,
	}
}

func (p *PostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	if p.inTx {
		return fn(ctx, p)
	}

	err := runInTx(ctx, p.pool, func(tx pgx.Tx) error {
		if p.lockTimeout > 0 {
			// SET does not accept bind parameters.
			_, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", p.lockTimeout.Milliseconds()))
			if err != nil {
				return err
			}
		}

		return fn(ctx, &PostgresStore{
			pool:        p.pool,
			db:          tx,
			inTx:        true,
			lockTimeout: p.lockTimeout,
		})
	})

	return mapError(err)
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}

func (p *PostgresStore) requireTx() error {
	if !p.inTx {
		return domain.ErrNoTransaction
	}

	return nil
}

// mapError translates driver errors into the domain taxonomy. It is safe to
// apply more than once.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRecordNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.LockNotAvailable, pgerrcode.DeadlockDetected:
			return fmt.Errorf("%w: %s", domain.ErrLockTimeout, pgErr.Message)
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRecord, pgErr.ConstraintName)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, pgErr.ConstraintName)
		}
	}

	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func nullInt(i int) *int {
	if i == 0 {
		return nil
	}

	return &i
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}

	return *v
}

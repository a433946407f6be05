package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientDoses = errors.New("insufficient doses")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// DB is the querying surface shared by *pgxpool.Pool and pgx.Tx, so every
// store method works both standalone and inside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	db   DB
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

const txAttempts = 3

// InTx runs fn inside a serializable transaction. The store is shared
// mutable state across engine instances, so multi-step mutations must
// observe a consistent interleaving; serialization conflicts are retried a
// bounded number of times before surfacing as a transient failure.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if !retryable(err) {
			return err
		}
	}
	return fmt.Errorf("transaction conflict after %d attempts: %w", txAttempts, err)
}

func (s *Store) runTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{pool: s.pool, db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// serialization_failure and deadlock_detected
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// Package postgres implements the repository ports on PostgreSQL using pgx
// directly (no ORM).
//
// Check-then-write sequences are serialized with pessimistic row locks:
//
//	goroutine A: SELECT current_attendees FROM events WHERE id = X  → 9
//	goroutine B: SELECT current_attendees FROM events WHERE id = X  → 9
//	goroutine A: capacity=10, 9 < 10 → INSERT registration, counter=10
//	goroutine B: capacity=10, 9 < 10 → INSERT registration, counter=10
//
// Both read the same snapshot, so the event ends up overbooked. The Lock*
// methods issue SELECT … FOR UPDATE, which blocks any other transaction that
// tries to lock the same row until the first one commits or rolls back. Under
// READ COMMITTED every later statement of the waiting transaction sees the
// rows the winner committed, so the capacity check and the track overlap
// query always run against current data.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
)

var (
	_ repository.Store = (*Store)(nil)
	_ repository.Tx    = (*tx)(nil)
)

// Store persists conference state in PostgreSQL.
type Store struct {
	queries
	pool *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{queries: queries{db: pool}, pool: pool}
}

// InTx runs fn inside a single transaction. Any error from fn, including a
// cancelled context, rolls back every write made through the Tx.
func (s *Store) InTx(ctx context.Context, fn func(repository.Tx) error) (err error) {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrap("begin transaction", err)
	}
	// Ensure the transaction is always resolved.
	defer func() {
		if err != nil {
			_ = pgtx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(&tx{queries{db: pgtx}}); err != nil {
		return err
	}
	if err = pgtx.Commit(ctx); err != nil {
		return wrap("commit transaction", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// PostgreSQL error codes the store translates.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// wrap annotates err with op and maps driver errors onto repository sentinels.
func wrap(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", op, repository.ErrDuplicate, pgErr.ConstraintName)
		case codeCheckViolation:
			return fmt.Errorf("%s: %w (%s)", op, repository.ErrConstraint, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", op, repository.ErrNotFound, pgErr.ConstraintName)
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return fmt.Errorf("%s: %w: %w", op, repository.ErrRetryable, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

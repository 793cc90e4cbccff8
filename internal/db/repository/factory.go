package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/lib/pq"
)

// Ensure Factory implements Store.
var _ Store = (*Factory)(nil)

// psql builds Postgres placeholders ($1, $2, ...)
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Clock returns the current time. Stores take it as a dependency so tests can
// pin timestamps.
type Clock func() time.Time

// Factory provides access to all repositories, either on the connection pool
// or bound to a single transaction.
type Factory struct {
	db  *sqlx.DB // nil when bound to a transaction
	ext sqlx.ExtContext
	now Clock

	User  *UserRepository
	Order *OrderRepository
	Shift *ShiftRepository
}

// NewFactory creates a new repository factory
func NewFactory(db *sqlx.DB, now Clock) *Factory {
	if now == nil {
		now = time.Now
	}
	f := newFactory(db, now)
	f.db = db
	return f
}

func newFactory(ext sqlx.ExtContext, now Clock) *Factory {
	return &Factory{
		ext:   ext,
		now:   now,
		User:  NewUserRepository(ext, now),
		Order: NewOrderRepository(ext, now),
		Shift: NewShiftRepository(ext),
	}
}

func (f *Factory) Users() UserStore   { return f.User }
func (f *Factory) Orders() OrderStore { return f.Order }
func (f *Factory) Shifts() ShiftStore { return f.Shift }

// InTx begins a transaction, runs fn with repositories bound to it and
// commits or rolls back.
func (f *Factory) InTx(ctx context.Context, fn func(tx Store) error) (err error) {
	if f.db == nil {
		return fn(f)
	}

	tx, err := f.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(newFactory(tx, f.now)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// notFound converts sql.ErrNoRows into models.ErrNotFound
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// uniqueViolation reports whether err is a Postgres unique constraint failure
func uniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// checkAffected turns a zero-row update or delete into models.ErrNotFound
func checkAffected(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return nil
}

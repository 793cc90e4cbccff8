package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/laserworks/workshop-service/internal/models"
)

const shiftSelect = `
	SELECT s.id, s.opened_at, s.closed_at, s.opened_by, s.closed_by, s.is_active,
	       s.total_orders_delivered, s.total_revenue,
	       ou.username AS opened_by_username, cu.username AS closed_by_username
	FROM shifts s
	LEFT JOIN users ou ON ou.id = s.opened_by
	LEFT JOIN users cu ON cu.id = s.closed_by
`

// Advisory lock key held while a new shift is being opened
const shiftOpeningLockKey = 72_410_001

// ShiftRepository handles shift data access
type ShiftRepository struct {
	db sqlx.ExtContext
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db sqlx.ExtContext) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// GetByID retrieves a shift by ID
func (r *ShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	if err := sqlx.GetContext(ctx, r.db, &shift, shiftSelect+` WHERE s.id = $1`, id); err != nil {
		return nil, notFound(err, "shift")
	}

	return &shift, nil
}

// GetForUpdate retrieves a shift and locks its row
func (r *ShiftRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	if err := sqlx.GetContext(ctx, r.db, &shift, shiftSelect+` WHERE s.id = $1 FOR UPDATE OF s`, id); err != nil {
		return nil, notFound(err, "shift")
	}

	return &shift, nil
}

// ListActiveForUpdate retrieves and locks every active shift
func (r *ShiftRepository) ListActiveForUpdate(ctx context.Context) ([]models.Shift, error) {
	shifts := []models.Shift{}
	query := shiftSelect + ` WHERE s.is_active ORDER BY s.opened_at FOR UPDATE OF s`
	if err := sqlx.SelectContext(ctx, r.db, &shifts, query); err != nil {
		return nil, fmt.Errorf("failed to list active shifts: %w", err)
	}

	return shifts, nil
}

// Current retrieves the active shift
func (r *ShiftRepository) Current(ctx context.Context) (*models.Shift, error) {
	var shift models.Shift
	query := shiftSelect + ` WHERE s.is_active ORDER BY s.opened_at DESC LIMIT 1`
	if err := sqlx.GetContext(ctx, r.db, &shift, query); err != nil {
		return nil, notFound(err, "active shift")
	}

	return &shift, nil
}

// List retrieves all shifts, latest first
func (r *ShiftRepository) List(ctx context.Context) ([]models.Shift, error) {
	shifts := []models.Shift{}
	if err := sqlx.SelectContext(ctx, r.db, &shifts, shiftSelect+` ORDER BY s.opened_at DESC`); err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}

	return shifts, nil
}

// Create creates a new shift
func (r *ShiftRepository) Create(ctx context.Context, shift models.Shift) (*models.Shift, error) {
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}

	query := `
		INSERT INTO shifts (id, opened_at, closed_at, opened_by, closed_by, is_active, total_orders_delivered, total_revenue)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		shift.ID,
		shift.OpenedAt,
		shift.ClosedAt,
		shift.OpenedBy,
		shift.ClosedBy,
		shift.IsActive,
		shift.TotalOrdersDelivered,
		shift.TotalRevenue,
	)
	if err != nil {
		if uniqueViolation(err) {
			return nil, fmt.Errorf("another shift is already active: %w", models.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}

	return r.GetByID(ctx, shift.ID)
}

// Update saves the closing fields and totals of a shift
func (r *ShiftRepository) Update(ctx context.Context, shift models.Shift) (*models.Shift, error) {
	query := `
		UPDATE shifts
		SET closed_at = $1, closed_by = $2, is_active = $3, total_orders_delivered = $4, total_revenue = $5
		WHERE id = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		shift.ClosedAt,
		shift.ClosedBy,
		shift.IsActive,
		shift.TotalOrdersDelivered,
		shift.TotalRevenue,
		shift.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update shift: %w", err)
	}
	if err := checkAffected(result, "shift"); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, shift.ID)
}

// LockOpening takes a transaction-scoped advisory lock
func (r *ShiftRepository) LockOpening(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, shiftOpeningLockKey); err != nil {
		return fmt.Errorf("failed to lock shift opening: %w", err)
	}
	return nil
}

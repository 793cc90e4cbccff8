package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/models"
)

// Store is the entity store used by the services. Implementations: the
// Postgres-backed Factory and the in-memory store in internal/db/memory.
type Store interface {
	Users() UserStore
	Orders() OrderStore
	Shifts() ShiftStore

	// InTx runs fn against a Store bound to one transaction. The transaction
	// commits when fn returns nil and rolls back otherwise. Nested calls
	// reuse the outer transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// UserStore persists users
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// List returns every user except excludeID, newest first
	List(ctx context.Context, excludeID uuid.UUID) ([]models.User, error)
	Create(ctx context.Context, user models.User) (*models.User, error)
	Update(ctx context.Context, user models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderStore persists orders. Create and Update run Order.BeforeSave, so
// the delivered_at and price rules hold for every write.
type OrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	Create(ctx context.Context, order models.Order) (*models.Order, error)
	Update(ctx context.Context, order models.Order) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByStatus counts orders matching filter grouped by status
	CountByStatus(ctx context.Context, filter models.OrderFilter) (map[models.OrderStatus]int, error)

	// DeliveredStats counts and sums DELIVERED orders with
	// from <= delivered_at (<= through, when through is set).
	DeliveredStats(ctx context.Context, from time.Time, through *time.Time) (models.ShiftStats, error)

	// DeliveredPerDay counts and sums DELIVERED orders with
	// from <= delivered_at < until, grouped by day of month in loc
	DeliveredPerDay(ctx context.Context, from, until time.Time, loc *time.Location) ([]models.DayTotals, error)

	// ListDelivered returns the orders DeliveredStats aggregates
	ListDelivered(ctx context.Context, from time.Time, through *time.Time) ([]models.Order, error)

	// LinkToShift sets delivered_in_shift on every DELIVERED order with
	// from <= delivered_at <= through. Status and delivered_at are untouched.
	LinkToShift(ctx context.Context, shiftID uuid.UUID, from, through time.Time) (int64, error)
}

// ShiftStore persists shifts
type ShiftStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error)
	// GetForUpdate reads a shift and locks its row until the transaction ends
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Shift, error)
	// ListActiveForUpdate reads and locks every active shift
	ListActiveForUpdate(ctx context.Context) ([]models.Shift, error)
	// Current returns the active shift or models.ErrNotFound
	Current(ctx context.Context) (*models.Shift, error)
	List(ctx context.Context) ([]models.Shift, error)
	Create(ctx context.Context, shift models.Shift) (*models.Shift, error)
	Update(ctx context.Context, shift models.Shift) (*models.Shift, error)
	// LockOpening serializes shift openings until the transaction ends
	LockOpening(ctx context.Context) error
}

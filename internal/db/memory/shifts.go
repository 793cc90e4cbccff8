package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/models"
)

type shiftStore struct{ s *Store }

func (r shiftStore) view(sh models.Shift) models.Shift {
	sh.OpenedByUsername = r.s.username(sh.OpenedBy)
	sh.ClosedByUsername = r.s.username(sh.ClosedBy)
	return sh
}

func (r shiftStore) GetByID(_ context.Context, id uuid.UUID) (*models.Shift, error) {
	defer r.s.lock()()

	sh, ok := r.s.data.shifts[id]
	if !ok {
		return nil, notFound("shift")
	}
	sh = r.view(sh)
	return &sh, nil
}

// GetForUpdate needs no row lock, a transaction already holds the store mutex
func (r shiftStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	return r.GetByID(ctx, id)
}

func (r shiftStore) active() []models.Shift {
	shifts := []models.Shift{}
	for _, sh := range r.s.data.shifts {
		if sh.IsActive {
			shifts = append(shifts, r.view(sh))
		}
	}
	sort.Slice(shifts, func(i, j int) bool {
		return shifts[i].OpenedAt.Before(shifts[j].OpenedAt)
	})
	return shifts
}

func (r shiftStore) ListActiveForUpdate(_ context.Context) ([]models.Shift, error) {
	defer r.s.lock()()
	return r.active(), nil
}

func (r shiftStore) Current(_ context.Context) (*models.Shift, error) {
	defer r.s.lock()()

	active := r.active()
	if len(active) == 0 {
		return nil, notFound("active shift")
	}
	return &active[len(active)-1], nil
}

func (r shiftStore) List(_ context.Context) ([]models.Shift, error) {
	defer r.s.lock()()

	shifts := make([]models.Shift, 0, len(r.s.data.shifts))
	for _, sh := range r.s.data.shifts {
		shifts = append(shifts, r.view(sh))
	}
	sort.Slice(shifts, func(i, j int) bool {
		return shifts[i].OpenedAt.After(shifts[j].OpenedAt)
	})
	return shifts, nil
}

func (r shiftStore) Create(_ context.Context, shift models.Shift) (*models.Shift, error) {
	defer r.s.lock()()

	if shift.IsActive && len(r.active()) > 0 {
		return nil, fmt.Errorf("another shift is already active: %w", models.ErrConflict)
	}
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}

	r.s.data.shifts[shift.ID] = shift
	shift = r.view(shift)
	return &shift, nil
}

func (r shiftStore) Update(_ context.Context, shift models.Shift) (*models.Shift, error) {
	defer r.s.lock()()

	stored, ok := r.s.data.shifts[shift.ID]
	if !ok {
		return nil, notFound("shift")
	}
	stored.ClosedAt = shift.ClosedAt
	stored.ClosedBy = shift.ClosedBy
	stored.IsActive = shift.IsActive
	stored.TotalOrdersDelivered = shift.TotalOrdersDelivered
	stored.TotalRevenue = shift.TotalRevenue

	r.s.data.shifts[shift.ID] = stored
	stored = r.view(stored)
	return &stored, nil
}

// LockOpening is a no-op, transactions are already serialized
func (r shiftStore) LockOpening(context.Context) error {
	return nil
}

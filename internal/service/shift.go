package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/db/repository"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/laserworks/workshop-service/internal/notify"
	"github.com/laserworks/workshop-service/internal/policy"
	"github.com/rs/zerolog"
)

// ShiftService closes and opens shifts and computes their statistics
type ShiftService struct {
	store     repository.Store
	publisher notify.Publisher
	now       repository.Clock
	log       zerolog.Logger
}

// NewShiftService creates a new shift service
func NewShiftService(store repository.Store, publisher notify.Publisher, now repository.Clock, log zerolog.Logger) *ShiftService {
	if now == nil {
		now = time.Now
	}
	return &ShiftService{
		store:     store,
		publisher: publisher,
		now:       now,
		log:       log.With().Str("component", "shifts").Logger(),
	}
}

// CloseResult is the closed shift plus the frozen totals
type CloseResult struct {
	Shift   models.ShiftView         `json:"shift"`
	Summary models.ShiftCloseSummary `json:"summary"`
}

// Close ends an active shift and freezes its statistics. The shift row stays
// locked while delivered orders are aggregated and linked.
func (s *ShiftService) Close(ctx context.Context, actor *models.User, id uuid.UUID) (*CloseResult, error) {
	if err := policy.Authorize(actor, policy.ManageShifts); err != nil {
		return nil, err
	}

	var closed *models.Shift
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		shift, err := tx.Shifts().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !shift.IsActive {
			return models.NewDetailError(models.ErrConflict, "Shift already closed")
		}

		closed, err = s.closeShift(ctx, tx, shift, actor.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	view := s.snapshotView(closed)
	s.publisher.Publish(ctx, notify.ShiftChanged(notify.ActionUpdated, view))

	return &CloseResult{Shift: view, Summary: closed.CloseSummary()}, nil
}

// closeShift runs inside a transaction holding the shift row lock. The
// window upper bound is the closed_at stamped here, and the aggregate, the
// link and the snapshot all use it.
func (s *ShiftService) closeShift(ctx context.Context, tx repository.Store, shift *models.Shift, by uuid.UUID) (*models.Shift, error) {
	closedAt := s.now().UTC()

	stats, err := tx.Orders().DeliveredStats(ctx, shift.OpenedAt, &closedAt)
	if err != nil {
		return nil, err
	}

	linked, err := tx.Orders().LinkToShift(ctx, shift.ID, shift.OpenedAt, closedAt)
	if err != nil {
		return nil, err
	}

	shift.Close(by, closedAt, stats)
	updated, err := tx.Shifts().Update(ctx, *shift)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("shift", shift.ID.String()).
		Int("orders_delivered", stats.OrdersDelivered).
		Str("revenue", stats.Revenue.StringFixed(2)).
		Int64("linked", linked).
		Msg("shift closed")

	return updated, nil
}

// OpenNew closes every active shift and opens a fresh one, all in one
// transaction serialized against other openings.
func (s *ShiftService) OpenNew(ctx context.Context, actor *models.User) (*models.ShiftView, error) {
	if err := policy.Authorize(actor, policy.ManageShifts); err != nil {
		return nil, err
	}

	var closed []*models.Shift
	var opened *models.Shift
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Shifts().LockOpening(ctx); err != nil {
			return err
		}

		active, err := tx.Shifts().ListActiveForUpdate(ctx)
		if err != nil {
			return err
		}
		for i := range active {
			c, err := s.closeShift(ctx, tx, &active[i], actor.ID)
			if err != nil {
				return err
			}
			closed = append(closed, c)
		}

		opened, err = tx.Shifts().Create(ctx, models.Shift{
			OpenedAt: s.now().UTC(),
			OpenedBy: &actor.ID,
			IsActive: true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, c := range closed {
		s.publisher.Publish(ctx, notify.ShiftChanged(notify.ActionUpdated, s.snapshotView(c)))
	}

	view := opened.View(models.ShiftStats{}, s.now().UTC())
	s.publisher.Publish(ctx, notify.ShiftChanged(notify.ActionCreated, view))

	return &view, nil
}

// Current returns the active shift with live statistics
func (s *ShiftService) Current(ctx context.Context, actor *models.User) (*models.ShiftView, error) {
	if err := policy.Authorize(actor, policy.ReadCurrentShift); err != nil {
		return nil, err
	}

	shift, err := s.store.Shifts().Current(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewDetailError(models.ErrNotFound, "No active shift")
		}
		return nil, err
	}

	view, err := s.View(ctx, shift)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// List returns every shift, latest first
func (s *ShiftService) List(ctx context.Context, actor *models.User) ([]models.ShiftView, error) {
	if err := policy.Authorize(actor, policy.ManageShifts); err != nil {
		return nil, err
	}

	shifts, err := s.store.Shifts().List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]models.ShiftView, 0, len(shifts))
	for i := range shifts {
		view, err := s.View(ctx, &shifts[i])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *ShiftService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.ShiftView, error) {
	if err := policy.Authorize(actor, policy.ManageShifts); err != nil {
		return nil, err
	}

	shift, err := s.store.Shifts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view, err := s.View(ctx, shift)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// DeliveredOrders lists the delivered orders attributed to a shift's window
func (s *ShiftService) DeliveredOrders(ctx context.Context, actor *models.User, id uuid.UUID) ([]models.Order, error) {
	if err := policy.Authorize(actor, policy.ManageShifts); err != nil {
		return nil, err
	}

	shift, err := s.store.Shifts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from, until := shift.Window()
	return s.store.Orders().ListDelivered(ctx, from, until)
}

// View renders a shift. Active shifts are recomputed on every call, closed
// ones use the stored snapshot.
func (s *ShiftService) View(ctx context.Context, shift *models.Shift) (models.ShiftView, error) {
	if !shift.IsActive {
		return s.snapshotView(shift), nil
	}

	stats, err := s.store.Orders().DeliveredStats(ctx, shift.OpenedAt, nil)
	if err != nil {
		return models.ShiftView{}, err
	}
	return shift.View(stats, s.now().UTC()), nil
}

func (s *ShiftService) snapshotView(shift *models.Shift) models.ShiftView {
	stats := models.ShiftStats{
		OrdersDelivered: shift.TotalOrdersDelivered,
		Revenue:         shift.TotalRevenue,
	}
	return shift.View(stats, s.now().UTC())
}

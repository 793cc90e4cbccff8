package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/db/repository"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/laserworks/workshop-service/internal/notify"
	"github.com/laserworks/workshop-service/internal/policy"
)

// DateLayout is the calendar date format accepted in query parameters
const DateLayout = "2006-01-02"

// OrderService handles order-related business logic
type OrderService struct {
	store     repository.Store
	publisher notify.Publisher
	loc       *time.Location
}

// NewOrderService creates a new order service. loc is the workshop time zone
// used to turn calendar dates into time ranges.
func NewOrderService(store repository.Store, publisher notify.Publisher, loc *time.Location) *OrderService {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderService{
		store:     store,
		publisher: publisher,
		loc:       loc,
	}
}

// OrderQuery holds the raw list parameters of an order listing
type OrderQuery struct {
	Status      string
	DeliveredOn string
	Search      string
	Ordering    string
}

// Filter validates the query and converts it into a store filter
func (q OrderQuery) Filter(loc *time.Location) (models.OrderFilter, error) {
	var filter models.OrderFilter
	verr := &models.ValidationError{}

	if q.Status != "" {
		status := models.OrderStatus(q.Status)
		if !status.Valid() {
			verr.Add("status", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", q.Status))
		} else {
			filter.Status = &status
		}
	}

	if q.DeliveredOn != "" {
		day, err := time.ParseInLocation(DateLayout, q.DeliveredOn, loc)
		if err != nil {
			verr.Add("delivered_on", "Enter a valid date.")
		} else {
			from, until := models.DayRange(day, loc)
			filter.DeliveredFrom, filter.DeliveredUntil = &from, &until
		}
	}

	ordering, err := models.ParseOrdering(q.Ordering)
	if err != nil {
		verr.Add("ordering", fmt.Sprintf("%q is not a valid ordering.", q.Ordering))
	}
	filter.Ordering = ordering
	filter.Search = q.Search

	return filter, verr.OrNil()
}

// Create creates a new order on behalf of actor
func (s *OrderService) Create(ctx context.Context, actor *models.User, req models.OrderRequest) (*models.Order, error) {
	if err := policy.Authorize(actor, policy.CreateOrder); err != nil {
		return nil, err
	}

	created, err := s.store.Orders().Create(ctx, req.NewOrder(actor.ID))
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, notify.OrderChanged(notify.ActionCreated, created))
	return created, nil
}

// Get retrieves an order by ID
func (s *OrderService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Order, error) {
	if err := policy.Authorize(actor, policy.ReadOrders); err != nil {
		return nil, err
	}
	return s.store.Orders().GetByID(ctx, id)
}

// List lists orders matching the query
func (s *OrderService) List(ctx context.Context, actor *models.User, query OrderQuery) ([]models.Order, error) {
	if err := policy.Authorize(actor, policy.ReadOrders); err != nil {
		return nil, err
	}

	filter, err := query.Filter(s.loc)
	if err != nil {
		return nil, err
	}
	return s.store.Orders().List(ctx, filter)
}

// Update applies a partial update. Workers may only send the status key;
// anything else is rejected before the order is read or the values checked.
func (s *OrderService) Update(ctx context.Context, actor *models.User, id uuid.UUID, patch models.OrderPatch) (*models.Order, error) {
	if err := policy.AuthorizeOrderUpdate(actor, patch.Keys()); err != nil {
		return nil, err
	}
	if err := patch.Err(); err != nil {
		return nil, err
	}
	return s.update(ctx, id, patch)
}

// UpdateStatus moves an order to any status
func (s *OrderService) UpdateStatus(ctx context.Context, actor *models.User, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if err := policy.Authorize(actor, policy.UpdateOrderStatus); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, models.NewValidationError("status", fmt.Sprintf("%q is not a valid choice.", status))
	}
	return s.update(ctx, id, models.NewStatusPatch(status))
}

func (s *OrderService) update(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error) {
	var updated *models.Order
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}

		patch.Apply(order)

		updated, err = tx.Orders().Update(ctx, *order)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, notify.OrderChanged(notify.ActionUpdated, updated))
	return updated, nil
}

// Delete deletes an order
func (s *OrderService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := policy.Authorize(actor, policy.DeleteOrder); err != nil {
		return err
	}

	if err := s.store.Orders().Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.Publish(ctx, notify.OrderDeleted(id))
	return nil
}

// Track returns the public view of an order. No authentication needed.
func (s *OrderService) Track(ctx context.Context, id uuid.UUID) (*models.OrderTrack, error) {
	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	track := order.Track()
	return &track, nil
}

// Showcase lists delivered work, latest first. No authentication needed.
func (s *OrderService) Showcase(ctx context.Context, withImage bool) ([]models.ShowcaseItem, error) {
	status := models.OrderStatusDelivered
	orders, err := s.store.Orders().List(ctx, models.OrderFilter{
		Status:    &status,
		WithImage: withImage,
		Ordering:  "-delivered_at",
	})
	if err != nil {
		return nil, err
	}

	items := make([]models.ShowcaseItem, 0, len(orders))
	for i := range orders {
		items = append(items, orders[i].Showcase())
	}
	return items, nil
}

// Statistics counts orders per status. When both month and year are given
// it also counts the orders delivered in that month.
func (s *OrderService) Statistics(ctx context.Context, actor *models.User, month, year *int) (*models.OrderStatistics, error) {
	if err := policy.Authorize(actor, policy.ReadOrderStatistics); err != nil {
		return nil, err
	}

	counts, err := s.store.Orders().CountByStatus(ctx, models.OrderFilter{})
	if err != nil {
		return nil, err
	}

	stats := &models.OrderStatistics{ByStatus: models.StatusBreakdown(counts)}
	for _, n := range counts {
		stats.Total += n
	}

	if month != nil && year != nil {
		if *month < 1 || *month > 12 {
			return nil, models.NewValidationError("month", "Month must be between 1 and 12.")
		}

		from, until := models.MonthRange(*year, time.Month(*month), s.loc)
		delivered := models.OrderStatusDelivered
		monthly, err := s.store.Orders().CountByStatus(ctx, models.OrderFilter{
			Status:         &delivered,
			DeliveredFrom:  &from,
			DeliveredUntil: &until,
		})
		if err != nil {
			return nil, err
		}
		n := monthly[delivered]
		stats.DeliveredThisMonth = &n
	}

	return stats, nil
}

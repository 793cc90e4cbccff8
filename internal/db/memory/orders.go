package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/shopspring/decimal"
)

const defaultOrderLimit = 500

type orderStore struct{ s *Store }

func (r orderStore) view(o models.Order) models.Order {
	o.CreatedByUsername = r.s.username(o.CreatedBy)
	return o
}

func (r orderStore) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	defer r.s.lock()()

	o, ok := r.s.data.orders[id]
	if !ok {
		return nil, notFound("order")
	}
	o = r.view(o)
	return &o, nil
}

func matches(o models.Order, f models.OrderFilter) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.DeliveredFrom != nil && (o.DeliveredAt == nil || o.DeliveredAt.Before(*f.DeliveredFrom)) {
		return false
	}
	if f.DeliveredUntil != nil && (o.DeliveredAt == nil || !o.DeliveredAt.Before(*f.DeliveredUntil)) {
		return false
	}
	if f.CreatedFrom != nil && o.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedUntil != nil && !o.CreatedAt.Before(*f.CreatedUntil) {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		if !strings.Contains(strings.ToLower(o.CustomerName), s) &&
			!strings.Contains(strings.ToLower(o.CustomerPhone), s) &&
			!strings.Contains(strings.ToLower(o.OrderDetails), s) {
			return false
		}
	}
	if f.WithImage && (o.Image == nil || *o.Image == "") {
		return false
	}
	return true
}

// compareOrders orders a before b on field, nulls last in both directions
func compareOrders(a, b models.Order, field string) int {
	timeCmp := func(x, y *time.Time) int {
		switch {
		case x == nil && y == nil:
			return 0
		case x == nil:
			return 2
		case y == nil:
			return -2
		}
		return x.Compare(*y)
	}

	switch field {
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "delivered_at":
		return timeCmp(a.DeliveredAt, b.DeliveredAt)
	case "price":
		switch {
		case !a.Price.Valid && !b.Price.Valid:
			return 0
		case !a.Price.Valid:
			return 2
		case !b.Price.Valid:
			return -2
		}
		return a.Price.Decimal.Cmp(b.Price.Decimal)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r orderStore) List(_ context.Context, filter models.OrderFilter) ([]models.Order, error) {
	defer r.s.lock()()

	orders := []models.Order{}
	for _, o := range r.s.data.orders {
		if matches(o, filter) {
			orders = append(orders, r.view(o))
		}
	}

	ordering := filter.Ordering
	if ordering == "" {
		ordering = "-created_at"
	}
	sort.Slice(orders, func(i, j int) bool {
		c := compareOrders(orders[i], orders[j], ordering.Field())
		// Magnitude 2 marks a null comparison, which ignores direction.
		if c == 2 || c == -2 {
			return c < 0
		}
		if ordering.Desc() {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return orders[i].ID.String() < orders[j].ID.String()
	})

	limit := int(filter.Limit)
	if limit == 0 {
		limit = defaultOrderLimit
	}
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (r orderStore) Create(_ context.Context, order models.Order) (*models.Order, error) {
	defer r.s.lock()()

	now := r.s.timestamp()
	if err := order.BeforeSave(now); err != nil {
		return nil, err
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt, order.UpdatedAt = now, now
	order.DeliveredInShift = nil
	order.CreatedByUsername = nil

	r.s.data.orders[order.ID] = order
	order = r.view(order)
	return &order, nil
}

func (r orderStore) Update(_ context.Context, order models.Order) (*models.Order, error) {
	defer r.s.lock()()

	stored, ok := r.s.data.orders[order.ID]
	if !ok {
		return nil, notFound("order")
	}

	now := r.s.timestamp()
	if err := order.BeforeSave(now); err != nil {
		return nil, err
	}

	stored.CustomerName = order.CustomerName
	stored.CustomerPhone = order.CustomerPhone
	stored.OrderDetails = order.OrderDetails
	stored.Image = order.Image
	stored.Price = order.Price
	stored.Status = order.Status
	stored.DeliveredAt = order.DeliveredAt
	stored.UpdatedAt = now

	r.s.data.orders[order.ID] = stored
	stored = r.view(stored)
	return &stored, nil
}

func (r orderStore) Delete(_ context.Context, id uuid.UUID) error {
	defer r.s.lock()()

	if _, ok := r.s.data.orders[id]; !ok {
		return notFound("order")
	}
	delete(r.s.data.orders, id)
	return nil
}

func (r orderStore) CountByStatus(_ context.Context, filter models.OrderFilter) (map[models.OrderStatus]int, error) {
	defer r.s.lock()()

	counts := make(map[models.OrderStatus]int)
	for _, o := range r.s.data.orders {
		if matches(o, filter) {
			counts[o.Status]++
		}
	}
	return counts, nil
}

func inWindow(o models.Order, from time.Time, through *time.Time) bool {
	if o.Status != models.OrderStatusDelivered || o.DeliveredAt == nil {
		return false
	}
	if o.DeliveredAt.Before(from) {
		return false
	}
	return through == nil || !o.DeliveredAt.After(*through)
}

func (r orderStore) DeliveredStats(_ context.Context, from time.Time, through *time.Time) (models.ShiftStats, error) {
	defer r.s.lock()()

	stats := models.ShiftStats{Revenue: decimal.Zero}
	for _, o := range r.s.data.orders {
		if !inWindow(o, from, through) {
			continue
		}
		stats.OrdersDelivered++
		if o.Price.Valid {
			stats.Revenue = stats.Revenue.Add(o.Price.Decimal)
		}
	}
	return stats, nil
}

func (r orderStore) DeliveredPerDay(_ context.Context, from, until time.Time, loc *time.Location) ([]models.DayTotals, error) {
	defer r.s.lock()()

	byDay := make(map[int]*models.DayTotals)
	for _, o := range r.s.data.orders {
		if o.Status != models.OrderStatusDelivered || o.DeliveredAt == nil {
			continue
		}
		if o.DeliveredAt.Before(from) || !o.DeliveredAt.Before(until) {
			continue
		}
		d := o.DeliveredAt.In(loc).Day()
		t, ok := byDay[d]
		if !ok {
			t = &models.DayTotals{Day: d, Revenue: decimal.Zero}
			byDay[d] = t
		}
		t.Count++
		if o.Price.Valid {
			t.Revenue = t.Revenue.Add(o.Price.Decimal)
		}
	}

	days := make([]models.DayTotals, 0, len(byDay))
	for _, t := range byDay {
		days = append(days, *t)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })
	return days, nil
}

func (r orderStore) ListDelivered(_ context.Context, from time.Time, through *time.Time) ([]models.Order, error) {
	defer r.s.lock()()

	orders := []models.Order{}
	for _, o := range r.s.data.orders {
		if inWindow(o, from, through) {
			orders = append(orders, r.view(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].DeliveredAt.After(*orders[j].DeliveredAt)
	})
	return orders, nil
}

func (r orderStore) LinkToShift(_ context.Context, shiftID uuid.UUID, from, through time.Time) (int64, error) {
	defer r.s.lock()()

	var n int64
	for id, o := range r.s.data.orders {
		if !inWindow(o, from, &through) {
			continue
		}
		sid := shiftID
		o.DeliveredInShift = &sid
		r.s.data.orders[id] = o
		n++
	}
	return n, nil
}

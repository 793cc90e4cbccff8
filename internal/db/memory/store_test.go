package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/db/repository"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)}
	return New(c.now), c
}

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func newOrder(name string) models.Order {
	return models.Order{
		CustomerName:  name,
		CustomerPhone: "0100000000",
		OrderDetails:  "acrylic sign",
	}
}

func TestUsers_UniqueUsername(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Users().Create(ctx, models.User{Username: "mona", Role: models.RoleWorker})
	require.NoError(t, err)

	_, err = s.Users().Create(ctx, models.User{Username: "mona", Role: models.RoleWorker})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
}

func TestUsers_DeleteNullsReferences(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	u, err := s.Users().Create(ctx, models.User{Username: "ali", Role: models.RoleManager})
	require.NoError(t, err)

	o := newOrder("Sara")
	o.CreatedBy = &u.ID
	created, err := s.Orders().Create(ctx, o)
	require.NoError(t, err)
	require.NotNil(t, created.CreatedByUsername)
	assert.Equal(t, "ali", *created.CreatedByUsername)

	require.NoError(t, s.Users().Delete(ctx, u.ID))

	got, err := s.Orders().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CreatedBy)
	assert.Nil(t, got.CreatedByUsername)
}

func TestOrders_DeliveredAtFollowsStatus(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)

	o := newOrder("Sara")
	o.Status = models.OrderStatusDelivered
	o.Price = price("150")
	created, err := s.Orders().Create(ctx, o)
	require.NoError(t, err)
	require.NotNil(t, created.DeliveredAt)
	assert.Equal(t, c.t, *created.DeliveredAt)

	c.advance(time.Hour)
	created.Status = models.OrderStatusDoneCutting
	reverted, err := s.Orders().Update(ctx, *created)
	require.NoError(t, err)
	assert.Nil(t, reverted.DeliveredAt)
	assert.Equal(t, c.t, reverted.UpdatedAt)
}

func TestOrders_DeliveredRequiresPrice(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for _, p := range []decimal.NullDecimal{{}, price("0")} {
		o := newOrder("Sara")
		o.Status = models.OrderStatusDelivered
		o.Price = p
		_, err := s.Orders().Create(ctx, o)

		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"Price is required when order is marked as delivered."}, verr.Fields["price"])
	}

	orders, err := s.Orders().List(ctx, models.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrders_ListFilterAndOrdering(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)

	a := newOrder("Laila")
	a.Price = price("50")
	_, err := s.Orders().Create(ctx, a)
	require.NoError(t, err)

	c.advance(time.Minute)
	b := newOrder("Omar")
	b.OrderDetails = "wooden BOX"
	_, err = s.Orders().Create(ctx, b)
	require.NoError(t, err)

	c.advance(time.Minute)
	d := newOrder("Nour")
	d.Price = price("75")
	_, err = s.Orders().Create(ctx, d)
	require.NoError(t, err)

	all, err := s.Orders().List(ctx, models.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Nour", all[0].CustomerName)

	byPrice, err := s.Orders().List(ctx, models.OrderFilter{Ordering: "-price"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Nour", "Laila", "Omar"}, names(byPrice))

	search, err := s.Orders().List(ctx, models.OrderFilter{Search: "box"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Omar"}, names(search))

	limited, err := s.Orders().List(ctx, models.OrderFilter{Ordering: "created_at", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Laila", "Omar"}, names(limited))
}

func names(orders []models.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.CustomerName)
	}
	return out
}

func TestOrders_DeliveredStatsWindow(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)
	start := c.t

	for _, p := range []string{"100", "250.50"} {
		c.advance(time.Hour)
		o := newOrder("Sara")
		o.Status = models.OrderStatusDelivered
		o.Price = price(p)
		_, err := s.Orders().Create(ctx, o)
		require.NoError(t, err)
	}

	stats, err := s.Orders().DeliveredStats(ctx, start, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.OrdersDelivered)
	assert.Equal(t, "350.50", stats.Revenue.StringFixed(2))

	through := start.Add(time.Hour)
	stats, err = s.Orders().DeliveredStats(ctx, start, &through)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OrdersDelivered, "upper bound is inclusive")

	shiftID := uuid.New()
	n, err := s.Orders().LinkToShift(ctx, shiftID, start, through)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOrders_DeliveredPerDay(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)

	// 09:00, 21:30 and 23:30 UTC on May 10; the last is May 11 in UTC+2
	for _, step := range []struct {
		after time.Duration
		price string
	}{{0, "10"}, {12*time.Hour + 30*time.Minute, "20"}, {2 * time.Hour, "30"}} {
		c.advance(step.after)
		o := newOrder("Sara")
		o.Status = models.OrderStatusDelivered
		o.Price = price(step.price)
		_, err := s.Orders().Create(ctx, o)
		require.NoError(t, err)
	}

	loc := time.FixedZone("UTC+2", 2*60*60)
	from, until := models.MonthRange(2024, time.May, loc)
	days, err := s.Orders().DeliveredPerDay(ctx, from, until, loc)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 10, days[0].Day)
	assert.Equal(t, 2, days[0].Count)
	assert.Equal(t, "30", days[0].Revenue.String())
	assert.Equal(t, 11, days[1].Day)
	assert.Equal(t, 1, days[1].Count)

	dayFrom, dayUntil := models.DayRange(time.Date(2024, 5, 11, 0, 0, 0, 0, loc), loc)
	days, err = s.Orders().DeliveredPerDay(ctx, dayFrom, dayUntil, loc)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "30", days[0].Revenue.String())
}

func TestShifts_SingleActive(t *testing.T) {
	ctx := context.Background()
	s, c := newTestStore(t)

	_, err := s.Shifts().Create(ctx, models.Shift{OpenedAt: c.t, IsActive: true})
	require.NoError(t, err)

	_, err = s.Shifts().Create(ctx, models.Shift{OpenedAt: c.t, IsActive: true})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Orders().Create(ctx, newOrder("Sara")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	orders, err := s.Orders().List(ctx, models.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	err = s.InTx(ctx, func(tx repository.Store) error {
		_, err := tx.Orders().Create(ctx, newOrder("Sara"))
		return err
	})
	require.NoError(t, err)

	orders, err = s.Orders().List(ctx, models.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

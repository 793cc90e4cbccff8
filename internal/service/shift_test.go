package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/laserworks/workshop-service/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeShifts(t *testing.T, e *env) int {
	t.Helper()
	shifts, err := e.store.Shifts().List(e.ctx)
	require.NoError(t, err)
	n := 0
	for _, s := range shifts {
		if s.IsActive {
			n++
		}
	}
	return n
}

func TestShiftService_CloseAggregatesWindow(t *testing.T) {
	e := newEnv(t)

	// Delivered before the shift opens, so outside its window.
	early := e.deliver(t, e.createOrder(t, "Early"), "500")

	e.clock.advance(time.Hour)
	opened, err := e.shifts.OpenNew(e.ctx, e.manager)
	require.NoError(t, err)

	var inWindow []*models.Order
	for _, p := range []string{"10", "20", "30"} {
		e.clock.advance(30 * time.Minute)
		inWindow = append(inWindow, e.deliver(t, e.createOrder(t, "Customer"), p))
	}

	e.clock.advance(30 * time.Minute)
	e.pub.reset()
	result, err := e.shifts.Close(e.ctx, e.manager, opened.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Summary.TotalOrdersDelivered)
	assert.Equal(t, 60.0, result.Summary.TotalRevenue)
	assert.Equal(t, "Shift closed! Delivered 3 orders. Total revenue: $60.00", result.Summary.Message)
	assert.False(t, result.Shift.IsActive)
	assert.Equal(t, 2.0, result.Shift.DurationHours)
	require.NotNil(t, result.Shift.ClosedByUsername)
	assert.Equal(t, "manager", *result.Shift.ClosedByUsername)

	stored, err := e.store.Shifts().GetByID(e.ctx, opened.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TotalOrdersDelivered)
	assert.True(t, dec("60").Equal(stored.TotalRevenue))
	assert.Equal(t, e.clock.now(), *stored.ClosedAt)

	for _, o := range inWindow {
		got, err := e.store.Orders().GetByID(e.ctx, o.ID)
		require.NoError(t, err)
		require.NotNil(t, got.DeliveredInShift)
		assert.Equal(t, opened.ID, *got.DeliveredInShift)
		assert.Equal(t, models.OrderStatusDelivered, got.Status)
		assert.Equal(t, o.DeliveredAt, got.DeliveredAt, "closing never touches delivered_at")
	}

	got, err := e.store.Orders().GetByID(e.ctx, early.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DeliveredInShift)

	items := e.pub.all()
	require.Len(t, items, 1)
	assert.Equal(t, notify.EntityShift, items[0].EntityType)
	assert.Equal(t, notify.ActionUpdated, items[0].Action)
}

func TestShiftService_CloseEmptyShift(t *testing.T) {
	e := newEnv(t)
	opened, err := e.shifts.OpenNew(e.ctx, e.manager)
	require.NoError(t, err)

	e.clock.advance(time.Hour)
	result, err := e.shifts.Close(e.ctx, e.manager, opened.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.TotalOrdersDelivered)
	assert.Equal(t, 0.0, result.Summary.TotalRevenue)
}

func TestShiftService_CloseErrors(t *testing.T) {
	e := newEnv(t)
	opened, err := e.shifts.OpenNew(e.ctx, e.manager)
	require.NoError(t, err)

	_, err = e.shifts.Close(e.ctx, e.worker, opened.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = e.shifts.Close(e.ctx, e.manager, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = e.shifts.Close(e.ctx, e.manager, opened.ID)
	require.NoError(t, err)

	_, err = e.shifts.Close(e.ctx, e.manager, opened.ID)
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.EqualError(t, err, "Shift already closed")
}

func TestShiftService_OpenNewClosesActive(t *testing.T) {
	e := newEnv(t)

	first, err := e.shifts.OpenNew(e.ctx, e.manager)
	require.NoError(t, err)

	e.clock.advance(time.Hour)
	e.deliver(t, e.createOrder(t, "Sara"), "42.50")

	e.clock.advance(time.Hour)
	e.pub.reset()
	second, err := e.shifts.OpenNew(e.ctx, e.manager)
	require.NoError(t, err)
	assert.True(t, second.IsActive)
	assert.Equal(t, 0, second.TotalOrdersDelivered)

	prev, err := e.store.Shifts().GetByID(e.ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, prev.IsActive)
	assert.Equal(t, 1, prev.TotalOrdersDelivered)
	assert.True(t, dec("42.50").Equal(prev.TotalRevenue))
	assert.Equal(t, 1, activeShifts(t, e))

	items := e.pub.all()
	require.Len(t, items, 2)
	assert.Equal(t, notify.ActionUpdated, items[0].Action)
	assert.Equal(t, notify.ActionCreated, items[1].Action)
}

func TestShiftService_SingleActiveUnderConcurrency(t *testing.T) {
	e := newEnv(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.shifts.OpenNew(e.ctx, e.manager)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, activeShifts(t, e))

	shifts, err := e.shifts.List(e.ctx, e.manager)
	require.NoError(t, err)
	assert.Len(t, shifts, 8)
}

func TestShiftService_LiveVersusSnapshotStats(t *testing.T) {
	e := newEnv(t)
	opened, err := e.shifts.OpenNew(e.ctx, e.manager)
	require.NoError(t, err)

	e.clock.advance(time.Hour)
	order := e.deliver(t, e.createOrder(t, "Sara"), "100")

	current, err := e.shifts.Current(e.ctx, e.worker)
	require.NoError(t, err)
	assert.Equal(t, 1, current.TotalOrdersDelivered)
	assert.Equal(t, 100.0, current.TotalRevenue)
	assert.Equal(t, 1.0, current.DurationHours)

	e.clock.advance(time.Hour)
	_, err = e.shifts.Close(e.ctx, e.manager, opened.ID)
	require.NoError(t, err)

	// Later edits to the order leave the frozen totals alone.
	_, err = e.orders.Update(e.ctx, e.manager, order.ID, patchFromJSON(t, `{"price": "999"}`))
	require.NoError(t, err)

	view, err := e.shifts.Get(e.ctx, e.manager, opened.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, view.TotalRevenue)
	assert.Equal(t, 2.0, view.DurationHours)

	_, err = e.shifts.Current(e.ctx, e.worker)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.EqualError(t, err, "No active shift")
}

func TestShiftService_DeliveredOrders(t *testing.T) {
	e := newEnv(t)
	opened, err := e.shifts.OpenNew(e.ctx, e.manager)
	require.NoError(t, err)

	e.clock.advance(time.Minute)
	e.deliver(t, e.createOrder(t, "First"), "10")
	e.clock.advance(time.Minute)
	e.deliver(t, e.createOrder(t, "Second"), "20")

	orders, err := e.shifts.DeliveredOrders(e.ctx, e.manager, opened.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "Second", orders[0].CustomerName)

	_, err = e.shifts.Close(e.ctx, e.manager, opened.ID)
	require.NoError(t, err)

	e.clock.advance(time.Minute)
	e.deliver(t, e.createOrder(t, "After close"), "30")

	orders, err = e.shifts.DeliveredOrders(e.ctx, e.manager, opened.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	_, err = e.shifts.DeliveredOrders(e.ctx, e.worker, opened.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/laserworks/workshop-service/internal/db/memory"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/laserworks/workshop-service/internal/notify"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (r *recorder) Publish(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recorder) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.items...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type env struct {
	ctx     context.Context
	store   *memory.Store
	clock   *testClock
	pub     *recorder
	orders  *OrderService
	shifts  *ShiftService
	reports *ReportService
	users   *UserService
	auth    *AuthService

	manager *models.User
	worker  *models.User
}

func newEnv(t *testing.T) *env {
	t.Helper()

	clock := &testClock{t: time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)}
	store := memory.New(clock.now)
	pub := &recorder{}

	e := &env{
		ctx:     context.Background(),
		store:   store,
		clock:   clock,
		pub:     pub,
		orders:  NewOrderService(store, pub, time.UTC),
		shifts:  NewShiftService(store, pub, clock.now, zerolog.Nop()),
		reports: NewReportService(store, clock.now, time.UTC),
		users:   NewUserService(store),
		auth: NewAuthService(store, JWTConfig{
			Secret:     "test-secret",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
		}),
	}

	var err error
	e.manager, err = store.Users().Create(e.ctx, models.User{Username: "manager", Role: models.RoleManager})
	require.NoError(t, err)
	e.worker, err = store.Users().Create(e.ctx, models.User{Username: "worker", Role: models.RoleWorker})
	require.NoError(t, err)

	return e
}

func (e *env) createOrder(t *testing.T, name string) *models.Order {
	t.Helper()
	order, err := e.orders.Create(e.ctx, e.manager, models.OrderRequest{
		CustomerName:  name,
		CustomerPhone: "0100000000",
		OrderDetails:  "engraved plaque",
	})
	require.NoError(t, err)
	return order
}

// deliver prices an order and marks it delivered at the current clock time
func (e *env) deliver(t *testing.T, order *models.Order, price string) *models.Order {
	t.Helper()
	patch := patchFromJSON(t, `{"status": "DELIVERED", "price": "`+price+`"}`)
	updated, err := e.orders.Update(e.ctx, e.manager, order.ID, patch)
	require.NoError(t, err)
	return updated
}

func patchFromJSON(t *testing.T, body string) models.OrderPatch {
	t.Helper()
	var patch models.OrderPatch
	require.NoError(t, json.Unmarshal([]byte(body), &patch))
	return patch
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// checkDeliveredInvariant asserts status DELIVERED holds exactly when
// delivered_at is set, for every stored order
func checkDeliveredInvariant(t *testing.T, e *env) {
	t.Helper()
	orders, err := e.store.Orders().List(e.ctx, models.OrderFilter{})
	require.NoError(t, err)
	for _, o := range orders {
		require.Equal(t, o.Status == models.OrderStatusDelivered, o.DeliveredAt != nil,
			"order %s status %s delivered_at %v", o.ID, o.Status, o.DeliveredAt)
	}
}

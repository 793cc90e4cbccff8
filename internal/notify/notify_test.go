package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	frames [][]byte
	full   bool
}

func (h *fakeHub) Broadcast(message []byte) bool {
	if h.full {
		return false
	}
	h.frames = append(h.frames, message)
	return true
}

func decode(t *testing.T, frame []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(frame, &out))
	return out
}

func TestHubPublisher_OrderUpdated(t *testing.T) {
	hub := &fakeHub{}
	p := NewHubPublisher(hub, zerolog.Nop())

	delivered := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	order := &models.Order{
		ID:           uuid.New(),
		CustomerName: "Sara",
		Status:       models.OrderStatusDelivered,
		Price:        decimal.NewNullDecimal(decimal.RequireFromString("150")),
		DeliveredAt:  &delivered,
	}
	p.Publish(context.Background(), OrderChanged(ActionUpdated, order))

	require.Len(t, hub.frames, 1)
	frame := decode(t, hub.frames[0])
	assert.Equal(t, "order_update", frame["type"])
	assert.Equal(t, "order", frame["entity_type"])
	assert.Equal(t, "updated", frame["action"])

	entity := frame["entity"].(map[string]any)
	assert.Equal(t, order.ID.String(), entity["id"])
	assert.Equal(t, "150.00", entity["price"])
	assert.Equal(t, "Delivered", entity["status_display"])
}

func TestHubPublisher_OrderDeletedCarriesOnlyID(t *testing.T) {
	hub := &fakeHub{}
	p := NewHubPublisher(hub, zerolog.Nop())

	id := uuid.New()
	p.Publish(context.Background(), OrderDeleted(id))

	require.Len(t, hub.frames, 1)
	frame := decode(t, hub.frames[0])
	assert.Equal(t, "deleted", frame["action"])
	assert.Equal(t, map[string]any{"id": id.String()}, frame["entity"])
}

func TestHubPublisher_Shift(t *testing.T) {
	hub := &fakeHub{}
	p := NewHubPublisher(hub, zerolog.Nop())

	opened := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	shift := models.Shift{ID: uuid.New(), OpenedAt: opened, IsActive: true}
	stats := models.ShiftStats{OrdersDelivered: 2, Revenue: decimal.RequireFromString("300.5")}
	p.Publish(context.Background(), ShiftChanged(ActionCreated, shift.View(stats, opened.Add(90*time.Minute))))

	frame := decode(t, hub.frames[0])
	assert.Equal(t, "shift_update", frame["type"])
	assert.Equal(t, "shift", frame["entity_type"])
	entity := frame["entity"].(map[string]any)
	assert.EqualValues(t, 2, entity["total_orders_delivered"])
	assert.EqualValues(t, 300.5, entity["total_revenue"])
	assert.EqualValues(t, 1.5, entity["duration_hours"])
}

func TestHubPublisher_DroppedFrameIsSwallowed(t *testing.T) {
	hub := &fakeHub{full: true}
	p := NewHubPublisher(hub, zerolog.Nop())

	assert.NotPanics(t, func() {
		p.Publish(context.Background(), OrderDeleted(uuid.New()))
	})
	assert.Empty(t, hub.frames)
}

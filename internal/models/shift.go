package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shift is a bounded operating period against which delivered orders and
// revenue are attributed. The stored totals are snapshots and only meaningful
// once the shift is closed.
type Shift struct {
	ID                   uuid.UUID       `db:"id"`
	OpenedAt             time.Time       `db:"opened_at"`
	ClosedAt             *time.Time      `db:"closed_at"`
	OpenedBy             *uuid.UUID      `db:"opened_by"`
	ClosedBy             *uuid.UUID      `db:"closed_by"`
	IsActive             bool            `db:"is_active"`
	TotalOrdersDelivered int             `db:"total_orders_delivered"`
	TotalRevenue         decimal.Decimal `db:"total_revenue"`

	// Not stored directly in the database
	OpenedByUsername *string `db:"opened_by_username"`
	ClosedByUsername *string `db:"closed_by_username"`
}

// ShiftStats is a delivered count and revenue pair
type ShiftStats struct {
	OrdersDelivered int
	Revenue         decimal.Decimal
}

// Close stamps the closing fields and freezes the given statistics
func (s *Shift) Close(by uuid.UUID, at time.Time, stats ShiftStats) {
	s.ClosedAt = &at
	s.ClosedBy = &by
	s.IsActive = false
	s.TotalOrdersDelivered = stats.OrdersDelivered
	s.TotalRevenue = stats.Revenue
}

// Window returns the delivered_at bounds used to attribute orders. Until is
// nil while the shift is active.
func (s *Shift) Window() (from time.Time, until *time.Time) {
	if s.IsActive {
		return s.OpenedAt, nil
	}
	return s.OpenedAt, s.ClosedAt
}

// ShiftView is the serialized representation of a shift. For an active shift
// the totals are live values; for a closed one they are the stored snapshot.
type ShiftView struct {
	ID                   uuid.UUID  `json:"id"`
	OpenedAt             time.Time  `json:"opened_at"`
	ClosedAt             *time.Time `json:"closed_at"`
	IsActive             bool       `json:"is_active"`
	TotalOrdersDelivered int        `json:"total_orders_delivered"`
	TotalRevenue         float64    `json:"total_revenue"`
	DurationHours        float64    `json:"duration_hours"`
	OpenedBy             *uuid.UUID `json:"opened_by"`
	OpenedByUsername     *string    `json:"opened_by_username"`
	ClosedBy             *uuid.UUID `json:"closed_by"`
	ClosedByUsername     *string    `json:"closed_by_username"`
}

// View builds the serialized representation using the given statistics
func (s *Shift) View(stats ShiftStats, now time.Time) ShiftView {
	end := now
	if s.ClosedAt != nil {
		end = *s.ClosedAt
	}
	hours := end.Sub(s.OpenedAt).Hours()

	return ShiftView{
		ID:                   s.ID,
		OpenedAt:             s.OpenedAt,
		ClosedAt:             s.ClosedAt,
		IsActive:             s.IsActive,
		TotalOrdersDelivered: stats.OrdersDelivered,
		TotalRevenue:         stats.Revenue.InexactFloat64(),
		DurationHours:        math.Round(hours*100) / 100,
		OpenedBy:             s.OpenedBy,
		OpenedByUsername:     s.OpenedByUsername,
		ClosedBy:             s.ClosedBy,
		ClosedByUsername:     s.ClosedByUsername,
	}
}

// ShiftCloseSummary is returned by the close operation
type ShiftCloseSummary struct {
	TotalOrdersDelivered int     `json:"total_orders_delivered"`
	TotalRevenue         float64 `json:"total_revenue"`
	Message              string  `json:"message"`
}

// CloseSummary describes the frozen totals of a closed shift
func (s *Shift) CloseSummary() ShiftCloseSummary {
	return ShiftCloseSummary{
		TotalOrdersDelivered: s.TotalOrdersDelivered,
		TotalRevenue:         s.TotalRevenue.InexactFloat64(),
		Message: fmt.Sprintf("Shift closed! Delivered %d orders. Total revenue: $%s",
			s.TotalOrdersDelivered, s.TotalRevenue.StringFixed(2)),
	}
}

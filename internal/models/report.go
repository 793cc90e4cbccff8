package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyReport summarizes one calendar day. Revenue figures come from orders
// delivered that day; the status breakdown covers orders created that day.
type DailyReport struct {
	Date              string              `json:"date"`
	TotalOrders       int                 `json:"total_orders"`
	TotalRevenue      float64             `json:"total_revenue"`
	AverageOrderValue float64             `json:"average_order_value"`
	OrdersByStatus    map[OrderStatus]int `json:"orders_by_status"`
	Orders            []Order             `json:"orders"`
}

// DayBreakdown is the revenue of one day within a month
type DayBreakdown struct {
	Day     int     `json:"day"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

// DayTotals aggregates the orders delivered on one calendar day
type DayTotals struct {
	Day     int             `db:"day"`
	Count   int             `db:"count"`
	Revenue decimal.Decimal `db:"revenue"`
}

// MonthlyReport summarizes one calendar month
type MonthlyReport struct {
	Year              int                 `json:"year"`
	Month             int                 `json:"month"`
	TotalOrders       int                 `json:"total_orders"`
	TotalRevenue      float64             `json:"total_revenue"`
	AverageOrderValue float64             `json:"average_order_value"`
	OrdersByStatus    map[OrderStatus]int `json:"orders_by_status"`
	DailyBreakdown    []DayBreakdown      `json:"daily_breakdown"`
}

// StatusBreakdown returns a map holding every known status, zero-filled
func StatusBreakdown(counts map[OrderStatus]int) map[OrderStatus]int {
	out := make(map[OrderStatus]int, len(OrderStatuses))
	for _, s := range OrderStatuses {
		out[s] = counts[s]
	}
	return out
}

// DayRange returns the [start, end) bounds of the calendar day containing t
// in loc.
func DayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// MonthRange returns the [start, end) bounds of a calendar month in loc
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

package service

import (
	"context"
	"strconv"
	"time"

	"github.com/laserworks/workshop-service/internal/db/repository"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/laserworks/workshop-service/internal/policy"
	"github.com/shopspring/decimal"
)

// Daily reports list at most this many orders; the totals cover all of them
const dailyOrderLimit = 1000

// ReportService builds calendar reports in the workshop time zone
type ReportService struct {
	store      repository.Store
	now        repository.Clock
	loc        *time.Location
	orderLimit uint64
}

// NewReportService creates a new report service
func NewReportService(store repository.Store, now repository.Clock, loc *time.Location) *ReportService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{store: store, now: now, loc: loc, orderLimit: dailyOrderLimit}
}

type periodTotals struct {
	days     []models.DayTotals
	count    int
	revenue  decimal.Decimal
	byStatus map[models.OrderStatus]int
}

func (t periodTotals) average() float64 {
	if t.count == 0 {
		return 0
	}
	return t.revenue.Div(decimal.NewFromInt(int64(t.count))).Round(2).InexactFloat64()
}

// totals aggregates orders delivered in [from, until) and the status
// breakdown of orders created in the same range
func (s *ReportService) totals(ctx context.Context, from, until time.Time) (*periodTotals, error) {
	days, err := s.store.Orders().DeliveredPerDay(ctx, from, until, s.loc)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.Orders().CountByStatus(ctx, models.OrderFilter{
		CreatedFrom:  &from,
		CreatedUntil: &until,
	})
	if err != nil {
		return nil, err
	}

	t := &periodTotals{
		days:     days,
		revenue:  decimal.Zero,
		byStatus: models.StatusBreakdown(counts),
	}
	for _, d := range days {
		t.count += d.Count
		t.revenue = t.revenue.Add(d.Revenue)
	}
	return t, nil
}

// Daily reports one calendar day. An empty date means today.
func (s *ReportService) Daily(ctx context.Context, actor *models.User, date string) (*models.DailyReport, error) {
	if err := policy.Authorize(actor, policy.ReadReports); err != nil {
		return nil, err
	}

	day := s.now().In(s.loc)
	if date != "" {
		parsed, err := time.ParseInLocation(DateLayout, date, s.loc)
		if err != nil {
			return nil, models.NewValidationError("date", "Invalid date format. Use YYYY-MM-DD.")
		}
		day = parsed
	}

	from, until := models.DayRange(day, s.loc)
	t, err := s.totals(ctx, from, until)
	if err != nil {
		return nil, err
	}

	delivered := models.OrderStatusDelivered
	orders, err := s.store.Orders().List(ctx, models.OrderFilter{
		Status:         &delivered,
		DeliveredFrom:  &from,
		DeliveredUntil: &until,
		Ordering:       "-delivered_at",
		Limit:          s.orderLimit,
	})
	if err != nil {
		return nil, err
	}

	return &models.DailyReport{
		Date:              from.Format(DateLayout),
		TotalOrders:       t.count,
		TotalRevenue:      t.revenue.InexactFloat64(),
		AverageOrderValue: t.average(),
		OrdersByStatus:    t.byStatus,
		Orders:            orders,
	}, nil
}

// Monthly reports one calendar month. Empty year or month default to the
// current one.
func (s *ReportService) Monthly(ctx context.Context, actor *models.User, year, month string) (*models.MonthlyReport, error) {
	if err := policy.Authorize(actor, policy.ReadReports); err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	y, m := now.Year(), int(now.Month())

	verr := &models.ValidationError{}
	if year != "" {
		v, err := strconv.Atoi(year)
		if err != nil || v < 1 || v > 9999 {
			verr.Add("year", "Invalid year.")
		}
		y = v
	}
	if month != "" {
		v, err := strconv.Atoi(month)
		if err != nil {
			verr.Add("month", "Invalid month.")
		} else if v < 1 || v > 12 {
			verr.Add("month", "Month must be between 1 and 12.")
		}
		m = v
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	from, until := models.MonthRange(y, time.Month(m), s.loc)
	t, err := s.totals(ctx, from, until)
	if err != nil {
		return nil, err
	}

	breakdown := make([]models.DayBreakdown, 0, len(t.days))
	for _, d := range t.days {
		breakdown = append(breakdown, models.DayBreakdown{
			Day:     d.Day,
			Count:   d.Count,
			Revenue: d.Revenue.InexactFloat64(),
		})
	}

	return &models.MonthlyReport{
		Year:              y,
		Month:             m,
		TotalOrders:       t.count,
		TotalRevenue:      t.revenue.InexactFloat64(),
		AverageOrderValue: t.average(),
		OrdersByStatus:    t.byStatus,
		DailyBreakdown:    breakdown,
	}, nil
}

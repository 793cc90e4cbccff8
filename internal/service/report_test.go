package service

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/laserworks/workshop-service/internal/db/memory"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_Daily(t *testing.T) {
	e := newEnv(t)
	e.deliver(t, e.createOrder(t, "A"), "10")
	e.clock.advance(time.Hour)
	e.deliver(t, e.createOrder(t, "B"), "25.50")
	e.createOrder(t, "C")

	report, err := e.reports.Daily(e.ctx, e.manager, "2024-05-10")
	require.NoError(t, err)

	assert.Equal(t, "2024-05-10", report.Date)
	assert.Equal(t, 2, report.TotalOrders)
	assert.Equal(t, 35.5, report.TotalRevenue)
	assert.Equal(t, 17.75, report.AverageOrderValue)
	assert.Len(t, report.OrdersByStatus, len(models.OrderStatuses))
	assert.Equal(t, 2, report.OrdersByStatus[models.OrderStatusDelivered])
	assert.Equal(t, 1, report.OrdersByStatus[models.OrderStatusUnderWork])
	assert.Equal(t, 0, report.OrdersByStatus[models.OrderStatusDesigning])
	require.Len(t, report.Orders, 2)
	assert.Equal(t, "B", report.Orders[0].CustomerName)
}

func TestReportService_DailyTotalsCoverUnlistedOrders(t *testing.T) {
	e := newEnv(t)
	e.reports.orderLimit = 2
	for _, price := range []string{"10", "20", "30"} {
		e.clock.advance(time.Minute)
		e.deliver(t, e.createOrder(t, "Batch"), price)
	}

	report, err := e.reports.Daily(e.ctx, e.manager, "2024-05-10")
	require.NoError(t, err)

	assert.Len(t, report.Orders, 2)
	assert.Equal(t, 3, report.TotalOrders)
	assert.Equal(t, 60.0, report.TotalRevenue)
}

func TestReportService_DailyDefaultsToToday(t *testing.T) {
	e := newEnv(t)

	report, err := e.reports.Daily(e.ctx, e.manager, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", report.Date)
	assert.Equal(t, 0, report.TotalOrders)
	assert.Equal(t, 0.0, report.AverageOrderValue)
	assert.Len(t, report.OrdersByStatus, 5)
	assert.NotNil(t, report.Orders)
}

func TestReportService_DailyErrors(t *testing.T) {
	e := newEnv(t)

	_, err := e.reports.Daily(e.ctx, e.worker, "")
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = e.reports.Daily(e.ctx, e.manager, "10-05-2024")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "date")
}

func TestReportService_DailyUsesWorkshopTimeZone(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Cairo")
	require.NoError(t, err)

	e := newEnv(t)
	e.reports = NewReportService(e.store, e.clock.now, loc)

	// 23:30 UTC on the 10th is already the 11th in Cairo.
	e.clock.set(time.Date(2024, 5, 10, 23, 30, 0, 0, time.UTC))
	e.deliver(t, e.createOrder(t, "Late"), "15")

	report, err := e.reports.Daily(e.ctx, e.manager, "2024-05-11")
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalOrders)

	report, err = e.reports.Daily(e.ctx, e.manager, "2024-05-10")
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalOrders)
}

func TestReportService_Monthly(t *testing.T) {
	e := newEnv(t)
	e.deliver(t, e.createOrder(t, "A"), "10")
	e.clock.advance(48 * time.Hour)
	e.deliver(t, e.createOrder(t, "B"), "20")
	e.deliver(t, e.createOrder(t, "C"), "30")
	e.clock.set(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	e.deliver(t, e.createOrder(t, "June"), "1000")

	report, err := e.reports.Monthly(e.ctx, e.manager, "2024", "5")
	require.NoError(t, err)

	assert.Equal(t, 2024, report.Year)
	assert.Equal(t, 5, report.Month)
	assert.Equal(t, 3, report.TotalOrders)
	assert.Equal(t, 60.0, report.TotalRevenue)
	assert.Equal(t, 20.0, report.AverageOrderValue)
	assert.Equal(t, []models.DayBreakdown{
		{Day: 10, Count: 1, Revenue: 10},
		{Day: 12, Count: 2, Revenue: 50},
	}, report.DailyBreakdown)
}

func TestReportService_MonthlyValidation(t *testing.T) {
	e := newEnv(t)

	for _, tt := range []struct{ year, month, field string }{
		{"2024", "13", "month"},
		{"2024", "0", "month"},
		{"2024", "may", "month"},
		{"last", "5", "year"},
	} {
		_, err := e.reports.Monthly(e.ctx, e.manager, tt.year, tt.month)

		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr, "%s-%s", tt.year, tt.month)
		assert.Contains(t, verr.Fields, tt.field)
	}
}

func TestReportService_MonthlyDefaultsToCurrentMonth(t *testing.T) {
	e := newEnv(t)
	e.reports = NewReportService(memory.New(e.clock.now), e.clock.now, time.UTC)

	report, err := e.reports.Monthly(e.ctx, e.manager, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2024, report.Year)
	assert.Equal(t, 5, report.Month)
	assert.Empty(t, report.DailyBreakdown)
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/shopspring/decimal"
)

var orderColumns = []string{
	"o.id", "o.customer_name", "o.customer_phone", "o.order_details", "o.image", "o.price",
	"o.status", "o.created_by", "o.created_at", "o.updated_at", "o.delivered_at",
	"o.delivered_in_shift", "u.username AS created_by_username",
}

// Default page size for listings
const defaultOrderLimit = 500

// OrderRepository handles order data access
type OrderRepository struct {
	db  sqlx.ExtContext
	now Clock
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db sqlx.ExtContext, now Clock) *OrderRepository {
	return &OrderRepository{db: db, now: now}
}

func selectOrders() sq.SelectBuilder {
	return psql.Select(orderColumns...).
		From("orders o").
		LeftJoin("users u ON u.id = o.created_by")
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query, args, err := selectOrders().Where(sq.Eq{"o.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build order query: %w", err)
	}

	var order models.Order
	if err := sqlx.GetContext(ctx, r.db, &order, query, args...); err != nil {
		return nil, notFound(err, "order")
	}

	return &order, nil
}

// BuildListQuery translates an order filter into SQL
func BuildListQuery(filter models.OrderFilter) (string, []any, error) {
	q := filterOrders(selectOrders(), filter)

	ordering := filter.Ordering
	if ordering == "" {
		ordering = "-created_at"
	}
	dir := "ASC"
	if ordering.Desc() {
		dir = "DESC"
	}
	// Field is whitelisted by models.ParseOrdering.
	q = q.OrderBy(fmt.Sprintf("o.%s %s NULLS LAST", ordering.Field(), dir), "o.id")

	limit := filter.Limit
	if limit == 0 {
		limit = defaultOrderLimit
	}
	return q.Limit(limit).ToSql()
}

func filterOrders(q sq.SelectBuilder, filter models.OrderFilter) sq.SelectBuilder {
	if filter.Status != nil {
		q = q.Where(sq.Eq{"o.status": *filter.Status})
	}
	if filter.DeliveredFrom != nil {
		q = q.Where(sq.GtOrEq{"o.delivered_at": *filter.DeliveredFrom})
	}
	if filter.DeliveredUntil != nil {
		q = q.Where(sq.Lt{"o.delivered_at": *filter.DeliveredUntil})
	}
	if filter.CreatedFrom != nil {
		q = q.Where(sq.GtOrEq{"o.created_at": *filter.CreatedFrom})
	}
	if filter.CreatedUntil != nil {
		q = q.Where(sq.Lt{"o.created_at": *filter.CreatedUntil})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		q = q.Where(sq.Or{
			sq.ILike{"o.customer_name": pattern},
			sq.ILike{"o.customer_phone": pattern},
			sq.ILike{"o.order_details": pattern},
		})
	}
	if filter.WithImage {
		q = q.Where(sq.And{sq.NotEq{"o.image": nil}, sq.NotEq{"o.image": ""}})
	}
	return q
}

// List retrieves orders matching the filter
func (r *OrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	query, args, err := BuildListQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build order query: %w", err)
	}

	orders := []models.Order{}
	if err := sqlx.SelectContext(ctx, r.db, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// Create creates a new order
func (r *OrderRepository) Create(ctx context.Context, order models.Order) (*models.Order, error) {
	now := r.now().UTC()
	if err := order.BeforeSave(now); err != nil {
		return nil, err
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	query := `
		INSERT INTO orders (id, customer_name, customer_phone, order_details, image, price, status,
		                    created_by, created_at, updated_at, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.CustomerName,
		order.CustomerPhone,
		order.OrderDetails,
		order.Image,
		order.Price,
		order.Status,
		order.CreatedBy,
		now,
		order.DeliveredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return r.GetByID(ctx, order.ID)
}

// Update saves every mutable field of an order
func (r *OrderRepository) Update(ctx context.Context, order models.Order) (*models.Order, error) {
	now := r.now().UTC()
	if err := order.BeforeSave(now); err != nil {
		return nil, err
	}

	query := `
		UPDATE orders
		SET customer_name = $1, customer_phone = $2, order_details = $3, image = $4, price = $5,
		    status = $6, delivered_at = $7, updated_at = $8
		WHERE id = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		order.CustomerName,
		order.CustomerPhone,
		order.OrderDetails,
		order.Image,
		order.Price,
		order.Status,
		order.DeliveredAt,
		now,
		order.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if err := checkAffected(result, "order"); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, order.ID)
}

// Delete deletes an order
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return checkAffected(result, "order")
}

// CountByStatus counts orders matching filter grouped by status
func (r *OrderRepository) CountByStatus(ctx context.Context, filter models.OrderFilter) (map[models.OrderStatus]int, error) {
	q := filterOrders(psql.Select("o.status", "COUNT(*) AS count").From("orders o"), filter).
		GroupBy("o.status")
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build status query: %w", err)
	}

	var rows []struct {
		Status models.OrderStatus `db:"status"`
		Count  int                `db:"count"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	counts := make(map[models.OrderStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func deliveredWindow(from time.Time, through *time.Time) sq.And {
	cond := sq.And{
		sq.Eq{"o.status": models.OrderStatusDelivered},
		sq.GtOrEq{"o.delivered_at": from},
	}
	if through != nil {
		cond = append(cond, sq.LtOrEq{"o.delivered_at": *through})
	}
	return cond
}

// DeliveredStats counts and sums delivered orders inside a window
func (r *OrderRepository) DeliveredStats(ctx context.Context, from time.Time, through *time.Time) (models.ShiftStats, error) {
	query, args, err := psql.
		Select("COUNT(*) AS orders_delivered", "COALESCE(SUM(o.price), 0) AS revenue").
		From("orders o").
		Where(deliveredWindow(from, through)).
		ToSql()
	if err != nil {
		return models.ShiftStats{}, fmt.Errorf("failed to build delivered stats query: %w", err)
	}

	var row struct {
		OrdersDelivered int             `db:"orders_delivered"`
		Revenue         decimal.Decimal `db:"revenue"`
	}
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		return models.ShiftStats{}, fmt.Errorf("failed to aggregate delivered orders: %w", err)
	}

	return models.ShiftStats{OrdersDelivered: row.OrdersDelivered, Revenue: row.Revenue}, nil
}

// BuildDeliveredPerDayQuery groups delivered orders in [from, until) by the
// day of month they were delivered on in loc
func BuildDeliveredPerDayQuery(from, until time.Time, loc *time.Location) (string, []any, error) {
	return psql.
		Select().
		Column(sq.Expr("EXTRACT(DAY FROM o.delivered_at AT TIME ZONE ?)::int AS day", loc.String())).
		Columns("COUNT(*) AS count", "COALESCE(SUM(o.price), 0) AS revenue").
		From("orders o").
		Where(sq.Eq{"o.status": models.OrderStatusDelivered}).
		Where(sq.GtOrEq{"o.delivered_at": from}).
		Where(sq.Lt{"o.delivered_at": until}).
		GroupBy("day").
		OrderBy("day").
		ToSql()
}

// DeliveredPerDay aggregates delivered orders per calendar day
func (r *OrderRepository) DeliveredPerDay(ctx context.Context, from, until time.Time, loc *time.Location) ([]models.DayTotals, error) {
	query, args, err := BuildDeliveredPerDayQuery(from, until, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily totals query: %w", err)
	}

	days := []models.DayTotals{}
	if err := sqlx.SelectContext(ctx, r.db, &days, query, args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate delivered orders per day: %w", err)
	}
	return days, nil
}

// ListDelivered returns the delivered orders inside a window, latest first
func (r *OrderRepository) ListDelivered(ctx context.Context, from time.Time, through *time.Time) ([]models.Order, error) {
	query, args, err := selectOrders().
		Where(deliveredWindow(from, through)).
		OrderBy("o.delivered_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build delivered orders query: %w", err)
	}

	orders := []models.Order{}
	if err := sqlx.SelectContext(ctx, r.db, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list delivered orders: %w", err)
	}

	return orders, nil
}

// LinkToShift attributes the delivered orders inside a window to a shift
func (r *OrderRepository) LinkToShift(ctx context.Context, shiftID uuid.UUID, from, through time.Time) (int64, error) {
	query := `
		UPDATE orders
		SET delivered_in_shift = $1
		WHERE status = $2 AND delivered_at >= $3 AND delivered_at <= $4
	`

	result, err := r.db.ExecContext(ctx, query, shiftID, models.OrderStatusDelivered, from, through)
	if err != nil {
		return 0, fmt.Errorf("failed to link orders to shift: %w", err)
	}

	return result.RowsAffected()
}

package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the workflow stage of an order
type OrderStatus string

const (
	OrderStatusUnderWork       OrderStatus = "UNDER_WORK"
	OrderStatusDesigning       OrderStatus = "DESIGNING"
	OrderStatusDesignCompleted OrderStatus = "DESIGN_COMPLETED"
	OrderStatusDoneCutting     OrderStatus = "DONE_CUTTING"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
)

// OrderStatuses lists every status in workflow order
var OrderStatuses = []OrderStatus{
	OrderStatusUnderWork,
	OrderStatusDesigning,
	OrderStatusDesignCompleted,
	OrderStatusDoneCutting,
	OrderStatusDelivered,
}

var statusDisplay = map[OrderStatus]string{
	OrderStatusUnderWork:       "Under Work",
	OrderStatusDesigning:       "Designing",
	OrderStatusDesignCompleted: "Design Completed",
	OrderStatusDoneCutting:     "Done Cutting",
	OrderStatusDelivered:       "Delivered",
}

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	_, ok := statusDisplay[s]
	return ok
}

// Display returns the human label of the status
func (s OrderStatus) Display() string {
	return statusDisplay[s]
}

// Price limits of a decimal(10,2) column
var maxPrice = decimal.New(1, 8)

const msgPriceRequired = "Price is required when order is marked as delivered."

// Order represents a workshop order
type Order struct {
	ID               uuid.UUID           `db:"id" json:"id"`
	CustomerName     string              `db:"customer_name" json:"customer_name"`
	CustomerPhone    string              `db:"customer_phone" json:"customer_phone"`
	OrderDetails     string              `db:"order_details" json:"order_details"`
	Image            *string             `db:"image" json:"image"`
	Price            decimal.NullDecimal `db:"price" json:"-"`
	Status           OrderStatus         `db:"status" json:"status"`
	CreatedBy        *uuid.UUID          `db:"created_by" json:"created_by"`
	CreatedAt        time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updated_at"`
	DeliveredAt      *time.Time          `db:"delivered_at" json:"delivered_at"`
	DeliveredInShift *uuid.UUID          `db:"delivered_in_shift" json:"delivered_in_shift"`

	// Not stored directly in the database
	CreatedByUsername *string `db:"created_by_username" json:"created_by_username"`
}

// MarshalJSON renders the price with two decimals and adds status_display
func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	return json.Marshal(struct {
		alias
		Price         *string `json:"price"`
		StatusDisplay string  `json:"status_display"`
	}{
		alias:         alias(o),
		Price:         FormatPrice(o.Price),
		StatusDisplay: o.Status.Display(),
	})
}

// FormatPrice renders a nullable price as a fixed two-decimal string
func FormatPrice(p decimal.NullDecimal) *string {
	if !p.Valid {
		return nil
	}
	s := p.Decimal.StringFixed(2)
	return &s
}

// IsDelivered reports whether the order is in the final status
func (o *Order) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}

// BeforeSave applies the derived timestamp rule and validates the order.
// Every store write path calls it, whatever the entry point.
//
// delivered_at is set when the order enters DELIVERED and cleared when it
// leaves it, so delivered_at != nil holds exactly when status is DELIVERED.
func (o *Order) BeforeSave(now time.Time) error {
	if o.Status == "" {
		o.Status = OrderStatusUnderWork
	}

	if o.Status == OrderStatusDelivered {
		if o.DeliveredAt == nil {
			t := now
			o.DeliveredAt = &t
		}
	} else {
		o.DeliveredAt = nil
	}

	return o.Validate()
}

// Validate checks the field constraints of an order
func (o *Order) Validate() error {
	verr := &ValidationError{}

	requireText(verr, "customer_name", o.CustomerName, 255)
	requireText(verr, "customer_phone", o.CustomerPhone, 15)
	requireText(verr, "order_details", o.OrderDetails, 0)

	if !o.Status.Valid() {
		verr.Add("status", fmt.Sprintf("%q is not a valid choice.", o.Status))
	}

	if o.Price.Valid && o.Price.Decimal.Abs().GreaterThanOrEqual(maxPrice) {
		verr.Add("price", "Ensure that there are no more than 10 digits in total.")
	}

	if o.Status == OrderStatusDelivered && (!o.Price.Valid || o.Price.Decimal.IsZero()) {
		verr.Add("price", msgPriceRequired)
	}

	return verr.OrNil()
}

func requireText(verr *ValidationError, field, value string, max int) {
	if strings.TrimSpace(value) == "" {
		verr.Add(field, "This field may not be blank.")
		return
	}
	if max > 0 && len([]rune(value)) > max {
		verr.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
	}
}

// OrderRequest is used for order creation
type OrderRequest struct {
	CustomerName  string              `json:"customer_name"`
	CustomerPhone string              `json:"customer_phone"`
	OrderDetails  string              `json:"order_details"`
	Image         *string             `json:"image"`
	Price         decimal.NullDecimal `json:"price"`
	Status        OrderStatus         `json:"status"`
}

// UnmarshalJSON reports a malformed price under the price field
func (r *OrderRequest) UnmarshalJSON(data []byte) error {
	type plain OrderRequest
	var aux struct {
		plain
		Price json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*r = OrderRequest(aux.plain)
	if len(aux.Price) > 0 {
		if err := json.Unmarshal(aux.Price, &r.Price); err != nil {
			return NewValidationError("price", "A valid number is required.")
		}
	}
	return nil
}

// NewOrder builds an unsaved order from a request
func (r OrderRequest) NewOrder(createdBy uuid.UUID) Order {
	status := r.Status
	if status == "" {
		status = OrderStatusUnderWork
	}
	return Order{
		CustomerName:  strings.TrimSpace(r.CustomerName),
		CustomerPhone: strings.TrimSpace(r.CustomerPhone),
		OrderDetails:  r.OrderDetails,
		Image:         r.Image,
		Price:         r.Price,
		Status:        status,
		CreatedBy:     &createdBy,
	}
}

// OrderPatch is a partial order update. It remembers every key present in the
// request body, including unknown ones, because authorization is decided on
// the set of keys the caller tried to touch.
type OrderPatch struct {
	CustomerName  *string
	CustomerPhone *string
	OrderDetails  *string
	Image         *string
	ImageSet      bool
	Price         *decimal.NullDecimal
	Status        *OrderStatus

	keys []string
	// field errors found while decoding, reported by Err once the caller
	// has been authorized for the keys
	verr *ValidationError
}

// NewStatusPatch builds a patch that only changes the status
func NewStatusPatch(status OrderStatus) OrderPatch {
	return OrderPatch{Status: &status, keys: []string{"status"}}
}

// Keys returns the sorted request keys
func (p OrderPatch) Keys() []string {
	return p.keys
}

// Err returns the field errors found while decoding the patch
func (p OrderPatch) Err() error {
	if p.verr == nil {
		return nil
	}
	return p.verr.OrNil()
}

func (p *OrderPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewValidationError(NonFieldErrors, "Invalid data. Expected a dictionary.")
	}

	verr := &ValidationError{}
	p.keys = make([]string, 0, len(raw))
	for key, value := range raw {
		p.keys = append(p.keys, key)

		switch key {
		case "customer_name":
			p.CustomerName = decodeString(verr, key, value)
		case "customer_phone":
			p.CustomerPhone = decodeString(verr, key, value)
		case "order_details":
			p.OrderDetails = decodeString(verr, key, value)
		case "image":
			p.ImageSet = true
			if string(value) != "null" {
				p.Image = decodeString(verr, key, value)
			}
		case "price":
			var price decimal.NullDecimal
			if err := json.Unmarshal(value, &price); err != nil {
				verr.Add(key, "A valid number is required.")
				continue
			}
			p.Price = &price
		case "status":
			if s := decodeString(verr, key, value); s != nil {
				status := OrderStatus(*s)
				p.Status = &status
			}
		}
	}
	sort.Strings(p.keys)

	if verr.HasErrors() {
		p.verr = verr
	}
	return nil
}

func decodeString(verr *ValidationError, field string, value json.RawMessage) *string {
	var s string
	if err := json.Unmarshal(value, &s); err != nil || string(value) == "null" {
		verr.Add(field, "Not a valid string.")
		return nil
	}
	return &s
}

// Apply copies the present fields onto o
func (p OrderPatch) Apply(o *Order) {
	if p.CustomerName != nil {
		o.CustomerName = strings.TrimSpace(*p.CustomerName)
	}
	if p.CustomerPhone != nil {
		o.CustomerPhone = strings.TrimSpace(*p.CustomerPhone)
	}
	if p.OrderDetails != nil {
		o.OrderDetails = *p.OrderDetails
	}
	if p.ImageSet {
		o.Image = p.Image
	}
	if p.Price != nil {
		o.Price = *p.Price
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
}

// OrderTrack is the public view of an order. It never exposes price, phone
// or internal actor references.
type OrderTrack struct {
	ID            uuid.UUID   `json:"id"`
	Status        OrderStatus `json:"status"`
	StatusDisplay string      `json:"status_display"`
	CustomerName  string      `json:"customer_name"`
	OrderDetails  string      `json:"order_details"`
	CreatedAt     time.Time   `json:"created_at"`
	DeliveredAt   *time.Time  `json:"delivered_at"`
}

// Track builds the public tracking view
func (o *Order) Track() OrderTrack {
	return OrderTrack{
		ID:            o.ID,
		Status:        o.Status,
		StatusDisplay: o.Status.Display(),
		CustomerName:  o.CustomerName,
		OrderDetails:  o.OrderDetails,
		CreatedAt:     o.CreatedAt,
		DeliveredAt:   o.DeliveredAt,
	}
}

// ShowcaseItem is the public view of finished work
type ShowcaseItem struct {
	ID           uuid.UUID  `json:"id"`
	CustomerName string     `json:"customer_name"`
	Image        *string    `json:"image"`
	OrderDetails string     `json:"order_details"`
	DeliveredAt  *time.Time `json:"delivered_at"`
}

// Showcase builds the public showcase view
func (o *Order) Showcase() ShowcaseItem {
	return ShowcaseItem{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		Image:        o.Image,
		OrderDetails: o.OrderDetails,
		DeliveredAt:  o.DeliveredAt,
	}
}

// OrderOrdering is a whitelisted sort key for order listings
type OrderOrdering string

var orderOrderings = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"price":        true,
	"delivered_at": true,
}

// ParseOrdering validates an ordering parameter such as "-created_at"
func ParseOrdering(s string) (OrderOrdering, error) {
	if s == "" {
		return "-created_at", nil
	}
	if !orderOrderings[strings.TrimPrefix(s, "-")] {
		return "", NewValidationError("ordering", fmt.Sprintf("%q is not a valid ordering.", s))
	}
	return OrderOrdering(s), nil
}

// Field returns the column name
func (o OrderOrdering) Field() string {
	return strings.TrimPrefix(string(o), "-")
}

// Desc reports whether the ordering is descending
func (o OrderOrdering) Desc() bool {
	return strings.HasPrefix(string(o), "-")
}

// OrderFilter narrows order listings
type OrderFilter struct {
	Status         *OrderStatus
	DeliveredFrom  *time.Time // inclusive
	DeliveredUntil *time.Time // exclusive
	CreatedFrom    *time.Time // inclusive
	CreatedUntil   *time.Time // exclusive
	Search         string
	WithImage      bool
	Ordering       OrderOrdering
	Limit          uint64
}

// OrderStatistics is the manager overview of the order book
type OrderStatistics struct {
	Total              int                 `json:"total"`
	ByStatus           map[OrderStatus]int `json:"by_status"`
	DeliveredThisMonth *int                `json:"delivered_this_month"`
}

// Package policy decides which role may perform which action.
package policy

import (
	"fmt"

	"github.com/laserworks/workshop-service/internal/models"
)

// Action is something an authenticated user asks to do
type Action int

const (
	ReadOrders Action = iota + 1
	CreateOrder
	UpdateOrder
	UpdateOrderStatus
	DeleteOrder
	ReadOrderStatistics
	ManageShifts
	ReadCurrentShift
	ManageUsers
	ReadReports
)

var actionNames = map[Action]string{
	ReadOrders:          "read orders",
	CreateOrder:         "create order",
	UpdateOrder:         "update order",
	UpdateOrderStatus:   "update order status",
	DeleteOrder:         "delete order",
	ReadOrderStatistics: "read order statistics",
	ManageShifts:        "manage shifts",
	ReadCurrentShift:    "read current shift",
	ManageUsers:         "manage users",
	ReadReports:         "read reports",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// workerFields are the order fields a worker may change
var workerFields = map[string]bool{"status": true}

// Authorize reports whether actor may perform action. A nil actor is
// unauthenticated; an actor whose role does not allow the action is forbidden.
func Authorize(actor *models.User, action Action) error {
	if actor == nil || actor.Role.IsZero() {
		return models.ErrUnauthenticated
	}

	switch actor.Role {
	case models.RoleManager:
		if _, ok := actionNames[action]; ok {
			return nil
		}
	case models.RoleWorker:
		switch action {
		case ReadOrders, CreateOrder, UpdateOrder, UpdateOrderStatus, ReadCurrentShift:
			return nil
		}
	}

	return fmt.Errorf("%s: %w", action, models.ErrForbidden)
}

// AuthorizeOrderUpdate checks a partial order update against the set of
// request keys. Workers may only send the status key. Unknown keys count.
func AuthorizeOrderUpdate(actor *models.User, keys []string) error {
	if err := Authorize(actor, UpdateOrder); err != nil {
		return err
	}
	if actor.IsManager() {
		return nil
	}

	for _, key := range keys {
		if !workerFields[key] {
			return fmt.Errorf("workers can only update order status: %w", models.ErrForbidden)
		}
	}
	return nil
}

// Package notify turns committed order and shift changes into broadcast
// frames for live subscribers.
package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/laserworks/workshop-service/internal/websockets"
	"github.com/rs/zerolog"
)

type EntityType string

const (
	EntityOrder EntityType = "order"
	EntityShift EntityType = "shift"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Notification is the envelope sent to every subscriber
type Notification struct {
	Type       websockets.MessageType `json:"type"`
	EntityType EntityType             `json:"entity_type"`
	Action     Action                 `json:"action"`
	Entity     any                    `json:"entity"`
}

type deletedEntity struct {
	ID uuid.UUID `json:"id"`
}

// OrderChanged describes a created or updated order
func OrderChanged(action Action, order *models.Order) Notification {
	return Notification{
		Type:       websockets.TypeOrderUpdate,
		EntityType: EntityOrder,
		Action:     action,
		Entity:     order,
	}
}

// OrderDeleted carries only the id of the removed order
func OrderDeleted(id uuid.UUID) Notification {
	return Notification{
		Type:       websockets.TypeOrderUpdate,
		EntityType: EntityOrder,
		Action:     ActionDeleted,
		Entity:     deletedEntity{ID: id},
	}
}

// ShiftChanged describes a created or updated shift
func ShiftChanged(action Action, shift models.ShiftView) Notification {
	return Notification{
		Type:       websockets.TypeShiftUpdate,
		EntityType: EntityShift,
		Action:     action,
		Entity:     shift,
	}
}

// Publisher delivers notifications after the change is committed. Delivery
// is best effort: failures are logged and never reach the caller.
type Publisher interface {
	Publish(ctx context.Context, n Notification)
}

// Broadcaster is the local fan-out, implemented by websockets.Hub
type Broadcaster interface {
	Broadcast(message []byte) bool
}

// HubPublisher hands frames straight to the local hub
type HubPublisher struct {
	hub Broadcaster
	log zerolog.Logger
}

func NewHubPublisher(hub Broadcaster, log zerolog.Logger) *HubPublisher {
	return &HubPublisher{hub: hub, log: log}
}

func (p *HubPublisher) Publish(_ context.Context, n Notification) {
	frame, err := json.Marshal(n)
	if err != nil {
		p.log.Error().Err(err).Str("entity_type", string(n.EntityType)).Msg("failed to encode notification")
		return
	}
	if !p.hub.Broadcast(frame) {
		p.log.Warn().Str("entity_type", string(n.EntityType)).Str("action", string(n.Action)).Msg("notification dropped")
	}
}

package websockets

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Hub fans every broadcast frame out to all registered clients. There is one
// broadcast group; order and shift updates share it.
type Hub struct {
	clients map[*Client]bool

	register chan *Client

	unregister chan *Client

	broadcast chan []byte

	done chan struct{}

	count atomic.Int64

	log zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "hub").Logger(),
	}
}

// Broadcast queues a frame for every client without blocking. It reports
// false when the queue is full or the hub has stopped and the frame is dropped.
func (h *Hub) Broadcast(message []byte) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.broadcast <- message:
		return true
	default:
		h.log.Warn().Msg("broadcast queue full, dropping message")
		return false
	}
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.count.Store(int64(len(h.clients)))
}

// Run dispatches registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			h.remove(client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
			h.log.Debug().Str("user", client.username).Stringer("user_id", client.userID).Int("clients", len(h.clients)).Msg("client registered")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				h.log.Debug().Str("user", client.username).Int("clients", len(h.clients)).Msg("client unregistered")
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow subscriber, drop it rather than stall everyone else.
					h.log.Warn().Str("user", client.username).Stringer("user_id", client.userID).Msg("client send buffer full, disconnecting")
					h.remove(client)
				}
			}
		}
	}
}

package websockets

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4 * 1024

	sendBufferSize = 64
)

type MessageType string

const (
	TypeConnectionEstablished MessageType = "connection_established"
	TypeOrderUpdate           MessageType = "order_update"
	TypeShiftUpdate           MessageType = "shift_update"
)

// Confirmation is the first frame every subscriber receives
type Confirmation struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

var confirmation, _ = json.Marshal(Confirmation{
	Type:    TypeConnectionEstablished,
	Message: "Connected to order updates",
})

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	userID   uuid.UUID
	username string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, username string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		userID:   userID,
		username: username,
	}
}

// readPump keeps the read side alive for pongs and close frames. Subscribers
// have nothing to say, so application messages are discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Err(err).Str("user", c.username).Msg("websocket read failed")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One notification per frame, clients parse each frame as JSON.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs registers an upgraded connection with the hub and starts its pumps.
// The confirmation frame is queued before registration so it always arrives
// ahead of any broadcast.
func ServeWs(hub *Hub, conn *websocket.Conn, userID uuid.UUID, username string) {
	client := NewClient(hub, conn, userID, username)
	client.send <- confirmation

	if !hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

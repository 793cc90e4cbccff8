package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/laserworks/workshop-service/internal/api"
	"github.com/laserworks/workshop-service/internal/models"
	"github.com/laserworks/workshop-service/internal/websockets"
)

// WebSocketHandler authenticates and upgrades order update subscribers
type WebSocketHandler struct {
	hub      *websockets.Hub
	auth     websocketAuth
	upgrader *websocket.Upgrader
}

type websocketAuth interface {
	UserFromToken(ctx context.Context, token string) (*models.User, error)
}

func NewWebSocketHandler(hub *websockets.Hub, auth websocketAuth, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		auth:     auth,
		upgrader: websockets.NewUpgrader(allowedOrigins),
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		api.WriteError(w, r, models.NewDetailError(models.ErrUnauthenticated, "token is required"))
		return
	}

	user, err := h.auth.UserFromToken(r.Context(), token)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the error response
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	websockets.ServeWs(h.hub, conn, user.ID, user.Username)
}

package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"oddoneout/internal/app"
	"oddoneout/internal/storage"
)

// Handler upgrades players onto their lobby's WebSocket. Players join
// over the REST API first; the socket only attaches an existing player
// id and drives their connected flag.
type Handler struct {
	service  *app.Service
	hub      *app.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(service *app.Service, hub *app.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lobbyID := strings.ToUpper(r.URL.Query().Get("code"))
	if lobbyID == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "playerId is required", http.StatusBadRequest)
		return
	}

	// Marking the player connected also validates lobby and player.
	state, err := h.service.SetPlayerConnection(r.Context(), lobbyID, playerID, true)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Unknown player", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		// The player flipped connected above but never attached.
		h.service.SetPlayerConnection(context.Background(), lobbyID, playerID, false)
		return
	}

	client := NewClient(conn, h.service, h.hub, lobbyID, playerID, h.logger)
	h.hub.Register(lobbyID, client)

	h.logger.Info("websocket connected",
		zap.String("lobbyId", lobbyID),
		zap.String("playerId", playerID))

	// Initial snapshot so the client does not wait for the next change.
	client.Send(NewServerMessage(MsgConnected, state.ViewFor(playerID)))

	client.Run()
}

package app

import (
	"sync"

	"go.uber.org/zap"

	"oddoneout/internal/domain"
)

// ClientConn is a connected player's outbound channel. The ws transport
// implements it and owns the wire framing; the hub only ever pushes
// state views.
type ClientConn interface {
	PlayerID() string
	SendState(view domain.GameView) error
	Close() error
}

// Hub tracks the live connections of every lobby and fans redacted
// state snapshots out to them. It implements Notifier.
type Hub struct {
	mu      sync.RWMutex
	lobbies map[string]map[string]ClientConn // lobby id -> player id -> conn
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		lobbies: make(map[string]map[string]ClientConn),
		logger:  logger,
	}
}

// Register attaches a player's connection, replacing (and closing) any
// previous one for the same player.
func (h *Hub) Register(lobbyID string, conn ClientConn) {
	h.mu.Lock()
	clients, ok := h.lobbies[lobbyID]
	if !ok {
		clients = make(map[string]ClientConn)
		h.lobbies[lobbyID] = clients
	}
	old := clients[conn.PlayerID()]
	clients[conn.PlayerID()] = conn
	h.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

// Unregister detaches a player's connection and reports whether the
// given connection was still the registered one. It returns false when
// a newer connection has already replaced it, so the stale socket's
// teardown knows the player is not actually gone.
func (h *Hub) Unregister(lobbyID string, conn ClientConn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.lobbies[lobbyID]
	if !ok {
		return false
	}
	if clients[conn.PlayerID()] != conn {
		return false
	}
	delete(clients, conn.PlayerID())
	if len(clients) == 0 {
		delete(h.lobbies, lobbyID)
	}
	return true
}

// GameUpdated sends each connected player their own redacted view of
// the new state.
func (h *Hub) GameUpdated(state domain.GameState) {
	h.mu.RLock()
	clients := make(map[string]ClientConn, len(h.lobbies[state.LobbyID]))
	for playerID, conn := range h.lobbies[state.LobbyID] {
		clients[playerID] = conn
	}
	h.mu.RUnlock()

	for playerID, conn := range clients {
		if err := conn.SendState(state.ViewFor(playerID)); err != nil {
			h.logger.Warn("drop state push",
				zap.String("lobbyId", state.LobbyID),
				zap.String("playerId", playerID),
				zap.Error(err))
		}
	}
}

// ConnectionCount returns the number of live connections in a lobby.
func (h *Hub) ConnectionCount(lobbyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.lobbies[lobbyID])
}

// Close closes every connection and empties the hub.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.lobbies {
		for _, conn := range clients {
			conn.Close()
		}
	}
	h.lobbies = make(map[string]map[string]ClientConn)
}

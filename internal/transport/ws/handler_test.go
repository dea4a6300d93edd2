package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"oddoneout/internal/app"
	"oddoneout/internal/domain"
	"oddoneout/internal/storage"
)

func newTestStack(t *testing.T) (*app.Service, *httptest.Server) {
	t.Helper()
	store := storage.NewMemoryStore()
	hub := app.NewHub(zap.NewNop())
	service := app.NewService(store, hub, app.NewCatalog(), zap.NewNop())
	srv := httptest.NewServer(NewHandler(service, hub, zap.NewNop()))
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)
	return service, srv
}

func dialPlayer(t *testing.T, srv *httptest.Server, lobbyID, playerID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?code=" + lobbyID + "&playerId=" + playerID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", playerID, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForClose reads until the server drops the connection.
func waitForClose(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestReconnectKeepsPlayerConnected(t *testing.T) {
	service, srv := newTestStack(t)
	ctx := context.Background()

	state, hostID, err := service.CreateGame(ctx, "Host")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	lobbyID := state.LobbyID

	first := dialPlayer(t, srv, lobbyID, hostID)
	dialPlayer(t, srv, lobbyID, hostID)

	// The second socket evicts the first; its teardown must not undo
	// the reconnect.
	waitForClose(t, first)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		state, err := service.Game(ctx, lobbyID)
		if err != nil {
			t.Fatalf("game: %v", err)
		}
		if !state.Players[hostID].Connected {
			t.Fatalf("host with a live socket flagged disconnected: status=%v", state.Status)
		}
		if state.Status == domain.StatusPaused || state.HostDisconnection != nil {
			t.Fatalf("reconnect opened a host-continuity pause: status=%v", state.Status)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSocketCloseMarksPlayerDisconnected(t *testing.T) {
	service, srv := newTestStack(t)
	ctx := context.Background()

	state, hostID, err := service.CreateGame(ctx, "Host")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	lobbyID := state.LobbyID

	conn := dialPlayer(t, srv, lobbyID, hostID)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state, err := service.Game(ctx, lobbyID)
		if err != nil {
			t.Fatalf("game: %v", err)
		}
		if !state.Players[hostID].Connected {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("closed socket never marked the player disconnected")
}

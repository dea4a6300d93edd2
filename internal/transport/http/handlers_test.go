package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"oddoneout/internal/app"
	"oddoneout/internal/config"
	"oddoneout/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{}
	store := storage.NewMemoryStore()
	hub := app.NewHub(zap.NewNop())
	service := app.NewService(store, hub, app.NewCatalog(), zap.NewNop())
	return NewServer(cfg, service, hub, zap.NewNop())
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func TestCreateAndJoinGame(t *testing.T) {
	s := newTestServer(t)
	handler := s.server.Handler

	rec, resp := doJSON(t, handler, http.MethodPost, "/api/games", CreateGameRequest{HostName: "Host"})
	if rec.Code != http.StatusCreated || !resp.Success {
		t.Fatalf("create: status %d, body %+v", rec.Code, resp)
	}
	var created GameCreatedResponse
	raw, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.LobbyID == "" || created.PlayerID == "" {
		t.Fatalf("missing ids: %+v", created)
	}
	if created.Game.ViewerID != created.PlayerID {
		t.Fatalf("game view addressed to %q", created.Game.ViewerID)
	}

	rec, resp = doJSON(t, handler, http.MethodPost, "/api/games/"+created.LobbyID+"/join", JoinGameRequest{Name: "Ana"})
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("join: status %d, body %+v", rec.Code, resp)
	}

	rec, resp = doJSON(t, handler, http.MethodGet, "/api/games/"+created.LobbyID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	var info GameInfoResponse
	raw, _ = json.Marshal(resp.Data)
	if err := json.Unmarshal(raw, &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.PlayerCount != 2 || !info.CanJoin {
		t.Fatalf("info = %+v", info)
	}
}

func TestJoinGameAcceptsLowercaseCode(t *testing.T) {
	s := newTestServer(t)
	handler := s.server.Handler

	_, resp := doJSON(t, handler, http.MethodPost, "/api/games", CreateGameRequest{HostName: "Host"})
	var created GameCreatedResponse
	raw, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	lower := "/api/games/" + string(bytes.ToLower([]byte(created.LobbyID))) + "/join"
	rec, resp := doJSON(t, handler, http.MethodPost, lower, JoinGameRequest{Name: "Ana"})
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("lowercase join: status %d, body %+v", rec.Code, resp)
	}
}

func TestGetUnknownGame(t *testing.T) {
	s := newTestServer(t)

	rec, resp := doJSON(t, s.server.Handler, http.MethodGet, "/api/games/NOSUCH", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Success || resp.Error == nil || resp.Error.Code != "game_not_found" {
		t.Fatalf("body = %+v", resp)
	}
}

func TestJoinRejectsBlankName(t *testing.T) {
	s := newTestServer(t)
	handler := s.server.Handler

	_, resp := doJSON(t, handler, http.MethodPost, "/api/games", CreateGameRequest{HostName: "Host"})
	var created GameCreatedResponse
	raw, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	rec, resp := doJSON(t, handler, http.MethodPost, "/api/games/"+created.LobbyID+"/join", JoinGameRequest{Name: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %+v", rec.Code, resp)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, resp := doJSON(t, s.server.Handler, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("health: status %d, body %+v", rec.Code, resp)
	}
}

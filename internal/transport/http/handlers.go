package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"oddoneout/internal/app"
	"oddoneout/internal/domain"
	"oddoneout/internal/storage"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateGameRequest is the body for POST /api/games
type CreateGameRequest struct {
	HostName string `json:"hostName"`
}

// JoinGameRequest is the body for POST /api/games/{code}/join
type JoinGameRequest struct {
	Name string `json:"name"`
}

// GameCreatedResponse is the response for game creation and joins
type GameCreatedResponse struct {
	LobbyID  string          `json:"lobbyId"`
	PlayerID string          `json:"playerId"`
	Game     domain.GameView `json:"game"`
}

// GameInfoResponse is the public lobby summary
type GameInfoResponse struct {
	LobbyID     string `json:"lobbyId"`
	Status      string `json:"status"`
	Phase       string `json:"phase"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	CanJoin     bool   `json:"canJoin"`
}

// HealthResponse is the response for the health check
type HealthResponse struct {
	Status string `json:"status"`
}

// handleCreateGame handles POST /api/games
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON")
		return
	}

	state, hostID, err := s.service.CreateGame(r.Context(), req.HostName)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}

	s.sendSuccess(w, http.StatusCreated, &GameCreatedResponse{
		LobbyID:  state.LobbyID,
		PlayerID: hostID,
		Game:     state.ViewFor(hostID),
	})
}

// handleJoinGame handles POST /api/games/{code}/join
func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(mux.Vars(r)["code"])

	var req JoinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON")
		return
	}

	state, playerID, err := s.service.JoinGame(r.Context(), code, req.Name)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}

	s.sendSuccess(w, http.StatusOK, &GameCreatedResponse{
		LobbyID:  state.LobbyID,
		PlayerID: playerID,
		Game:     state.ViewFor(playerID),
	})
}

// handleGetGame handles GET /api/games/{code}
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(mux.Vars(r)["code"])

	state, err := s.service.Game(r.Context(), code)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}

	s.sendSuccess(w, http.StatusOK, &GameInfoResponse{
		LobbyID:     state.LobbyID,
		Status:      state.Status.String(),
		Phase:       state.Phase.String(),
		PlayerCount: len(state.Players),
		MaxPlayers:  state.Settings.MaxPlayers,
		CanJoin:     state.Status == domain.StatusWaiting && len(state.Players) < state.Settings.MaxPlayers,
	})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.sendSuccess(w, http.StatusOK, &HealthResponse{Status: "ok"})
}

// sendServiceError maps service and engine failures to HTTP statuses.
func (s *Server) sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.sendError(w, http.StatusNotFound, "game_not_found", "Game not found")
	case errors.Is(err, app.ErrNotHost):
		s.sendError(w, http.StatusForbidden, "not_host", "Only the host can do that")
	default:
		if code := domain.CodeOf(err); code != "" {
			s.sendError(w, statusForCode(code), string(code), err.Error())
			return
		}
		s.logger.Error("request failed", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// statusForCode picks the status family for an engine rule code.
func statusForCode(code domain.Code) int {
	switch code {
	case domain.CodePlayerNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidSettings, domain.CodeInvalidPlayer, domain.CodeInvalidRound,
		domain.CodeInvalidRoleAssignment, domain.CodeInvalidHostTransferVote:
		return http.StatusBadRequest
	default:
		// Rule violations: the request was well-formed but the game
		// state forbids it.
		return http.StatusConflict
	}
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{Success: true, Data: data})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	})
}

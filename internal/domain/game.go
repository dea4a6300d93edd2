package domain

import (
	"strings"
	"time"
)

// MinActivePlayers is the smallest active set a round can run with.
const MinActivePlayers = 4

// RoundCancellation is an audit record of a round discarded before its
// question was revealed.
type RoundCancellation struct {
	RoundNumber int    `json:"roundNumber"`
	Reason      string `json:"reason"`
}

// GameState is the root aggregate, one per lobby. It is value-typed:
// every operation works on a deep clone and returns the new state, so a
// failed operation can never corrupt the caller's copy.
type GameState struct {
	LobbyID             string                `json:"lobbyId"`
	Status              Status                `json:"status"`
	Phase               GamePhase             `json:"phase"`
	Players             map[string]Player     `json:"players"`
	PlayerOrder         []string              `json:"playerOrder"` // join order, drives deterministic iteration
	Settings            Settings              `json:"settings"`
	UsedQuestionPairIDs map[string]bool       `json:"usedQuestionPairIds"`
	Scoreboard          map[string]ScoreEntry `json:"scoreboard"`
	CompletedRounds     int                   `json:"completedRounds"`
	CurrentRound        *RoundState           `json:"currentRound,omitempty"`
	HostDisconnection   *HostDisconnection    `json:"hostDisconnection,omitempty"`
	CancelledRounds     []RoundCancellation   `json:"cancelledRounds,omitempty"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}

// NewGame creates a lobby with its host as the only player.
func NewGame(lobbyID, hostID, hostName string, now time.Time) (GameState, error) {
	hostName = strings.TrimSpace(hostName)
	if lobbyID == "" || hostID == "" {
		return GameState{}, newError(CodeInvalidPlayer, "lobby and host ids are required")
	}
	if hostName == "" {
		return GameState{}, newError(CodeInvalidPlayer, "host name is required")
	}
	return GameState{
		LobbyID: lobbyID,
		Status:  StatusWaiting,
		Phase:   PhaseSetup,
		Players: map[string]Player{
			hostID: {ID: hostID, Name: hostName, IsHost: true, Connected: true, JoinedAt: now},
		},
		PlayerOrder:         []string{hostID},
		Settings:            DefaultSettings(),
		UsedQuestionPairIDs: make(map[string]bool),
		Scoreboard:          map[string]ScoreEntry{hostID: {}},
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// Clone returns a deep copy. Operations clone first and mutate the copy.
func (g GameState) Clone() GameState {
	next := g

	next.Players = make(map[string]Player, len(g.Players))
	for id, p := range g.Players {
		next.Players[id] = p
	}
	next.PlayerOrder = append([]string(nil), g.PlayerOrder...)
	next.UsedQuestionPairIDs = make(map[string]bool, len(g.UsedQuestionPairIDs))
	for id := range g.UsedQuestionPairIDs {
		next.UsedQuestionPairIDs[id] = true
	}
	next.Scoreboard = make(map[string]ScoreEntry, len(g.Scoreboard))
	for id, entry := range g.Scoreboard {
		next.Scoreboard[id] = entry
	}
	next.CancelledRounds = append([]RoundCancellation(nil), g.CancelledRounds...)
	if g.CurrentRound != nil {
		round := g.CurrentRound.clone()
		next.CurrentRound = &round
	}
	if g.HostDisconnection != nil {
		hd := g.HostDisconnection.clone()
		next.HostDisconnection = &hd
	}
	return next
}

// HostID returns the id of the current host, or "" if the lobby is empty.
func (g GameState) HostID() string {
	for id, p := range g.Players {
		if p.IsHost {
			return id
		}
	}
	return ""
}

// AddPlayer adds a player to a waiting lobby.
func (g GameState) AddPlayer(playerID, name string, now time.Time) (GameState, error) {
	name = strings.TrimSpace(name)
	if playerID == "" || name == "" {
		return GameState{}, newError(CodeInvalidPlayer, "player id and name are required")
	}
	if g.Status != StatusWaiting {
		return GameState{}, ErrGameAlreadyStarted
	}
	if _, ok := g.Players[playerID]; ok {
		return GameState{}, newError(CodeInvalidPlayer, "player %s already joined", playerID)
	}
	if len(g.Players) >= g.Settings.MaxPlayers {
		return GameState{}, ErrGameFull
	}

	next := g.Clone()
	next.Players[playerID] = Player{ID: playerID, Name: name, Connected: true, JoinedAt: now}
	next.PlayerOrder = append(next.PlayerOrder, playerID)
	next.Scoreboard[playerID] = ScoreEntry{}
	next.UpdatedAt = now
	return next, nil
}

// RemovePlayer strips the player from the lobby, the scoreboard, and any
// active round. Removing the host promotes a connected player if one
// exists, otherwise any remaining player.
func (g GameState) RemovePlayer(playerID string) (GameState, error) {
	removed, ok := g.Players[playerID]
	if !ok {
		return GameState{}, ErrPlayerNotFound
	}

	next := g.Clone()
	delete(next.Players, playerID)
	delete(next.Scoreboard, playerID)
	next.PlayerOrder = removeID(next.PlayerOrder, playerID)

	if next.CurrentRound != nil {
		next.CurrentRound.removePlayer(playerID)
	}

	if next.HostDisconnection != nil {
		next.HostDisconnection.removeVoter(playerID)
	}

	if removed.IsHost && len(next.Players) > 0 {
		promoteID := ""
		for _, id := range next.PlayerOrder {
			if next.Players[id].Connected {
				promoteID = id
				break
			}
		}
		if promoteID == "" {
			promoteID = next.PlayerOrder[0]
		}
		promoted := next.Players[promoteID]
		promoted.IsHost = true
		next.Players[promoteID] = promoted

		// The disconnected host is gone and a live replacement is in
		// place, so the pause has nothing left to wait for.
		if next.HostDisconnection != nil {
			next.Status = next.HostDisconnection.StatusBefore
			if next.Phase == PhaseGameOver {
				next.Status = StatusEnded
			}
			next.HostDisconnection = nil
		}
	}

	// A required transfer voter leaving can complete unanimity among the
	// voters that remain.
	next.maybeExecuteHostTransfer()

	return next, nil
}

// UpdateSettings replaces the settings wholesale after validation. Legal
// only between rounds.
func (g GameState) UpdateSettings(in Settings) (GameState, error) {
	if g.Phase != PhaseSetup && g.Phase != PhaseRoundResult {
		return GameState{}, ErrInvalidPhase
	}
	if err := in.validate(g.CompletedRounds); err != nil {
		return GameState{}, err
	}
	next := g.Clone()
	next.Settings = in
	return next, nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

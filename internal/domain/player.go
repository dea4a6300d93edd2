package domain

import "time"

// Player represents a member of the lobby. Round-scoped data (role,
// answer, vote) lives on RoundState, not here.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsHost    bool      `json:"isHost"`
	Connected bool      `json:"connected"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// ScoreEntry accumulates a player's results across rounds. Both fields
// only ever receive deltas at round finalize; they are never reset.
type ScoreEntry struct {
	TotalPoints          int `json:"totalPoints"`
	ImpostorSurvivalWins int `json:"impostorSurvivalWins"`
}

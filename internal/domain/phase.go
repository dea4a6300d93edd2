package domain

// GamePhase represents where the game is in the round lifecycle. The
// active round mirrors the game phase while it exists.
type GamePhase string

const (
	PhaseSetup       GamePhase = "setup"        // Between rounds, waiting for the next one
	PhasePrompting   GamePhase = "prompting"    // Players answering their prompt
	PhaseReveal      GamePhase = "reveal"       // Shared question shown, answers disclosed one by one
	PhaseDiscussion  GamePhase = "discussion"   // Open discussion, optionally timed
	PhaseVoting      GamePhase = "voting"       // Players voting on a suspect
	PhaseRoundResult GamePhase = "round_result" // Elimination known, scores pending
	PhaseGameOver    GamePhase = "game_over"    // Terminal
)

// String returns the string representation of the phase.
func (p GamePhase) String() string {
	return string(p)
}

// Status represents the coarse lifecycle of a lobby.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusEnded      Status = "ended"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

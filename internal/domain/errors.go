package domain

import "fmt"

// Code identifies a rule violation. Codes are stable strings so callers
// can map them to transport responses without string-matching messages.
type Code string

const (
	// Phase-order violations.
	CodeInvalidPhase Code = "invalid_phase"
	CodeInvalidRound Code = "invalid_round"
	CodeGameOver     Code = "game_over"

	// Input-validity violations.
	CodeInvalidRoleAssignment   Code = "invalid_role_assignment"
	CodeInvalidSettings         Code = "invalid_settings"
	CodeInvalidHostTransferVote Code = "invalid_host_transfer_vote"
	CodeInvalidPlayer           Code = "invalid_player"

	// Business-rule violations.
	CodeInsufficientPlayers    Code = "insufficient_players"
	CodeQuestionReused         Code = "question_reused"
	CodeSelfVoteForbidden      Code = "self_vote_forbidden"
	CodeVoteLocked             Code = "vote_locked"
	CodeAnswerAlreadySubmitted Code = "answer_already_submitted"
	CodePlayerNotActive        Code = "player_not_active"
	CodePlayerNotFound         Code = "player_not_found"
	CodeGameFull               Code = "game_full"
	CodeGameAlreadyStarted     Code = "game_already_started"

	// Incompleteness violations.
	CodeMissingAnswers  Code = "missing_answers"
	CodeMissingVotes    Code = "missing_votes"
	CodeMissingTiebreak Code = "missing_tiebreak"

	// Continuity violations.
	CodeHostNotDisconnected       Code = "host_not_disconnected"
	CodePauseExtensionUnavailable Code = "pause_extension_unavailable"
)

// Error is the failure value returned by every engine operation. Two
// errors match under errors.Is when their codes are equal, so the
// sentinels below work as targets regardless of message detail.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the rule code from an engine error, or "" for foreign
// errors.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// Sentinel errors, one per code, usable as errors.Is targets.
var (
	ErrInvalidPhase = &Error{Code: CodeInvalidPhase, Message: "invalid action for current phase"}
	ErrInvalidRound = &Error{Code: CodeInvalidRound, Message: "invalid round input"}
	ErrGameOver     = &Error{Code: CodeGameOver, Message: "game is over"}

	ErrInvalidRoleAssignment   = &Error{Code: CodeInvalidRoleAssignment, Message: "invalid role assignment"}
	ErrInvalidSettings         = &Error{Code: CodeInvalidSettings, Message: "invalid settings"}
	ErrInvalidHostTransferVote = &Error{Code: CodeInvalidHostTransferVote, Message: "invalid host transfer vote"}
	ErrInvalidPlayer           = &Error{Code: CodeInvalidPlayer, Message: "invalid player"}

	ErrInsufficientPlayers    = &Error{Code: CodeInsufficientPlayers, Message: "not enough players for a round"}
	ErrQuestionReused         = &Error{Code: CodeQuestionReused, Message: "question pair already used"}
	ErrSelfVoteForbidden      = &Error{Code: CodeSelfVoteForbidden, Message: "cannot vote for yourself"}
	ErrVoteLocked             = &Error{Code: CodeVoteLocked, Message: "vote already cast and changes are not allowed"}
	ErrAnswerAlreadySubmitted = &Error{Code: CodeAnswerAlreadySubmitted, Message: "answer already submitted this round"}
	ErrPlayerNotActive        = &Error{Code: CodePlayerNotActive, Message: "player is not active this round"}
	ErrPlayerNotFound         = &Error{Code: CodePlayerNotFound, Message: "player not found"}
	ErrGameFull               = &Error{Code: CodeGameFull, Message: "game is full"}
	ErrGameAlreadyStarted     = &Error{Code: CodeGameAlreadyStarted, Message: "game already started"}

	ErrMissingAnswers  = &Error{Code: CodeMissingAnswers, Message: "not all active players have answered"}
	ErrMissingVotes    = &Error{Code: CodeMissingVotes, Message: "not all active players have voted"}
	ErrMissingTiebreak = &Error{Code: CodeMissingTiebreak, Message: "tie requires an externally supplied tie-break"}

	ErrHostNotDisconnected       = &Error{Code: CodeHostNotDisconnected, Message: "host is not disconnected"}
	ErrPauseExtensionUnavailable = &Error{Code: CodePauseExtensionUnavailable, Message: "pause has already been extended"}
)

package ws

import "time"

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types. Each carries exactly one game action.
const (
	MsgStartRound           MessageType = "start_round"
	MsgSubmitAnswer         MessageType = "submit_answer"
	MsgRevealQuestion       MessageType = "reveal_question"
	MsgRevealNextAnswer     MessageType = "reveal_next_answer"
	MsgStartDiscussion      MessageType = "start_discussion"
	MsgExtendDiscussion     MessageType = "extend_discussion"
	MsgEndDiscussion        MessageType = "end_discussion"
	MsgCastVote             MessageType = "cast_vote"
	MsgCloseVoting          MessageType = "close_voting"
	MsgFinalizeRound        MessageType = "finalize_round"
	MsgCancelRound          MessageType = "cancel_round"
	MsgCastHostTransferVote MessageType = "cast_host_transfer_vote"
	MsgExtendHostPause      MessageType = "extend_host_pause"
	MsgUpdateSettings       MessageType = "update_settings"
	MsgRequestWinnerSummary MessageType = "request_winner_summary"
	MsgRemovePlayer         MessageType = "remove_player"
	MsgPing                 MessageType = "ping"
)

// Server → Client message types
const (
	MsgConnected     MessageType = "connected"
	MsgGameState     MessageType = "game_state"
	MsgWinnerSummary MessageType = "winner_summary"
	MsgError         MessageType = "error"
	MsgPong          MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorPayload is the payload for error messages
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Transport-level error codes. Rule violations travel as the engine's
// own codes instead.
const (
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeNotHost        = "not_host"
	ErrCodeGameNotFound   = "game_not_found"
	ErrCodeInternalError  = "internal_error"
)

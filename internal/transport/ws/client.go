package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"oddoneout/internal/app"
	"oddoneout/internal/domain"
	"oddoneout/internal/storage"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents a WebSocket client connection for one player.
type Client struct {
	conn     *websocket.Conn
	service  *app.Service
	hub      *app.Hub
	lobbyID  string
	playerID string
	send     chan []byte
	done     chan struct{}
	logger   *zap.Logger
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, service *app.Service, hub *app.Hub, lobbyID, playerID string, logger *zap.Logger) *Client {
	return &Client{
		conn:     conn,
		service:  service,
		hub:      hub,
		lobbyID:  lobbyID,
		playerID: playerID,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// PlayerID implements app.ClientConn
func (c *Client) PlayerID() string {
	return c.playerID
}

// SendState implements app.ClientConn. State pushes travel in the same
// envelope as every other server frame.
func (c *Client) SendState(view domain.GameView) error {
	return c.Send(NewServerMessage(MsgGameState, view))
}

// Send marshals and queues one server frame.
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped",
			zap.String("playerId", c.playerID))
		return nil
	}
}

// Close implements app.ClientConn
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps and blocks until the
// connection drops.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		// A reconnect replaces this conn in the hub before its pump
		// winds down; only the registered conn speaks for the player's
		// presence.
		if c.hub.Unregister(c.lobbyID, c) {
			if _, err := c.service.SetPlayerConnection(context.Background(), c.lobbyID, c.playerID, false); err != nil {
				c.logger.Debug("mark disconnected", zap.Error(err))
			}
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	ctx := context.Background()

	switch msg.Type {
	case MsgStartRound:
		c.reportOutcome(c.service.StartRound(ctx, c.lobbyID, c.playerID))
	case MsgSubmitAnswer:
		text, ok := payloadString(msg.Payload, "text")
		if !ok {
			c.sendError(ErrCodeInvalidMessage, "Answer text is required")
			return
		}
		c.reportOutcome(c.service.SubmitAnswer(ctx, c.lobbyID, c.playerID, text))
	case MsgRevealQuestion:
		c.reportOutcome(c.service.RevealQuestion(ctx, c.lobbyID, c.playerID))
	case MsgRevealNextAnswer:
		c.reportOutcome(c.service.RevealNextAnswer(ctx, c.lobbyID, c.playerID))
	case MsgStartDiscussion:
		c.reportOutcome(c.service.StartDiscussion(ctx, c.lobbyID, c.playerID))
	case MsgExtendDiscussion:
		seconds, ok := payloadInt(msg.Payload, "addSeconds")
		if !ok {
			c.sendError(ErrCodeInvalidMessage, "addSeconds is required")
			return
		}
		c.reportOutcome(c.service.ExtendDiscussion(ctx, c.lobbyID, c.playerID, seconds))
	case MsgEndDiscussion:
		c.reportOutcome(c.service.EndDiscussion(ctx, c.lobbyID, c.playerID))
	case MsgCastVote:
		targetID, ok := payloadString(msg.Payload, "targetPlayerId")
		if !ok {
			c.sendError(ErrCodeInvalidMessage, "Target player ID is required")
			return
		}
		c.reportOutcome(c.service.CastVote(ctx, c.lobbyID, c.playerID, targetID))
	case MsgCloseVoting:
		allowMissing, _ := payloadBool(msg.Payload, "allowMissingVotes")
		c.reportOutcome(c.service.CloseVoting(ctx, c.lobbyID, c.playerID, allowMissing))
	case MsgFinalizeRound:
		c.reportOutcome(c.service.FinalizeRound(ctx, c.lobbyID, c.playerID))
	case MsgCancelRound:
		reason, _ := payloadString(msg.Payload, "reason")
		c.reportOutcome(c.service.CancelRound(ctx, c.lobbyID, c.playerID, reason))
	case MsgCastHostTransferVote:
		nomineeID, ok := payloadString(msg.Payload, "nomineeId")
		if !ok {
			c.sendError(ErrCodeInvalidMessage, "Nominee ID is required")
			return
		}
		c.reportOutcome(c.service.CastHostTransferVote(ctx, c.lobbyID, c.playerID, nomineeID))
	case MsgExtendHostPause:
		c.reportOutcome(c.service.ExtendHostPause(ctx, c.lobbyID, c.playerID))
	case MsgUpdateSettings:
		c.handleUpdateSettings(ctx, msg.Payload)
	case MsgRequestWinnerSummary:
		c.handleWinnerSummary(ctx)
	case MsgRemovePlayer:
		targetID, ok := payloadString(msg.Payload, "targetPlayerId")
		if !ok {
			c.sendError(ErrCodeInvalidMessage, "Target player ID is required")
			return
		}
		c.reportOutcome(c.service.RemovePlayer(ctx, c.lobbyID, c.playerID, targetID))
	case MsgPing:
		c.Send(NewServerMessage(MsgPong, nil))
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

// handleUpdateSettings re-decodes the payload into the settings struct
// before handing it to the service.
func (c *Client) handleUpdateSettings(ctx context.Context, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}
	var settings domain.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid settings payload")
		return
	}
	c.reportOutcome(c.service.UpdateSettings(ctx, c.lobbyID, c.playerID, settings))
}

func (c *Client) handleWinnerSummary(ctx context.Context) {
	summary, err := c.service.WinnerSummary(ctx, c.lobbyID)
	if err != nil {
		c.sendServiceError(err)
		return
	}
	c.Send(NewServerMessage(MsgWinnerSummary, summary))
}

// reportOutcome sends an error frame for a failed action. Successful
// actions need nothing here: the hub pushes the new state to everyone.
func (c *Client) reportOutcome(_ domain.GameState, err error) {
	if err != nil {
		c.sendServiceError(err)
	}
}

func (c *Client) sendServiceError(err error) {
	switch {
	case errors.Is(err, app.ErrNotHost):
		c.sendError(ErrCodeNotHost, "Only the host can do that")
	case errors.Is(err, storage.ErrNotFound):
		c.sendError(ErrCodeGameNotFound, "Game not found")
	default:
		if code := domain.CodeOf(err); code != "" {
			c.sendError(string(code), err.Error())
			return
		}
		c.logger.Error("action failed",
			zap.String("lobbyId", c.lobbyID),
			zap.String("playerId", c.playerID),
			zap.Error(err))
		c.sendError(ErrCodeInternalError, "Internal server error")
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	c.Send(NewServerMessage(MsgError, &ErrorPayload{Code: code, Message: message}))
}

func payloadString(payload interface{}, key string) (string, bool) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return "", false
	}
	value, ok := m[key].(string)
	return value, ok && value != ""
}

func payloadInt(payload interface{}, key string) (int, bool) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return 0, false
	}
	// JSON numbers decode as float64.
	value, ok := m[key].(float64)
	return int(value), ok
}

func payloadBool(payload interface{}, key string) (bool, bool) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return false, false
	}
	value, ok := m[key].(bool)
	return value, ok
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/quixote-kitchen/comanda/messages"
)

const (
	writeBufferSize = 64
	writeTimeout    = 10 * time.Second
	maxMessageSize  = 64 * 1024
)

// ClientSession represents a single user's connection. It adapts one
// Conversation to a WebSocket client: reads user turns, runs them through the
// conversation pipeline, and pushes replies, receipts and statuses back.
type ClientSession struct {
	ID           string
	ClientConn   *websocket.Conn
	Conversation *Conversation
	CreatedAt    time.Time
	LastActivity time.Time

	log *logrus.Entry

	// Use a channel for non-blocking writes
	writeChan chan any

	mu        sync.RWMutex
	closed    bool
	CloseChan chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClientSession creates a session around an established conversation
func NewClientSession(ctx context.Context, id string, clientConn *websocket.Conn, conv *Conversation) *ClientSession {
	ctx, cancel := context.WithCancel(ctx)

	clientConn.SetReadLimit(maxMessageSize)

	return &ClientSession{
		ID:           id,
		ClientConn:   clientConn,
		Conversation: conv,
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
		log:          logrus.WithField("session", shortID(id)),
		writeChan:    make(chan any, writeBufferSize),
		CloseChan:    make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start begins the bidirectional message handling
func (cs *ClientSession) Start() {
	go cs.writePump()
	cs.queueMessage(messages.NewStatusMessage(cs.ID, "connected", "Session established"))
	go cs.handleClientMessages()
}

// writePump handles all outgoing messages in a single goroutine
func (cs *ClientSession) writePump() {
	defer func() {
		// Send close message before exiting
		cs.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout))
		cs.ClientConn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
	}()

	for {
		select {
		case <-cs.CloseChan:
			return
		case msg, ok := <-cs.writeChan:
			if !ok {
				// Channel closed, exit gracefully
				return
			}

			cs.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout))

			if err := cs.ClientConn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// queueMessage adds a message to the write queue (non-blocking). The lock is
// held across the send: Close sets closed under the same lock before closing
// writeChan, so no send can race the close.
func (cs *ClientSession) queueMessage(msg any) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return
	}
	select {
	case cs.writeChan <- msg:
		cs.LastActivity = time.Now()
	default:
		// Queue full, drop message (shouldn't happen with proper sizing)
	}
}

// Close terminates the session and cleans up resources
func (cs *ClientSession) Close() error {
	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		return nil
	}
	cs.closed = true
	cs.mu.Unlock()

	cs.cancel()

	// Close the write channel first to stop writePump
	close(cs.writeChan)

	// Signal close (for other goroutines waiting on this)
	close(cs.CloseChan)

	// Close client connection - don't write close message as writePump is stopped
	if cs.ClientConn != nil {
		cs.ClientConn.Close()
	}

	return nil
}

// IsClosed returns whether the session is closed
func (cs *ClientSession) IsClosed() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.closed
}

// LastActive returns the time of the session's most recent activity
func (cs *ClientSession) LastActive() time.Time {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.LastActivity
}

// handleClientMessages reads and dispatches client messages sequentially, so
// a turn in flight naturally blocks the next one.
func (cs *ClientSession) handleClientMessages() {
	defer cs.Close()

	for {
		select {
		case <-cs.CloseChan:
			return
		default:
			_, message, err := cs.ClientConn.ReadMessage()
			if err != nil {
				return
			}

			cs.mu.Lock()
			cs.LastActivity = time.Now()
			cs.mu.Unlock()

			var clientMsg messages.ClientMessage
			if err := json.Unmarshal(message, &clientMsg); err != nil {
				cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid message format"))
				continue
			}

			cs.processClientMessage(&clientMsg)
		}
	}
}

func (cs *ClientSession) processClientMessage(msg *messages.ClientMessage) {
	switch msg.Type {
	case "chat":
		var payload messages.ChatPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid chat payload"))
			return
		}
		cs.handleUserTurn(payload.Text)

	case "control":
		var payload messages.ControlPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid control payload"))
			return
		}
		cs.handleControlMessage(&payload)

	default:
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Unknown message type: "+msg.Type))
	}
}

func (cs *ClientSession) handleControlMessage(payload *messages.ControlPayload) {
	switch payload.Action {
	case "ping":
		cs.queueMessage(messages.NewStatusMessage(cs.ID, "pong", ""))
	default:
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Unknown control action: "+payload.Action))
	}
}

// handleUserTurn runs one turn through the conversation and pushes the outcome
func (cs *ClientSession) handleUserTurn(text string) {
	if strings.TrimSpace(text) == "" {
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Empty chat message"))
		return
	}

	result, err := cs.Conversation.Submit(cs.ctx, text)
	if err != nil {
		code := messages.ErrCodeInvalidMessage
		if errors.Is(err, ErrTurnInFlight) {
			code = messages.ErrCodeTurnInFlight
		}
		cs.queueMessage(messages.NewErrorMessage(cs.ID, code, err.Error()))
		return
	}

	cs.queueMessage(messages.NewTextMessage(cs.ID, result.Reply))

	switch result.Status {
	case StatusOrderPlaced:
		cs.log.Infof("✅ Order placed (%d items, record %q)", len(result.Order.Items), result.SavedAs)
		cs.queueMessage(messages.NewReceiptMessage(cs.ID, result.Receipt.Text, result.SavedAs, result.Receipt.GeneratedAt))
		for _, warning := range result.Warnings {
			cs.queueMessage(messages.NewStatusMessage(cs.ID, "warning", warning))
		}

	case StatusOrderInvalid:
		cs.queueMessage(messages.NewReceiptHiddenMessage(cs.ID))
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeOrderInvalid, result.Reason.Error()))

	case StatusModelFailed:
		cs.queueMessage(messages.NewReceiptHiddenMessage(cs.ID))
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeModelError, result.Reply))

	default:
		cs.queueMessage(messages.NewReceiptHiddenMessage(cs.ID))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

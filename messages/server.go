package messages

import "time"

// Error codes
const (
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
	ErrCodeModelError       = "MODEL_ERROR"
	ErrCodeOrderInvalid     = "ORDER_INVALID"
	ErrCodeSessionFailed    = "SESSION_FAILED"
	ErrCodeConnectionClosed = "CONNECTION_CLOSED"
	ErrCodeTurnInFlight     = "TURN_IN_FLIGHT"
)

// Message types
const (
	TypeText    = "text"
	TypeReceipt = "receipt"
	TypeStatus  = "status"
	TypeError   = "error"
)

// ServerMessage represents a message sent to frontend client
type ServerMessage struct {
	Type      string      `json:"type"` // "text", "receipt", "status", "error"
	SessionID string      `json:"sessionId,omitempty"`
	Payload   interface{} `json:"payload"`
}

// TextResponsePayload contains one assistant reply
type TextResponsePayload struct {
	Text string `json:"text"`
}

// ReceiptPayload carries the rendered invoice for a validated order. Hidden
// tells the client to clear any receipt currently displayed.
type ReceiptPayload struct {
	Hidden      bool      `json:"hidden"`
	Text        string    `json:"text,omitempty"`
	Record      string    `json:"record,omitempty"` // persisted record name, empty if not saved
	GeneratedAt time.Time `json:"generatedAt,omitempty"`
}

// StatusPayload contains status updates
type StatusPayload struct {
	Status  string `json:"status"` // "connected", "order_placed", "warning", "disconnected"
	Message string `json:"message,omitempty"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewTextMessage creates a text response message
func NewTextMessage(sessionID, text string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeText,
		SessionID: sessionID,
		Payload: TextResponsePayload{
			Text: text,
		},
	}
}

// NewReceiptMessage creates a receipt message for a validated order
func NewReceiptMessage(sessionID, text, record string, generatedAt time.Time) *ServerMessage {
	return &ServerMessage{
		Type:      TypeReceipt,
		SessionID: sessionID,
		Payload: ReceiptPayload{
			Text:        text,
			Record:      record,
			GeneratedAt: generatedAt,
		},
	}
}

// NewReceiptHiddenMessage tells the client to hide the receipt pane
func NewReceiptHiddenMessage(sessionID string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeReceipt,
		SessionID: sessionID,
		Payload:   ReceiptPayload{Hidden: true},
	}
}

// NewStatusMessage creates a status message
func NewStatusMessage(sessionID, status, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeStatus,
		SessionID: sessionID,
		Payload: StatusPayload{
			Status:  status,
			Message: message,
		},
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(sessionID, code, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeError,
		SessionID: sessionID,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
	}
}

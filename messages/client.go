package messages

import "encoding/json"

// ClientMessage represents a message from frontend client
type ClientMessage struct {
	Type    string          `json:"type"` // "chat", "control"
	Payload json.RawMessage `json:"payload"`
}

// ChatPayload contains one user turn from the client
type ChatPayload struct {
	Text string `json:"text"`
}

// ControlPayload contains control commands
type ControlPayload struct {
	Action string `json:"action"` // "ping"
}

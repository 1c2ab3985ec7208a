// Package chat defines the conversation transcript types and the model
// collaborator boundary.
package chat

import "context"

// Role attributes a transcript turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation transcript. Turns are immutable
// once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Completer is the model collaborator. It is stateless per call: the full
// ordered transcript (system turn first) must be resent every call, and one
// assistant reply comes back. Implementations must honor ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, transcript []Turn) (string, error)
}

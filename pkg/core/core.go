// Package core defines the contract shared by every agent variant: the
// conversation turn model, the ChatAgent interface and the mode identifiers
// the factory and the UIs select agents by.
package core

import "context"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatAgent is the interface every agent variant implements. Initialize
// prepares the agent's collaborators once per session. ProcessMessage handles
// one user turn against the conversation so far; history is passed by value
// and must not be mutated by the implementation.
type ChatAgent interface {
	Initialize(ctx context.Context) error
	ProcessMessage(ctx context.Context, message string, history []Turn) (string, error)
}

// Package provider talks to the remote service hosting agent
// conversations.
package provider

import (
	"context"
	"fmt"
	"time"
)

// Conversation is the handle for one hosted agent conversation.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	JoinURL   string    `json:"conversation_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Provider creates and terminates hosted agent conversations.
type Provider interface {
	// Create starts a conversation seeded with the greeting and the
	// catalog summary and returns its handle.
	Create(ctx context.Context, greeting, catalogSummary string) (*Conversation, error)

	// End terminates a conversation. Best-effort during teardown.
	End(ctx context.Context, conversationID string) error

	// Get fetches the current state of a conversation.
	Get(ctx context.Context, conversationID string) (*Conversation, error)
}

// Error is a remote conversation API failure.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Op, e.Message)
}

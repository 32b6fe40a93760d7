package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// HTTP is the REST implementation of Provider.
type HTTP struct {
	baseURL   string
	apiKey    string
	replicaID string
	personaID string
	client    *http.Client
}

// HTTPOption configures the REST client.
type HTTPOption func(*HTTP)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = client
	}
}

// WithPersonaID sets the optional persona used for new conversations.
func WithPersonaID(personaID string) HTTPOption {
	return func(h *HTTP) {
		h.personaID = personaID
	}
}

// NewHTTP builds a REST provider client.
func NewHTTP(baseURL, apiKey, replicaID string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		baseURL:   baseURL,
		apiKey:    apiKey,
		replicaID: replicaID,
		client:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type createRequest struct {
	ReplicaID           string `json:"replica_id"`
	PersonaID           string `json:"persona_id,omitempty"`
	ConversationContext string `json:"conversational_context"`
	CustomGreeting      string `json:"custom_greeting,omitempty"`
}

// Create starts a new hosted conversation.
func (h *HTTP) Create(ctx context.Context, greeting, catalogSummary string) (*Conversation, error) {
	body := createRequest{
		ReplicaID:           h.replicaID,
		PersonaID:           h.personaID,
		ConversationContext: "Available books:\n" + catalogSummary,
		CustomGreeting:      greeting,
	}

	var conv Conversation
	if err := h.do(ctx, "create", http.MethodPost, "/v2/conversations", body, &conv); err != nil {
		return nil, err
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}
	slog.Debug("Conversation created", "conversation_id", conv.ID)
	return &conv, nil
}

// End terminates a conversation.
func (h *HTTP) End(ctx context.Context, conversationID string) error {
	path := fmt.Sprintf("/v2/conversations/%s/end", conversationID)
	return h.do(ctx, "end", http.MethodPost, path, nil, nil)
}

// Get fetches a conversation's current state.
func (h *HTTP) Get(ctx context.Context, conversationID string) (*Conversation, error) {
	var conv Conversation
	path := "/v2/conversations/" + conversationID
	if err := h.do(ctx, "get", http.MethodGet, path, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (h *HTTP) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Message: err.Error()}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Message: err.Error()}
	}
	req.Header.Set("x-api-key", h.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return &Error{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: string(msg)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Message: "decoding response: " + err.Error()}
	}
	return nil
}

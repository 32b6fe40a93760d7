package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateConversation(t *testing.T) {
	var gotBody createRequest
	var gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/conversations", r.URL.Path)
		gotKey = r.Header.Get("x-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"conversation_id":  "c-123",
			"conversation_url": "https://example.test/room/c-123",
		})
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, "secret-key", "r-1", WithPersonaID("p-1"))
	conv, err := h.Create(context.Background(), "Be friendly.", "- \"Book\" by Author\n")

	require.NoError(t, err)
	assert.Equal(t, "c-123", conv.ID)
	assert.Equal(t, "https://example.test/room/c-123", conv.JoinURL)
	assert.False(t, conv.CreatedAt.IsZero())

	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "r-1", gotBody.ReplicaID)
	assert.Equal(t, "p-1", gotBody.PersonaID)
	assert.Equal(t, "Be friendly.", gotBody.CustomGreeting)
	assert.Contains(t, gotBody.ConversationContext, "Available books:")
	assert.Contains(t, gotBody.ConversationContext, "\"Book\" by Author")
}

func TestCreateFailureCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid replica", http.StatusBadRequest)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, "key", "r-1")
	_, err := h.Create(context.Background(), "", "")

	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "create", perr.Op)
	assert.Equal(t, http.StatusBadRequest, perr.StatusCode)
	assert.Contains(t, perr.Message, "invalid replica")
}

func TestEndConversation(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, "key", "r-1")
	require.NoError(t, h.End(context.Background(), "c-123"))
	assert.Equal(t, "/v2/conversations/c-123/end", gotPath)
}

func TestGetConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/conversations/c-123", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"conversation_id": "c-123"})
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, "key", "r-1")
	conv, err := h.Get(context.Background(), "c-123")

	require.NoError(t, err)
	assert.Equal(t, "c-123", conv.ID)
}

func TestUnreachableServer(t *testing.T) {
	h := NewHTTP("http://127.0.0.1:1", "key", "r-1")

	_, err := h.Create(context.Background(), "", "")
	require.Error(t, err)

	var perr *Error
	assert.ErrorAs(t, err, &perr)
}

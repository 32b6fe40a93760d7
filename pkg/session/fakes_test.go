package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shelftalk/shelftalk/pkg/provider"
	"github.com/shelftalk/shelftalk/pkg/transport"
)

type fakeProvider struct {
	mu          sync.Mutex
	createCalls int
	endedIDs    []string
	createErr   error
	endErr      error
}

func (f *fakeProvider) Create(ctx context.Context, conversationContext, catalogSummary string) (*provider.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createCalls++
	id := fmt.Sprintf("conv-%d", f.createCalls)
	return &provider.Conversation{ID: id, JoinURL: "https://example.test/room/" + id}, nil
}

func (f *fakeProvider) End(ctx context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endedIDs = append(f.endedIDs, conversationID)
	return f.endErr
}

func (f *fakeProvider) Get(ctx context.Context, conversationID string) (*provider.Conversation, error) {
	return &provider.Conversation{ID: conversationID}, nil
}

func (f *fakeProvider) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

func (f *fakeProvider) ended() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.endedIDs))
	copy(out, f.endedIDs)
	return out
}

type fakeTransport struct {
	mu       sync.Mutex
	handler  transport.Handler
	joins    int
	leaves   int
	joined   bool
	joinErr  error
	sendErr  error
	messages []any
}

func (f *fakeTransport) Join(ctx context.Context, url string, opts transport.JoinOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joins++
	f.joined = true
	return nil
}

func (f *fakeTransport) Leave() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joined {
		f.leaves++
		f.joined = false
	}
	return nil
}

func (f *fakeTransport) SetLocalAudio(enabled bool) {}
func (f *fakeTransport) SetLocalVideo(enabled bool) {}

func (f *fakeTransport) SendAppMessage(payload any, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	if !f.joined {
		return &transport.Error{Op: "send-app-message", Err: errors.New("not joined")}
	}
	f.messages = append(f.messages, payload)
	return nil
}

func (f *fakeTransport) Participants() map[string]transport.TrackState {
	return map[string]transport.TrackState{}
}

func (f *fakeTransport) OnEvent(handler transport.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
}

// Emit delivers an event the way the real adapter's read loop would.
func (f *fakeTransport) Emit(evt transport.Event) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		handler(evt)
	}
}

func (f *fakeTransport) sent() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, len(f.messages))
	copy(out, f.messages)
	return out
}

func (f *fakeTransport) joinCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.joins
}

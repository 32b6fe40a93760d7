// Package session owns the lifecycle of one live conversation between
// the reader and the remote agent. The Controller is the only component
// allowed to mutate session state; transport callbacks and budget timers
// re-enter through guarded methods that re-check state first, so a late
// timer or event can never corrupt a torn-down session.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/shelftalk/shelftalk/pkg/catalog"
	"github.com/shelftalk/shelftalk/pkg/config"
	"github.com/shelftalk/shelftalk/pkg/dispatch"
	"github.com/shelftalk/shelftalk/pkg/media"
	"github.com/shelftalk/shelftalk/pkg/normalize"
	"github.com/shelftalk/shelftalk/pkg/provider"
	"github.com/shelftalk/shelftalk/pkg/toolcall"
	"github.com/shelftalk/shelftalk/pkg/transport"
)

// Controller wires the provider, transport, normalizer, dispatcher,
// media binder and budget scheduler into one session lifecycle.
type Controller struct {
	id      string
	cfg     config.Config
	catalog catalog.Catalog

	provider  provider.Provider
	transport transport.Adapter

	dispatcher *dispatch.Dispatcher
	normalizer *normalize.Normalizer
	binder     *media.Binder
	scheduler  budgetScheduler

	onStatus func(string)

	mu           sync.Mutex
	state        State
	failReason   string
	conversation *provider.Conversation
	joinedAt     time.Time
	done         chan struct{}
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	sink   media.Sink
	tracer trace.Tracer
}

// WithSink sets the local media sink remote tracks are bound to.
func WithSink(sink media.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithTracer traces tool-call dispatches.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// New builds a controller. The catalog is read-only reference data; the
// callbacks face the surrounding UI.
func New(cfg config.Config, cat catalog.Catalog, prov provider.Provider, tr transport.Adapter, cb dispatch.Callbacks, opts ...Option) *Controller {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var dispatchOpts []dispatch.Option
	if o.tracer != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithTracer(o.tracer))
	}

	c := &Controller{
		id:         uuid.New().String(),
		cfg:        cfg,
		catalog:    cat,
		provider:   prov,
		transport:  tr,
		dispatcher: dispatch.New(cat, cb, dispatchOpts...),
		normalizer: normalize.New(cfg.InferFromSpeech),
		binder:     media.NewBinder(o.sink),
		onStatus:   cb.OnStatus,
		state:      StateIdle,
		done:       make(chan struct{}),
	}
	tr.OnEvent(c.handleEvent)
	return c
}

// Start opens a session: Idle -> Connecting -> Connected. It fails fast
// with config.ErrMissingCredentials before any resource is allocated.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		c.notify("Reading companion unavailable: " + err.Error())
		return err
	}

	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("cannot start session in state %s", state)
	}
	c.done = make(chan struct{})
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()
	c.notify("Connecting to your reading companion...")

	conv, err := c.provider.Create(ctx, c.cfg.Greeting, c.catalog.Summary())
	if err != nil {
		c.teardown(ctx, StateFailed, fmt.Sprintf("creating conversation: %v", err))
		return err
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// Stop raced the create call; don't leak the fresh conversation.
		c.mu.Unlock()
		if endErr := c.provider.End(ctx, conv.ID); endErr != nil {
			slog.Warn("Ending orphaned conversation failed", "conversation_id", conv.ID, "error", endErr)
		}
		return nil
	}
	c.conversation = conv
	c.mu.Unlock()

	joinOpts := transport.JoinOptions{LocalAudio: c.cfg.LocalAudio, LocalVideo: c.cfg.LocalVideo}
	if err := c.transport.Join(ctx, conv.JoinURL, joinOpts); err != nil {
		c.teardown(ctx, StateFailed, fmt.Sprintf("joining transport: %v", err))
		return err
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.joinedAt = time.Now()
	c.setStateLocked(StateConnected)
	// Armed under the same lock as the state change so timers exist iff
	// the session is live.
	c.scheduler.Arm(c.cfg.Budget.SoftWarning(), c.cfg.Budget.HardWarning(),
		c.cfg.Budget.HardStop(), c.sendEscalation, c.budgetExpired)
	c.mu.Unlock()

	slog.Info("Session connected", "session_id", c.id, "conversation_id", conv.ID)
	c.notify("Connected - say hello!")
	return nil
}

// Stop tears the session down. Idempotent and safe from any state; the
// transport is left before the conversation is ended so no further
// events can be produced while the end call is in flight.
func (c *Controller) Stop(ctx context.Context) {
	c.teardown(ctx, StateEnded, "")
}

// Restart stops the current session, clears tool-call history and
// counters, and starts a fresh one with a fresh conversation.
func (c *Controller) Restart(ctx context.Context) error {
	c.Stop(ctx)
	c.dispatcher.Reset()

	c.mu.Lock()
	c.state = StateIdle
	c.failReason = ""
	c.mu.Unlock()

	return c.Start(ctx)
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// FailReason returns the human-readable reason for the Failed state.
func (c *Controller) FailReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failReason
}

// Conversation returns the active conversation handle, or nil.
func (c *Controller) Conversation() *provider.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversation
}

// Done is closed when the session reaches a terminal state. Start
// replaces the channel, so grab it after Start returns.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// History returns the recent tool-call records, oldest first.
func (c *Controller) History() []toolcall.Record {
	return c.dispatcher.History()
}

// LastCall returns the most recently dispatched rendered tool call.
func (c *Controller) LastCall() string {
	return c.dispatcher.LastCall()
}

// ID returns the controller's unique id.
func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) teardown(ctx context.Context, final State, reason string) {
	c.mu.Lock()
	if !c.state.live() {
		// Nothing to tear down, or already absorbed.
		c.mu.Unlock()
		return
	}
	c.scheduler.Cancel()
	conv := c.conversation
	c.conversation = nil
	if final == StateFailed {
		c.failReason = reason
	}
	c.setStateLocked(final)
	joined := c.joinedAt
	c.joinedAt = time.Time{}
	done := c.done
	c.mu.Unlock()

	if err := c.transport.Leave(); err != nil {
		slog.Debug("Transport leave", "session_id", c.id, "error", err)
	}
	if conv != nil {
		if err := c.provider.End(ctx, conv.ID); err != nil {
			// Best-effort during teardown.
			slog.Warn("Ending conversation failed", "conversation_id", conv.ID, "error", err)
		}
	}
	c.binder.Reset()
	close(done)

	if !joined.IsZero() {
		slog.Info("Session closed", "session_id", c.id, "state", final.String(),
			"duration", time.Since(joined).Round(time.Second))
	}

	switch {
	case final == StateFailed:
		c.notify("Session failed: " + reason)
	case reason != "":
		c.notify("Session ended: " + reason)
	default:
		c.notify("Session ended")
	}
}

// handleEvent is the single entry point for transport events. Every
// branch that touches session state re-checks the current state first; a
// late event must no-op once teardown has begun.
func (c *Controller) handleEvent(evt transport.Event) {
	switch evt.Type {
	case transport.EventError:
		reason := "transport error"
		if msg, ok := evt.Payload["error"].(string); ok && msg != "" {
			reason = msg
		}
		c.teardown(context.Background(), StateFailed, reason)
	case transport.EventLeftMeeting:
		c.teardown(context.Background(), StateEnded, "")
	case transport.EventParticipantJoined, transport.EventParticipantUpdated, transport.EventTrackStarted:
		c.handleParticipant(evt)
	case transport.EventParticipantLeft:
		if p, ok := transport.ParticipantFrom(evt.Payload); ok {
			c.binder.Remove(p.ID)
		}
	case transport.EventAppMessage, transport.EventReceiveData:
		c.handleData(evt)
	}
}

func (c *Controller) handleParticipant(evt transport.Event) {
	if st := c.State(); st != StateConnected && st != StateAgentReady {
		return
	}
	p, ok := transport.ParticipantFrom(evt.Payload)
	if !ok {
		return
	}
	bound := c.binder.Update(p.ID, media.Tracks{
		Audio:         p.Audio,
		Video:         p.Video,
		AudioPlayable: p.AudioPlayable,
		VideoPlayable: p.VideoPlayable,
	})
	if !bound {
		return
	}

	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateAgentReady)
	c.mu.Unlock()
	c.notify("Your reading companion can see and hear you")
}

// handleData runs the tool-call pipeline: normalize the untyped payload,
// then dispatch. Dispatch is live from Connected onward; AgentReady is a
// readiness signal only and never gates it.
func (c *Controller) handleData(evt transport.Event) {
	if st := c.State(); st != StateConnected && st != StateAgentReady {
		return
	}

	payload := evt.Payload
	if inner, ok := payload["payload"].(map[string]any); ok {
		payload = inner
	} else if inner, ok := payload["data"].(map[string]any); ok {
		payload = inner
	}

	call, ok := c.normalizer.Normalize(payload)
	if !ok {
		return
	}
	c.dispatcher.Dispatch(context.Background(), call)
}

// sendEscalation runs on a budget timer. It reads live state at fire
// time: after Stop has begun, nothing may be written to the transport.
func (c *Controller) sendEscalation(message string) {
	if st := c.State(); st != StateConnected && st != StateAgentReady {
		return
	}
	payload := map[string]any{
		"message_type": "conversation",
		"event_type":   "conversation.instruction",
		"properties":   map[string]any{"instruction": message},
	}
	if err := c.transport.SendAppMessage(payload, ""); err != nil {
		// Escalations are best-effort; only the hard stop is guaranteed.
		slog.Warn("Escalation message not delivered", "session_id", c.id, "error", err)
	} else {
		slog.Debug("Escalation sent", "session_id", c.id)
	}
}

func (c *Controller) budgetExpired() {
	slog.Info("Session time budget reached", "session_id", c.id)
	c.teardown(context.Background(), StateEnded, "time budget reached")
}

func (c *Controller) setStateLocked(next State) {
	slog.Debug("Session state", "session_id", c.id, "from", c.state.String(), "to", next.String())
	c.state = next
}

func (c *Controller) notify(message string) {
	if c.onStatus != nil {
		c.onStatus(message)
	}
}

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// Websocket is an Adapter over a websocket data channel. Incoming JSON
// frames become Events keyed by their "type" field; everything else about
// the frame is passed through untouched as the payload.
type Websocket struct {
	dialer *websocket.Dialer

	mu         sync.Mutex
	conn       *websocket.Conn
	handler    Handler
	tracks     map[string]TrackState
	localAudio bool
	localVideo bool
	closing    bool
}

// NewWebsocket returns an unjoined websocket adapter.
func NewWebsocket() *Websocket {
	return &Websocket{
		dialer: websocket.DefaultDialer,
		tracks: make(map[string]TrackState),
	}
}

// OnEvent registers the event handler. Must be called before Join.
func (w *Websocket) OnEvent(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handler = handler
}

// Join dials the session URL and starts the read loop. http(s) URLs are
// coerced to ws(s).
func (w *Websocket) Join(ctx context.Context, rawURL string, opts JoinOptions) error {
	wsURL, err := toWebsocketURL(rawURL)
	if err != nil {
		return &Error{Op: "join", Err: err}
	}

	conn, resp, err := w.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			err = errors.Join(err, errors.New(resp.Status))
		}
		return &Error{Op: "join", Err: err}
	}

	w.mu.Lock()
	if w.conn != nil {
		w.mu.Unlock()
		conn.Close()
		return &Error{Op: "join", Err: errors.New("already joined")}
	}
	w.conn = conn
	w.closing = false
	w.localAudio = opts.LocalAudio
	w.localVideo = opts.LocalVideo
	w.tracks = make(map[string]TrackState)
	w.mu.Unlock()

	if err := w.writeJSON(map[string]any{
		"type":        "join",
		"local_audio": opts.LocalAudio,
		"local_video": opts.LocalVideo,
	}); err != nil {
		w.Leave()
		return &Error{Op: "join", Err: err}
	}

	go w.readLoop(conn)
	return nil
}

// Leave closes the channel. Safe to call when not joined, and safe to
// call more than once.
func (w *Websocket) Leave() error {
	w.mu.Lock()
	conn := w.conn
	w.conn = nil
	w.closing = true
	w.mu.Unlock()

	if conn == nil {
		return nil
	}
	deadline := time.Now().Add(writeTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		slog.Debug("Close frame not sent", "error", err)
	}
	return conn.Close()
}

// SetLocalAudio toggles publishing of local audio.
func (w *Websocket) SetLocalAudio(enabled bool) {
	w.mu.Lock()
	w.localAudio = enabled
	w.mu.Unlock()
	_ = w.writeJSON(map[string]any{"type": "set-local-audio", "enabled": enabled})
}

// SetLocalVideo toggles publishing of local video.
func (w *Websocket) SetLocalVideo(enabled bool) {
	w.mu.Lock()
	w.localVideo = enabled
	w.mu.Unlock()
	_ = w.writeJSON(map[string]any{"type": "set-local-video", "enabled": enabled})
}

// SendAppMessage sends an application message. An empty target
// broadcasts to all participants.
func (w *Websocket) SendAppMessage(payload any, target string) error {
	frame := map[string]any{
		"type":    "app-message",
		"payload": payload,
	}
	if target != "" {
		frame["to"] = target
	}
	if err := w.writeJSON(frame); err != nil {
		return &Error{Op: "send-app-message", Err: err}
	}
	return nil
}

// Participants snapshots the known remote participants' track state.
func (w *Websocket) Participants() map[string]TrackState {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]TrackState, len(w.tracks))
	for id, st := range w.tracks {
		out[id] = st
	}
	return out
}

func (w *Websocket) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return errors.New("not joined")
	}
	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteJSON(v)
}

func (w *Websocket) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			closing := w.closing
			if w.conn == conn {
				w.conn = nil
			}
			w.mu.Unlock()
			if !closing && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.emit(Event{Type: EventError, Payload: map[string]any{"error": err.Error()}})
			}
			w.emit(Event{Type: EventLeftMeeting, Payload: map[string]any{}})
			return
		}

		var frame map[string]any
		if err := json.Unmarshal(data, &frame); err != nil {
			slog.Debug("Dropping non-JSON frame", "error", err)
			continue
		}
		w.emit(w.eventFrom(frame))
	}
}

func (w *Websocket) eventFrom(frame map[string]any) Event {
	evt := Event{Type: EventReceiveData, Payload: frame}
	if t, ok := frame["type"].(string); ok && t != "" {
		evt.Type = EventType(t)
	}
	if p, ok := ParticipantFrom(frame); ok {
		evt.ParticipantID = p.ID
		switch evt.Type {
		case EventParticipantJoined, EventParticipantUpdated, EventTrackStarted:
			w.mu.Lock()
			w.tracks[p.ID] = TrackState{AudioPlayable: p.AudioPlayable, VideoPlayable: p.VideoPlayable}
			w.mu.Unlock()
		case EventParticipantLeft:
			w.mu.Lock()
			delete(w.tracks, p.ID)
			w.mu.Unlock()
		}
	}
	return evt
}

func (w *Websocket) emit(evt Event) {
	w.mu.Lock()
	handler := w.handler
	w.mu.Unlock()
	if handler != nil {
		handler(evt)
	}
}

func toWebsocketURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	switch {
	case u.Scheme == "http":
		u.Scheme = "ws"
	case u.Scheme == "https":
		u.Scheme = "wss"
	case strings.HasPrefix(u.Scheme, "ws"):
	default:
		return "", errors.New("unsupported url scheme " + u.Scheme)
	}
	return u.String(), nil
}

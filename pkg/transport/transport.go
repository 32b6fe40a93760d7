// Package transport abstracts the realtime channel carrying session
// media and application messages. Event payloads are vendor-defined and
// carry no fixed schema; consumers must treat them as untyped records.
package transport

import (
	"context"
	"fmt"
)

// EventType is the fixed set of lifecycle and data events an adapter
// emits. The payload shape behind each type is unconstrained.
type EventType string

const (
	EventParticipantJoined  EventType = "participant-joined"
	EventParticipantUpdated EventType = "participant-updated"
	EventParticipantLeft    EventType = "participant-left"
	EventTrackStarted       EventType = "track-started"
	EventAppMessage         EventType = "app-message"
	EventReceiveData        EventType = "receive-data"
	EventError              EventType = "error"
	EventLeftMeeting        EventType = "left-meeting"
)

// Event is one raw transport event.
type Event struct {
	Type          EventType
	ParticipantID string
	Payload       map[string]any
}

// JoinOptions selects which local media to publish.
type JoinOptions struct {
	LocalAudio bool
	LocalVideo bool
}

// TrackState is an adapter's view of one participant's media tracks.
type TrackState struct {
	AudioPlayable bool
	VideoPlayable bool
}

// Handler receives adapter events. Handlers are invoked from the
// adapter's read loop and must not block.
type Handler func(Event)

// Adapter is the realtime channel boundary.
type Adapter interface {
	Join(ctx context.Context, url string, opts JoinOptions) error
	Leave() error
	SetLocalAudio(enabled bool)
	SetLocalVideo(enabled bool)
	SendAppMessage(payload any, target string) error
	Participants() map[string]TrackState
	OnEvent(handler Handler)
}

// Error wraps a transport failure with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Participant is the participant descriptor extracted from a participant
// or track event payload.
type Participant struct {
	ID            string
	Audio         any
	Video         any
	AudioPlayable bool
	VideoPlayable bool
}

// ParticipantFrom pulls a participant descriptor out of an untyped event
// payload. It tolerates the descriptor living at top level or under a
// "participant" key, and track state expressed as {"state": "playable"}
// objects or bare booleans.
func ParticipantFrom(payload map[string]any) (Participant, bool) {
	m := payload
	if nested, ok := payload["participant"].(map[string]any); ok {
		m = nested
	}

	var p Participant
	for _, key := range []string{"id", "participant_id", "session_id", "user_id"} {
		if id, ok := m[key].(string); ok && id != "" {
			p.ID = id
			break
		}
	}
	if p.ID == "" {
		return Participant{}, false
	}

	tracks, _ := m["tracks"].(map[string]any)
	p.Audio, p.AudioPlayable = trackFrom(tracks, "audio")
	p.Video, p.VideoPlayable = trackFrom(tracks, "video")
	return p, true
}

func trackFrom(tracks map[string]any, kind string) (any, bool) {
	if tracks == nil {
		return nil, false
	}
	switch t := tracks[kind].(type) {
	case map[string]any:
		state, _ := t["state"].(string)
		return t["track"], state == "playable"
	case bool:
		return nil, t
	default:
		return nil, false
	}
}

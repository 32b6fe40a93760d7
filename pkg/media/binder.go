// Package media binds a remote participant's audio and video tracks to
// the local playback sink once both are playable.
package media

import (
	"log/slog"
	"sync"
)

// Tracks is the playable state of one remote participant. Track handles
// are opaque to this package; the transport defines their real type.
type Tracks struct {
	Audio         any
	Video         any
	AudioPlayable bool
	VideoPlayable bool
}

func (t Tracks) ready() bool {
	return t.AudioPlayable && t.VideoPlayable
}

// Sink is the single local playback target.
type Sink interface {
	Attach(participantID string, audio, video any)
	Detach()
}

// Binder tracks remote participants and binds exactly one of them to the
// sink. A participant is never bound until both tracks are playable;
// partial binding would produce silent or video-only playback.
type Binder struct {
	mu           sync.Mutex
	sink         Sink
	participants map[string]Tracks
	bound        string
	muted        bool
	volume       float64
}

// NewBinder returns a binder over the given sink. A nil sink is allowed;
// binding state is still tracked.
func NewBinder(sink Sink) *Binder {
	return &Binder{
		sink:         sink,
		participants: make(map[string]Tracks),
		volume:       1.0,
	}
}

// Update records the participant's track state and binds it when both
// tracks are playable, replacing any prior binding. Re-binding the same
// participant is idempotent. Returns true when the participant is bound
// after this update.
func (b *Binder) Update(participantID string, tracks Tracks) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.participants[participantID] = tracks
	if !tracks.ready() {
		return false
	}

	if b.bound != "" && b.bound != participantID {
		slog.Debug("Replacing bound participant", "old", b.bound, "new", participantID)
	}
	b.bound = participantID
	if b.sink != nil {
		b.sink.Attach(participantID, tracks.Audio, tracks.Video)
	}
	return true
}

// Remove forgets a participant, detaching it from the sink if bound.
func (b *Binder) Remove(participantID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.participants, participantID)
	if b.bound == participantID {
		b.bound = ""
		if b.sink != nil {
			b.sink.Detach()
		}
	}
}

// Bound returns the id of the currently bound participant, or "".
func (b *Binder) Bound() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bound
}

// Reset detaches the sink and forgets all participants.
func (b *Binder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.participants = make(map[string]Tracks)
	if b.bound != "" && b.sink != nil {
		b.sink.Detach()
	}
	b.bound = ""
}

// SetMuted gates local playback only; it never affects dispatch logic.
func (b *Binder) SetMuted(muted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.muted = muted
}

// Muted reports the local mute state.
func (b *Binder) Muted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.muted
}

// SetVolume sets the local playback volume, clamped to [0, 2].
func (b *Binder) SetVolume(volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if volume < 0 {
		volume = 0
	}
	if volume > 2 {
		volume = 2
	}
	b.volume = volume
}

// Volume reports the local playback volume.
func (b *Binder) Volume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "agent-ready", StateAgentReady.String())
	assert.Equal(t, "ended", StateEnded.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestStateLiveness(t *testing.T) {
	for _, s := range []State{StateConnecting, StateConnected, StateAgentReady} {
		assert.True(t, s.live(), s.String())
	}
	for _, s := range []State{StateIdle, StateEnded, StateFailed} {
		assert.False(t, s.live(), s.String())
	}
}

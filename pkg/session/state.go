package session

// State is the lifecycle state of one conversation session. Transitions
// are monotonic; Ended and Failed are absorbing until Restart.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateAgentReady
	StateEnded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAgentReady:
		return "agent-ready"
	case StateEnded:
		return "ended"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// live reports whether a conversation handle and budget timers may exist
// in this state.
func (s State) live() bool {
	return s == StateConnecting || s == StateConnected || s == StateAgentReady
}

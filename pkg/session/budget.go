package session

import (
	"log/slog"
	"sync"
	"time"
)

// Escalation instructions sent to the remote agent as the budget runs
// out. Delivery is best-effort; only the hard stop affects session state.
const (
	softWarningMessage = "The session is almost over. Begin concluding the conversation and guide the reader toward a closing thought."
	hardWarningMessage = "The session is ending. Say a brief goodbye and close the conversation immediately."
)

// budgetScheduler arms the three session-budget timers and cancels them
// as a unit. Timer callbacks must read live session state at fire time;
// nothing captured at arm time may be trusted after a teardown.
type budgetScheduler struct {
	mu     sync.Mutex
	timers []*time.Timer
}

// Arm schedules the soft warning, hard warning and hard stop relative to
// now. Re-arming cancels any previous timers first.
func (s *budgetScheduler) Arm(soft, hard, stop time.Duration, warn func(message string), terminate func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.timers = []*time.Timer{
		time.AfterFunc(soft, func() { warn(softWarningMessage) }),
		time.AfterFunc(hard, func() { warn(hardWarningMessage) }),
		time.AfterFunc(stop, terminate),
	}
	slog.Debug("Session budget armed", "soft_warning", soft, "hard_warning", hard, "hard_stop", stop)
}

// Cancel stops all pending timers. Idempotent. A timer that has already
// fired may still be running; its callback is responsible for noticing
// the session has moved on.
func (s *budgetScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Armed reports whether budget timers are pending.
func (s *budgetScheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers) > 0
}

func (s *budgetScheduler) cancelLocked() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

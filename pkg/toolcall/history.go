package toolcall

import (
	"sync"
	"time"
)

const defaultHistorySize = 5

// Record is one rendered call kept for observability. Records never feed
// back into dispatch decisions.
type Record struct {
	Rendered string
	At       time.Time
}

// History is a bounded ring of the most recent call records.
type History struct {
	mu      sync.Mutex
	records []Record
	size    int
}

// NewHistory returns a history keeping the last size records; size <= 0
// selects the default of 5.
func NewHistory(size int) *History {
	if size <= 0 {
		size = defaultHistorySize
	}
	return &History{size: size}
}

// Append records a call, evicting the oldest record once full.
func (h *History) Append(call *Call) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, Record{Rendered: call.String(), At: time.Now()})
	if len(h.records) > h.size {
		h.records = h.records[len(h.records)-h.size:]
	}
}

// Records returns a copy of the retained records, oldest first.
func (h *History) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// Last returns the most recent rendered call, or "" when empty.
func (h *History) Last() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.records) == 0 {
		return ""
	}
	return h.records[len(h.records)-1].Rendered
}

// Clear drops all records.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}

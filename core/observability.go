package core

import (
	"sync"
	"time"
)

const defaultHistorySize = 64

// LoopStats represents runtime observability state for a Loop.
type LoopStats struct {
	Name             string
	Running          bool
	QueueDepth       int
	RegistrySize     int
	CyclesRun        uint64
	Overruns         uint64
	CommandsExecuted uint64
	CommandsFailed   uint64
	CommandsRejected uint64
}

// CycleRecord captures one completed update-scheduler cycle.
type CycleRecord struct {
	StartedAt time.Time
	Duration  time.Duration
	Tasks     int
	Overrun   bool
	Errors    int
}

// CycleHistory is a bounded ring of the most recent cycle records.
type CycleHistory struct {
	mu      sync.Mutex
	records []CycleRecord
	next    int
	full    bool
}

// NewCycleHistory creates a history retaining the last size cycles.
func NewCycleHistory(size int) *CycleHistory {
	if size <= 0 {
		size = defaultHistorySize
	}
	return &CycleHistory{records: make([]CycleRecord, size)}
}

// Append records a completed cycle, evicting the oldest when full.
func (h *CycleHistory) Append(rec CycleRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records[h.next] = rec
	h.next++
	if h.next == len(h.records) {
		h.next = 0
		h.full = true
	}
}

// Snapshot returns the retained records, oldest first.
func (h *CycleHistory) Snapshot() []CycleRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.full {
		out := make([]CycleRecord, h.next)
		copy(out, h.records[:h.next])
		return out
	}
	out := make([]CycleRecord, 0, len(h.records))
	out = append(out, h.records[h.next:]...)
	out = append(out, h.records[:h.next]...)
	return out
}

// Len returns the number of retained records.
func (h *CycleHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.full {
		return len(h.records)
	}
	return h.next
}

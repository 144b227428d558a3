package core

import (
	"errors"
	"sync"
)

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// ErrQueueFull is returned by Push when a bounded queue is at capacity.
var ErrQueueFull = errors.New("asyncgui: command queue full")

// CommandQueue is the FIFO buffer between synchronous UI-callback sites and
// the Command Dispatcher. Producers are sync callbacks fired while the Event
// Pump drains toolkit events, so Push may re-enter from within a drain step;
// the mutex makes that safe regardless of which goroutine the toolkit binding
// happens to deliver callbacks on.
//
// The queue is unbounded by default. A positive capacity turns on
// backpressure: Push returns ErrQueueFull instead of growing.
type CommandQueue struct {
	mu       sync.Mutex
	cmds     []CommandFunc
	capacity int // 0 = unbounded
}

// NewCommandQueue creates a queue. capacity 0 means unbounded.
func NewCommandQueue(capacity int) *CommandQueue {
	return &CommandQueue{
		cmds:     make([]CommandFunc, 0, defaultQueueCap),
		capacity: capacity,
	}
}

// Push appends a command in submission order.
func (q *CommandQueue) Push(cmd CommandFunc) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.capacity > 0 && len(q.cmds) >= q.capacity {
		return ErrQueueFull
	}
	q.cmds = append(q.cmds, cmd)
	return nil
}

// Pop removes and returns the oldest command.
func (q *CommandQueue) Pop() (CommandFunc, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.cmds) == 0 {
		return nil, false
	}

	cmd := q.cmds[0]
	// Zero out the element in the underlying array to prevent memory leak
	q.cmds[0] = nil
	q.cmds = q.cmds[1:]
	q.maybeCompactLocked()

	return cmd, true
}

func (q *CommandQueue) maybeCompactLocked() {
	n := len(q.cmds)
	c := cap(q.cmds)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.cmds = make([]CommandFunc, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]CommandFunc, n, newCap)
	copy(newSlice, q.cmds)
	q.cmds = newSlice
}

// Len returns the number of queued commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds)
}

// IsEmpty reports whether the queue has no pending commands.
func (q *CommandQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Clear removes all commands from the queue and releases references.
func (q *CommandQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cmds = make([]CommandFunc, 0, defaultQueueCap)
}

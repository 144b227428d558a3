// Package fakeui provides an in-memory ToolkitBinding for tests and demos.
// It stands in for a real toolkit: events are plain funcs representing the
// synchronous widget callbacks a native event would fire.
package fakeui

import (
	"sync"
	"sync/atomic"
)

// Binding is a scriptable core.ToolkitBinding. PostEvent queues a synchronous
// callback the way a native toolkit queues a widget event; DrainPendingEvent
// runs one queued callback. CloseWindow flips liveness, which makes the
// event pump exit on its next tick.
type Binding struct {
	mu      sync.Mutex
	events  []func()
	alive   bool
	drained atomic.Uint64
}

// New creates a binding with a live window and no pending events.
func New() *Binding {
	return &Binding{alive: true}
}

// PostEvent queues a synchronous callback. Safe from any goroutine and from
// within a callback being drained.
func (b *Binding) PostEvent(fn func()) {
	b.mu.Lock()
	b.events = append(b.events, fn)
	b.mu.Unlock()
}

// CloseWindow marks the window destroyed.
func (b *Binding) CloseWindow() {
	b.mu.Lock()
	b.alive = false
	b.mu.Unlock()
}

// DrainPendingEvent runs the oldest queued callback outside the lock, so a
// callback may re-enter PostEvent, and reports whether more events remain.
func (b *Binding) DrainPendingEvent() (bool, error) {
	b.mu.Lock()
	if len(b.events) == 0 {
		b.mu.Unlock()
		return false, nil
	}
	fn := b.events[0]
	b.events[0] = nil
	b.events = b.events[1:]
	b.mu.Unlock()

	fn()
	b.drained.Add(1)

	b.mu.Lock()
	more := len(b.events) > 0
	b.mu.Unlock()
	return more, nil
}

// WindowAlive reports window liveness.
func (b *Binding) WindowAlive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alive
}

// Drained returns how many events have been processed.
func (b *Binding) Drained() uint64 {
	return b.drained.Load()
}

// Pending returns how many events are queued.
func (b *Binding) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

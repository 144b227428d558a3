package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// testBinding is a scriptable ToolkitBinding for pump and loop tests.
type testBinding struct {
	mu       sync.Mutex
	events   []func()
	alive    bool
	drainErr error
	drained  atomic.Int32
}

func newTestBinding() *testBinding {
	return &testBinding{alive: true}
}

func (b *testBinding) postEvent(fn func()) {
	b.mu.Lock()
	b.events = append(b.events, fn)
	b.mu.Unlock()
}

func (b *testBinding) closeWindow() {
	b.mu.Lock()
	b.alive = false
	b.mu.Unlock()
}

func (b *testBinding) failDrain(err error) {
	b.mu.Lock()
	b.drainErr = err
	b.mu.Unlock()
}

func (b *testBinding) DrainPendingEvent() (bool, error) {
	b.mu.Lock()
	if b.drainErr != nil {
		err := b.drainErr
		b.mu.Unlock()
		return false, err
	}
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

func (b *testBinding) WindowAlive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alive
}

// countingOverrunHandler counts overrun reports.
type countingOverrunHandler struct {
	count atomic.Int32
}

func (h *countingOverrunHandler) HandleOverrun(loopName string, interval time.Duration) {
	h.count.Add(1)
}

// countingPanicHandler counts recovered panics.
type countingPanicHandler struct {
	count atomic.Int32
}

func (h *countingPanicHandler) HandlePanic(ctx context.Context, loopName string, origin string, panicInfo any, stackTrace []byte) {
	h.count.Add(1)
}

// countingRejectedHandler counts rejected commands.
type countingRejectedHandler struct {
	count atomic.Int32
}

func (h *countingRejectedHandler) HandleRejectedCommand(loopName string, reason string) {
	h.count.Add(1)
}

// quietConfig returns a fully defaulted config that does not write to stdout.
func quietConfig() *Config {
	cfg := DefaultConfig()
	cfg.Logger = NewNoOpLogger()
	cfg.OverrunHandler = &countingOverrunHandler{}
	cfg.PanicHandler = &countingPanicHandler{}
	cfg.RejectedCommandHandler = &countingRejectedHandler{}
	return cfg
}

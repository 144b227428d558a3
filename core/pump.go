package core

import (
	"context"
	"fmt"
	"time"
)

// ToolkitBinding is the capability the loop needs from a GUI toolkit. The
// loop never touches the toolkit directly; widgets, rendering and native
// event semantics stay on the other side of this interface, which also makes
// the loop testable with a fake binding.
type ToolkitBinding interface {
	// DrainPendingEvent processes at most one pending native UI event
	// without blocking and reports whether more events are pending.
	// Synchronous widget callbacks (the producers of commands) fire from
	// inside this call.
	DrainPendingEvent() (more bool, err error)

	// WindowAlive reports whether the main window still exists. Once it
	// returns false the pump exits normally.
	WindowAlive() bool
}

// EventPump repeatedly drains every currently pending toolkit event, checks
// window liveness, and yields briefly so siblings on the scheduler get to
// run. A destroyed window is the pump's one normal exit; a drain error is
// unexpected and propagates.
type EventPump struct {
	binding ToolkitBinding
	yield   time.Duration
	logger  Logger
	name    string
}

// NewEventPump creates a pump over the given binding.
func NewEventPump(binding ToolkitBinding, yield time.Duration, logger Logger, name string) *EventPump {
	return &EventPump{
		binding: binding,
		yield:   yield,
		logger:  logger,
		name:    name,
	}
}

// runLoop drives the pump until the window is destroyed (returns nil) or the
// context is cancelled (returns nil) or the binding fails (returns the error).
func (p *EventPump) runLoop(ctx context.Context) error {
	p.logger.Debug("event pump started", F("loop", p.name), F("yield", p.yield))

	for {
		// Drain every currently pending event before yielding so the UI
		// reflects all externally queued input.
		for {
			more, err := p.binding.DrainPendingEvent()
			if err != nil {
				return fmt.Errorf("drain pending event: %w", err)
			}
			if !more {
				break
			}
		}

		if !p.binding.WindowAlive() {
			p.logger.Info("window destroyed, event pump exiting", F("loop", p.name))
			return nil
		}

		select {
		case <-ctx.Done():
			p.logger.Debug("event pump cancelled", F("loop", p.name))
			return nil
		case <-time.After(p.yield):
		}
	}
}

package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrNilBinding is returned by NewLoop when no toolkit binding is given.
	ErrNilBinding = errors.New("asyncgui: toolkit binding is nil")

	// ErrAlreadyRunning is returned by Run when the loop is already running.
	ErrAlreadyRunning = errors.New("asyncgui: loop already running")
)

// UpdateHandle identifies one registration made by AddUpdateFunc.
// It allows precise removal even when the same func (or closures sharing a
// code pointer) is registered more than once.
type UpdateHandle interface {
	// Remove unregisters exactly this entry. Returns false if the entry was
	// already removed. Takes effect starting the next scheduling cycle.
	Remove() bool
}

type updateHandle struct {
	registry *UpdateRegistry
	id       uint64
}

func (h *updateHandle) Remove() bool {
	return h.registry.RemoveID(h.id)
}

// Loop bridges a blocking GUI toolkit's synchronous event loop with async
// background work. It owns three sibling loops:
//
//   - the Event Pump, draining pending toolkit events and watching window
//     liveness;
//   - the Update Scheduler, running registered update funcs every interval
//     with deadline and floor enforcement;
//   - the Command Dispatcher, executing queued commands strictly in
//     submission order.
//
// Run starts all three together and returns when all have stopped.
// Supervision is any-failure-cancels-all: an unrecovered error in one loop
// cancels the siblings and Run returns that error. The Event Pump's normal
// exit (window destroyed) also cancels the siblings, so Run returns nil
// after the window closes.
type Loop struct {
	binding ToolkitBinding
	cfg     Config

	registry   *UpdateRegistry
	queue      *CommandQueue
	history    *CycleHistory
	pump       *EventPump
	scheduler  *UpdateScheduler
	dispatcher *CommandDispatcher

	running atomic.Bool
}

// NewLoop composes a loop over the given toolkit binding. A nil cfg uses
// DefaultConfig; zero-valued fields are defaulted, negative durations are
// rejected.
func NewLoop(binding ToolkitBinding, cfg *Config) (*Loop, error) {
	if binding == nil {
		return nil, ErrNilBinding
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("asyncgui: invalid config: %w", err)
	}
	conf := cfg.normalized()

	registry := NewUpdateRegistry()
	queue := NewCommandQueue(conf.QueueCapacity)
	history := NewCycleHistory(conf.HistorySize)

	l := &Loop{
		binding:    binding,
		cfg:        conf,
		registry:   registry,
		queue:      queue,
		history:    history,
		pump:       NewEventPump(binding, conf.PumpYield, conf.Logger, conf.Name),
		scheduler:  NewUpdateScheduler(registry, conf.UpdateInterval, history, &conf),
		dispatcher: NewCommandDispatcher(queue, conf.DispatcherIdle, &conf),
	}
	return l, nil
}

// Name returns the configured loop name.
func (l *Loop) Name() string {
	return l.cfg.Name
}

// AddUpdateFunc registers fn to run every update interval, starting with the
// next scheduling cycle. Duplicates are permitted. The returned handle
// removes exactly this registration.
func (l *Loop) AddUpdateFunc(fn UpdateFunc) UpdateHandle {
	id := l.registry.Add(fn)
	return &updateHandle{registry: l.registry, id: id}
}

// RemoveUpdateFunc removes the first registration matching fn by identity,
// keeping the relative order of the others. Removing an unregistered func is
// a reported no-op: the return value is false and nothing else happens.
// Takes effect starting the next scheduling cycle.
func (l *Loop) RemoveUpdateFunc(fn UpdateFunc) bool {
	return l.registry.RemoveFunc(fn)
}

// Submit enqueues fn for FIFO execution on the Command Dispatcher and
// returns immediately.
func (l *Loop) Submit(fn CommandFunc) error {
	return l.dispatcher.Submit(fn)
}

// WrapCommand wraps an async command into a plain, non-suspending callback
// suitable for binding to a widget event handler. Invoking the callback
// enqueues fn onto the command queue and returns immediately; a rejection
// from a bounded queue goes to the RejectedCommandHandler.
func (l *Loop) WrapCommand(fn CommandFunc) func() {
	return func() {
		_ = l.Submit(fn)
	}
}

// Run starts the Event Pump, Update Scheduler, and Command Dispatcher
// concurrently and blocks until all three stop. It returns nil when the
// window is destroyed (the pump's exit cancels the siblings) or the parent
// ctx is cancelled, and the first loop error otherwise.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	runCtx, cancel := context.WithCancel(context.WithValue(ctx, loopKey, l))
	defer cancel()

	l.cfg.Logger.Info("loop starting", F("loop", l.cfg.Name),
		F("interval", l.cfg.UpdateInterval))

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	start := func(name string, run func(context.Context) error, cancelOnExit bool) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(runCtx); err != nil {
				select {
				case errCh <- fmt.Errorf("%s: %w", name, err):
				default:
				}
				cancel()
				return
			}
			if cancelOnExit {
				// Normal pump exit means the window is gone; shut the
				// siblings down instead of leaving them running forever.
				cancel()
			}
		}()
	}

	start("event pump", l.pump.runLoop, true)
	start("update scheduler", l.scheduler.runLoop, false)
	start("command dispatcher", l.dispatcher.runLoop, false)

	wg.Wait()

	select {
	case err := <-errCh:
		l.cfg.Logger.Error("loop stopped on error", F("loop", l.cfg.Name), F("error", err))
		return err
	default:
	}
	l.cfg.Logger.Info("loop stopped", F("loop", l.cfg.Name))
	return nil
}

// IsRunning reports whether Run is currently active.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Stats returns a snapshot of the loop's runtime state.
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Name:             l.cfg.Name,
		Running:          l.running.Load(),
		QueueDepth:       l.queue.Len(),
		RegistrySize:     l.registry.Len(),
		CyclesRun:        l.scheduler.CyclesRun(),
		Overruns:         l.scheduler.Overruns(),
		CommandsExecuted: l.dispatcher.CommandsExecuted(),
		CommandsFailed:   l.dispatcher.CommandsFailed(),
		CommandsRejected: l.dispatcher.CommandsRejected(),
	}
}

// History returns the retained cycle records, oldest first.
func (l *Loop) History() []CycleRecord {
	return l.history.Snapshot()
}

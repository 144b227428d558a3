package core

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// CommandDispatcher drains the command queue strictly one entry at a time,
// in submission order, running each command to completion before dequeuing
// the next. Commands never overlap and are never reordered.
//
// Submit is the producer side: it must be callable from a synchronous
// UI-callback context and returns immediately without blocking on execution.
//
// Failure policy is explicit (Config.CommandErrorMode): by default a command
// error or panic propagates out of the serve loop and, through the Loop's
// supervision, tears the whole loop down; CommandErrorIsolate reports and
// continues instead.
type CommandDispatcher struct {
	queue  *CommandQueue
	signal chan struct{}
	idle   time.Duration
	mode   CommandErrorMode
	name   string

	logger       Logger
	metrics      Metrics
	panicHandler PanicHandler
	rejected     RejectedCommandHandler

	executed    atomic.Uint64
	failed      atomic.Uint64
	rejectCount atomic.Uint64
}

// NewCommandDispatcher creates a dispatcher over the given queue.
func NewCommandDispatcher(queue *CommandQueue, idle time.Duration, cfg *Config) *CommandDispatcher {
	return &CommandDispatcher{
		queue:        queue,
		signal:       make(chan struct{}, 1),
		idle:         idle,
		mode:         cfg.CommandErrorMode,
		name:         cfg.Name,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		panicHandler: cfg.PanicHandler,
		rejected:     cfg.RejectedCommandHandler,
	}
}

// Submit appends cmd to the queue and returns immediately. Safe to call from
// a synchronous widget callback firing inside the Event Pump's drain step.
// Returns ErrQueueFull when a bounded queue is at capacity; the rejection is
// also reported through the RejectedCommandHandler and Metrics.
func (d *CommandDispatcher) Submit(cmd CommandFunc) error {
	if cmd == nil {
		return errors.New("asyncgui: nil command")
	}
	if err := d.queue.Push(cmd); err != nil {
		d.rejectCount.Add(1)
		d.rejected.HandleRejectedCommand(d.name, "queue full")
		d.metrics.RecordCommandRejected(d.name, "queue full")
		return err
	}
	d.metrics.RecordQueueDepth(d.name, d.queue.Len())

	// Wakeup hint so the serve loop usually picks the command up without
	// waiting out the idle delay. The queue already holds the command, so a
	// full signal channel is not an error.
	select {
	case d.signal <- struct{}{}:
	default:
	}
	return nil
}

// CommandsExecuted returns the number of commands run to completion.
func (d *CommandDispatcher) CommandsExecuted() uint64 {
	return d.executed.Load()
}

// CommandsFailed returns the number of commands that errored or panicked.
func (d *CommandDispatcher) CommandsFailed() uint64 {
	return d.failed.Load()
}

// CommandsRejected returns the number of rejected submissions.
func (d *CommandDispatcher) CommandsRejected() uint64 {
	return d.rejectCount.Load()
}

// runLoop serves queued commands until the context is cancelled. An empty
// queue suspends for the idle delay (or until a Submit wakeup) and rechecks.
func (d *CommandDispatcher) runLoop(ctx context.Context) error {
	d.logger.Debug("command dispatcher started", F("loop", d.name), F("idle", d.idle))

	for {
		cmd, ok := d.queue.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				d.logger.Debug("command dispatcher cancelled", F("loop", d.name))
				return nil
			case <-d.signal:
			case <-time.After(d.idle):
			}
			continue
		}

		d.metrics.RecordQueueDepth(d.name, d.queue.Len())

		err := d.execute(ctx, cmd)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				// The command was cut short by shutdown, not by its own fault.
				return nil
			}
			d.failed.Add(1)
			d.metrics.RecordCommandError(d.name)
			if d.mode == CommandErrorFatal {
				return fmt.Errorf("command failed: %w", err)
			}
			d.logger.Error("command failed", F("loop", d.name), F("error", err))
			continue
		}
		d.executed.Add(1)
	}
}

// execute runs one command to completion, converting a panic into an error.
func (d *CommandDispatcher) execute(ctx context.Context, cmd CommandFunc) (err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			d.metrics.RecordTaskPanic(d.name, rec)
			d.panicHandler.HandlePanic(ctx, d.name, "command", rec, debug.Stack())
			err = fmt.Errorf("command panic: %v", rec)
			return
		}
		if err == nil {
			d.metrics.RecordCommandExecuted(d.name, time.Since(start))
		}
	}()

	return cmd(ctx)
}

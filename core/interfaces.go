package core

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when an update func or a command panics during
// execution. This allows custom panic handling, logging, and recovery
// strategies.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The context from the panicked task
	// - loopName: The name of the loop where the panic occurred
	// - origin: Which loop component ran the task ("update" or "command")
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, loopName string, origin string, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler provides a basic panic handler that logs to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, loopName string, origin string, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Loop %s @ %s] Panic: %v\nStack trace:\n%s",
		loopName, origin, panicInfo, stackTrace)
}

// =============================================================================
// OverrunHandler: Interface for deadline-overrun reporting
// =============================================================================

// OverrunHandler is called once per scheduling cycle whose update funcs did
// not all complete within the configured update interval. The cycle is
// cancelled wholesale and the scheduler proceeds; an overrun is never fatal.
//
// The handler receives the configured interval, not which task overran.
type OverrunHandler interface {
	HandleOverrun(loopName string, interval time.Duration)
}

// DefaultOverrunHandler logs overruns to stdout.
type DefaultOverrunHandler struct{}

// HandleOverrun prints a warning identifying the configured interval.
func (h *DefaultOverrunHandler) HandleOverrun(loopName string, interval time.Duration) {
	fmt.Printf("[Loop %s] update funcs exceeded the allowed update interval of %v\n",
		loopName, interval)
}

// =============================================================================
// RejectedCommandHandler: Interface for handling rejected commands
// =============================================================================

// RejectedCommandHandler is called when a submitted command is rejected.
// This can happen when:
// - The command queue is bounded and full (backpressure)
// - The loop has been closed
//
// Implementations should be thread-safe as they may be called concurrently.
type RejectedCommandHandler interface {
	// HandleRejectedCommand is called when a command is rejected.
	//
	// Parameters:
	// - loopName: The name of the loop
	// - reason: Why the command was rejected (e.g., "queue full", "closed")
	HandleRejectedCommand(loopName string, reason string)
}

// DefaultRejectedCommandHandler provides a basic handler that logs rejected commands.
type DefaultRejectedCommandHandler struct{}

// HandleRejectedCommand logs the rejected command.
func (h *DefaultRejectedCommandHandler) HandleRejectedCommand(loopName string, reason string) {
	fmt.Printf("[Loop %s] Command rejected: %s\n", loopName, reason)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting loop execution metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// All methods are optional; implementations should handle nil receivers gracefully.
// Methods should be non-blocking and fast to avoid impacting loop execution performance.
type Metrics interface {
	// RecordCycleDuration records how long one update-scheduler cycle took,
	// including the interval floor.
	RecordCycleDuration(loopName string, duration time.Duration)

	// RecordOverrun records that a cycle exceeded the update interval.
	RecordOverrun(loopName string, interval time.Duration)

	// RecordCommandExecuted records a completed command and its duration.
	RecordCommandExecuted(loopName string, duration time.Duration)

	// RecordCommandError records a command that returned an error or panicked.
	RecordCommandError(loopName string)

	// RecordCommandRejected records that a submitted command was rejected.
	RecordCommandRejected(loopName string, reason string)

	// RecordQueueDepth records the current command queue depth.
	RecordQueueDepth(loopName string, depth int)

	// RecordTaskPanic records that an update func or command panicked.
	RecordTaskPanic(loopName string, panicInfo any)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordCycleDuration is a no-op.
func (m *NilMetrics) RecordCycleDuration(loopName string, duration time.Duration) {
}

// RecordOverrun is a no-op.
func (m *NilMetrics) RecordOverrun(loopName string, interval time.Duration) {
}

// RecordCommandExecuted is a no-op.
func (m *NilMetrics) RecordCommandExecuted(loopName string, duration time.Duration) {
}

// RecordCommandError is a no-op.
func (m *NilMetrics) RecordCommandError(loopName string) {
}

// RecordCommandRejected is a no-op.
func (m *NilMetrics) RecordCommandRejected(loopName string, reason string) {
}

// RecordQueueDepth is a no-op.
func (m *NilMetrics) RecordQueueDepth(loopName string, depth int) {
}

// RecordTaskPanic is a no-op.
func (m *NilMetrics) RecordTaskPanic(loopName string, panicInfo any) {
}

// =============================================================================
// Config: Configuration for Loop
// =============================================================================

// CommandErrorMode selects what the Command Dispatcher does when a command
// returns an error or panics.
type CommandErrorMode int

const (
	// CommandErrorFatal propagates the error out of the dispatcher loop.
	// Through the loop's any-failure-cancels-all supervision this tears down
	// the Event Pump and Update Scheduler as well, and Run returns the error.
	CommandErrorFatal CommandErrorMode = iota

	// CommandErrorIsolate reports the error through Logger and Metrics and
	// continues with the next queued command.
	CommandErrorIsolate
)

const (
	// DefaultUpdateInterval is the update-scheduler cycle interval.
	DefaultUpdateInterval = 1000 * time.Millisecond

	// DefaultPumpYield is how long the event pump yields after a full drain.
	DefaultPumpYield = 10 * time.Millisecond

	// DefaultDispatcherIdle is how long the dispatcher waits before
	// rechecking an empty command queue.
	DefaultDispatcherIdle = 100 * time.Millisecond
)

// Config holds configuration options for a Loop.
// All handlers are optional; if not provided, default implementations will be used.
type Config struct {
	// Name identifies the loop in logs and metrics. Defaults to "asyncgui".
	Name string

	// UpdateInterval is the period of the Update Scheduler. It is both the
	// per-cycle deadline and the per-cycle floor. Must be positive.
	// Defaults to DefaultUpdateInterval.
	UpdateInterval time.Duration

	// PumpYield is the Event Pump's delay after draining all pending events.
	// Defaults to DefaultPumpYield.
	PumpYield time.Duration

	// DispatcherIdle is the Command Dispatcher's empty-queue recheck delay.
	// Defaults to DefaultDispatcherIdle.
	DispatcherIdle time.Duration

	// QueueCapacity bounds the command queue. 0 means unbounded, which is
	// the compatibility default; a bounded queue rejects commands through
	// RejectedCommandHandler when full.
	QueueCapacity int

	// CommandErrorMode selects the dispatcher failure policy.
	// Defaults to CommandErrorFatal.
	CommandErrorMode CommandErrorMode

	// HistorySize bounds the retained cycle history. Defaults to 64.
	HistorySize int

	// Logger receives structured loop logs. Defaults to DefaultLogger.
	Logger Logger

	// Metrics is called to record loop metrics. Defaults to NilMetrics.
	Metrics Metrics

	// OverrunHandler is called once per overrun cycle. Defaults to DefaultOverrunHandler.
	OverrunHandler OverrunHandler

	// PanicHandler is called when a task panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// RejectedCommandHandler is called when a command is rejected.
	// Defaults to DefaultRejectedCommandHandler.
	RejectedCommandHandler RejectedCommandHandler
}

// DefaultConfig returns a config with default intervals and handlers.
func DefaultConfig() *Config {
	return &Config{
		Name:                   "asyncgui",
		UpdateInterval:         DefaultUpdateInterval,
		PumpYield:              DefaultPumpYield,
		DispatcherIdle:         DefaultDispatcherIdle,
		HistorySize:            defaultHistorySize,
		Logger:                 &DefaultLogger{},
		Metrics:                &NilMetrics{},
		OverrunHandler:         &DefaultOverrunHandler{},
		PanicHandler:           &DefaultPanicHandler{},
		RejectedCommandHandler: &DefaultRejectedCommandHandler{},
	}
}

// normalized returns a copy with zero values replaced by defaults.
// Negative durations are caught by NewLoop before this is applied.
func (c *Config) normalized() Config {
	out := *c
	if out.Name == "" {
		out.Name = "asyncgui"
	}
	if out.UpdateInterval == 0 {
		out.UpdateInterval = DefaultUpdateInterval
	}
	if out.PumpYield == 0 {
		out.PumpYield = DefaultPumpYield
	}
	if out.DispatcherIdle == 0 {
		out.DispatcherIdle = DefaultDispatcherIdle
	}
	if out.HistorySize == 0 {
		out.HistorySize = defaultHistorySize
	}
	if out.Logger == nil {
		out.Logger = &DefaultLogger{}
	}
	if out.Metrics == nil {
		out.Metrics = &NilMetrics{}
	}
	if out.OverrunHandler == nil {
		out.OverrunHandler = &DefaultOverrunHandler{}
	}
	if out.PanicHandler == nil {
		out.PanicHandler = &DefaultPanicHandler{}
	}
	if out.RejectedCommandHandler == nil {
		out.RejectedCommandHandler = &DefaultRejectedCommandHandler{}
	}
	return out
}

// validate reports configuration values that cannot be defaulted away.
func (c *Config) validate() error {
	if c.UpdateInterval < 0 {
		return fmt.Errorf("update interval must be positive, got %v", c.UpdateInterval)
	}
	if c.PumpYield < 0 {
		return fmt.Errorf("pump yield must not be negative, got %v", c.PumpYield)
	}
	if c.DispatcherIdle < 0 {
		return fmt.Errorf("dispatcher idle must not be negative, got %v", c.DispatcherIdle)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("queue capacity must not be negative, got %d", c.QueueCapacity)
	}
	switch c.CommandErrorMode {
	case CommandErrorFatal, CommandErrorIsolate:
	default:
		return fmt.Errorf("unknown command error mode %d", c.CommandErrorMode)
	}
	return nil
}

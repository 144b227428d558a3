package core

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// UpdateScheduler runs the registered update funcs once per interval. Every
// cycle takes a snapshot of the registry, launches all entries concurrently,
// and holds the cycle to two competing time bounds:
//
//   - deadline: funcs still running when the interval expires are cancelled
//     through their context, and exactly one overrun is reported for the
//     cycle. The scheduler proceeds; an overrun is never fatal.
//   - floor: a cycle that finishes early still waits out the remainder of
//     the interval, so pacing is periodic rather than greedy. An empty
//     registry idles one full interval per cycle.
//
// Cancellation on overrun is coarse: the whole cycle's context expires, not
// a targeted cancellation of the slow func alone.
//
// A func that returns a non-context error or panics is isolated: it is
// reported through Logger, PanicHandler and Metrics and does not abort
// its cycle siblings or the scheduler.
type UpdateScheduler struct {
	registry *UpdateRegistry
	interval time.Duration
	history  *CycleHistory
	name     string

	logger       Logger
	metrics      Metrics
	overrunH     OverrunHandler
	panicHandler PanicHandler

	cycles   atomic.Uint64
	overruns atomic.Uint64
}

// NewUpdateScheduler creates a scheduler over the given registry.
func NewUpdateScheduler(registry *UpdateRegistry, interval time.Duration, history *CycleHistory, cfg *Config) *UpdateScheduler {
	return &UpdateScheduler{
		registry:     registry,
		interval:     interval,
		history:      history,
		name:         cfg.Name,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		overrunH:     cfg.OverrunHandler,
		panicHandler: cfg.PanicHandler,
	}
}

// CyclesRun returns the number of completed cycles.
func (s *UpdateScheduler) CyclesRun() uint64 {
	return s.cycles.Load()
}

// Overruns returns the number of cycles that exceeded the interval.
func (s *UpdateScheduler) Overruns() uint64 {
	return s.overruns.Load()
}

// runLoop drives cycles until the context is cancelled. Cycle N+1 never
// starts before cycle N's deadline or floor resolves.
func (s *UpdateScheduler) runLoop(ctx context.Context) error {
	s.logger.Debug("update scheduler started", F("loop", s.name), F("interval", s.interval))

	for {
		start := time.Now()
		snapshot := s.registry.Snapshot()
		floor := time.NewTimer(s.interval)

		var overrun bool
		var errCount int
		if len(snapshot) > 0 {
			overrun, errCount = s.runCycle(ctx, snapshot)
		}

		if overrun {
			s.overruns.Add(1)
			s.overrunH.HandleOverrun(s.name, s.interval)
			s.metrics.RecordOverrun(s.name, s.interval)
			s.logger.Warn("update funcs exceeded the update interval",
				F("loop", s.name), F("interval", s.interval), F("tasks", len(snapshot)))
		}

		select {
		case <-ctx.Done():
			floor.Stop()
			s.logger.Debug("update scheduler cancelled", F("loop", s.name))
			return nil
		case <-floor.C:
		}

		s.cycles.Add(1)
		duration := time.Since(start)
		s.metrics.RecordCycleDuration(s.name, duration)
		s.history.Append(CycleRecord{
			StartedAt: start,
			Duration:  duration,
			Tasks:     len(snapshot),
			Overrun:   overrun,
			Errors:    errCount,
		})
	}
}

// runCycle runs one snapshot concurrently and waits for completion or the
// interval deadline, whichever comes first. On deadline it does not wait for
// the stragglers; their context is already cancelled.
func (s *UpdateScheduler) runCycle(ctx context.Context, funcs []UpdateFunc) (overrun bool, errCount int) {
	cycleCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	var failed atomic.Int32
	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(len(funcs))
	for _, fn := range funcs {
		fn := fn
		go func() {
			defer wg.Done()
			s.runOne(cycleCtx, fn, &failed)
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-cycleCtx.Done():
		// Deadline expiry is an overrun; parent cancellation is shutdown.
		if ctx.Err() == nil {
			overrun = true
		}
	}
	return overrun, int(failed.Load())
}

// runOne executes a single update func with panic recovery and per-task
// error isolation.
func (s *UpdateScheduler) runOne(ctx context.Context, fn UpdateFunc, failed *atomic.Int32) {
	defer func() {
		if rec := recover(); rec != nil {
			failed.Add(1)
			s.metrics.RecordTaskPanic(s.name, rec)
			s.panicHandler.HandlePanic(ctx, s.name, "update", rec, debug.Stack())
		}
	}()

	if err := fn(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Cut off by the cycle deadline or shutdown; the cycle-level
			// overrun report covers it.
			return
		}
		failed.Add(1)
		s.logger.Error("update func failed", F("loop", s.name), F("error", err))
	}
}

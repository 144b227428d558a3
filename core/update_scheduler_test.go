package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func newTestScheduler(registry *UpdateRegistry, interval time.Duration, cfg *Config) *UpdateScheduler {
	if cfg == nil {
		cfg = quietConfig()
	}
	return NewUpdateScheduler(registry, interval, NewCycleHistory(16), cfg)
}

// TestUpdateScheduler_FloorProperty verifies periodic, non-greedy pacing
// Given: One fast update func and an 60ms interval
// When: The scheduler runs for 250ms
// Then: The func runs roughly once per interval, never faster
func TestUpdateScheduler_FloorProperty(t *testing.T) {
	// Arrange
	registry := NewUpdateRegistry()
	var count atomic.Int32
	registry.Add(func(ctx context.Context) error {
		count.Add(1)
		return nil
	})
	sched := newTestScheduler(registry, 60*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// Act
	go func() { done <- sched.runLoop(ctx) }()
	time.Sleep(250 * time.Millisecond)
	cancel()
	<-done

	// Assert - at most ceil(250/60)+1 executions; greedy pacing would be far more
	got := count.Load()
	if got < 2 || got > 5 {
		t.Errorf("executions = %d in 250ms at 60ms interval, want 2..5", got)
	}
}

// TestUpdateScheduler_Overrun verifies the deadline and the soft failure
// Given: An 80ms interval and one func sleeping 200ms (ignoring its ctx)
// When: The scheduler runs for ~4 intervals
// Then: One overrun is reported per cycle, cycles stay ≈ interval long, and
// the scheduler keeps running
func TestUpdateScheduler_Overrun(t *testing.T) {
	// Arrange
	registry := NewUpdateRegistry()
	var count atomic.Int32
	registry.Add(func(ctx context.Context) error {
		count.Add(1)
		time.Sleep(200 * time.Millisecond) // deliberately ignores ctx
		return nil
	})
	cfg := quietConfig()
	overruns := cfg.OverrunHandler.(*countingOverrunHandler)
	sched := newTestScheduler(registry, 80*time.Millisecond, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// Act
	go func() { done <- sched.runLoop(ctx) }()
	time.Sleep(330 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("runLoop() error = %v, want nil", err)
	}

	// Assert - cycle duration is paced by the interval, not the slow func:
	// the func was invoked roughly every 80ms, not every 200ms
	if got := count.Load(); got < 3 {
		t.Errorf("invocations = %d, want >= 3 (cycles must not wait for the slow func)", got)
	}
	if got := overruns.count.Load(); got < 2 {
		t.Errorf("overrun reports = %d, want >= 2", got)
	}
	if sched.Overruns() != uint64(overruns.count.Load()) {
		t.Errorf("Overruns() = %d, handler saw %d", sched.Overruns(), overruns.count.Load())
	}
}

// TestUpdateScheduler_SnapshotPerCycle verifies mid-cycle mutation deferral
// Given: Func A whose first execution registers func B
// When: The cycle A runs in completes and the next cycle starts
// Then: B is absent from A's cycle and present from the next one
func TestUpdateScheduler_SnapshotPerCycle(t *testing.T) {
	// Arrange
	registry := NewUpdateRegistry()
	var aRuns, bRuns atomic.Int32
	var added atomic.Bool

	registry.Add(func(ctx context.Context) error {
		aRuns.Add(1)
		if added.CompareAndSwap(false, true) {
			registry.Add(func(ctx context.Context) error {
				bRuns.Add(1)
				return nil
			})
			// B must not run in this same cycle even though the cycle has
			// time left.
			time.Sleep(10 * time.Millisecond)
			if bRuns.Load() != 0 {
				t.Error("B ran during the cycle that registered it")
			}
		}
		return nil
	})
	sched := newTestScheduler(registry, 50*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// Act
	go func() { done <- sched.runLoop(ctx) }()
	time.Sleep(180 * time.Millisecond)
	cancel()
	<-done

	// Assert
	if aRuns.Load() < 2 {
		t.Errorf("A ran %d times, want >= 2", aRuns.Load())
	}
	if bRuns.Load() < 1 {
		t.Errorf("B ran %d times, want >= 1 (included from the next cycle)", bRuns.Load())
	}
}

// TestUpdateScheduler_EmptyRegistryIdles verifies the idle tick
// Given: An empty registry and a 40ms interval
// When: The scheduler runs for 150ms
// Then: Cycles still advance once per interval and nothing is reported
func TestUpdateScheduler_EmptyRegistryIdles(t *testing.T) {
	registry := NewUpdateRegistry()
	cfg := quietConfig()
	sched := newTestScheduler(registry, 40*time.Millisecond, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.runLoop(ctx) }()
	time.Sleep(150 * time.Millisecond)
	cancel()
	<-done

	if got := sched.CyclesRun(); got < 2 || got > 5 {
		t.Errorf("CyclesRun() = %d, want 2..5", got)
	}
	if got := cfg.OverrunHandler.(*countingOverrunHandler).count.Load(); got != 0 {
		t.Errorf("overrun reports = %d for empty registry, want 0", got)
	}
}

// TestUpdateScheduler_ErrorIsolation verifies per-task failure isolation
// Given: One func that always errors and one that counts
// When: Several cycles run
// Then: The counting func keeps running, the scheduler stays alive, and no
// overrun is reported for plain errors
func TestUpdateScheduler_ErrorIsolation(t *testing.T) {
	// Arrange
	registry := NewUpdateRegistry()
	var count atomic.Int32
	registry.Add(func(ctx context.Context) error {
		return errors.New("update failed")
	})
	registry.Add(func(ctx context.Context) error {
		count.Add(1)
		return nil
	})
	cfg := quietConfig()
	sched := newTestScheduler(registry, 40*time.Millisecond, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// Act
	go func() { done <- sched.runLoop(ctx) }()
	time.Sleep(150 * time.Millisecond)
	cancel()

	// Assert
	if err := <-done; err != nil {
		t.Fatalf("runLoop() error = %v, want nil (errors are isolated)", err)
	}
	if count.Load() < 2 {
		t.Errorf("healthy func ran %d times, want >= 2", count.Load())
	}
	if got := cfg.OverrunHandler.(*countingOverrunHandler).count.Load(); got != 0 {
		t.Errorf("overrun reports = %d, want 0 (an error is not an overrun)", got)
	}
}

// TestUpdateScheduler_PanicIsolation verifies panic recovery per task
// Given: One func that panics every cycle and one that counts
// When: Several cycles run
// Then: The panic handler fires, siblings keep running, nothing crashes
func TestUpdateScheduler_PanicIsolation(t *testing.T) {
	// Arrange
	registry := NewUpdateRegistry()
	var count atomic.Int32
	registry.Add(func(ctx context.Context) error {
		panic("update func exploded")
	})
	registry.Add(func(ctx context.Context) error {
		count.Add(1)
		return nil
	})
	cfg := quietConfig()
	panics := cfg.PanicHandler.(*countingPanicHandler)
	sched := newTestScheduler(registry, 40*time.Millisecond, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// Act
	go func() { done <- sched.runLoop(ctx) }()
	time.Sleep(150 * time.Millisecond)
	cancel()
	<-done

	// Assert
	if panics.count.Load() < 2 {
		t.Errorf("panic handler fired %d times, want >= 2", panics.count.Load())
	}
	if count.Load() < 2 {
		t.Errorf("healthy func ran %d times, want >= 2", count.Load())
	}
}

// TestUpdateScheduler_CancelDuringCycle verifies shutdown is not an overrun
// Given: A func blocking on its ctx and a long interval
// When: The parent context is cancelled mid-cycle
// Then: runLoop returns nil promptly and no overrun is reported
func TestUpdateScheduler_CancelDuringCycle(t *testing.T) {
	// Arrange
	registry := NewUpdateRegistry()
	registry.Add(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cfg := quietConfig()
	sched := newTestScheduler(registry, time.Second, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.runLoop(ctx) }()
	time.Sleep(30 * time.Millisecond)

	// Act
	cancel()

	// Assert
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runLoop() error = %v, want nil", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("scheduler did not stop after cancellation")
	}
	if got := cfg.OverrunHandler.(*countingOverrunHandler).count.Load(); got != 0 {
		t.Errorf("overrun reports = %d on shutdown, want 0", got)
	}
}

// TestUpdateScheduler_HistoryRecorded verifies cycle records
// Given: A scheduler with one fast func
// When: A few cycles complete
// Then: History holds records with the snapshot size and no overrun flag
func TestUpdateScheduler_HistoryRecorded(t *testing.T) {
	// Arrange
	registry := NewUpdateRegistry()
	registry.Add(func(ctx context.Context) error { return nil })
	history := NewCycleHistory(16)
	sched := NewUpdateScheduler(registry, 40*time.Millisecond, history, quietConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.runLoop(ctx) }()
	time.Sleep(150 * time.Millisecond)
	cancel()
	<-done

	// Assert
	records := history.Snapshot()
	if len(records) < 2 {
		t.Fatalf("history len = %d, want >= 2", len(records))
	}
	for i, rec := range records {
		if rec.Tasks != 1 {
			t.Errorf("records[%d].Tasks = %d, want 1", i, rec.Tasks)
		}
		if rec.Overrun {
			t.Errorf("records[%d].Overrun = true, want false", i)
		}
		if rec.Duration < 35*time.Millisecond {
			t.Errorf("records[%d].Duration = %v, shorter than the floor", i, rec.Duration)
		}
	}
}

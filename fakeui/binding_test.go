package fakeui

import (
	"sync"
	"testing"
)

// TestBinding_DrainOrder verifies events are drained oldest first
func TestBinding_DrainOrder(t *testing.T) {
	b := New()
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		b.PostEvent(func() { got = append(got, i) })
	}

	for b.Pending() > 0 {
		if _, err := b.DrainPendingEvent(); err != nil {
			t.Fatalf("DrainPendingEvent() error = %v", err)
		}
	}

	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("drain order = %v, want [0 1 2]", got)
	}
	if b.Drained() != 3 {
		t.Errorf("Drained() = %d, want 3", b.Drained())
	}
}

// TestBinding_MoreFlag verifies the more-events report
func TestBinding_MoreFlag(t *testing.T) {
	b := New()
	b.PostEvent(func() {})
	b.PostEvent(func() {})

	more, err := b.DrainPendingEvent()
	if err != nil || !more {
		t.Errorf("first drain = (%v, %v), want (true, nil)", more, err)
	}
	more, err = b.DrainPendingEvent()
	if err != nil || more {
		t.Errorf("second drain = (%v, %v), want (false, nil)", more, err)
	}
	more, err = b.DrainPendingEvent()
	if err != nil || more {
		t.Errorf("empty drain = (%v, %v), want (false, nil)", more, err)
	}
}

// TestBinding_ReentrantPost verifies a callback may post new events
func TestBinding_ReentrantPost(t *testing.T) {
	b := New()
	b.PostEvent(func() {
		b.PostEvent(func() {})
	})

	more, err := b.DrainPendingEvent()

	if err != nil {
		t.Fatalf("DrainPendingEvent() error = %v", err)
	}
	if !more {
		t.Error("more = false, want true after reentrant post")
	}
	if b.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", b.Pending())
	}
}

// TestBinding_CloseWindow verifies liveness flips exactly once
func TestBinding_CloseWindow(t *testing.T) {
	b := New()
	if !b.WindowAlive() {
		t.Fatal("WindowAlive() = false for a new binding")
	}

	b.CloseWindow()

	if b.WindowAlive() {
		t.Error("WindowAlive() = true after CloseWindow")
	}
}

// TestBinding_ConcurrentPost verifies PostEvent is goroutine safe
func TestBinding_ConcurrentPost(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.PostEvent(func() {})
			}
		}()
	}
	wg.Wait()

	if b.Pending() != 400 {
		t.Errorf("Pending() = %d, want 400", b.Pending())
	}
}

package schedule

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestFiresOnceAfterDeadline(t *testing.T) {
	s := NewScheduler(nil)
	var fired atomic.Int32

	s.Arm("u1", time.Now().Add(20*time.Millisecond), func() { fired.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("fired %d times, want 1", got)
	}
	if s.Pending("u1") {
		t.Fatalf("task should no longer be pending after firing")
	}
}

func TestCancelPreventsFiring(t *testing.T) {
	s := NewScheduler(nil)
	var fired atomic.Int32

	s.Arm("u1", time.Now().Add(30*time.Millisecond), func() { fired.Add(1) })
	if !s.Cancel("u1") {
		t.Fatalf("Cancel() should report a pending task")
	}

	time.Sleep(80 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("cancelled task fired %d times", got)
	}
}

func TestCancelWithoutTaskIsNoop(t *testing.T) {
	s := NewScheduler(nil)
	if s.Cancel("nobody") {
		t.Fatalf("Cancel() on an unarmed user should report false")
	}
}

func TestRearmReplacesPreviousTask(t *testing.T) {
	s := NewScheduler(nil)
	var first, second atomic.Int32

	s.Arm("u1", time.Now().Add(30*time.Millisecond), func() { first.Add(1) })
	s.Arm("u1", time.Now().Add(50*time.Millisecond), func() { second.Add(1) })

	time.Sleep(120 * time.Millisecond)
	if got := first.Load(); got != 0 {
		t.Fatalf("replaced task fired %d times", got)
	}
	if got := second.Load(); got != 1 {
		t.Fatalf("replacement fired %d times, want 1", got)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d after firing, want 0", s.Len())
	}
}

func TestPastDeadlineFiresImmediately(t *testing.T) {
	s := NewScheduler(nil)
	done := make(chan struct{})
	s.Arm("u1", time.Now().Add(-time.Minute), func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("past-deadline task did not fire promptly")
	}
}

func TestFiringRoutesThroughSubmit(t *testing.T) {
	routed := make(chan string, 1)
	s := NewScheduler(func(userID string, fn func()) {
		routed <- userID
		fn()
	})
	fired := make(chan struct{})
	s.Arm("u1", time.Now().Add(10*time.Millisecond), func() { close(fired) })

	select {
	case got := <-routed:
		if got != "u1" {
			t.Fatalf("routed user = %q, want u1", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("firing was not routed through submit")
	}
	<-fired
}

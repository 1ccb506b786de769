package dispatch

import (
	"sync"
	"testing"
)

func TestSubmitPreservesPerUserOrder(t *testing.T) {
	d := NewDispatcher()
	var mu sync.Mutex
	var got []int

	for i := 0; i < 100; i++ {
		i := i
		d.Submit("u1", func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	d.Close()

	if len(got) != 100 {
		t.Fatalf("ran %d tasks, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task order broken at %d: got %d", i, v)
		}
	}
}

func TestSubmitAfterCloseIsDropped(t *testing.T) {
	d := NewDispatcher()
	d.Close()

	ran := false
	d.Submit("u1", func() { ran = true })
	if ran {
		t.Fatalf("work submitted after Close must not run")
	}
}

func TestCloseWaitsForInFlightWork(t *testing.T) {
	d := NewDispatcher()
	done := false
	d.Submit("u1", func() { done = true })
	d.Close()
	if !done {
		t.Fatalf("Close should wait for queued work")
	}
}

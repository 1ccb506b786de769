package schedule

import (
	"sync"
	"time"
)

// Scheduler fires one cancellable retraction task per operator, no earlier
// than the armed deadline and never more than once. Re-arming for the same
// operator cancels the previous task first, so two retractions can never
// target the same slot.
//
// Firings are handed to submit rather than run on the timer goroutine, so
// callers can route them through the same per-user ordering discipline used
// for inbound events.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	submit func(userID string, fn func())
}

func NewScheduler(submit func(userID string, fn func())) *Scheduler {
	if submit == nil {
		submit = func(_ string, fn func()) { fn() }
	}
	return &Scheduler{
		timers: make(map[string]*time.Timer),
		submit: submit,
	}
}

// Arm schedules fire to run at (or after) deadline. An already-pending task
// for the same operator is cancelled and replaced.
func (s *Scheduler) Arm(userID string, deadline time.Time, fire func()) {
	delay := time.Until(deadline)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.timers[userID]; ok {
		prev.Stop()
		delete(s.timers, userID)
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.consume(userID, t, fire)
	})
	s.timers[userID] = t
}

// consume claims the firing. A timer that was cancelled or replaced between
// expiry and this call finds a different (or no) entry and does nothing.
func (s *Scheduler) consume(userID string, t *time.Timer, fire func()) {
	s.mu.Lock()
	current, ok := s.timers[userID]
	if !ok || current != t {
		s.mu.Unlock()
		return
	}
	delete(s.timers, userID)
	s.mu.Unlock()

	s.submit(userID, fire)
}

// Cancel prevents a still-pending task from firing. Cancelling a task that
// already fired (or was never armed) is a no-op.
func (s *Scheduler) Cancel(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[userID]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, userID)
	return true
}

// Pending reports whether a task is still armed for the operator.
func (s *Scheduler) Pending(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[userID]
	return ok
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

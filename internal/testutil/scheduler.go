package testutil

import (
	"sync"
	"time"
)

// ManualScheduler is a fake timer source for tests.
//
// Time only moves when Advance is called; due callbacks then run
// synchronously on the caller's goroutine, ordered by due time and then by
// scheduling order. Its AfterFunc matches the scheduler interface the hat
// reload controller expects.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

// NewManualScheduler creates a scheduler at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc schedules fn to run d after the current fake time. The returned
// stop function reports whether it prevented the call; stopping a fired or
// stopped timer is a no-op that returns false.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) (stop func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{at: s.now + d, seq: s.seq, fn: fn}
	s.seq++
	s.timers = append(s.timers, t)

	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

// Advance moves fake time forward by d, running every callback that comes
// due. Returns the number of callbacks run.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	fired := 0
	for {
		s.mu.Lock()
		next := s.nextDue(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return fired
		}
		s.now = next.at
		next.fired = true
		s.mu.Unlock()

		next.fn()
		fired++
	}
}

func (s *ManualScheduler) nextDue(target time.Duration) *manualTimer {
	var best *manualTimer
	for _, t := range s.timers {
		if t.stopped || t.fired || t.at > target {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// Pending returns the number of scheduled callbacks not yet run or stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Now returns the fake time elapsed since creation.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

package engine

import "sync/atomic"

// Clock is the monotonic logical clock that stamps utterances.
//
// History is ordered by seq, never by wall time, so two runs of the same
// scenario produce identical logs.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though only the Run loop calls Next in practice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume after the last seq already in the history.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

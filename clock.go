package libparc

import "time"

// Clock is the scheduler's time source: a monotonic nanosecond clock that
// also knows how to translate one of its own readings back to wall-clock
// time. It is deliberately a narrow interface (spec component "Time
// source") so tests can substitute a controllable implementation;
// production code uses systemClock, which rides on time.Time's built-in
// monotonic reading.
type Clock interface {
	// NowNanos returns nanoseconds elapsed since Epoch(). Only differences
	// between two calls are meaningful for scheduling purposes, but callers
	// that need a human-facing timestamp can add a NowNanos reading to
	// Epoch().
	NowNanos() int64

	// Epoch returns the wall-clock instant this Clock's nanosecond
	// readings are relative to, i.e. the instant at which NowNanos() would
	// have returned 0.
	Epoch() time.Time
}

type systemClock struct {
	epoch time.Time
}

// NewSystemClock returns a Clock anchored to the instant it was created.
func NewSystemClock() Clock {
	return &systemClock{epoch: time.Now()}
}

func (c *systemClock) NowNanos() int64 {
	return int64(time.Since(c.epoch))
}

func (c *systemClock) Epoch() time.Time {
	return c.epoch
}

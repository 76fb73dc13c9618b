// Package libparc is a delayed/periodic task scheduler backed by a bounded
// worker pool, in the spirit of java.util.concurrent's
// ScheduledThreadPoolExecutor. A caller submits callable work with either an
// immediate dispatch request, a one-shot delay, or a periodic schedule
// (fixed-rate or fixed-delay); the scheduler guarantees each task becomes
// eligible at a specific monotonic instant and, once eligible, is handed to
// one of a fixed set of worker goroutines.
//
// This package is a Go rework of PARC's parcScheduledThreadPool, itself a C
// port of java.util.concurrent's scheduled executor contract. The object
// framework (reference counting, Display/JSON/Equals boilerplate), the
// general-purpose container library, and the cryptographic/wall-clock
// collaborators of the original are out of scope here; Go's garbage
// collector and standard library already own those concerns.
package libparc

import (
	"fmt"
	"math"
	"time"
)

// Timeout is an optional nanosecond duration. The zero value is Immediate.
// Never represents an infinite wait.
type Timeout struct {
	ns    int64
	never bool
}

// Never is a Timeout representing an unbounded wait.
func Never() Timeout {
	return Timeout{never: true}
}

// Immediate is a Timeout representing a zero-length wait: a single,
// non-blocking check.
func Immediate() Timeout {
	return Timeout{}
}

// FromDuration converts a time.Duration to a finite Timeout. Negative
// durations are clamped to Immediate.
func FromDuration(d time.Duration) Timeout {
	if d <= 0 {
		return Immediate()
	}
	return Timeout{ns: int64(d)}
}

// IsNever reports whether the timeout represents an infinite wait.
func (t Timeout) IsNever() bool {
	return t.never
}

// IsImmediate reports whether the timeout is exactly zero.
func (t Timeout) IsImmediate() bool {
	return !t.never && t.ns == 0
}

// InNanoseconds returns the timeout's duration in nanoseconds, or
// math.MaxUint64 if the timeout is Never.
func (t Timeout) InNanoseconds() uint64 {
	if t.never {
		return math.MaxUint64
	}
	return uint64(t.ns)
}

// Duration converts the Timeout to a time.Duration. Never is reported as
// the largest representable duration.
func (t Timeout) Duration() time.Duration {
	if t.never {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(t.ns)
}

// Equals reports whether two Timeout values are the same: both Never, or
// both finite with identical durations.
func (t Timeout) Equals(other Timeout) bool {
	if t.never || other.never {
		return t.never == other.never
	}
	return t.ns == other.ns
}

func (t Timeout) String() string {
	if t.never {
		return "Timeout{Never}"
	}
	return fmt.Sprintf("Timeout{%s}", time.Duration(t.ns))
}

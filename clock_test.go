// Tests for clock.go

package libparc

import "time"

// manualClock is a fully controllable Clock for deterministic tests:
// NowNanos only advances when the test calls Advance, and Epoch is fixed at
// construction, so wall-clock conversions are predictable and independent
// of real elapsed time.
type manualClock struct {
	epoch time.Time
	nowNs int64
}

func newManualClock(epoch time.Time) *manualClock {
	return &manualClock{epoch: epoch}
}

func (c *manualClock) NowNanos() int64 { return c.nowNs }

func (c *manualClock) Epoch() time.Time { return c.epoch }

func (c *manualClock) Advance(d time.Duration) { c.nowNs += int64(d) }

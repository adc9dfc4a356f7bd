package clock

import (
	"context"
	"time"
)

// syncEpoch is the earliest wall time we accept as "set". A device that boots
// without a time source reports something near the Unix epoch.
var syncEpoch = time.Unix(1_000_000_000, 0)

// Clock provides monotonic elapsed time for interval timing and wall time for
// interpreting upstream timestamps.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time
	// Monotonic returns the time elapsed since the clock was created. It is
	// unaffected by wall-clock steps.
	Monotonic() time.Duration
	// Synced reports whether the wall clock looks trustworthy.
	Synced() bool
}

// System is the Clock backed by the host clock.
type System struct {
	start time.Time
}

// NewSystem creates a System clock whose monotonic origin is now.
func NewSystem() *System {
	return &System{start: time.Now()}
}

func (s *System) Now() time.Time { return time.Now() }

// Monotonic relies on the monotonic reading carried by time.Now.
func (s *System) Monotonic() time.Duration { return time.Since(s.start) }

func (s *System) Synced() bool { return time.Now().After(syncEpoch) }

// WaitForSync polls c until it reports a synced wall clock, giving up after
// attempts polls spaced by interval. It returns the final sync state; callers
// continue in degraded mode on false.
func WaitForSync(ctx context.Context, c Clock, attempts int, interval time.Duration) bool {
	for i := 0; i < attempts; i++ {
		if c.Synced() {
			return true
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return c.Synced()
		case <-timer.C:
		}
	}
	return c.Synced()
}

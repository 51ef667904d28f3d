package lifecycle

import "time"

// Clock supplies the timestamp every window comparison and every "-At" field
// uses. Transitions never trust caller-supplied time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock.
type SystemClock struct{}

// Now returns the current time truncated to seconds, matching the resolution
// window arithmetic is specified in.
func (SystemClock) Now() time.Time {
	return time.Now().Truncate(time.Second)
}

// FixedClock is a settable clock for tests and replay.
type FixedClock struct {
	T time.Time
}

func (f *FixedClock) Now() time.Time { return f.T }

// Advance moves the clock forward by d.
func (f *FixedClock) Advance(d time.Duration) { f.T = f.T.Add(d) }

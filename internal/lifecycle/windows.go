package lifecycle

import "time"

// windowElapsed reports whether a time window starting at from has run out by
// now. The comparison is inclusive: a record exactly at the boundary counts
// as stale. Windows are configured in seconds on the tier.
func windowElapsed(now, from time.Time, windowSeconds int64) bool {
	return !now.Before(from.Add(windowDuration(windowSeconds)))
}

func windowDuration(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}

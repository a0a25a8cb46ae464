package repository

import (
	"time"
)

// UpdateCheckNeeded reports whether a repository's manifest should be
// re-fetched. known is false when no valid last-check timestamp exists, which
// always needs a check (fail open: prefer an extra check over silently never
// checking). Elapsed time exactly equal to the interval counts as needing one.
func UpdateCheckNeeded(lastCheck time.Time, known bool, interval time.Duration) bool {
	return updateCheckNeededAt(lastCheck, known, interval, time.Now())
}

func updateCheckNeededAt(lastCheck time.Time, known bool, interval time.Duration, now time.Time) bool {
	if !known {
		return true
	}
	return now.Sub(lastCheck) >= interval
}

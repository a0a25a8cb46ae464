package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUpdateCheckNeeded(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	interval := 24 * time.Hour

	tc := []struct {
		name      string
		lastCheck time.Time
		known     bool
		expected  bool
	}{
		{
			name:     "never checked",
			known:    false,
			expected: true,
		},
		{
			name:      "checked moments ago",
			lastCheck: now.Add(-time.Minute),
			known:     true,
			expected:  false,
		},
		{
			name:      "checked longer than the interval ago",
			lastCheck: now.Add(-25 * time.Hour),
			known:     true,
			expected:  true,
		},
		{
			name:      "elapsed exactly equals the interval",
			lastCheck: now.Add(-interval),
			known:     true,
			expected:  true,
		},
		{
			name:      "one nanosecond short of the interval",
			lastCheck: now.Add(-interval + time.Nanosecond),
			known:     true,
			expected:  false,
		},
		{
			name:      "clock skew put the last check in the future",
			lastCheck: now.Add(time.Hour),
			known:     true,
			expected:  false,
		},
	}

	for _, testCase := range tc {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := updateCheckNeededAt(testCase.lastCheck, testCase.known, interval, now)
			require.Equal(t, testCase.expected, got)
		})
	}
}

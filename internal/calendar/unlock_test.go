package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(month time.Month, day int) time.Time {
	return time.Date(2025, month, day, 12, 0, 0, 0, time.UTC)
}

func TestIsDayUnlocked(t *testing.T) {
	tests := []struct {
		name string
		day  int
		now  time.Time
		want bool
	}{
		{"day 1 a week before christmas", 1, date(time.December, 18), true},
		{"day 1 too early", 1, date(time.December, 10), false},
		{"day 1 in november", 1, date(time.November, 30), false},
		{"day 5 on dec 5 but first day locked", 5, date(time.December, 5), false},
		{"day 20 on dec 20", 20, date(time.December, 20), true},
		{"day 24 on dec 20", 24, date(time.December, 20), false},
		{"day 25 on christmas", 25, date(time.December, 25), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsDayUnlocked(tc.day, tc.now, false))
		})
	}
}

func TestIsDayUnlocked_TestMode(t *testing.T) {
	require.True(t, IsDayUnlocked(25, date(time.June, 1), true))
}

func TestNextUnlockTime(t *testing.T) {
	beforeSeason := date(time.November, 1)
	next := NextUnlockTime(beforeSeason)
	require.Equal(t, time.December, next.Month())
	require.Equal(t, 18, next.Day())

	midSeason := date(time.December, 20)
	next = NextUnlockTime(midSeason)
	require.Equal(t, 21, next.Day())

	afterChristmas := date(time.December, 26)
	require.True(t, NextUnlockTime(afterChristmas).IsZero())
}

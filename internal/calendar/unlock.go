package calendar

import "time"

const (
	christmasDay = 25
	// Day 1 can be opened this many days before Christmas.
	daysBeforeChristmasForFirstDay = 7
)

// IsDayUnlocked reports whether a day's viewer may be opened at now.
// Day 1 unlocks a week before Christmas; later days unlock on their
// respective December dates. testMode unlocks everything.
func IsDayUnlocked(day int, now time.Time, testMode bool) bool {
	if testMode {
		return true
	}

	firstDayUnlock := time.Date(now.Year(), time.December,
		christmasDay-daysBeforeChristmasForFirstDay, 0, 0, 0, 0, now.Location())
	canOpenFirstDay := !now.Before(firstDayUnlock)

	if day == 1 {
		return canOpenFirstDay
	}

	if now.Month() == time.December {
		return day <= now.Day() && canOpenFirstDay
	}

	return false
}

// NextUnlockTime returns when the next locked day opens, or the zero time if
// nothing further unlocks this season.
func NextUnlockTime(now time.Time) time.Time {
	firstDayUnlock := time.Date(now.Year(), time.December,
		christmasDay-daysBeforeChristmasForFirstDay, 0, 0, 0, 0, now.Location())

	if now.Before(firstDayUnlock) {
		return firstDayUnlock
	}

	if now.Month() == time.December {
		next := now.Day() + 1
		if next <= christmasDay {
			return time.Date(now.Year(), time.December, next, 0, 0, 0, 0, now.Location())
		}
	}

	return time.Time{}
}

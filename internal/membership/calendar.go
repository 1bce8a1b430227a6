package membership

import "time"

// AddMonths advances t by n calendar months. When the day of month does not exist in the
// target month the result is clamped to its last day, so Jan 31 + 1 is Feb 28 (or 29).
// Clock time and location are preserved.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	// Normalize through the first of the month so time.Date never rolls over.
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	targetYear, targetMonth, _ := first.Date()
	if last := daysIn(targetYear, targetMonth); day > last {
		day = last
	}
	return time.Date(targetYear, targetMonth, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// DateOnly returns the calendar date of t (in t's location) at midnight UTC.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// LocalDayBounds returns [midnight, next midnight) of the local calendar day containing t.
func LocalDayBounds(t time.Time) (time.Time, time.Time) {
	year, month, day := t.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

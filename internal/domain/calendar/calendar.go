// Package calendar works with civil dates. A civil date is stored as a
// time.Time at midnight UTC carrying the year, month and day of a wall clock
// reading in some location, so day arithmetic never crosses a DST shift.
package calendar

import "time"

// Date returns the civil date of t as seen in t's own location.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateIn returns the civil date of t as seen in loc.
func DateIn(t time.Time, loc *time.Location) time.Time {
	return Date(t.In(loc))
}

// DaysBetween counts calendar days from a to b. Both are truncated to their
// civil dates first; the result is negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	da, db := Date(a), Date(b)
	return int(db.Sub(da).Hours() / 24)
}

// AddDays moves a civil date by n days.
func AddDays(date time.Time, n int) time.Time {
	return Date(date).AddDate(0, 0, n)
}

// At places a wall clock time on a civil date in loc.
func At(date time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
}

// StartOfDay is midnight of date in loc.
func StartOfDay(date time.Time, loc *time.Location) time.Time {
	return At(date, 0, 0, loc)
}

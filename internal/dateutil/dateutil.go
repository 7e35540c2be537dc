package dateutil

import "time"

// StartOfDay returns local midnight of t's calendar date in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's local calendar date.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfWeek returns local midnight of the Sunday that begins t's week.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// StartOfMonth returns local midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// DaysIn returns the number of days in the given month. Out of range months
// normalize the same way time.Date does.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the weekday of day 1 of the given month.
func FirstWeekday(year int, month time.Month) time.Weekday {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
}

// MonthOrdinal maps (year, month) onto a single increasing integer so that
// month comparisons across years are plain integer comparisons.
func MonthOrdinal(year int, month time.Month) int {
	return year*12 + int(month) - 1
}

// MonthOrdinalOf is MonthOrdinal for t's local date.
func MonthOrdinalOf(t time.Time) int {
	return MonthOrdinal(t.Year(), t.Month())
}

// DaysBetween counts calendar days from a's local date to b's local date.
// Both are compared as civil dates, so DST transitions never skew the result.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ca := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	cb := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(cb.Sub(ca).Hours() / 24)
}

// SameDate reports whether a and b fall on the same local calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeeksIn returns how many Sunday-first grid rows the month occupies.
func WeeksIn(year int, month time.Month) int {
	cells := int(FirstWeekday(year, month)) + DaysIn(year, month)
	return (cells + 6) / 7
}

// WeekIndex returns the zero-based grid row of t's date within its own month.
func WeekIndex(t time.Time) int {
	y, m, d := t.Date()
	return (d - 1 + int(FirstWeekday(y, m))) / 7
}

// TruncateMinute drops seconds and below, keeping t's location.
func TruncateMinute(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, _ := t.Clock()
	return time.Date(y, mo, d, h, mi, 0, 0, t.Location())
}

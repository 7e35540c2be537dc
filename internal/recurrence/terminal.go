package recurrence

import (
	"slices"
	"time"

	"monthcal/internal/dateutil"
	"monthcal/internal/model"
)

// LastDay resolves an event's terminal condition into the last local day
// (midnight, event location) on which it may occur. ok is false for
// unbounded rules.
//
// An end date is inclusive. A count of n spans n periods from the start:
// n days, n months or n years from the start day, and n weeks from the
// Sunday that opens the start week. Count wins over an end date; that
// precedence is settled in model.NewRule.
func LastDay(ev model.Event) (last time.Time, ok bool) {
	if !ev.Repeating() {
		return dateutil.StartOfDay(ev.Starts), true
	}
	loc := ev.Location()
	start := dateutil.StartOfDay(ev.Starts)
	term := ev.Repeats.Terminal

	switch term.Kind {
	case model.EndsOn:
		return dateutil.StartOfDay(term.Until.In(loc)), true
	case model.Count:
		n := term.Times
		var cutoff time.Time
		switch ev.Repeats.Type {
		case model.RepeatDaily:
			cutoff = start.AddDate(0, 0, n)
		case model.RepeatWeekly:
			cutoff = dateutil.StartOfWeek(start).AddDate(0, 0, 7*n)
		case model.RepeatMonthly:
			cutoff = addMonthsClamped(start, n)
		case model.RepeatYearly:
			cutoff = addMonthsClamped(start, 12*n)
		default:
			return start, true
		}
		return cutoff.AddDate(0, 0, -1), true
	}
	return time.Time{}, false
}

// addMonthsClamped moves t by n calendar months, pinning the day to the end
// of the target month instead of overflowing into the next one.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if days := dateutil.DaysIn(target.Year(), target.Month()); d > days {
		d = days
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Matches reports whether the rule places ev on day, ignoring the start and
// terminal bounds. day must be local midnight in the event's location.
func Matches(ev model.Event, day time.Time) bool {
	start := ev.Starts
	if !ev.Repeating() {
		return dateutil.SameDate(start, day)
	}
	switch ev.Repeats.Type {
	case model.RepeatDaily:
		return true
	case model.RepeatWeekly:
		return slices.Contains(ev.Repeats.Weekdays(start), day.Weekday())
	case model.RepeatMonthly:
		return day.Day() == start.Day()
	case model.RepeatYearly:
		return day.Month() == start.Month() && day.Day() == start.Day()
	}
	return false
}

// window is the resolved [first, last] day range of an event.
type window struct {
	first   time.Time
	last    time.Time
	bounded bool
}

func windowOf(ev model.Event) window {
	last, ok := LastDay(ev)
	return window{first: dateutil.StartOfDay(ev.Starts), last: last, bounded: ok}
}

// empty reports an end date before the start day. Such a rule has no
// occurrences at all.
func (w window) empty() bool {
	return w.bounded && w.last.Before(w.first)
}

func (w window) contains(day time.Time) bool {
	if day.Before(w.first) {
		return false
	}
	return !w.bounded || !day.After(w.last)
}

package recurrence

import (
	"time"

	"monthcal/internal/calendar"
	"monthcal/internal/dateutil"
	"monthcal/internal/model"
)

// Match pairs a grid slot with the occurrence that lands on it.
type Match struct {
	Day        *calendar.Day
	Occurrence model.Occurrence
}

// Expand returns the occurrences of ev on the real days of m, in date order.
// Padding days of neighbouring months are never matched.
//
// Candidate days are derived per rule type from the month metrics alone:
// a run of day numbers for daily rules, week rows crossed with weekdays for
// weekly rules, and a single day for monthly and yearly rules. Each
// candidate is then checked against the event's [start, last] window.
func Expand(ev model.Event, m *calendar.Month) []Match {
	loc := ev.Location()
	startOrd := dateutil.MonthOrdinalOf(ev.Starts)
	if startOrd > m.Ordinal() {
		return nil
	}

	w := windowOf(ev)
	if w.empty() || (w.bounded && dateutil.MonthOrdinalOf(w.last) < m.Ordinal()) {
		return nil
	}

	var out []Match
	for _, date := range candidates(ev, m, w) {
		if date < 1 || date > m.DaysInMonth() {
			continue
		}
		day := time.Date(m.Year(), m.Month(), date, 0, 0, 0, 0, loc)
		if !w.contains(day) {
			continue
		}
		out = append(out, Match{
			Day:        m.GetDay(date),
			Occurrence: Materialize(ev, day),
		})
	}
	return out
}

// candidates lists day-of-month numbers of m, ascending, on which ev's rule
// could fall. Numbers outside 1..DaysInMonth may appear and are discarded
// by the caller.
func candidates(ev model.Event, m *calendar.Month, w window) []int {
	start := ev.Starts
	inStartMonth := dateutil.MonthOrdinalOf(start) == m.Ordinal()
	inLastMonth := w.bounded && dateutil.MonthOrdinalOf(w.last) == m.Ordinal()

	if !ev.Repeating() {
		if inStartMonth {
			return []int{start.Day()}
		}
		return nil
	}

	switch ev.Repeats.Type {
	case model.RepeatDaily:
		from, to := 1, m.DaysInMonth()
		if inStartMonth {
			from = start.Day()
		}
		if inLastMonth {
			to = w.last.Day()
		}
		if to < from {
			return nil
		}
		out := make([]int, 0, to-from+1)
		for d := from; d <= to; d++ {
			out = append(out, d)
		}
		return out

	case model.RepeatWeekly:
		fromWeek, toWeek := 0, m.NumberOfWeeks()-1
		if inStartMonth {
			fromWeek = dateutil.WeekIndex(start)
		}
		if inLastMonth {
			toWeek = dateutil.WeekIndex(w.last)
		}
		weekdays := ev.Repeats.Weekdays(start)
		var out []int
		for week := fromWeek; week <= toWeek; week++ {
			for _, wd := range weekdays {
				out = append(out, int(wd)-m.FirstWeekdayOffset()+week*7+1)
			}
		}
		return out

	case model.RepeatMonthly:
		return []int{start.Day()}

	case model.RepeatYearly:
		if m.Month() == start.Month() {
			return []int{start.Day()}
		}
	}
	return nil
}

// ExpandDays matches ev against an arbitrary ordered run of slots, padding
// days included. Each slot is read as a civil date in the event's location.
func ExpandDays(ev model.Event, days []*calendar.Day) []Match {
	loc := ev.Location()
	w := windowOf(ev)
	if w.empty() {
		return nil
	}

	var out []Match
	for _, d := range days {
		day := d.In(loc)
		if !w.contains(day) || !Matches(ev, day) {
			continue
		}
		out = append(out, Match{Day: d, Occurrence: Materialize(ev, day)})
	}
	return out
}

// Between returns the occurrences of ev whose local date lies in [from, to].
// Both bounds are read as civil dates in the event's location.
func Between(ev model.Event, from, to time.Time) []model.Occurrence {
	loc := ev.Location()
	w := windowOf(ev)
	if w.empty() {
		return nil
	}

	day, end := civil(from, loc), civil(to, loc)
	if day.Before(w.first) {
		day = w.first
	}
	if w.bounded && end.After(w.last) {
		end = w.last
	}

	var out []model.Occurrence
	for ; !day.After(end); day = day.AddDate(0, 0, 1) {
		if Matches(ev, day) {
			out = append(out, Materialize(ev, day))
		}
	}
	return out
}

func civil(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Materialize copies ev onto day. Starts and Ends move by the number of
// calendar days between the start date and day, applied in the event's own
// location, so the local time of day survives DST changes. The copy shares
// no mutable state with ev.
func Materialize(ev model.Event, day time.Time) model.Occurrence {
	loc := ev.Location()
	shift := dateutil.DaysBetween(ev.Starts, day)

	occ := model.Occurrence{Event: ev.Clone(), Date: dateutil.StartOfDay(day.In(loc))}
	occ.Starts = ev.Starts.AddDate(0, 0, shift)
	occ.Ends = ev.Ends.In(loc).AddDate(0, 0, shift)
	return occ
}

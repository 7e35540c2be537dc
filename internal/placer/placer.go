// Package placer attaches expanded event occurrences to the day slots of a
// calendar month.
package placer

import (
	"errors"
	"slices"
	"strings"
	"time"

	"monthcal/internal/calendar"
	"monthcal/internal/dateutil"
	appLog "monthcal/internal/log"
	"monthcal/internal/metric"
	"monthcal/internal/model"
	"monthcal/internal/recurrence"
)

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("calendar configuration")

// ConfigurationError reports a month that cannot take events.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "calendar configuration: " + e.Reason
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

type options struct {
	spread  bool
	padding bool
}

// Option tunes a placement run.
type Option func(*options)

// WithSpread places an occurrence that covers several calendar days on each
// of them. The first segment runs from the start to the end of that day, the
// last from midnight to the end, and any day in between is covered whole.
func WithSpread() Option {
	return func(o *options) { o.spread = true }
}

// WithPadding also fills the padding days of the neighbouring months.
func WithPadding() Option {
	return func(o *options) { o.padding = true }
}

// Result summarises a placement run.
type Result struct {
	Events  int // events considered
	Placed  int // occurrences (or segments) attached to a slot
	Dropped int // occurrences with no slot
}

// Place expands every event against m and appends the occurrences to the
// matching day slots. m must have been built with DayObjects. Placing onto a
// grid that already carries events appends to it; rebuild the month first
// for a clean run.
func Place(events []model.Event, m *calendar.Month, opts ...Option) error {
	_, err := PlaceWithResult(events, m, opts...)
	return err
}

// PlaceWithResult is Place that also reports what happened.
func PlaceWithResult(events []model.Event, m *calendar.Month, opts ...Option) (Result, error) {
	if !m.DayObjects() {
		return Result{}, &ConfigurationError{Reason: "month was built without day objects"}
	}
	if len(events) == 0 {
		return Result{}, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	res := Result{Events: len(events)}
	for _, ev := range Sort(events) {
		if o.spread {
			placeSpread(ev, m, o.padding, &res)
			continue
		}

		var matches []recurrence.Match
		if o.padding {
			matches = recurrence.ExpandDays(ev, m.Slots())
		} else {
			matches = recurrence.Expand(ev, m)
		}
		countExpanded(ev, len(matches))

		for _, match := range matches {
			if match.Day == nil {
				res.Dropped++
				continue
			}
			match.Day.Events = append(match.Day.Events, match.Occurrence)
			res.Placed++
		}
	}

	metric.OccurrencesPlaced.Add(float64(res.Placed))
	metric.OccurrencesDropped.Add(float64(res.Dropped))
	appLog.Debug("placed events",
		"year", m.Year(),
		"month", m.Month().String(),
		"events", res.Events,
		"placed", res.Placed,
		"dropped", res.Dropped,
	)
	return res, nil
}

func placeSpread(ev model.Event, m *calendar.Month, padding bool, res *Result) {
	from, to := m.First(), m.Last()
	if padding {
		slots := m.Slots()
		from, to = slots[0].Time(), slots[len(slots)-1].Time()
	}
	// Occurrences that start before the range can still reach into it.
	span := dateutil.DaysBetween(ev.Starts, ev.Ends)
	if span < 0 {
		span = 0
	}

	occs := recurrence.Between(ev, from.AddDate(0, 0, -span), to)
	countExpanded(ev, len(occs))

	for _, occ := range occs {
		for _, seg := range Segments(occ) {
			y, mo, d := seg.Date.Date()
			slot := m.DayOn(y, mo, d)
			if slot == nil || (slot.Padding && !padding) {
				// Segments outside the range belong to another month's run.
				continue
			}
			slot.Events = append(slot.Events, seg)
			res.Placed++
		}
	}
}

// Segments splits an occurrence into one piece per calendar day it touches,
// in the event's location. A single-day occurrence comes back unchanged.
func Segments(occ model.Occurrence) []model.Occurrence {
	// An end at midnight closes the previous day.
	last := occ.Ends
	if last.After(occ.Starts) && last.Equal(dateutil.StartOfDay(last)) {
		last = last.Add(-time.Nanosecond)
	}
	days := dateutil.DaysBetween(occ.Starts, last) + 1
	if days <= 1 {
		return []model.Occurrence{occ}
	}

	out := make([]model.Occurrence, days)
	day := dateutil.StartOfDay(occ.Starts)
	for i := range out {
		seg := model.Occurrence{Event: occ.Clone(), Date: day}
		switch i {
		case 0:
			seg.Ends = dateutil.EndOfDay(occ.Starts)
		case days - 1:
			seg.Starts = dateutil.StartOfDay(last)
		default:
			seg.Starts = day
			seg.Ends = dateutil.EndOfDay(day)
		}
		out[i] = seg
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// Sort returns a copy of events ordered by start (seconds ignored) and then
// name. Ties keep their input order.
func Sort(events []model.Event) []model.Event {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b model.Event) int {
		if c := dateutil.TruncateMinute(a.Starts).Compare(dateutil.TruncateMinute(b.Starts)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func countExpanded(ev model.Event, n int) {
	if n == 0 {
		return
	}
	kind := model.RepeatNone
	if ev.Repeating() {
		kind = ev.Repeats.Type
	}
	metric.OccurrencesExpanded.WithLabelValues(kind.String()).Add(float64(n))
}

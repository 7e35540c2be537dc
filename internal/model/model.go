package model

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// RepeatType is the recurrence frequency of an event.
type RepeatType int

const (
	RepeatNone RepeatType = iota
	RepeatDaily
	RepeatWeekly
	RepeatMonthly
	RepeatYearly
)

var repeatNames = map[RepeatType]string{
	RepeatNone:    "none",
	RepeatDaily:   "daily",
	RepeatWeekly:  "weekly",
	RepeatMonthly: "monthly",
	RepeatYearly:  "yearly",
}

// foldName normalizes user-supplied names for comparison. A Caser keeps
// state, so one is made per call.
func foldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func (t RepeatType) String() string {
	if s, ok := repeatNames[t]; ok {
		return s
	}
	return "RepeatType(" + strconv.Itoa(int(t)) + ")"
}

// ParseRepeatType maps a case-insensitive name onto a RepeatType. The empty
// string means RepeatNone.
func ParseRepeatType(s string) (RepeatType, error) {
	name := foldName(s)
	if name == "" {
		return RepeatNone, nil
	}
	for t, n := range repeatNames {
		if n == name {
			return t, nil
		}
	}
	return RepeatNone, fmt.Errorf("unknown repeat type %q", s)
}

var weekdayNames = []string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

// ParseWeekday accepts a full or three-letter weekday name in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	name := foldName(s)
	if name == "" {
		return 0, fmt.Errorf("empty weekday")
	}
	for i, n := range weekdayNames {
		if name == n || (len(name) == 3 && strings.HasPrefix(n, name)) {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// TerminalKind says which condition stops a recurrence.
type TerminalKind int

const (
	Unbounded TerminalKind = iota
	EndsOn
	Count
)

// Terminal is the stop condition of a recurrence. Only the field matching
// Kind is meaningful.
type Terminal struct {
	Kind  TerminalKind
	Until time.Time // EndsOn: last day (inclusive) on which the event may recur
	Times int       // Count: number of periods (days/weeks/months/years)
}

// Rule is the structured repeat configuration of an event.
type Rule struct {
	Type RepeatType

	// OnDays lists the weekdays of a weekly rule, sorted and unique. Empty
	// means the weekday of the event start.
	OnDays []time.Weekday

	Terminal Terminal
}

// NewRule builds a rule from the raw terminal inputs. A positive count takes
// precedence over an end date when both are supplied.
func NewRule(t RepeatType, onDays []time.Weekday, endsOn *time.Time, times int) Rule {
	r := Rule{Type: t}
	if t == RepeatWeekly {
		r.OnDays = normalizeWeekdays(onDays)
	}
	switch {
	case times > 0:
		r.Terminal = Terminal{Kind: Count, Times: times}
	case endsOn != nil && !endsOn.IsZero():
		r.Terminal = Terminal{Kind: EndsOn, Until: *endsOn}
	}
	return r
}

func normalizeWeekdays(days []time.Weekday) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}

// Weekdays returns the effective weekday set for a weekly rule given the
// event start.
func (r Rule) Weekdays(start time.Time) []time.Weekday {
	if len(r.OnDays) == 0 {
		return []time.Weekday{start.Weekday()}
	}
	return r.OnDays
}

// Clone returns a copy that shares no slices with r.
func (r Rule) Clone() Rule {
	r.OnDays = slices.Clone(r.OnDays)
	return r
}

// Event represents a logical calendar event before recurrence expansion.
type Event struct {
	ID   string
	Name string

	// Starts/Ends carry the event's own location; occurrences keep it.
	Starts time.Time
	Ends   time.Time

	// Repeats is nil for one-off events.
	Repeats *Rule

	// Fields holds caller-supplied values that are passed through unchanged
	// to every occurrence.
	Fields map[string]any
}

// Duration is the span between Starts and Ends.
func (e Event) Duration() time.Duration {
	return e.Ends.Sub(e.Starts)
}

// Repeating reports whether the event has an effective recurrence rule.
func (e Event) Repeating() bool {
	return e.Repeats != nil && e.Repeats.Type != RepeatNone
}

// Location is the timezone the event was declared in.
func (e Event) Location() *time.Location {
	return e.Starts.Location()
}

// Clone returns a deep copy of e, so mutating the copy's Fields or Rule
// never reaches e.
func (e Event) Clone() Event {
	if e.Repeats != nil {
		r := e.Repeats.Clone()
		e.Repeats = &r
	}
	if e.Fields != nil {
		e.Fields = cloneMap(e.Fields)
	}
	return e
}

// cloneMap copies m along with the nested maps and slices that decoded
// JSON and YAML records contain. Other values are copied as is.
func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]string:
		return maps.Clone(v)
	case []string:
		return slices.Clone(v)
	}
	return v
}

// Occurrence represents a single concrete instance of an event on one
// calendar day. It carries a full copy of the source event with Starts and
// Ends shifted to that day.
type Occurrence struct {
	Event

	// Date is local midnight of the occurrence day in the event's location.
	Date time.Time
}

// InstanceKey uniquely identifies an occurrence as (source event, date).
func (o Occurrence) InstanceKey() string {
	return o.ID + "@" + o.Date.Format("2006-01-02")
}

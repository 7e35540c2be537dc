// Package ics renders placed months and event definitions as iCalendar.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"monthcal/internal/calendar"
	"monthcal/internal/dateutil"
	"monthcal/internal/model"
	"monthcal/internal/recurrence"
)

// PropertyEventID carries the source event id on every exported VEVENT.
const PropertyEventID = ical.ComponentProperty("X-MONTHCAL-EVENT-ID")

const defaultProductID = "-//monthcal//monthcal//EN"

// Options controls calendar-level properties.
type Options struct {
	Name      string         // X-WR-CALNAME
	ProductID string         // PRODID; a default is used when empty
	Location  *time.Location // X-WR-TIMEZONE
	Now       time.Time      // DTSTAMP; time.Now when zero
}

func newCalendar(opts Options) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	if opts.ProductID == "" {
		opts.ProductID = defaultProductID
	}
	cal.SetProductId(opts.ProductID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	if opts.Location != nil {
		cal.SetXWRTimezone(opts.Location.String())
	}
	return cal
}

func stamp(opts Options) time.Time {
	if opts.Now.IsZero() {
		return time.Now().UTC()
	}
	return opts.Now.UTC()
}

// UID derives a stable iCalendar UID from an occurrence or event key.
func UID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("monthcal:"+key)).String() + "@monthcal"
}

// ExportMonth writes one VEVENT per occurrence placed on m, padding days
// included. An occurrence seen on several slots is written once.
func ExportMonth(m *calendar.Month, opts Options) *ical.Calendar {
	cal := newCalendar(opts)
	now := stamp(opts)

	seen := make(map[string]bool)
	for _, day := range m.Slots() {
		for _, occ := range day.Events {
			key := occ.InstanceKey()
			if seen[key] {
				continue
			}
			seen[key] = true

			ve := cal.AddEvent(UID(key))
			fill(ve, occ.Event, now)
		}
	}
	return cal
}

// ExportEvents writes one master VEVENT per event, with an RRULE for
// repeating events.
func ExportEvents(events []model.Event, opts Options) (*ical.Calendar, error) {
	cal := newCalendar(opts)
	now := stamp(opts)

	for _, ev := range events {
		ve := cal.AddEvent(UID(ev.ID))
		fill(ve, ev, now)
		if !ev.Repeating() {
			continue
		}
		rule, err := RRule(ev)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		ve.AddRrule(rule)
	}
	return cal, nil
}

func fill(ve *ical.VEvent, ev model.Event, now time.Time) {
	ve.SetDtStampTime(now)
	ve.SetStartAt(ev.Starts)
	ve.SetEndAt(ev.Ends)
	if ev.Name != "" {
		ve.SetSummary(ev.Name)
	}
	if s, ok := ev.Fields["description"].(string); ok && s != "" {
		ve.SetDescription(s)
	}
	if s, ok := ev.Fields["location"].(string); ok && s != "" {
		ve.SetLocation(s)
	}
	if ev.ID != "" {
		ve.SetProperty(PropertyEventID, ev.ID)
	}
}

var weekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

var freqs = map[model.RepeatType]rrule.Frequency{
	model.RepeatDaily:   rrule.DAILY,
	model.RepeatWeekly:  rrule.WEEKLY,
	model.RepeatMonthly: rrule.MONTHLY,
	model.RepeatYearly:  rrule.YEARLY,
}

// RRule renders ev's rule as an RRULE value (without the "RRULE:" name).
//
// A repeat count spans whole periods rather than RFC 5545 instances, so it
// is written as the UNTIL of its last day.
func RRule(ev model.Event) (string, error) {
	if !ev.Repeating() {
		return "", fmt.Errorf("event does not repeat")
	}
	freq, ok := freqs[ev.Repeats.Type]
	if !ok {
		return "", fmt.Errorf("unsupported repeat type %s", ev.Repeats.Type)
	}

	opt := rrule.ROption{Freq: freq, Dtstart: ev.Starts}
	if ev.Repeats.Type == model.RepeatWeekly {
		for _, wd := range ev.Repeats.Weekdays(ev.Starts) {
			opt.Byweekday = append(opt.Byweekday, weekdays[wd])
		}
	}
	if last, bounded := recurrence.LastDay(ev); bounded {
		opt.Until = dateutil.EndOfDay(last).Truncate(time.Second).UTC()
	}
	return opt.RRuleString(), nil
}

// Write serializes cal to w.
func Write(w io.Writer, cal *ical.Calendar) error {
	_, err := io.WriteString(w, cal.Serialize())
	return err
}

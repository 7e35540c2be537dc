package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"monthcal/internal/event"
	appLog "monthcal/internal/log"
)

// ErrUnsupported marks a VEVENT that cannot become a single event record.
// Recurrence rules are only ever generated, never read back.
var ErrUnsupported = errors.New("ics: unsupported vevent")

// Records converts the VEVENTs of an iCalendar document into single event
// records keyed by the canonical event keys. zone resolves floating times,
// UTC times and all-day dates.
//
// A VEVENT that cannot be converted, recurring ones included, is logged and
// skipped; the rest of the document is still returned.
func Records(body []byte, zone *time.Location) ([]event.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if zone == nil {
		zone = time.UTC
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse ics: %w", err)
	}

	recs := make([]event.Record, 0)
	for _, ve := range cal.Events() {
		rec, err := record(ve, zone)
		if err != nil {
			appLog.Warn("skipping vevent", "uid", propValue(ve, ical.ComponentPropertyUniqueId), "err", err.Error())
			continue
		}
		recs = append(recs, rec)
	}

	appLog.Debug("ics import completed", "event_count", len(recs))
	return recs, nil
}

func record(ve *ical.VEvent, zone *time.Location) (event.Record, error) {
	for _, prop := range []ical.ComponentProperty{ical.ComponentPropertyRrule, ical.ComponentPropertyRdate, "RECURRENCE-ID"} {
		if ve.GetProperty(prop) != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, prop)
		}
	}

	start, allDay, err := propTime(ve.GetProperty(ical.ComponentPropertyDtStart), zone)
	if err != nil {
		return nil, fmt.Errorf("dtstart: %w", err)
	}
	end := start
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		if end, _, err = propTime(p, zone); err != nil {
			return nil, fmt.Errorf("dtend: %w", err)
		}
	} else if allDay {
		end = start.AddDate(0, 0, 1)
	}
	// All-day DTEND is exclusive.
	if allDay && end.After(start) {
		end = end.Add(-time.Second)
	}
	if end.Before(start) {
		return nil, errors.New("dtend precedes dtstart")
	}

	rec := event.Record{
		event.KeyStarts: start,
		event.KeyEnds:   end,
	}
	id := propValue(ve, PropertyEventID)
	if id == "" {
		id = propValue(ve, ical.ComponentPropertyUniqueId)
	}
	if id != "" {
		rec[event.KeyID] = id
	}
	if s := propValue(ve, ical.ComponentPropertySummary); s != "" {
		rec[event.KeyName] = s
	}
	if s := propValue(ve, ical.ComponentPropertyDescription); s != "" {
		rec["description"] = s
	}
	if s := propValue(ve, ical.ComponentPropertyLocation); s != "" {
		rec["location"] = s
	}

	return rec, nil
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

func param(p *ical.IANAProperty, name string) string {
	if vs := p.ICalParameters[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// propTime reads a DATE or DATE-TIME property. Dates and UTC times land in
// zone; floating times are read in TZID when known, else zone.
func propTime(p *ical.IANAProperty, zone *time.Location) (time.Time, bool, error) {
	if p == nil {
		return time.Time{}, false, errors.New("missing")
	}
	v := strings.TrimSpace(p.Value)

	if strings.EqualFold(param(p, "VALUE"), "DATE") || !strings.Contains(v, "T") {
		t, err := time.ParseInLocation("20060102", v, zone)
		return t, true, err
	}
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		return t.In(zone), false, err
	}

	loc := zone
	if tz := param(p, "TZID"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			appLog.Warn("unknown TZID; using default zone", "tzid", tz, "zone", zone.String())
		}
	}
	t, err := time.ParseInLocation("20060102T150405", v, loc)
	return t, false, err
}

// Package source loads event records from local files or remote URLs and
// turns them into events.
package source

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"monthcal/internal/event"
	"monthcal/internal/ics"
	appLog "monthcal/internal/log"
	"monthcal/internal/model"
)

// Loader reads one events document and converts its records.
type Loader struct {
	// Location is a file path or an http(s) URL.
	Location string
	Fields   event.FieldMap
	// Zone interprets record dates that carry no offset.
	Zone *time.Location

	fetcher *Fetcher
}

// NewLoader returns a Loader for location. fetcher may be nil for local
// files; a default one without disk cache is used for URLs.
func NewLoader(location string, fields event.FieldMap, zone *time.Location, fetcher *Fetcher) *Loader {
	if zone == nil {
		zone = time.UTC
	}
	if fetcher == nil {
		fetcher = NewFetcher("", nil)
	}
	return &Loader{Location: location, Fields: fields, Zone: zone, fetcher: fetcher}
}

// Remote reports whether Location is an http(s) URL.
func (l *Loader) Remote() bool {
	return IsRemote(l.Location)
}

func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Load reads and converts every record. A record that fails validation
// fails the whole load, so callers can keep serving the last good set.
func (l *Loader) Load(ctx context.Context) ([]model.Event, error) {
	if l.Location == "" {
		return nil, nil
	}

	var (
		data   []byte
		format Format
	)
	if l.Remote() {
		res, err := l.fetcher.Fetch(ctx, l.Location)
		if err != nil {
			return nil, err
		}
		data, format = res.Body, FormatOf(l.Location, res.ContentType)
	} else {
		b, err := os.ReadFile(l.Location)
		if err != nil {
			return nil, fmt.Errorf("read events: %w", err)
		}
		data, format = b, FormatOf(l.Location, "")
	}

	format = Sniff(data, format)
	recs, fields, err := l.records(data, format)
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(recs))
	for i, rec := range recs {
		ev, err := event.FromRecord(rec, fields, l.Zone)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if ev.ID == "" {
			ev.ID = derivedID(ev)
		}
		events = append(events, ev)
	}

	appLog.Info("events loaded", "source", l.describe(), "count", len(events), "format", format.String())
	return events, nil
}

// records decodes data. iCalendar records always carry canonical keys, so
// the configured field map only applies to JSON and YAML.
func (l *Loader) records(data []byte, format Format) ([]event.Record, event.FieldMap, error) {
	if format == FormatICS {
		recs, err := ics.Records(data, l.Zone)
		return recs, nil, err
	}
	recs, err := Decode(data, format)
	return recs, l.Fields, err
}

// derivedID gives records without an id a stable one, so occurrence keys
// and exported UIDs survive reloads.
func derivedID(ev model.Event) string {
	key := ev.Name + "|" + strconv.FormatInt(ev.Starts.Unix(), 10) + "|" + strconv.FormatInt(ev.Ends.Unix(), 10)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func (l *Loader) describe() string {
	if l.Remote() {
		return redactURL(l.Location)
	}
	return l.Location
}

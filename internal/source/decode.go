package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"monthcal/internal/event"
)

// Format is the serialization of an events document.
type Format int

const (
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
	FormatICS
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatICS:
		return "ics"
	}
	return "auto"
}

// FormatOf guesses the format from a file name and, for remote documents,
// a Content-Type header. Unknown inputs yield FormatAuto.
func FormatOf(name, contentType string) Format {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			switch {
			case mt == "application/json" || strings.HasSuffix(mt, "+json"):
				return FormatJSON
			case strings.Contains(mt, "yaml"):
				return FormatYAML
			case mt == "text/calendar":
				return FormatICS
			}
		}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".ics", ".ical":
		return FormatICS
	}
	return FormatAuto
}

// Sniff resolves FormatAuto from the document itself: iCalendar by its
// BEGIN:VCALENDAR line, JSON by its first byte, YAML otherwise.
func Sniff(data []byte, f Format) Format {
	if f != FormatAuto {
		return f
	}
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return FormatAuto
	case bytes.HasPrefix(bytes.ToUpper(trimmed[:min(len(trimmed), 15)]), []byte("BEGIN:VCALENDAR")):
		return FormatICS
	case trimmed[0] == '[' || trimmed[0] == '{':
		return FormatJSON
	}
	return FormatYAML
}

// document is the wrapped form of an events file: {"events": [...]}.
type document struct {
	Events []event.Record `json:"events" yaml:"events"`
}

// Decode parses a JSON or YAML events document into records. The document
// is either a bare list of records or an object with an "events" list.
// FormatAuto is resolved with Sniff. iCalendar documents go through
// ics.Records instead.
func Decode(data []byte, f Format) ([]event.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	f = Sniff(trimmed, f)
	if f == FormatICS {
		return nil, errors.New("decode: iCalendar documents need a timezone; use ics.Records")
	}

	unmarshal := yaml.Unmarshal
	if f == FormatJSON {
		unmarshal = json.Unmarshal
	}

	var recs []event.Record
	if trimmed[0] == '[' || (f == FormatYAML && trimmed[0] == '-') {
		if err := unmarshal(trimmed, &recs); err != nil {
			return nil, fmt.Errorf("decode %s events: %w", f, err)
		}
		return recs, nil
	}

	var doc document
	if err := unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode %s events: %w", f, err)
	}
	return doc.Events, nil
}

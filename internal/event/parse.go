package event

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Layouts tried, in order, for string date values. Layouts without a zone
// are resolved in the caller's location.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// ParseTime resolves a record value into an instant. Accepted forms are
// time.Time, *time.Time, date strings (see the layouts above) and unix
// milliseconds as an integer or float.
func ParseTime(v any, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, errors.New("zero time")
		}
		return t, nil
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, errors.New("zero time")
		}
		return *t, nil
	case string:
		return parseString(t, loc)
	case int:
		return time.UnixMilli(int64(t)).In(loc), nil
	case int64:
		return time.UnixMilli(t).In(loc), nil
	case float64:
		if t != math.Trunc(t) {
			return time.Time{}, fmt.Errorf("fractional millisecond %v", t)
		}
		return time.UnixMilli(int64(t)).In(loc), nil
	}
	return time.Time{}, fmt.Errorf("unsupported date value %T", v)
}

func parseString(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

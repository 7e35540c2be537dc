package event

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"monthcal/internal/model"
)

// Canonical record keys understood by FromRecord.
const (
	KeyID           = "id"
	KeyName         = "name"
	KeyStarts       = "starts"
	KeyEnds         = "ends"
	KeyRepeats      = "repeats"
	KeyRepeatsOn    = "repeats_on"
	KeyRepeatEndsOn = "repeat_ends_on"
	KeyRepeatTimes  = "repeat_times"
)

var canonicalKeys = []string{
	KeyID, KeyName, KeyStarts, KeyEnds,
	KeyRepeats, KeyRepeatsOn, KeyRepeatEndsOn, KeyRepeatTimes,
}

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("event validation failed")

// ValidationError reports a record that cannot become an Event.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := "event: " + e.Field + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, reason string, err error) error {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}

// FieldMap renames canonical keys onto the caller's record keys, e.g.
// {"starts": "startson"}. Canonical keys missing from the map are read from
// the identically named record key.
type FieldMap map[string]string

// Resolve returns the record key that holds the given canonical key.
func (fm FieldMap) Resolve(canonical string) string {
	if k, ok := fm[canonical]; ok && k != "" {
		return k
	}
	return canonical
}

// Record is a plain keyed event record, typically decoded from JSON or YAML.
type Record map[string]any

// FromRecord converts a record into an Event. Date values without an
// explicit offset are interpreted in loc (UTC when nil). Record keys that
// are not consumed as canonical fields are passed through in Event.Fields.
func FromRecord(rec Record, fm FieldMap, loc *time.Location) (model.Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	get := func(canonical string) (any, bool) {
		v, ok := rec[fm.Resolve(canonical)]
		if ok && v == nil {
			return nil, false
		}
		return v, ok
	}

	var ev model.Event

	raw, ok := get(KeyStarts)
	if !ok {
		return ev, invalid(KeyStarts, "missing", nil)
	}
	starts, err := ParseTime(raw, loc)
	if err != nil {
		return ev, invalid(KeyStarts, "unparsable", err)
	}
	ev.Starts = starts
	ev.Ends = starts

	if raw, ok := get(KeyEnds); ok {
		ends, err := ParseTime(raw, loc)
		if err != nil {
			return ev, invalid(KeyEnds, "unparsable", err)
		}
		if ends.Before(starts) {
			return ev, invalid(KeyEnds, "precedes starts", nil)
		}
		ev.Ends = ends.In(starts.Location())
	}

	if raw, ok := get(KeyID); ok {
		ev.ID = fmt.Sprint(raw)
	}
	if raw, ok := get(KeyName); ok {
		ev.Name = fmt.Sprint(raw)
	}

	rule, err := ruleFromRecord(get, starts.Location())
	if err != nil {
		return ev, err
	}
	ev.Repeats = rule

	consumed := make(map[string]bool, len(canonicalKeys))
	for _, k := range canonicalKeys {
		consumed[fm.Resolve(k)] = true
	}
	for k, v := range rec {
		if consumed[k] {
			continue
		}
		if ev.Fields == nil {
			ev.Fields = make(map[string]any)
		}
		ev.Fields[k] = v
	}

	return ev, nil
}

func ruleFromRecord(get func(string) (any, bool), loc *time.Location) (*model.Rule, error) {
	raw, ok := get(KeyRepeats)
	if !ok {
		return nil, nil
	}
	s, isString := raw.(string)
	if !isString {
		return nil, invalid(KeyRepeats, fmt.Sprintf("expected string, got %T", raw), nil)
	}
	typ, err := model.ParseRepeatType(s)
	if err != nil {
		return nil, invalid(KeyRepeats, "unknown type", err)
	}
	if typ == model.RepeatNone {
		return nil, nil
	}

	var onDays []time.Weekday
	if raw, ok := get(KeyRepeatsOn); ok {
		onDays, err = parseWeekdays(raw)
		if err != nil {
			return nil, invalid(KeyRepeatsOn, "bad weekday", err)
		}
	}

	var endsOn *time.Time
	if raw, ok := get(KeyRepeatEndsOn); ok {
		t, err := ParseTime(raw, loc)
		if err != nil {
			return nil, invalid(KeyRepeatEndsOn, "unparsable", err)
		}
		t = t.In(loc)
		endsOn = &t
	}

	times := 0
	if raw, ok := get(KeyRepeatTimes); ok {
		n, err := toInt(raw)
		if err != nil {
			return nil, invalid(KeyRepeatTimes, "not an integer", err)
		}
		if n < 1 {
			return nil, invalid(KeyRepeatTimes, "must be positive", nil)
		}
		times = n
	}

	r := model.NewRule(typ, onDays, endsOn, times)
	return &r, nil
}

func parseWeekdays(raw any) ([]time.Weekday, error) {
	var items []any
	switch v := raw.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) != "" {
				items = append(items, part)
			}
		}
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case []time.Weekday:
		return v, nil
	case []any:
		items = v
	default:
		return nil, fmt.Errorf("unsupported weekday list %T", raw)
	}

	out := make([]time.Weekday, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			wd, err := model.ParseWeekday(s)
			if err != nil {
				return nil, err
			}
			out = append(out, wd)
			continue
		}
		n, err := toInt(it)
		if err != nil {
			return nil, err
		}
		if n < 0 || n > 6 {
			return nil, fmt.Errorf("weekday index %d out of range", n)
		}
		out = append(out, time.Weekday(n))
	}
	return out, nil
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not whole", v)
		}
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	}
	return 0, fmt.Errorf("unsupported number %T", raw)
}

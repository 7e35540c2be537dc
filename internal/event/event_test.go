package event

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monthcal/internal/model"
)

func TestFromRecordMissingStarts(t *testing.T) {
	_, err := FromRecord(Record{"name": "x"}, nil, time.UTC)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, KeyStarts, verr.Field)
}

func TestFromRecordUnparsableStarts(t *testing.T) {
	_, err := FromRecord(Record{"starts": "not a date"}, nil, time.UTC)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = FromRecord(Record{"starts": nil}, nil, time.UTC)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFromRecordEndsDefaultsToStarts(t *testing.T) {
	ev, err := FromRecord(Record{"starts": "2014-01-03T10:00:00Z"}, nil, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, ev.Starts, ev.Ends)
	assert.Zero(t, ev.Duration())
	assert.Nil(t, ev.Repeats)
}

func TestFromRecordEndsBeforeStarts(t *testing.T) {
	_, err := FromRecord(Record{
		"starts": "2014-01-03T10:00:00Z",
		"ends":   "2014-01-03T09:00:00Z",
	}, nil, time.UTC)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KeyEnds, verr.Field)
}

func TestFromRecordFieldMap(t *testing.T) {
	fm := FieldMap{
		KeyStarts:       "startson",
		KeyRepeatsOn:    "repeatsOn",
		KeyRepeatEndsOn: "repeatEndson",
		KeyRepeatTimes:  "repeatTimes",
	}
	rec := Record{
		"name":         "One",
		"startson":     "2014-01-02",
		"repeats":      "weekly",
		"repeatsOn":    []any{"Monday", "Tuesday", "Thursday"},
		"repeatEndson": "2014-01-10",
		"color":        "red",
	}

	ev, err := FromRecord(rec, fm, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "One", ev.Name)
	assert.Equal(t, time.Date(2014, 1, 2, 0, 0, 0, 0, time.UTC), ev.Starts)
	require.NotNil(t, ev.Repeats)
	assert.Equal(t, model.RepeatWeekly, ev.Repeats.Type)
	assert.Equal(t, []time.Weekday{time.Monday, time.Tuesday, time.Thursday}, ev.Repeats.OnDays)
	assert.Equal(t, model.EndsOn, ev.Repeats.Terminal.Kind)
	assert.Equal(t, 10, ev.Repeats.Terminal.Until.Day())

	// Only non-canonical keys pass through.
	assert.Equal(t, map[string]any{"color": "red"}, ev.Fields)
}

func TestFromRecordRepeatTimesWinsOverEndsOn(t *testing.T) {
	ev, err := FromRecord(Record{
		"starts":         "2014-01-01",
		"repeats":        "daily",
		"repeat_times":   float64(2),
		"repeat_ends_on": "2014-01-04",
	}, nil, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, model.Count, ev.Repeats.Terminal.Kind)
	assert.Equal(t, 2, ev.Repeats.Terminal.Times)
}

func TestFromRecordRejectsBadRepeatFields(t *testing.T) {
	base := func(extra Record) Record {
		r := Record{"starts": "2014-01-01", "repeats": "weekly"}
		for k, v := range extra {
			r[k] = v
		}
		return r
	}

	tests := []struct {
		name  string
		rec   Record
		field string
	}{
		{"unknown type", Record{"starts": "2014-01-01", "repeats": "hourly"}, KeyRepeats},
		{"non string type", Record{"starts": "2014-01-01", "repeats": 3}, KeyRepeats},
		{"bad weekday", base(Record{"repeats_on": "monday,funday"}), KeyRepeatsOn},
		{"weekday index", base(Record{"repeats_on": []any{7}}), KeyRepeatsOn},
		{"zero times", base(Record{"repeat_times": 0}), KeyRepeatTimes},
		{"fractional times", base(Record{"repeat_times": 1.5}), KeyRepeatTimes},
		{"bad ends on", base(Record{"repeat_ends_on": "soon"}), KeyRepeatEndsOn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRecord(tt.rec, nil, time.UTC)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestFromRecordRepeatsNoneIsOneOff(t *testing.T) {
	ev, err := FromRecord(Record{"starts": "2014-01-01", "repeats": "none"}, nil, time.UTC)
	require.NoError(t, err)
	assert.Nil(t, ev.Repeats)
	assert.False(t, ev.Repeating())
}

func TestFromRecordWeekdayIndexesAndCSV(t *testing.T) {
	ev, err := FromRecord(Record{
		"starts":     "2014-01-01",
		"repeats":    "weekly",
		"repeats_on": []any{float64(1), 3},
	}, nil, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, ev.Repeats.OnDays)

	ev, err = FromRecord(Record{
		"starts":     "2014-01-01",
		"repeats":    "weekly",
		"repeats_on": "sun, sat",
	}, nil, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, ev.Repeats.OnDays)
}

func TestFromRecordKeepsDeclaredOffset(t *testing.T) {
	ev, err := FromRecord(Record{
		"starts":         "2014-10-22T16:00:00-07:00",
		"repeats":        "weekly",
		"repeat_ends_on": "2014-10-30",
	}, nil, time.UTC)
	require.NoError(t, err)

	_, offset := ev.Starts.Zone()
	assert.Equal(t, -7*3600, offset)

	// Zone-less end dates are read in the event's own zone.
	_, offset = ev.Repeats.Terminal.Until.Zone()
	assert.Equal(t, -7*3600, offset)
	assert.Equal(t, 30, ev.Repeats.Terminal.Until.Day())
}

func TestParseTimeForms(t *testing.T) {
	loc := time.FixedZone("X", 2*3600)

	got, err := ParseTime("2014-01-03 10:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2014, 1, 3, 10, 30, 0, 0, loc), got)

	ms := time.Date(2014, 1, 3, 0, 0, 0, 0, time.UTC).UnixMilli()
	got, err = ParseTime(float64(ms), loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2014, 1, 3, 0, 0, 0, 0, time.UTC)))

	ts := time.Date(2014, 1, 3, 0, 0, 0, 0, time.UTC)
	got, err = ParseTime(ts, loc)
	require.NoError(t, err)
	assert.Equal(t, ts, got)

	for _, bad := range []any{"", time.Time{}, true, 1.25} {
		_, err := ParseTime(bad, loc)
		assert.Error(t, err, "%v", bad)
	}
}

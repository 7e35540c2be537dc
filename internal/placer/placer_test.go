package placer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monthcal/internal/calendar"
	"monthcal/internal/model"
)

func at(day, hour, min, sec int) time.Time {
	return time.Date(2014, 1, day, hour, min, sec, 0, time.UTC)
}

func january(opts calendar.Options) *calendar.Month {
	return calendar.New(at(1, 0, 0, 0), opts)
}

func daily(times int) *model.Rule {
	r := model.NewRule(model.RepeatDaily, nil, nil, times)
	return &r
}

func counts(m *calendar.Month) map[int]int {
	out := map[int]int{}
	for _, d := range m.Days() {
		if len(d.Events) > 0 {
			out[d.Date] = len(d.Events)
		}
	}
	return out
}

func TestPlaceRequiresDayObjects(t *testing.T) {
	err := Place([]model.Event{{Starts: at(3, 0, 0, 0)}}, january(calendar.Options{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	// Checked before the empty-input shortcut.
	assert.ErrorIs(t, Place(nil, january(calendar.Options{})), ErrConfiguration)
}

func TestPlaceEmptyIsNoop(t *testing.T) {
	m := january(calendar.Options{DayObjects: true})
	res, err := PlaceWithResult(nil, m)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, counts(m))
}

func TestPlaceAttachesOccurrences(t *testing.T) {
	m := january(calendar.Options{DayObjects: true})
	events := []model.Event{
		{ID: "a", Name: "standup", Starts: at(3, 9, 0, 0), Ends: at(3, 9, 15, 0), Repeats: daily(2)},
		{ID: "b", Name: "lunch", Starts: at(4, 12, 0, 0), Ends: at(4, 13, 0, 0)},
		{ID: "c", Name: "later", Starts: time.Date(2014, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	res, err := PlaceWithResult(events, m)
	require.NoError(t, err)
	assert.Equal(t, Result{Events: 3, Placed: 3}, res)
	assert.Equal(t, map[int]int{3: 1, 4: 2}, counts(m))

	day4 := m.GetDay(4).Events
	assert.Equal(t, "standup", day4[0].Name)
	assert.Equal(t, at(4, 9, 0, 0), day4[0].Starts)
	assert.Equal(t, "lunch", day4[1].Name)

	// Padding slots stay empty by default.
	slots := m.Slots()
	assert.Empty(t, slots[len(slots)-1].Events)
}

func TestPlaceWithPadding(t *testing.T) {
	m := january(calendar.Options{DayObjects: true})
	events := []model.Event{
		{Name: "new month", Starts: time.Date(2014, 2, 1, 8, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, Place(events, m, WithPadding()))

	slots := m.Slots()
	last := slots[len(slots)-1]
	require.True(t, last.Padding)
	require.Len(t, last.Events, 1)
	assert.Equal(t, "new month", last.Events[0].Name)
}

func TestSortOrder(t *testing.T) {
	events := []model.Event{
		{Name: "b", Starts: at(5, 10, 0, 0)},
		{Name: "c", Starts: at(5, 9, 30, 59)},
		{Name: "a", Starts: at(5, 9, 30, 1)},
		{Name: "z", Starts: at(4, 23, 0, 0)},
	}
	sorted := Sort(events)

	names := make([]string, len(sorted))
	for i, ev := range sorted {
		names[i] = ev.Name
	}
	// Seconds are not a sort key: "a" at :01 and "c" at :59 tie on the
	// minute and fall back to name order.
	assert.Equal(t, []string{"z", "a", "c", "b"}, names)
	assert.Equal(t, "b", events[0].Name, "input is not reordered")
}

func TestSortIsStable(t *testing.T) {
	events := []model.Event{
		{ID: "1", Name: "same", Starts: at(5, 9, 0, 10)},
		{ID: "2", Name: "same", Starts: at(5, 9, 0, 0)},
	}
	sorted := Sort(events)
	assert.Equal(t, "1", sorted[0].ID)
	assert.Equal(t, "2", sorted[1].ID)
}

func TestPlaceOrdersWithinDay(t *testing.T) {
	m := january(calendar.Options{DayObjects: true})
	events := []model.Event{
		{Name: "zeta", Starts: at(10, 8, 0, 0)},
		{Name: "alpha", Starts: at(10, 8, 0, 30)},
		{Name: "early", Starts: at(10, 7, 0, 0)},
	}
	require.NoError(t, Place(events, m))

	got := m.GetDay(10).Events
	require.Len(t, got, 3)
	assert.Equal(t, "early", got[0].Name)
	assert.Equal(t, "alpha", got[1].Name)
	assert.Equal(t, "zeta", got[2].Name)
}

func TestPlaceIsIdempotentAfterRebuild(t *testing.T) {
	m := january(calendar.Options{DayObjects: true})
	events := []model.Event{
		{Name: "daily", Starts: at(3, 9, 0, 0), Repeats: daily(0)},
		{Name: "once", Starts: at(15, 9, 0, 0)},
	}

	require.NoError(t, Place(events, m))
	first := counts(m)

	m.Build()
	assert.Empty(t, counts(m))
	require.NoError(t, Place(events, m))
	assert.Equal(t, first, counts(m))

	// Without a rebuild the slots accumulate.
	require.NoError(t, Place(events, m))
	assert.Equal(t, 2*first[3], counts(m)[3])
}

func TestOccurrencesDoNotAlias(t *testing.T) {
	m := january(calendar.Options{DayObjects: true})
	events := []model.Event{{
		Name:    "shared",
		Starts:  at(3, 9, 0, 0),
		Repeats: daily(3),
		Fields:  map[string]any{"room": "A"},
	}}
	require.NoError(t, Place(events, m))

	m.GetDay(3).Events[0].Fields["room"] = "B"
	assert.Equal(t, "A", m.GetDay(4).Events[0].Fields["room"])
	assert.Equal(t, "A", events[0].Fields["room"])
}

func TestSegments(t *testing.T) {
	occ := model.Occurrence{
		Event: model.Event{Name: "conf", Starts: at(10, 14, 0, 0), Ends: at(12, 11, 0, 0)},
		Date:  at(10, 0, 0, 0),
	}
	segs := Segments(occ)
	require.Len(t, segs, 3)

	assert.Equal(t, at(10, 14, 0, 0), segs[0].Starts)
	assert.Equal(t, at(11, 0, 0, 0).Add(-time.Nanosecond), segs[0].Ends)
	assert.Equal(t, at(10, 0, 0, 0), segs[0].Date)

	assert.Equal(t, at(11, 0, 0, 0), segs[1].Starts)
	assert.Equal(t, at(12, 0, 0, 0).Add(-time.Nanosecond), segs[1].Ends)
	assert.Equal(t, at(11, 0, 0, 0), segs[1].Date)

	assert.Equal(t, at(12, 0, 0, 0), segs[2].Starts)
	assert.Equal(t, at(12, 11, 0, 0), segs[2].Ends)
	assert.Equal(t, at(12, 0, 0, 0), segs[2].Date)

	single := model.Occurrence{Event: model.Event{Starts: at(10, 9, 0, 0), Ends: at(10, 10, 0, 0)}}
	assert.Equal(t, []model.Occurrence{single}, Segments(single))
}

func TestSegmentsEndingAtMidnight(t *testing.T) {
	late := model.Occurrence{
		Event: model.Event{Name: "late", Starts: at(10, 22, 0, 0), Ends: at(11, 0, 0, 0)},
		Date:  at(10, 0, 0, 0),
	}
	assert.Equal(t, []model.Occurrence{late}, Segments(late))

	overnight := model.Occurrence{
		Event: model.Event{Name: "overnight", Starts: at(10, 22, 0, 0), Ends: at(12, 0, 0, 0)},
		Date:  at(10, 0, 0, 0),
	}
	segs := Segments(overnight)
	require.Len(t, segs, 2)
	assert.Equal(t, at(11, 0, 0, 0), segs[1].Starts)
	assert.Equal(t, at(12, 0, 0, 0), segs[1].Ends)
	assert.Equal(t, at(11, 0, 0, 0), segs[1].Date)

	// A zero-length event at midnight stays on its own day.
	instant := model.Occurrence{Event: model.Event{Starts: at(10, 0, 0, 0), Ends: at(10, 0, 0, 0)}}
	assert.Len(t, Segments(instant), 1)
}

func TestPlaceWithSpread(t *testing.T) {
	m := january(calendar.Options{DayObjects: true})
	events := []model.Event{
		// Starts in December and runs into the month.
		{Name: "holiday", Starts: time.Date(2013, 12, 30, 9, 0, 0, 0, time.UTC), Ends: at(2, 17, 0, 0)},
		// Runs past the end of the month.
		{Name: "trip", Starts: at(30, 9, 0, 0), Ends: time.Date(2014, 2, 2, 17, 0, 0, 0, time.UTC)},
	}

	res, err := PlaceWithResult(events, m, WithSpread())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Placed)
	assert.Equal(t, map[int]int{1: 1, 2: 1, 30: 1, 31: 1}, counts(m))

	jan2 := m.GetDay(2).Events[0]
	assert.Equal(t, at(2, 0, 0, 0), jan2.Starts)
	assert.Equal(t, at(2, 17, 0, 0), jan2.Ends)

	// With padding the spill-over days show up on the outer slots too.
	m.Build()
	res, err = PlaceWithResult(events, m, WithSpread(), WithPadding())
	require.NoError(t, err)
	assert.Equal(t, 7, res.Placed)
}

func TestPlaceWithSpreadRepeating(t *testing.T) {
	m := january(calendar.Options{DayObjects: true})
	r := model.NewRule(model.RepeatWeekly, []time.Weekday{time.Friday}, nil, 0)
	events := []model.Event{{
		Name:    "weekend",
		Starts:  at(3, 18, 0, 0),
		Ends:    at(5, 20, 0, 0),
		Repeats: &r,
	}}
	require.NoError(t, Place(events, m, WithSpread()))

	// Friday to Sunday every week from Jan 3; Jan 31 spills into February.
	want := map[int]int{}
	for _, fri := range []int{3, 10, 17, 24} {
		want[fri], want[fri+1], want[fri+2] = 1, 1, 1
	}
	want[31] = 1
	assert.Equal(t, want, counts(m))
}

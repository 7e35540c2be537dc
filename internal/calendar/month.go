package calendar

import (
	"time"

	"monthcal/internal/dateutil"
)

// Options controls how a Month grid is built.
type Options struct {
	// DayObjects marks the grid as able to carry events. Without it the grid
	// is only meaningful through Numbers.
	DayObjects bool

	// Auto builds and caches the grid eagerly on every Build.
	Auto bool

	// Location is the calendar's timezone. Nil uses the target date's
	// location.
	Location *time.Location
}

// Month is one calendar month laid out as Sunday-first weeks.
//
// The grid is cached on first use and dropped by Build, Next and Prev; day
// slots (and any events placed on them) never survive a rebuild.
type Month struct {
	opts Options

	first time.Time // local midnight of day 1

	daysInMonth int
	firstOffset int
	lastOffset  int
	weeks       int

	grid [][]*Day
}

// New builds the month containing date.
func New(date time.Time, opts Options) *Month {
	if opts.Location == nil {
		opts.Location = date.Location()
	}
	m := &Month{
		opts:  opts,
		first: dateutil.StartOfMonth(date.In(opts.Location)),
	}
	m.Build()
	return m
}

// Build recomputes the month metrics. With Auto the grid is rebuilt
// immediately; otherwise the cache is cleared and rebuilt on next access.
func (m *Month) Build() {
	y, mo := m.Year(), m.Month()
	m.daysInMonth = dateutil.DaysIn(y, mo)
	m.firstOffset = int(dateutil.FirstWeekday(y, mo))
	m.lastOffset = (m.firstOffset + m.daysInMonth - 1) % 7
	m.weeks = dateutil.WeeksIn(y, mo)

	m.grid = nil
	if m.opts.Auto {
		m.grid = m.slice()
	}
}

// Invalidate drops the cached grid without touching the month metrics.
func (m *Month) Invalidate() {
	m.grid = nil
}

func (m *Month) Year() int {
	return m.first.Year()
}

func (m *Month) Month() time.Month {
	return m.first.Month()
}

func (m *Month) Location() *time.Location {
	return m.opts.Location
}

func (m *Month) DayObjects() bool {
	return m.opts.DayObjects
}

func (m *Month) DaysInMonth() int {
	return m.daysInMonth
}

func (m *Month) FirstWeekdayOffset() int {
	return m.firstOffset
}

func (m *Month) LastWeekdayOffset() int {
	return m.lastOffset
}

func (m *Month) NumberOfWeeks() int {
	return m.weeks
}

func (m *Month) First() time.Time {
	return m.first
}

func (m *Month) Last() time.Time {
	return m.first.AddDate(0, 0, m.daysInMonth-1)
}

// Ordinal is the month's position on a continuous month axis, see
// dateutil.MonthOrdinal.
func (m *Month) Ordinal() int {
	return dateutil.MonthOrdinal(m.Year(), m.Month())
}

// Contains reports whether t's local date lies in this month.
func (m *Month) Contains(t time.Time) bool {
	return dateutil.MonthOrdinalOf(t) == m.Ordinal()
}

// Grid returns the weeks of the month, building and caching them on first
// use.
func (m *Month) Grid() [][]*Day {
	if m.grid == nil {
		m.grid = m.slice()
	}
	return m.grid
}

// Slots returns the grid flattened in calendar order: leading padding, the
// days of the month, trailing padding.
func (m *Month) Slots() []*Day {
	grid := m.Grid()
	out := make([]*Day, 0, len(grid)*7)
	for _, week := range grid {
		out = append(out, week...)
	}
	return out
}

// Days returns only the real days 1..DaysInMonth.
func (m *Month) Days() []*Day {
	slots := m.Slots()
	return slots[m.firstOffset : m.firstOffset+m.daysInMonth]
}

// Numbers is the bare-number view of the grid.
func (m *Month) Numbers() [][]int {
	grid := m.Grid()
	out := make([][]int, len(grid))
	for i, week := range grid {
		out[i] = make([]int, len(week))
		for j, d := range week {
			out[i][j] = d.Date
		}
	}
	return out
}

// GetDay returns the slot of the given day of this month, or nil when date
// is outside 1..DaysInMonth.
func (m *Month) GetDay(date int) *Day {
	if date < 1 || date > m.daysInMonth {
		return nil
	}
	index := date - 1 + m.firstOffset
	week := index / 7
	return m.Grid()[week][index-week*7]
}

// DayFor returns the slot showing t's calendar date (read in the calendar's
// location), padding days included, or nil when the grid does not show it.
func (m *Month) DayFor(t time.Time) *Day {
	idx := m.firstOffset + dateutil.DaysBetween(m.first, t.In(m.opts.Location))
	if idx < 0 || idx >= m.weeks*7 {
		return nil
	}
	return m.Grid()[idx/7][idx%7]
}

// DayOn is DayFor for a civil date given as numbers, so callers holding a
// date in another location can look it up without a timezone shift.
func (m *Month) DayOn(year int, month time.Month, date int) *Day {
	return m.DayFor(time.Date(year, month, date, 0, 0, 0, 0, m.opts.Location))
}

// GetToday returns today's slot when now falls within this month.
func (m *Month) GetToday(now time.Time) *Day {
	now = now.In(m.opts.Location)
	if !m.Contains(now) {
		return nil
	}
	return m.GetDay(now.Day())
}

// Next moves the calendar forward one month and rebuilds it.
func (m *Month) Next() {
	m.first = m.first.AddDate(0, 1, 0)
	m.Build()
}

// Prev moves the calendar back one month and rebuilds it.
func (m *Month) Prev() {
	m.first = m.first.AddDate(0, -1, 0)
	m.Build()
}

// MonthName returns the English name of the month offset months away,
// wrapping around the year in both directions.
func (m *Month) MonthName(offset int) string {
	idx := (int(m.Month()) - 1 + offset) % 12
	if idx < 0 {
		idx += 12
	}
	return time.Month(idx + 1).String()
}

func (m *Month) PrevMonthName() string { return m.MonthName(-1) }
func (m *Month) NextMonthName() string { return m.MonthName(1) }

func (m *Month) slice() [][]*Day {
	start := m.first.AddDate(0, 0, -m.firstOffset)
	grid := make([][]*Day, m.weeks)
	for w := range grid {
		week := make([]*Day, 7)
		for i := range week {
			t := start.AddDate(0, 0, w*7+i)
			week[i] = newDay(t, t.Month() != m.Month())
		}
		grid[w] = week
	}
	return grid
}

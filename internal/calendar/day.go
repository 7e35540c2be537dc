package calendar

import (
	"time"

	"monthcal/internal/dateutil"
	"monthcal/internal/model"
)

// Day is one cell of the month grid. Padding days belong to the previous or
// next month and only fill a week row to seven columns.
type Day struct {
	Year    int
	Month   time.Month
	Date    int
	Padding bool

	// Events is filled by the placer; it starts empty on every rebuild.
	Events []model.Occurrence

	loc *time.Location
}

func newDay(t time.Time, padding bool) *Day {
	y, m, d := t.Date()
	return &Day{Year: y, Month: m, Date: d, Padding: padding, loc: t.Location()}
}

// Time returns local midnight of the day in the calendar's location.
func (d *Day) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, d.location())
}

// In returns local midnight of the same civil date in loc.
func (d *Day) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, loc)
}

func (d *Day) location() *time.Location {
	if d.loc == nil {
		return time.UTC
	}
	return d.loc
}

// Weekday of the day, Sunday = 0.
func (d *Day) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Name is the English weekday name.
func (d *Day) Name() string {
	return d.Weekday().String()
}

// MonthName is the English month name of the day's own month.
func (d *Day) MonthName() string {
	return d.Month.String()
}

// IsToday reports whether now falls on this day in the calendar's location.
func (d *Day) IsToday(now time.Time) bool {
	return dateutil.SameDate(now.In(d.location()), d.Time())
}

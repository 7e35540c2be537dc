package web

import (
	"time"

	"monthcal/internal/calendar"
	"monthcal/internal/model"
)

// MonthView is the JSON shape of a placed month.
type MonthView struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	MonthName     string `json:"month_name"`
	PrevMonthName string `json:"prev_month_name"`
	NextMonthName string `json:"next_month_name"`
	Timezone      string `json:"timezone"`

	DaysInMonth        int `json:"days_in_month"`
	FirstWeekdayOffset int `json:"first_weekday_offset"`
	NumberOfWeeks      int `json:"number_of_weeks"`

	// Exactly one of Weeks and Numbers is set.
	Weeks   [][]DayView `json:"weeks,omitempty"`
	Numbers [][]int     `json:"numbers,omitempty"`
}

// DayView is one grid slot.
type DayView struct {
	Year      int              `json:"year"`
	Month     int              `json:"month"`
	Date      int              `json:"date"`
	Name      string           `json:"name"`
	MonthName string           `json:"month_name"`
	IsToday   bool             `json:"is_today"`
	Padding   bool             `json:"padding"`
	Events    []OccurrenceView `json:"events"`
}

// OccurrenceView is a JSON-friendly view of an occurrence.
type OccurrenceView struct {
	EventID     string         `json:"event_id"`
	InstanceKey string         `json:"instance_key"`
	Name        string         `json:"name"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	Repeats     string         `json:"repeats"`
	Fields      map[string]any `json:"fields,omitempty"`
}

// NewMonthView renders m. bare selects the numbers-only grid.
func NewMonthView(m *calendar.Month, now time.Time, bare bool) MonthView {
	v := MonthView{
		Year:               m.Year(),
		Month:              int(m.Month()),
		MonthName:          m.MonthName(0),
		PrevMonthName:      m.PrevMonthName(),
		NextMonthName:      m.NextMonthName(),
		Timezone:           m.Location().String(),
		DaysInMonth:        m.DaysInMonth(),
		FirstWeekdayOffset: m.FirstWeekdayOffset(),
		NumberOfWeeks:      m.NumberOfWeeks(),
	}
	if bare {
		v.Numbers = m.Numbers()
		return v
	}

	grid := m.Grid()
	v.Weeks = make([][]DayView, len(grid))
	for i, week := range grid {
		v.Weeks[i] = make([]DayView, len(week))
		for j, d := range week {
			v.Weeks[i][j] = newDayView(d, now)
		}
	}
	return v
}

func newDayView(d *calendar.Day, now time.Time) DayView {
	dv := DayView{
		Year:      d.Year,
		Month:     int(d.Month),
		Date:      d.Date,
		Name:      d.Name(),
		MonthName: d.MonthName(),
		IsToday:   d.IsToday(now),
		Padding:   d.Padding,
		Events:    make([]OccurrenceView, 0, len(d.Events)),
	}
	for _, occ := range d.Events {
		dv.Events = append(dv.Events, newOccurrenceView(occ))
	}
	return dv
}

func newOccurrenceView(occ model.Occurrence) OccurrenceView {
	repeats := model.RepeatNone
	if occ.Repeating() {
		repeats = occ.Repeats.Type
	}
	return OccurrenceView{
		EventID:     occ.ID,
		InstanceKey: occ.InstanceKey(),
		Name:        occ.Name,
		Start:       occ.Starts,
		End:         occ.Ends,
		Repeats:     repeats.String(),
		Fields:      occ.Fields,
	}
}

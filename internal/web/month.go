package web

import (
	"fmt"
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"

	"monthcal/internal/calendar"
	"monthcal/internal/config"
	"monthcal/internal/ics"
	appLog "monthcal/internal/log"
	"monthcal/internal/model"
	"monthcal/internal/placer"
)

const monthCacheTTL = 30 * time.Second

type monthKey struct {
	year  int
	month time.Month
}

type monthEntry struct {
	month   *calendar.Month // read-only once cached
	builtAt time.Time
	gen     uint64 // events generation the month was placed from
}

// PlacerOptions maps the placement switches of cfg onto placer options.
func PlacerOptions(cfg *config.Config) []placer.Option {
	var opts []placer.Option
	if cfg.Spread {
		opts = append(opts, placer.WithSpread())
	}
	if cfg.Padding {
		opts = append(opts, placer.WithPadding())
	}
	return opts
}

// PlaceMonth builds the given month in loc and places events on it.
func PlaceMonth(events []model.Event, year int, month time.Month, loc *time.Location, opts ...placer.Option) (*calendar.Month, placer.Result, error) {
	m := calendar.New(time.Date(year, month, 1, 0, 0, 0, 0, loc), calendar.Options{
		DayObjects: true,
		Auto:       true,
		Location:   loc,
	})
	res, err := placer.PlaceWithResult(events, m, opts...)
	if err != nil {
		return nil, res, err
	}
	return m, res, nil
}

// month returns the placed month, from cache when fresh.
func (s *Server) month(key monthKey) (*calendar.Month, error) {
	now := s.now()

	s.eventsMu.RLock()
	events, gen := s.events, s.gen
	s.eventsMu.RUnlock()

	s.monthMu.RLock()
	e := s.monthCache[key]
	s.monthMu.RUnlock()
	if e != nil && e.gen == gen && now.Sub(e.builtAt) < monthCacheTTL {
		return e.month, nil
	}

	m, res, err := PlaceMonth(events, key.year, key.month, s.loc, PlacerOptions(s.cfg)...)
	if err != nil {
		return nil, err
	}
	appLog.Debug("month built", "year", key.year, "month", key.month.String(),
		"placed", res.Placed, "dropped", res.Dropped)

	s.storeMonth(key, &monthEntry{month: m, builtAt: now, gen: gen})
	return m, nil
}

// storeMonth caches e unless the events changed since it was placed.
func (s *Server) storeMonth(key monthKey, e *monthEntry) {
	s.monthMu.Lock()
	defer s.monthMu.Unlock()

	s.eventsMu.RLock()
	current := s.gen
	s.eventsMu.RUnlock()
	if e.gen != current {
		return
	}
	s.monthCache[key] = e
}

func (s *Server) invalidateMonths() {
	s.monthMu.Lock()
	clear(s.monthCache)
	s.monthMu.Unlock()
}

// monthKeyFromQuery reads ?year=&month= (1-12), defaulting to the current
// month in the server's timezone.
func (s *Server) monthKeyFromQuery(r *http.Request) (monthKey, error) {
	now := s.now().In(s.loc)
	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), now.Year())
	month := parseIntDefault(q.Get("month"), int(now.Month()))
	if month < 1 || month > 12 {
		return monthKey{}, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return monthKey{}, fmt.Errorf("year must be between 1 and 9999")
	}
	return monthKey{year: year, month: time.Month(month)}, nil
}

// handleMonth returns the placed month grid.
//
// GET /api/month?year=2014&month=1&bare=1
//   - year, month: target month (default: current month)
//   - bare:        numbers-only grid without events
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	key, err := s.monthKeyFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := s.month(key)
	if err != nil {
		appLog.Error("api month: placement failed", err, "year", key.year, "month", key.month.String())
		writeError(w, http.StatusInternalServerError, "failed to build month")
		return
	}

	bare := parseIntDefault(r.URL.Query().Get("bare"), 0) == 1
	writeJSON(w, http.StatusOK, NewMonthView(m, s.now(), bare))
}

// handleMonthICS returns the occurrences of a month as iCalendar.
func (s *Server) handleMonthICS(w http.ResponseWriter, r *http.Request) {
	key, err := s.monthKeyFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := s.month(key)
	if err != nil {
		appLog.Error("api month.ics: placement failed", err, "year", key.year, "month", key.month.String())
		writeError(w, http.StatusInternalServerError, "failed to build month")
		return
	}

	cal := ics.ExportMonth(m, ics.Options{
		Name:     fmt.Sprintf("%s %d", key.month, key.year),
		Location: s.loc,
		Now:      s.now(),
	})
	writeCalendar(w, cal)
}

// handleEventsICS returns every loaded event as a master VEVENT.
func (s *Server) handleEventsICS(w http.ResponseWriter, _ *http.Request) {
	s.eventsMu.RLock()
	events := s.events
	s.eventsMu.RUnlock()

	cal, err := ics.ExportEvents(events, ics.Options{Name: "monthcal", Location: s.loc, Now: s.now()})
	if err != nil {
		appLog.Error("api events.ics: export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export events")
		return
	}
	writeCalendar(w, cal)
}

func writeCalendar(w http.ResponseWriter, cal *ical.Calendar) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := ics.Write(w, cal); err != nil {
		appLog.Error("failed to write calendar response", err)
	}
}

package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	appLog "monthcal/internal/log"
	"monthcal/internal/metric"
	"monthcal/internal/model"
	"monthcal/internal/source"
)

// SetEvents replaces the served events and drops every cached month.
func (s *Server) SetEvents(events []model.Event) {
	s.eventsMu.Lock()
	s.events = events
	s.loadedAt = s.now()
	s.gen++
	s.eventsMu.Unlock()

	s.invalidateMonths()
	metric.EventsLoaded.Set(float64(len(events)))
}

// Reload reads the events source again. On failure the previous events
// stay in place.
func (s *Server) Reload(ctx context.Context) error {
	if s.loader == nil {
		return errors.New("no events source configured")
	}
	events, err := s.loader.Load(ctx)
	if err != nil {
		metric.ReloadsTotal.WithLabelValues("error").Inc()
		appLog.Error("events reload failed; keeping previous events", err)
		return err
	}
	metric.ReloadsTotal.WithLabelValues("ok").Inc()
	s.SetEvents(events)
	return nil
}

type reloadResponse struct {
	Events   int       `json:"events"`
	LoadedAt time.Time `json:"loaded_at"`
}

// handleReload triggers a reload on demand.
//
// POST /api/reload
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.eventsMu.RLock()
	resp := reloadResponse{Events: len(s.events), LoadedAt: s.loadedAt}
	s.eventsMu.RUnlock()
	writeJSON(w, http.StatusOK, resp)
}

// startReloaders runs the cron schedule and, for local sources, the file
// watcher. The returned func stops the schedule; the watcher exits with ctx.
func (s *Server) startReloaders(ctx context.Context) (func(), error) {
	if s.loader == nil {
		return func() {}, nil
	}

	c := cron.New(cron.WithLocation(s.loc))
	if s.cfg.RefreshCron != "" {
		_, err := c.AddFunc(s.cfg.RefreshCron, func() {
			appLog.Debug("scheduled events reload")
			_ = s.Reload(ctx)
		})
		if err != nil {
			return nil, err
		}
		appLog.Info("scheduled events reload", "cron", s.cfg.RefreshCron)
	}
	c.Start()

	if s.cfg.Watch && !s.loader.Remote() {
		w, err := source.NewWatcher(s.loader.Location, source.DefaultDebounce, func() {
			_ = s.Reload(ctx)
		})
		if err != nil {
			// The schedule still covers reloads.
			appLog.Error("events watcher unavailable", err, "path", s.loader.Location)
		} else {
			go func() {
				if err := w.Run(ctx); err != nil {
					appLog.Error("events watcher stopped", err)
				}
			}()
		}
	}

	return func() { <-c.Stop().Done() }, nil
}

package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"monthcal/internal/config"
	appLog "monthcal/internal/log"
	"monthcal/internal/metric"
	"monthcal/internal/model"
	"monthcal/internal/source"
)

// Server provides the HTTP API over the loaded events.
type Server struct {
	cfg    *config.Config
	loc    *time.Location
	loader *source.Loader
	mux    *http.ServeMux
	now    func() time.Time

	eventsMu sync.RWMutex
	events   []model.Event
	loadedAt time.Time
	gen      uint64 // bumped by SetEvents

	// Placed months, keyed by year and month. Dropped on every reload.
	monthMu    sync.RWMutex
	monthCache map[monthKey]*monthEntry
}

// NewServer constructs a new Server. loader may be nil, in which case
// events are only set through SetEvents.
func NewServer(cfg *config.Config, loader *source.Loader) *Server {
	s := &Server{
		cfg:        cfg,
		loc:        cfg.Location(),
		loader:     loader,
		mux:        http.NewServeMux(),
		now:        time.Now,
		monthCache: make(map[monthKey]*monthEntry),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials leave auth off.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="monthcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	handle := func(pattern, route string, h http.HandlerFunc) {
		s.mux.Handle(pattern, metric.Instrument(route, h))
	}
	handle("GET /health", "health", s.handleHealth)
	handle("GET /api/month", "month", s.handleMonth)
	handle("GET /api/month.ics", "month_ics", s.handleMonthICS)
	handle("GET /api/events.ics", "events_ics", s.handleEventsICS)
	handle("POST /api/reload", "reload", s.handleReload)
	s.mux.Handle("GET /metrics", metric.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Run serves HTTP on cfg.Listen until ctx is cancelled, then shuts down
// gracefully. Scheduled and file-triggered reloads run alongside.
func (s *Server) Run(ctx context.Context) error {
	stop, err := s.startReloaders(ctx)
	if err != nil {
		return err
	}
	defer stop()

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

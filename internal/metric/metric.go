package metric

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OccurrencesExpanded counts occurrences produced by the recurrence
	// engine, labelled by repeat type.
	OccurrencesExpanded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monthcal_occurrences_expanded_total",
		Help: "Occurrences produced by recurrence expansion",
	}, []string{"repeats"})

	OccurrencesPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monthcal_occurrences_placed_total",
		Help: "Occurrences attached to a day slot",
	})

	OccurrencesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monthcal_occurrences_dropped_total",
		Help: "Occurrences that had no day slot to land on",
	})

	EventsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "monthcal_events_loaded",
		Help: "Events held by the server after the last successful reload",
	})

	ReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monthcal_event_reloads_total",
		Help: "Event source reloads by outcome",
	}, []string{"result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monthcal_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument counts requests to next under the given route label.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

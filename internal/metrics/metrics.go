package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegistrationMetrics counts registration status transitions.
type RegistrationMetrics struct {
	transitions *prometheus.CounterVec
}

// NewRegistrationMetrics registers the registration metrics on the
// provided registerer. A nil registerer yields a no-op recorder, which
// tests rely on.
func NewRegistrationMetrics(reg prometheus.Registerer) *RegistrationMetrics {
	if reg == nil {
		return &RegistrationMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registration_transitions_total",
		Help: "Registration status transitions by source and target status.",
	}, []string{"from", "to"})
	reg.MustRegister(transitions)
	return &RegistrationMetrics{transitions: transitions}
}

// RecordTransition counts one status transition.
func (m *RegistrationMetrics) RecordTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// HTTPMetrics records request durations per route and status.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	reg.MustRegister(duration)
	return &HTTPMetrics{duration: duration}
}

// Middleware instruments an HTTP handler chain.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.duration == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		m.duration.
			WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler serves the scrape endpoint for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

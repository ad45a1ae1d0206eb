package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "deskbridge"

// Metrics represents the collection of all Prometheus metrics
type Metrics struct {
	TicketsCreated      *prometheus.CounterVec
	APIErrors           *prometheus.CounterVec
	Notifications       *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates all collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.TicketsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_created_total",
			Help:      "Helpdesk tickets created automatically, by ticket type",
		},
		[]string{"type"},
	)

	m.APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Failed helpdesk API calls, by operation and HTTP status (0 for transport errors)",
		},
		[]string{"operation", "status"},
	)

	m.Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Issue notifications handled, by kind (new, repeat) and outcome",
		},
		[]string{"kind", "outcome"},
	)

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.registry.MustRegister(
		m.TicketsCreated,
		m.APIErrors,
		m.Notifications,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the registry for the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// TicketCreated records an auto-created ticket.
func (m *Metrics) TicketCreated(ticketType string) {
	m.TicketsCreated.WithLabelValues(ticketType).Inc()
}

// APIError records a failed helpdesk call. status is 0 for transport failures.
func (m *Metrics) APIError(operation string, status int) {
	m.APIErrors.WithLabelValues(operation, strconv.Itoa(status)).Inc()
}

// Notification records the outcome of a handled notification.
func (m *Metrics) Notification(kind, outcome string) {
	m.Notifications.WithLabelValues(kind, outcome).Inc()
}

// RequestTrackingMiddleware records request counts and latency per route
// pattern, so group ids in paths do not explode label cardinality.
func (m *Metrics) RequestTrackingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// responseWriter is a wrapper to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

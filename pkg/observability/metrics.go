package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Access control metrics
	GateDecisionsTotal     *prometheus.CounterVec
	PresenceRedirectsTotal *prometheus.CounterVec
	LoginAttemptsTotal     *prometheus.CounterVec
	LogoutTotal            *prometheus.CounterVec

	// Remote API metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Menu cache metrics
	MenuCacheHitsTotal   prometheus.Counter
	MenuCacheMissesTotal prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "route"},
		),

		GateDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_gate_decisions_total",
				Help: "Route gate decisions for protected paths",
			},
			[]string{"decision"},
		),
		PresenceRedirectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_presence_redirects_total",
				Help: "Redirects issued by the session presence guard",
			},
			[]string{"reason"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"status"},
		),
		LogoutTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_logout_total",
				Help: "Logouts by result of the remote logout call",
			},
			[]string{"remote"},
		),

		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_api_requests_total",
				Help: "Calls made to the remote API",
			},
			[]string{"operation", "status"},
		),
		APIRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_api_request_duration_seconds",
				Help:    "Remote API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		MenuCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dashboard_menu_cache_hits_total",
				Help: "Menu tree lookups served from cache",
			},
		),
		MenuCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dashboard_menu_cache_misses_total",
				Help: "Menu tree lookups that reached the remote API",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.GateDecisionsTotal,
		m.PresenceRedirectsTotal,
		m.LoginAttemptsTotal,
		m.LogoutTotal,
		m.APIRequestsTotal,
		m.APIRequestDuration,
		m.MenuCacheHitsTotal,
		m.MenuCacheMissesTotal,
	)

	return m
}

// ObserveAPICall records one remote API call. Safe on a nil receiver so
// components can run without metrics.
func (m *Metrics) ObserveAPICall(operation string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.APIRequestsTotal.WithLabelValues(operation, label).Inc()
	m.APIRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel returns the mux path template of the matched route so that
// section pages with ids do not explode label cardinality
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
		if prefix, err := route.GetPathRegexp(); err == nil {
			return prefix
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// Register it with Router.Use so the matched route is known.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

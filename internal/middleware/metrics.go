package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics for comprehensive application monitoring.
// All metrics are registered in the default Prometheus registry and
// exposed via the /metrics endpoint.

var (
	// httpRequestsTotal counts all HTTP requests by method, path, and status.
	// Use for request rate monitoring and error rate calculation.
	//
	// Labels: method (GET, POST, etc.), path (/api/chat), status (200, 404, 500)
	// Type: Counter
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration measures request processing time for performance monitoring.
	// Use for latency analysis and SLO tracking (P50, P95, P99).
	//
	// Labels: method, path
	// Type: Histogram
	// Buckets: Default Prometheus buckets (0.005s to 10s)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpRequestSize tracks request body sizes for bandwidth and quota monitoring.
	//
	// Labels: method, path
	// Type: Histogram
	// Buckets: Exponential from 100 bytes to 100 MB
	httpRequestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// httpResponseSize tracks response body sizes for bandwidth monitoring.
	//
	// Labels: method, path
	// Type: Histogram
	// Buckets: Exponential from 100 bytes to 100 MB
	httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// authAttemptsTotal counts authentication attempts by method and result.
	// Use for security monitoring and fraud detection.
	//
	// Labels: method (signup, login, google), result (success, failure, duplicate, error)
	// Type: Counter
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "result"},
	)

	// chatMessagesTotal counts stored chat messages by author role.
	// A healthy system shows the two roles advancing in lockstep; a gap
	// means completion calls are failing after the user message persisted.
	//
	// Labels: role (user, ai)
	// Type: Counter
	chatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of chat messages stored",
		},
		[]string{"role"},
	)

	// completionDuration measures completion provider call latency.
	// Use for tracking upstream model performance and failures.
	//
	// Labels: model, status (success, error)
	// Type: Histogram
	// Buckets: 100ms to ~100s, completion calls are slow
	completionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "completion_request_duration_seconds",
			Help:    "Completion provider request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"model", "status"},
	)
)

// init registers all metrics with the Prometheus default registry.
// This is called automatically when the package is imported.
// Panics if any metric name conflicts with existing registrations.
func init() {
	// Register metrics with Prometheus
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestSize)
	prometheus.MustRegister(httpResponseSize)
	prometheus.MustRegister(authAttemptsTotal)
	prometheus.MustRegister(chatMessagesTotal)
	prometheus.MustRegister(completionDuration)
}

// Metrics creates middleware for collecting HTTP metrics.
// Records request count, duration, request size, and response size
// for every HTTP request that passes through.
//
// The middleware wraps the response writer to capture status code
// and bytes written, which are not normally accessible.
//
// Performance impact: Negligible (<1ms per request overhead)
//
// Example Prometheus queries:
//
//	# Request rate by endpoint
//	rate(http_requests_total[5m])
//
//	# Error rate percentage
//	sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m]))
//
//	# P95 latency
//	histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
//
// Usage:
//
//	r.Use(middleware.Metrics())
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// Record request size
			requestSize := float64(r.ContentLength)
			if requestSize > 0 {
				httpRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(requestSize)
			}

			// Process request
			next.ServeHTTP(ww, r)

			// Record metrics
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(ww.Status())

			httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			httpResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(ww.BytesWritten()))
		})
	}
}

// MetricsHandler returns the Prometheus metrics HTTP handler.
// Exposes all registered metrics in Prometheus text format for scraping.
//
// This endpoint should be exposed on a separate port or protected path
// for security. Never expose it publicly without authentication.
//
// Usage:
//
//	r.Get("/metrics", middleware.MetricsHandler().ServeHTTP)
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// IncrementAuthAttempts increments the authentication attempts counter.
// Call this in authentication handlers to track success and failure rates.
//
// Parameters:
//   - method: Authentication method ("signup", "login", "google")
//   - result: Outcome of the attempt ("success", "failure", "duplicate", "error")
//
// Example:
//
//	if err != nil {
//	    middleware.IncrementAuthAttempts("login", "failure")
//	    return
//	}
//	middleware.IncrementAuthAttempts("login", "success")
func IncrementAuthAttempts(method, result string) {
	authAttemptsTotal.WithLabelValues(method, result).Inc()
}

// IncrementChatMessages increments the stored chat message counter.
// Call this after persisting a message.
//
// Parameters:
//   - role: Author role ("user" or "ai")
func IncrementChatMessages(role string) {
	chatMessagesTotal.WithLabelValues(role).Inc()
}

// RecordCompletion records a completion provider call.
// Wired into the provider client as a callback so the services layer
// stays free of metrics imports.
//
// Parameters:
//   - model: Model identifier (e.g., "gemini-2.5-flash")
//   - status: Result status ("success" or "error")
//   - duration: How long the provider call took
//
// Example:
//
//	gemini := services.NewGeminiClient(&cfg.Gemini)
//	gemini.OnResult = middleware.RecordCompletion
func RecordCompletion(model, status string, duration time.Duration) {
	completionDuration.WithLabelValues(model, status).Observe(duration.Seconds())
}

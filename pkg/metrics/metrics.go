// Package metrics provides Prometheus instrumentation for shopfront.
//
// The client side records outbound request counts, token rotations, forced
// logouts and payment confirmation outcomes. The devserver additionally
// records standard HTTP server metrics and exposes /metrics for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─────────────────────────────────────────────
// Client-side metrics
// ─────────────────────────────────────────────

var (
	// OutboundRequests counts requests issued through the gateway.
	OutboundRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopfront",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total outbound HTTP requests, by method and status.",
		},
		[]string{"method", "status"},
	)

	// TokenRotations counts rotated tokens adopted from response headers.
	TokenRotations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shopfront",
		Subsystem: "session",
		Name:      "token_rotations_total",
		Help:      "Total bearer tokens adopted via the rotation header.",
	})

	// ForcedLogouts counts 401-triggered session teardowns.
	ForcedLogouts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shopfront",
		Subsystem: "session",
		Name:      "forced_logouts_total",
		Help:      "Total forced logouts after an unauthorized response.",
	})

	// PaymentConfirmations counts confirmation flow outcomes.
	PaymentConfirmations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopfront",
			Subsystem: "payment",
			Name:      "confirmations_total",
			Help:      "Payment confirmation flow outcomes.",
		},
		[]string{"outcome"}, // "success" | "failed" | "mismatch"
	)
)

// ─────────────────────────────────────────────
// Devserver HTTP metrics
// ─────────────────────────────────────────────

var (
	// RequestDuration tracks how long each HTTP request takes,
	// broken down by method, route path, and status code.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shopfront",
			Subsystem: "devserver",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts all HTTP requests served.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopfront",
			Subsystem: "devserver",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight tracks how many requests are currently being served.
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shopfront",
		Subsystem: "devserver",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})
)

// ─────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────

// DefaultRegistry is the Prometheus registry used by shopfront.
// Register your own metrics against this.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	// Go runtime metrics (GC, goroutines, memory)
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	// OS process metrics (CPU, open FDs)
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		OutboundRequests,
		TokenRotations,
		ForcedLogouts,
		PaymentConfirmations,
		RequestDuration,
		RequestTotal,
		RequestInFlight,
	)
}

// Register lets you add your own prometheus.Collector to the registry.
func Register(c prometheus.Collector) error {
	return DefaultRegistry.Register(c)
}

// MustRegister panics if registration fails.
func MustRegister(c ...prometheus.Collector) {
	DefaultRegistry.MustRegister(c...)
}

// ─────────────────────────────────────────────
// Devserver HTTP middleware
// ─────────────────────────────────────────────

// responseRecorder wraps http.ResponseWriter to capture status code and size.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware returns an http.Handler middleware that records request
// duration, totals, and in-flight count for every devserver request.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path

			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			status := strconv.Itoa(rr.status)
			RequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}

// Handler returns an http.HandlerFunc exposing the Prometheus metrics page.
// Mount it on GET /metrics in the devserver.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}

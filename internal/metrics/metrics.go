// internal/metrics/metrics.go

// Package metrics exposes dotmail's Prometheus collectors.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Rejection reasons recorded by Rejected.
const (
	ReasonInvalidEmail  = "invalid_email"
	ReasonInvalidCount  = "invalid_count"
	ReasonLimitExceeded = "limit_exceeded"
	ReasonRateLimited   = "rate_limited"
)

var (
	// reqDuration is a histogram of HTTP request durations in seconds,
	// labeled by route pattern, method, and status code.
	reqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests.",
			// buckets in seconds
			Buckets: []float64{0.01, 0.1, 0.3, 1.2, 5},
		},
		[]string{"path", "method", "status"},
	)

	// variantsGenerated counts every address handed back to a caller,
	// whether over HTTP, the CLI, or the shell.
	variantsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dotmail_variants_generated_total",
		Help: "Email variants produced across all requests.",
	})

	// resultSize shows how large typical requests are. Buckets grow by 4x
	// from 1 to 262144, which covers the default max_variants ceiling.
	resultSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dotmail_result_size",
		Help:    "Number of variants per generate request.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	// rejected is labeled by one of the Reason constants above.
	rejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dotmail_rejected_total",
			Help: "Requests rejected before generation, by reason.",
		},
		[]string{"reason"},
	)
)

// RegisterDefault registers the Go runtime and process collectors plus
// dotmail's own metrics with the default registry. Call it once at startup;
// repeated calls are harmless.
//
// Registration failures other than AlreadyRegisteredError are fatal, so a
// broken metrics setup is caught before the server takes traffic.
func RegisterDefault(logger *zap.Logger) {
	// Go runtime metrics
	mustRegister(logger, "Go collector", collectors.NewGoCollector())

	// Process metrics
	mustRegister(logger, "process collector", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// HTTP request histogram
	mustRegister(logger, "HTTP request histogram", reqDuration)

	// Generator metrics
	mustRegister(logger, "variants counter", variantsGenerated)
	mustRegister(logger, "result size histogram", resultSize)
	mustRegister(logger, "rejection counter", rejected)
}

// mustRegister registers c with the default registry. An
// AlreadyRegisteredError is ignored; anything else logs a fatal error (which
// calls os.Exit) or panics when logger is nil.
func mustRegister(logger *zap.Logger, name string, c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			// Tests and repeated RegisterDefault calls land here.
			return
		}
		if logger != nil {
			logger.Fatal("failed to register "+name, zap.Error(err))
		}
		panic("metrics: failed to register " + name + ": " + err.Error())
	}
}

// Generated records one successful generation of n variants. Streams call it
// once at the end with the number actually written.
func Generated(n int) {
	variantsGenerated.Add(float64(n))
	resultSize.Observe(float64(n))
}

// Rejected records a request refused for reason.
func Rejected(reason string) {
	rejected.WithLabelValues(reason).Inc()
}

// UnmatchedRoute is the path label for requests no route matched (404s from
// scanners and typos). Raw paths are never used as labels: each distinct one
// would be a new time series.
const UnmatchedRoute = "unmatched"

// HTTPMetrics records request durations into http_request_duration_seconds,
// labeled by chi route pattern rather than raw path, so /v1/count?email=...
// and every other request to the same route share one series. Requests that
// match no route are labeled UnmatchedRoute.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// WrapResponseWriter needs a valid major version; synthetic requests
		// in tests can carry 0.
		protoMajor := r.ProtoMajor
		if protoMajor < 1 {
			protoMajor = 1
		}
		ww := middleware.NewWrapResponseWriter(w, protoMajor)

		next.ServeHTTP(ww, r)

		// Handlers that never call WriteHeader implicitly send 200.
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status < 100 || status > 599 {
			status = http.StatusInternalServerError
		}

		// RoutePattern is only complete after routing, hence after next.
		path := UnmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		reqDuration.WithLabelValues(path, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default registry in the Prometheus text format. The
// router mounts it at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// internal/middleware/middleware.go

// Package middleware holds dotmail's HTTP middleware: JSON 404/405
// handlers, body size limits, security headers, compression, CORS and
// per-client rate limiting.
package middleware

import (
	"net/http"

	"github.com/dalemusser/dotmail/internal/config"
	"github.com/dalemusser/dotmail/internal/httpapi/respond"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NotFoundHandler logs a 404 and returns a JSON error body.
func NotFoundHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Info("not_found",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_ip", r.RemoteAddr),
			)
		}
		respond.Error(w, http.StatusNotFound, "not_found", "The requested resource was not found")
	}
}

// MethodNotAllowedHandler logs a 405 and returns a JSON error body.
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Info("method_not_allowed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_ip", r.RemoteAddr),
			)
		}
		respond.Error(w, http.StatusMethodNotAllowed, "method_not_allowed",
			"The requested HTTP method is not allowed for this resource")
	}
}

// LimitBodySize caps request bodies at maxBytes. maxBytes <= 0 disables it.
func LimitBodySize(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// CORSFromConfig applies the configured CORS policy, or nothing when CORS is
// disabled.
func CORSFromConfig(cfg *config.Config) func(next http.Handler) http.Handler {
	if cfg == nil || !cfg.CORS.EnableCORS {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.CORSAllowedOrigins,
		AllowedMethods: cfg.CORS.CORSAllowedMethods,
		AllowedHeaders: cfg.CORS.CORSAllowedHeaders,
		ExposedHeaders: []string{"Content-Disposition", "X-Variant-Total"},
		MaxAge:         cfg.CORS.CORSMaxAge,
	})
}

// internal/logging/middleware.go
package logging

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger logs one "http_request" line per request with method, path,
// status, bytes, latency, remote IP and request ID.
func RequestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, protoMajor(r))

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// Recoverer recovers from panics, logs them with a stack trace, and returns
// 500 if nothing has been written yet.
func Recoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, protoMajor(r))

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					zap.Any("panic_value", rec),
					zap.ByteString("stacktrace", debug.Stack()),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
				if ww.Status() == 0 {
					http.Error(w, "internal server error", http.StatusInternalServerError)
				} else {
					logger.Warn("panic after headers written; response may be incomplete",
						zap.Int("status_already_sent", ww.Status()))
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// protoMajor defaults malformed requests to HTTP/1.x.
func protoMajor(r *http.Request) int {
	if r.ProtoMajor < 1 {
		return 1
	}
	return r.ProtoMajor
}

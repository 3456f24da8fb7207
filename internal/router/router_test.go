// internal/router/router_test.go
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/dotmail/internal/config"
	"github.com/dalemusser/dotmail/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	cfg := &config.Config{Env: "dev", LogLevel: "info"}
	cfg.Generator.MaxVariants = 1000
	cfg.Generator.DefaultCount = 10
	cfg.Limits.MaxRequestBodyBytes = 1 << 10
	return cfg
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "198.51.100.4:40000"
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Endpoints(t *testing.T) {
	r := New(testConfig(), nil, zap.NewNop())

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/v1/count?email=name@gmail.com", http.StatusOK},
		{http.MethodGet, "/v1/generate?email=name@gmail.com", http.StatusOK},
		{http.MethodGet, "/v1/validate?email=x", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodDelete, "/health", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := serve(r, tt.method, tt.path)
		assert.Equal(t, tt.status, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestRouter_RateLimitsAPIOnly(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 1)
	r := New(testConfig(), limiter, zap.NewNop())

	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/v1/count?email=ab@x.com").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/v1/count?email=ab@x.com").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health").Code)
}

func serveFrom(h http.Handler, path, forwardedFor string) int {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "198.51.100.4:40000"
	req.Header.Set("X-Forwarded-For", forwardedFor)
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouter_ForwardedForIgnoredByDefault(t *testing.T) {
	r := New(testConfig(), middleware.NewRateLimiter(0.001, 1), zap.NewNop())

	require.Equal(t, http.StatusOK, serveFrom(r, "/v1/count?email=ab@x.com", "203.0.113.1"))
	for _, ip := range []string{"203.0.113.2", "203.0.113.3", "10.9.8.7"} {
		assert.Equal(t, http.StatusTooManyRequests, serveFrom(r, "/v1/count?email=ab@x.com", ip),
			"rotating X-Forwarded-For to %s must not reset the bucket", ip)
	}
}

func TestRouter_TrustProxyHeaders(t *testing.T) {
	cfg := testConfig()
	cfg.Limits.TrustProxyHeaders = true
	limiter := middleware.NewRateLimiter(0.001, 1)
	r := New(cfg, limiter, zap.NewNop())

	// Behind a trusted proxy each forwarded client gets its own bucket.
	assert.Equal(t, http.StatusOK, serveFrom(r, "/v1/count?email=ab@x.com", "203.0.113.1"))
	assert.Equal(t, http.StatusOK, serveFrom(r, "/v1/count?email=ab@x.com", "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(r, "/v1/count?email=ab@x.com", "203.0.113.1"))
	assert.Equal(t, 2, limiter.Len())
}

func TestRouter_BodyLimit(t *testing.T) {
	r := New(testConfig(), nil, zap.NewNop())

	body := `{"email":"` + strings.Repeat("a", 2048) + `@x.com"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(body))
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large")
}

func TestHealth_FailingCheck(t *testing.T) {
	h := Health(zap.NewNop(), map[string]Check{
		"disk": func(context.Context) error { return errors.New("full") },
	})
	rec := serve(h, http.MethodGet, "/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "ok", resp.Checks["generator"])
	assert.Equal(t, "error: full", resp.Checks["disk"])
}

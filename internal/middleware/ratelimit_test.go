// internal/middleware/ratelimit_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowPerClient(t *testing.T) {
	l := NewRateLimiter(1, 2)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, l.Allow("10.0.0.2"), "other clients have their own bucket")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"), "one token refilled")
	assert.Equal(t, 2, l.Len())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	l := NewRateLimiter(5, 5)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(9 * time.Minute)
	l.Allow("fresh")
	now = now.Add(2 * time.Minute)

	assert.Equal(t, 1, l.Cleanup())
	assert.Equal(t, 1, l.Len())
}

func TestRateLimitWith_Rejects(t *testing.T) {
	l := NewRateLimiter(0.5, 1)
	h := RateLimitWith(l, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/count", nil)
	req.RemoteAddr = "192.0.2.7:51234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"rate_limited"`)
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RateLimit(0, 0, nil)(next)
	for range 50 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", clientKey(req))

	req.RemoteAddr = "unix"
	assert.Equal(t, "unix", clientKey(req))
}

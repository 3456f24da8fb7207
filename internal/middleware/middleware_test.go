// internal/middleware/middleware_test.go
package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/dotmail/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFoundHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"not_found"`)

	rec = httptest.NewRecorder()
	MethodNotAllowedHandler(nil)(rec, httptest.NewRequest(http.MethodDelete, "/v1/count", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), `"method_not_allowed"`)
}

func TestLimitBodySize(t *testing.T) {
	var readErr error
	h := LimitBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	h.ServeHTTP(httptest.NewRecorder(), req)
	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short"))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NoError(t, readErr)
}

func TestCORSFromConfig(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cfg := &config.Config{}
	cfg.CORS.EnableCORS = true
	cfg.CORS.CORSAllowedOrigins = []string{"https://app.example.com"}
	cfg.CORS.CORSAllowedMethods = []string{"GET", "POST"}

	req := httptest.NewRequest(http.MethodGet, "/v1/count", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	CORSFromConfig(cfg)(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Variant-Total")

	// Disabled CORS adds nothing.
	rec = httptest.NewRecorder()
	CORSFromConfig(&config.Config{})(next).ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

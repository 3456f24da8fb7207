// internal/app/app_test.go
package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/dotmail/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig() *config.Config {
	cfg := &config.Config{Env: "dev", LogLevel: "info"}
	cfg.HTTP.HTTPPort = 8080
	cfg.Generator.MaxVariants = 100
	cfg.Generator.DefaultCount = 10
	cfg.Generator.ValidationTier = "minimal"
	cfg.Limits.RateLimitRPS = 5
	cfg.Limits.RateLimitBurst = 5
	return cfg
}

func TestRunWith_ServesRouter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	var got http.Handler
	serve := func(ctx context.Context, cfg *config.Config, h http.Handler, logger *zap.Logger) error {
		got = h
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, RunWith(ctx, testConfig(), logger, serve))
	require.NotNil(t, got)

	rec := httptest.NewRecorder()
	got.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/count?email=name@gmail.com", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":8`)

	assert.Equal(t, 1, logs.FilterMessage("dotmail starting").Len())
	assert.Equal(t, 1, logs.FilterMessage("server stopped").Len())
}

func TestRunWith_PropagatesServeError(t *testing.T) {
	boom := errors.New("bind failed")
	serve := func(context.Context, *config.Config, http.Handler, *zap.Logger) error { return boom }

	err := RunWith(context.Background(), testConfig(), zap.NewNop(), serve)
	assert.ErrorIs(t, err, boom)
}

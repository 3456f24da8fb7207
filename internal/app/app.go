// internal/app/app.go

// Package app wires config, logging, metrics and the router into a running
// dotmail service.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/dotmail/internal/config"
	"github.com/dalemusser/dotmail/internal/httpapi/respond"
	"github.com/dalemusser/dotmail/internal/logging"
	"github.com/dalemusser/dotmail/internal/metrics"
	"github.com/dalemusser/dotmail/internal/middleware"
	"github.com/dalemusser/dotmail/internal/router"
	"github.com/dalemusser/dotmail/internal/server"
	"go.uber.org/zap"
)

// cleanupInterval is how often idle rate-limit buckets are dropped.
const cleanupInterval = time.Minute

// Serve is the function that runs the HTTP server; tests replace it.
type Serve func(ctx context.Context, cfg *config.Config, h http.Handler, logger *zap.Logger) error

// Run executes the service startup sequence:
//
//  1. Build the logger from cfg
//  2. Register metrics
//  3. Wire shutdown signals to ctx
//  4. Start the rate limiter's cleanup loop
//  5. Build the router
//  6. Serve until ctx is canceled
func Run(ctx context.Context, cfg *config.Config) error {
	logger := logging.MustBuildLogger(cfg.LogLevel, cfg.Env)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	return RunWith(ctx, cfg, logger, server.ListenAndServe)
}

// RunWith is Run with a caller-supplied logger and serve function.
func RunWith(ctx context.Context, cfg *config.Config, logger *zap.Logger, serve Serve) error {
	logger.Info("dotmail starting",
		zap.String("env", cfg.Env),
		zap.Stringer("mode", server.ModeFor(cfg)),
		zap.Int("max_variants", cfg.Generator.MaxVariants),
		zap.String("validation_tier", cfg.Generator.ValidationTier),
	)
	logger.Debug("effective config", zap.String("config", cfg.Dump()))

	metrics.RegisterDefault(logger)
	respond.SetLogger(logger)

	var limiter *middleware.RateLimiter
	if cfg.Limits.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.Limits.RateLimitRPS, cfg.Limits.RateLimitBurst)
		go limiter.Run(ctx, cleanupInterval)
	}

	handler := router.New(cfg, limiter, logger)

	if err := serve(ctx, cfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

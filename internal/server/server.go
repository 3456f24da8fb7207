// internal/server/server.go

// Package server runs dotmail's HTTP(S) listeners with graceful shutdown.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dalemusser/dotmail/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
)

// WithShutdownSignals returns a context canceled on SIGINT or SIGTERM. The
// returned cancel func stops the signal watcher; callers should defer it.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// Mode is how the primary listener is served.
type Mode int

const (
	ModeHTTP Mode = iota
	ModeManualTLS
	ModeLetsEncrypt
)

func (m Mode) String() string {
	switch m {
	case ModeHTTP:
		return "http"
	case ModeManualTLS:
		return "manual-tls"
	case ModeLetsEncrypt:
		return "lets-encrypt"
	}
	return "unknown"
}

// ModeFor picks the serving mode for cfg.
func ModeFor(cfg *config.Config) Mode {
	switch {
	case !cfg.HTTP.UseHTTPS:
		return ModeHTTP
	case cfg.TLS.UseLetsEncrypt:
		return ModeLetsEncrypt
	default:
		return ModeManualTLS
	}
}

// ListenAndServe serves handler in the mode cfg selects and blocks until ctx
// is canceled or a listener fails. HTTPS modes also run a :80 server that
// redirects to HTTPS (and answers ACME http-01 challenges for Let's Encrypt).
func ListenAndServe(ctx context.Context, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	if cfg == nil {
		return errors.New("server: nil config")
	}
	if handler == nil {
		return errors.New("server: nil handler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := newHTTPServer(cfg, handler, logger)
	mode := ModeFor(cfg)

	var (
		aux      *http.Server
		auxErr   chan error // nil unless aux runs; a nil channel never fires in select
		ln       net.Listener
		serveErr = make(chan error, 1)
	)

	startAux := func(h http.Handler) {
		aux = newHTTPServer(cfg, h, logger)
		aux.Addr = ":80"
		auxErr = make(chan error, 1)
		go func(s *http.Server, ch chan<- error) { ch <- ignoreClosed(s.ListenAndServe()) }(aux, auxErr)
		logger.Info("redirect server listening", zap.String("addr", aux.Addr))
	}

	switch mode {
	case ModeHTTP:
		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
		var err error
		if ln, err = net.Listen("tcp", addr); err != nil {
			return fmt.Errorf("listen http %s: %w", addr, err)
		}

	case ModeLetsEncrypt:
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.TLS.Domain),
			Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
			Email:      cfg.TLS.LetsEncryptEmail,
		}
		startAux(m.HTTPHandler(RedirectHandler()))
		if err := waitForCert(ctx, m, cfg.TLS.Domain, 60*time.Second); err != nil {
			logger.Warn("certificate not ready; first HTTPS requests may fail", zap.Error(err))
		}
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, GetCertificate: m.GetCertificate}

	case ModeManualTLS:
		if err := checkTLSFiles(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
			if !errors.Is(err, ErrKeyPermissions) || cfg.Env == "prod" {
				return err
			}
			logger.Warn("TLS key file is readable by others", zap.Error(err))
		}
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		startAux(RedirectHandler())
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}}
	}

	if srv.TLSConfig != nil {
		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)
		base, err := net.Listen("tcp", addr)
		if err != nil {
			_ = shutdown(aux, context.Background())
			return fmt.Errorf("listen https %s: %w", addr, err)
		}
		ln = tls.NewListener(base, srv.TLSConfig)
	}

	logger.Info("server listening", zap.String("addr", ln.Addr().String()), zap.Stringer("mode", mode))
	go func() { serveErr <- ignoreClosed(srv.Serve(ln)) }()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down server")
			sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			_ = shutdown(aux, sctx)
			if err := srv.Shutdown(sctx); err != nil {
				_ = ln.Close()
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil

		case err := <-serveErr:
			_ = shutdown(aux, context.Background())
			_ = ln.Close()
			if err != nil {
				return fmt.Errorf("primary server: %w", err)
			}
			return nil

		case err := <-auxErr:
			if err != nil {
				_ = srv.Close()
				_ = ln.Close()
				return fmt.Errorf("redirect server: %w", err)
			}
			aux, auxErr = nil, nil
		}
	}
}

// newHTTPServer applies the configured timeouts. ErrorLog goes through zap
// so TLS handshake noise lands in the structured log.
func newHTTPServer(cfg *config.Config, h http.Handler, logger *zap.Logger) *http.Server {
	s := &http.Server{
		Handler:           h,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		s.ErrorLog = stdlog
	}
	return s
}

// ignoreClosed maps http.ErrServerClosed, the normal result of Shutdown,
// to nil.
func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func shutdown(s *http.Server, ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.Shutdown(ctx)
}

// waitForCert polls autocert until it holds a certificate for host, the
// timeout passes or ctx is done.
func waitForCert(ctx context.Context, m *autocert.Manager, host string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		_, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: host})
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for certificate for %q: %w", host, err)
		case <-tick.C:
		}
	}
}

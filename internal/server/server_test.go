// internal/server/server_test.go
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/dalemusser/dotmail/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestModeFor(t *testing.T) {
	cfg := &config.Config{}
	assert.Equal(t, ModeHTTP, ModeFor(cfg))

	cfg.HTTP.UseHTTPS = true
	assert.Equal(t, ModeManualTLS, ModeFor(cfg))

	cfg.TLS.UseLetsEncrypt = true
	assert.Equal(t, ModeLetsEncrypt, ModeFor(cfg))
	assert.Equal(t, "lets-encrypt", ModeLetsEncrypt.String())
}

func TestRedirectHandler(t *testing.T) {
	tests := []struct {
		host     string
		target   string
		status   int
		location string
	}{
		{"dotmail.example.com", "/v1/count?email=a@b", http.StatusMovedPermanently, "https://dotmail.example.com/v1/count?email=a@b"},
		{"[::1]:8080", "/", http.StatusMovedPermanently, "https://[::1]:8080/"},
		{"example.com:99999", "/", http.StatusBadRequest, ""},
		{"[not-an-ip]", "/", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.target, nil)
		req.Host = tt.host
		rec := httptest.NewRecorder()
		RedirectHandler().ServeHTTP(rec, req)
		assert.Equal(t, tt.status, rec.Code, tt.host)
		assert.Equal(t, tt.location, rec.Header().Get("Location"), tt.host)
	}
}

func TestCheckTLSFiles(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(cert, []byte("c"), 0o644))
	require.NoError(t, os.WriteFile(key, []byte("k"), 0o600))

	assert.NoError(t, checkTLSFiles(cert, key))
	assert.Error(t, checkTLSFiles(cert, filepath.Join(dir, "missing.pem")))
	assert.Error(t, checkTLSFiles(dir, key))

	if runtime.GOOS != "windows" {
		require.NoError(t, os.Chmod(key, 0o644))
		assert.True(t, errors.Is(checkTLSFiles(cert, key), ErrKeyPermissions))
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestListenAndServe_HTTPGracefulShutdown(t *testing.T) {
	cfg := &config.Config{}
	cfg.HTTP.HTTPPort = freePort(t)
	cfg.HTTP.ShutdownTimeout = 2 * time.Second

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServe(ctx, cfg, h, zap.NewNop()) }()

	url := "http://127.0.0.1:" + strconv.Itoa(cfg.HTTP.HTTPPort) + "/"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusTeapot
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestListenAndServe_NilArgs(t *testing.T) {
	h := http.NotFoundHandler()
	assert.Error(t, ListenAndServe(context.Background(), nil, h, nil))
	assert.Error(t, ListenAndServe(context.Background(), &config.Config{}, nil, nil))
}

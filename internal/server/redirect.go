// internal/server/redirect.go
package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// ErrKeyPermissions reports a TLS key readable by group or others.
var ErrKeyPermissions = errors.New("TLS key file has permissive permissions")

// RedirectHandler sends every request to the same host and path over HTTPS.
// Requests with a malformed Host or control characters in the URI get 400.
func RedirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uri := r.URL.RequestURI()
		if !validHost(r.Host) || strings.ContainsFunc(uri, isControl) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+uri, http.StatusMovedPermanently)
	})
}

func isControl(c rune) bool {
	return c < 0x20 || c == 0x7f
}

func validHost(host string) bool {
	if host == "" || strings.Contains(host, "://") || strings.HasPrefix(host, "/") {
		return false
	}
	name := host
	if h, port, err := net.SplitHostPort(host); err == nil {
		n, perr := strconv.Atoi(port)
		if perr != nil || n <= 0 || n > 65535 {
			return false
		}
		name = h
	}
	if name == "" || strings.ContainsFunc(name, isControl) {
		return false
	}
	if strings.HasPrefix(name, "[") {
		ip, _, _ := strings.Cut(strings.Trim(name, "[]"), "%")
		return strings.HasSuffix(name, "]") && net.ParseIP(ip) != nil
	}
	return true
}

// checkTLSFiles verifies both files exist and are regular files. A key
// readable by group or others yields an error wrapping ErrKeyPermissions.
func checkTLSFiles(certFile, keyFile string) error {
	if certFile == "" || keyFile == "" {
		return errors.New("manual TLS requires cert_file and key_file")
	}
	for _, f := range []struct{ kind, path string }{{"certificate", certFile}, {"key", keyFile}} {
		info, err := os.Stat(f.path)
		if err != nil {
			return fmt.Errorf("TLS %s file: %w", f.kind, err)
		}
		if info.IsDir() {
			return fmt.Errorf("TLS %s path %s is a directory", f.kind, f.path)
		}
		if f.kind == "key" && runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
			return fmt.Errorf("%w: %s is %o (want 0600)", ErrKeyPermissions, f.path, info.Mode().Perm())
		}
	}
	return nil
}

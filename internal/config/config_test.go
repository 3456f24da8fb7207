// internal/config/config_test.go
package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/dotmail/internal/variant"
	"github.com/spf13/pflag"
)

// newFlags returns a parsed flag set holding every config flag.
func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil, newFlags(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want dev", cfg.Env)
	}
	if cfg.HTTP.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTP.HTTPPort)
	}
	if cfg.Generator.MaxVariants != 100000 {
		t.Errorf("MaxVariants = %d, want 100000", cfg.Generator.MaxVariants)
	}
	if cfg.Generator.DefaultCount != 100 {
		t.Errorf("DefaultCount = %d, want 100", cfg.Generator.DefaultCount)
	}
	if cfg.HTTP.ShutdownTimeout != 15*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 15s", cfg.HTTP.ShutdownTimeout)
	}
	if cfg.Limits.RateLimitRPS != 10 || cfg.Limits.RateLimitBurst != 20 {
		t.Errorf("rate limit = %v/%d, want 10/20", cfg.Limits.RateLimitRPS, cfg.Limits.RateLimitBurst)
	}
	if cfg.Limits.TrustProxyHeaders {
		t.Error("TrustProxyHeaders defaults to true, want false")
	}
	if !cfg.HTTP.EnableCompression || cfg.HTTP.CompressionLevel != 5 {
		t.Errorf("compression = %v/%d, want true/5", cfg.HTTP.EnableCompression, cfg.HTTP.CompressionLevel)
	}
	if !cfg.Security.EnableSecurityHeaders || cfg.Security.HSTSMaxAge != 31536000 {
		t.Errorf("security = %+v", cfg.Security)
	}
	if cfg.Validator().Tier != variant.TierMinimal {
		t.Errorf("default tier = %v, want minimal", cfg.Validator().Tier)
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Chdir(t.TempDir())

	yaml := "http_port: 9000\nmax_variants: 500\ndefault_count: 50\nvalidation_tier: strict\n"
	if err := os.WriteFile("dotmail.yaml", []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOTMAIL_MAX_VARIANTS", "700")
	t.Setenv("DOTMAIL_WRITE_TIMEOUT", "90")
	t.Setenv("DOTMAIL_TRUST_PROXY_HEADERS", "true")

	cfg, err := Load(nil, newFlags(t, "--default_count=25"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.HTTPPort != 9000 {
		t.Errorf("file value: HTTPPort = %d, want 9000", cfg.HTTP.HTTPPort)
	}
	if cfg.Generator.MaxVariants != 700 {
		t.Errorf("env beats file: MaxVariants = %d, want 700", cfg.Generator.MaxVariants)
	}
	if cfg.Generator.DefaultCount != 25 {
		t.Errorf("flag beats file: DefaultCount = %d, want 25", cfg.Generator.DefaultCount)
	}
	if cfg.HTTP.WriteTimeout != 90*time.Second {
		t.Errorf("numeric seconds: WriteTimeout = %v, want 90s", cfg.HTTP.WriteTimeout)
	}
	if !cfg.Limits.TrustProxyHeaders {
		t.Error("env: TrustProxyHeaders = false, want true")
	}
	if cfg.Validator().Tier != variant.TierStrict {
		t.Errorf("tier = %v, want strict", cfg.Validator().Tier)
	}
}

func TestLoad_CORSLists(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil, newFlags(t,
		"--enable_cors",
		`--cors_allowed_origins=["https://a.example"]`,
		`--cors_allowed_methods=["GET","POST"]`,
	))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.CORS.CORSAllowedMethods) != 2 || cfg.CORS.CORSAllowedMethods[1] != "POST" {
		t.Errorf("CORSAllowedMethods = %v", cfg.CORS.CORSAllowedMethods)
	}

	_, err = Load(nil, newFlags(t, "--cors_allowed_origins=not-json"))
	if err == nil || !strings.Contains(err.Error(), "JSON array") {
		t.Errorf("bad list: err = %v, want JSON array error", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"tier", []string{"--validation_tier=rfc"}, "validation_tier"},
		{"max variants", []string{"--max_variants=0"}, "max_variants must be >= 1"},
		{"default over max", []string{"--max_variants=10", "--default_count=11"}, "default_count cannot exceed"},
		{"port", []string{"--http_port=70000"}, "http_port"},
		{"env", []string{"--env=staging"}, "env must be"},
		{"log level", []string{"--log_level=loud"}, "log_level"},
		{"manual tls", []string{"--use_https"}, "DOTMAIL_CERT_FILE"},
		{"lets encrypt", []string{"--use_https", "--use_lets_encrypt"}, "DOTMAIL_DOMAIN"},
		{"cors", []string{"--enable_cors"}, "cors_allowed_origins"},
		{"compression level", []string{"--compression_level=12"}, "compression_level"},
		{"hsts", []string{"--hsts_max_age=-1"}, "hsts_max_age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(nil, newFlags(t, tt.args...))
			if err == nil {
				t.Fatalf("Load(%v) succeeded, want error containing %q", tt.args, tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load(%v) = %v, want error containing %q", tt.args, err, tt.want)
			}
		})
	}
}

func TestParseDurationFlexible(t *testing.T) {
	tests := []struct {
		raw     any
		want    time.Duration
		wantErr bool
	}{
		{"90s", 90 * time.Second, false},
		{"2m", 2 * time.Minute, false},
		{"120", 120 * time.Second, false},
		{"", 5 * time.Second, false},
		{nil, 5 * time.Second, false},
		{30, 30 * time.Second, false},
		{int64(4), 4 * time.Second, false},
		{1.5, 1500 * time.Millisecond, false},
		{"abc", 5 * time.Second, true},
		{"-1s", 5 * time.Second, true},
		{0, 5 * time.Second, true},
	}
	for _, tt := range tests {
		got, err := parseDurationFlexible(tt.raw, 5*time.Second)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDurationFlexible(%v) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("parseDurationFlexible(%v) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestDump_Redacts(t *testing.T) {
	cfg := Config{TLS: TLSConfig{LetsEncryptEmail: "ops@example.com"}}
	if strings.Contains(cfg.Dump(), "ops@example.com") {
		t.Error("Dump leaked lets_encrypt_email")
	}
}

// internal/config/config.go

// Package config loads dotmail's settings from defaults, an optional
// dotmail.{yaml,yml,json,toml} file, DOTMAIL_* environment variables and
// explicitly set command-line flags, in increasing order of precedence.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dalemusser/dotmail/internal/logging"
	"github.com/dalemusser/dotmail/internal/variant"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix is prepended to every environment variable (DOTMAIL_HTTP_PORT).
const EnvPrefix = "DOTMAIL"

// FileBase is the config file name without extension.
const FileBase = "dotmail"

// HTTPConfig groups listener and timeout settings.
type HTTPConfig struct {
	HTTPPort  int  `mapstructure:"http_port"`
	HTTPSPort int  `mapstructure:"https_port"`
	UseHTTPS  bool `mapstructure:"use_https"`

	ReadTimeout       time.Duration `mapstructure:"-"`
	ReadHeaderTimeout time.Duration `mapstructure:"-"`
	WriteTimeout      time.Duration `mapstructure:"-"`
	IdleTimeout       time.Duration `mapstructure:"-"`
	ShutdownTimeout   time.Duration `mapstructure:"-"`

	EnableCompression bool `mapstructure:"enable_compression"`
	CompressionLevel  int  `mapstructure:"compression_level"` // 1-9
}

// TLSConfig groups manual and Let's Encrypt certificate settings.
type TLSConfig struct {
	CertFile            string `mapstructure:"cert_file"`
	KeyFile             string `mapstructure:"key_file"`
	UseLetsEncrypt      bool   `mapstructure:"use_lets_encrypt"`
	LetsEncryptEmail    string `mapstructure:"lets_encrypt_email"`
	LetsEncryptCacheDir string `mapstructure:"lets_encrypt_cache_dir"`
	Domain              string `mapstructure:"domain"`
}

// CORSConfig groups CORS behavior and lists.
type CORSConfig struct {
	EnableCORS         bool     `mapstructure:"enable_cors"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods []string `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	CORSMaxAge         int      `mapstructure:"cors_max_age"`
}

// SecurityConfig controls the response security headers.
type SecurityConfig struct {
	EnableSecurityHeaders bool `mapstructure:"enable_security_headers"`
	HSTSMaxAge            int  `mapstructure:"hsts_max_age"` // seconds; sent over TLS only
}

// GeneratorConfig bounds what the service will generate.
type GeneratorConfig struct {
	// MaxVariants is the largest result the service will build, for both
	// explicit counts and "all" requests.
	MaxVariants int `mapstructure:"max_variants"`

	// DefaultCount is used when a request names neither a count nor "all".
	DefaultCount int `mapstructure:"default_count"`

	// ValidationTier is "minimal" or "strict".
	ValidationTier string `mapstructure:"validation_tier"`
}

// LimitsConfig groups request-shaping limits.
type LimitsConfig struct {
	MaxRequestBodyBytes int64   `mapstructure:"max_request_body_bytes"`
	RateLimitRPS        float64 `mapstructure:"rate_limit_rps"` // 0 disables
	RateLimitBurst      int     `mapstructure:"rate_limit_burst"`

	// TrustProxyHeaders makes X-Forwarded-For / X-Real-IP / True-Client-IP
	// the client address for logging and rate limiting. Enable it only when
	// a proxy you control sets those headers; otherwise any client can pick
	// its own rate-limit bucket.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// Config holds every dotmail setting.
type Config struct {
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error …

	HTTP      HTTPConfig      `mapstructure:",squash"`
	TLS       TLSConfig       `mapstructure:",squash"`
	CORS      CORSConfig      `mapstructure:",squash"`
	Security  SecurityConfig  `mapstructure:",squash"`
	Generator GeneratorConfig `mapstructure:",squash"`
	Limits    LimitsConfig    `mapstructure:",squash"`
}

// Validator returns the address validator for the configured tier.
// Load has already rejected unknown tiers.
func (c Config) Validator() variant.Validator {
	tier, _ := variant.ParseTier(c.Generator.ValidationTier)
	return variant.Validator{Tier: tier}
}

// Dump returns a pretty, redacted JSON string of the config for debugging.
func (c Config) Dump() string {
	cp := c
	if cp.TLS.LetsEncryptEmail != "" {
		cp.TLS.LetsEncryptEmail = "[REDACTED]"
	}
	b, _ := json.MarshalIndent(cp, "", "  ")
	return string(b)
}

// RegisterFlags defines every config key on fs. Only flags the user
// explicitly sets override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("env", "dev", `Runtime environment "dev"|"prod"`)
	fs.String("log_level", "info", "Log level")

	fs.Int("http_port", 8080, "HTTP port")
	fs.Int("https_port", 443, "HTTPS port")
	fs.Bool("use_https", false, "Serve HTTPS")
	fs.String("read_timeout", "15s", "HTTP read timeout")
	fs.String("read_header_timeout", "10s", "HTTP read header timeout")
	fs.String("write_timeout", "60s", "HTTP write timeout")
	fs.String("idle_timeout", "120s", "HTTP idle timeout")
	fs.String("shutdown_timeout", "15s", "Graceful shutdown window")
	fs.Bool("enable_compression", true, "Compress responses (gzip/deflate)")
	fs.Int("compression_level", 5, "Compression level 1-9")

	fs.String("cert_file", "", "TLS cert file (manual TLS)")
	fs.String("key_file", "", "TLS key file (manual TLS)")
	fs.Bool("use_lets_encrypt", false, "Use Let's Encrypt (http-01)")
	fs.String("lets_encrypt_email", "", "ACME account e-mail")
	fs.String("lets_encrypt_cache_dir", "letsencrypt-cache", "ACME cache dir")
	fs.String("domain", "", "Domain for Let's Encrypt")

	fs.Bool("enable_cors", false, "Enable CORS")
	fs.String("cors_allowed_origins", "", `JSON array of origins, e.g. '["https://a.example"]'`)
	fs.String("cors_allowed_methods", "", `JSON array of methods, e.g. '["GET","POST"]'`)
	fs.String("cors_allowed_headers", "", `JSON array of headers, e.g. '["Content-Type"]'`)
	fs.Int("cors_max_age", 0, "CORS: max age seconds (0 disables cache)")

	fs.Bool("enable_security_headers", true, "Send nosniff, frame and referrer headers")
	fs.Int("hsts_max_age", 31536000, "HSTS max-age seconds over HTTPS (0 disables)")

	fs.Int("max_variants", 100000, "Largest number of variants one request may produce")
	fs.Int("default_count", 100, "Variants returned when a request names no count")
	fs.String("validation_tier", "minimal", `Address validation: "minimal" or "strict"`)

	fs.Int64("max_request_body_bytes", 64<<10, "Max HTTP request body size in bytes (0 = unlimited)")
	fs.Float64("rate_limit_rps", 10, "Requests per second per client (0 disables)")
	fs.Int("rate_limit_burst", 20, "Burst size per client")
	fs.Bool("trust_proxy_headers", false, "Take the client IP from X-Forwarded-For/X-Real-IP (only behind a trusted proxy)")
}

// Load merges defaults → dotmail.* file → env vars → explicit flags in fs.
// fs must have been populated by RegisterFlags and parsed; it may be nil.
func Load(logger *zap.Logger, fs *pflag.FlagSet) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// .env is optional; real env still wins over it.
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}

	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := FileBase + "." + ext
		b, err := os.ReadFile(file)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("cannot read config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("decode %s: %w", file, err)
		}
		logger.Info("loaded config file", zap.String("file", file))
	}

	setDefaults(v)

	if fs != nil {
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				_ = v.BindPFlag(f.Name, f)
			}
		})
	}

	if err := normalizeListKeys(logger, v,
		"cors_allowed_origins",
		"cors_allowed_methods",
		"cors_allowed_headers",
	); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"read_timeout", 15 * time.Second, &cfg.HTTP.ReadTimeout},
		{"read_header_timeout", 10 * time.Second, &cfg.HTTP.ReadHeaderTimeout},
		{"write_timeout", 60 * time.Second, &cfg.HTTP.WriteTimeout},
		{"idle_timeout", 120 * time.Second, &cfg.HTTP.IdleTimeout},
		{"shutdown_timeout", 15 * time.Second, &cfg.HTTP.ShutdownTimeout},
	}
	for _, d := range durations {
		dur, err := parseDurationFlexible(v.Get(d.key), d.def)
		if err != nil {
			logger.Warn("invalid duration; using default",
				zap.String("key", d.key), zap.Any("value", v.Get(d.key)),
				zap.Duration("default", d.def), zap.Error(err))
		}
		*d.dst = dur
	}

	cfg.Generator.ValidationTier = strings.ToLower(strings.TrimSpace(cfg.Generator.ValidationTier))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// allKeys lists every key bound to an environment variable. viper's
// AutomaticEnv only consults env vars for keys it already knows about, so a
// key missing here cannot be set via DOTMAIL_*.
func allKeys() []string {
	return []string{
		"env", "log_level",
		"http_port", "https_port", "use_https",
		"read_timeout", "read_header_timeout", "write_timeout", "idle_timeout", "shutdown_timeout",
		"enable_compression", "compression_level",
		"cert_file", "key_file",
		"use_lets_encrypt", "lets_encrypt_email", "lets_encrypt_cache_dir", "domain",
		"enable_cors", "cors_allowed_origins", "cors_allowed_methods", "cors_allowed_headers", "cors_max_age",
		"enable_security_headers", "hsts_max_age",
		"max_variants", "default_count", "validation_tier",
		"max_request_body_bytes", "rate_limit_rps", "rate_limit_burst", "trust_proxy_headers",
	}
}

// setDefaults mirrors the flag defaults in RegisterFlags, so Load works
// with a nil FlagSet.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")

	v.SetDefault("http_port", 8080)
	v.SetDefault("https_port", 443)
	v.SetDefault("use_https", false)
	v.SetDefault("read_timeout", "15s")
	v.SetDefault("read_header_timeout", "10s")
	v.SetDefault("write_timeout", "60s")
	v.SetDefault("idle_timeout", "120s")
	v.SetDefault("shutdown_timeout", "15s")
	v.SetDefault("enable_compression", true)
	v.SetDefault("compression_level", 5)

	v.SetDefault("cert_file", "")
	v.SetDefault("key_file", "")
	v.SetDefault("use_lets_encrypt", false)
	v.SetDefault("lets_encrypt_email", "")
	v.SetDefault("lets_encrypt_cache_dir", "letsencrypt-cache")
	v.SetDefault("domain", "")

	v.SetDefault("enable_cors", false)
	v.SetDefault("cors_allowed_origins", []string{})
	v.SetDefault("cors_allowed_methods", []string{})
	v.SetDefault("cors_allowed_headers", []string{})
	v.SetDefault("cors_max_age", 0)

	v.SetDefault("enable_security_headers", true)
	v.SetDefault("hsts_max_age", 31536000)

	v.SetDefault("max_variants", 100000)
	v.SetDefault("default_count", 100)
	v.SetDefault("validation_tier", "minimal")

	v.SetDefault("max_request_body_bytes", int64(64<<10))
	v.SetDefault("rate_limit_rps", 10.0)
	v.SetDefault("rate_limit_burst", 20)
	v.SetDefault("trust_proxy_headers", false)
}

// normalizeListKeys coerces JSON-string values into []string for the given keys.
func normalizeListKeys(logger *zap.Logger, v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		switch t := v.Get(key).(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				v.Set(key, []string{})
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []any:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		case []string, nil:
		default:
			logger.Warn("unexpected type for list key; expected JSON array/string",
				zap.String("key", key), zap.Any("value", t))
		}
	}
	return nil
}

// validate collects every problem in cfg into a single error instead of
// stopping at the first.
func validate(cfg Config) error {
	var missing []string
	var invalid []string

	if cfg.Env != "dev" && cfg.Env != "prod" {
		invalid = append(invalid, `env must be "dev" or "prod"`)
	}
	if !logging.IsValidLogLevel(cfg.LogLevel) {
		invalid = append(invalid, "log_level must be one of "+strings.Join(logging.ValidLogLevels, ", "))
	}

	if cfg.TLS.UseLetsEncrypt && !cfg.HTTP.UseHTTPS {
		invalid = append(invalid, "use_lets_encrypt=true requires use_https=true")
	}
	if cfg.TLS.UseLetsEncrypt {
		if strings.TrimSpace(cfg.TLS.Domain) == "" {
			missing = append(missing, "DOTMAIL_DOMAIN (or --domain) for Let's Encrypt")
		}
		if strings.TrimSpace(cfg.TLS.LetsEncryptEmail) == "" {
			missing = append(missing, "DOTMAIL_LETS_ENCRYPT_EMAIL (or --lets_encrypt_email)")
		} else if !(variant.Validator{Tier: variant.TierStrict}).IsValid(cfg.TLS.LetsEncryptEmail) {
			invalid = append(invalid, "lets_encrypt_email must look like an email address")
		}
	}
	if cfg.HTTP.UseHTTPS && !cfg.TLS.UseLetsEncrypt {
		if strings.TrimSpace(cfg.TLS.CertFile) == "" || strings.TrimSpace(cfg.TLS.KeyFile) == "" {
			missing = append(missing, "DOTMAIL_CERT_FILE and DOTMAIL_KEY_FILE (or --cert_file/--key_file) for manual TLS")
		}
	}

	if cfg.HTTP.HTTPPort <= 0 || cfg.HTTP.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}
	if cfg.HTTP.HTTPSPort <= 0 || cfg.HTTP.HTTPSPort > 65535 {
		invalid = append(invalid, "https_port must be in 1..65535")
	}
	if cfg.HTTP.UseHTTPS && cfg.HTTP.HTTPPort == cfg.HTTP.HTTPSPort {
		invalid = append(invalid, "http_port and https_port cannot be equal when use_https=true")
	}

	if cfg.HTTP.EnableCompression && (cfg.HTTP.CompressionLevel < 1 || cfg.HTTP.CompressionLevel > 9) {
		invalid = append(invalid, "compression_level must be in 1..9")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		invalid = append(invalid, "hsts_max_age must be >= 0")
	}

	if cfg.CORS.EnableCORS {
		if len(cfg.CORS.CORSAllowedOrigins) == 0 {
			missing = append(missing, "CORS: cors_allowed_origins (JSON array) required when enable_cors=true")
		}
		if len(cfg.CORS.CORSAllowedMethods) == 0 {
			missing = append(missing, "CORS: cors_allowed_methods (JSON array) required when enable_cors=true")
		}
		if cfg.CORS.CORSMaxAge < 0 {
			invalid = append(invalid, "CORS: cors_max_age must be >= 0")
		}
	}

	if cfg.Generator.MaxVariants < 1 {
		invalid = append(invalid, "max_variants must be >= 1")
	}
	if cfg.Generator.DefaultCount < 1 {
		invalid = append(invalid, "default_count must be >= 1")
	} else if cfg.Generator.DefaultCount > cfg.Generator.MaxVariants {
		invalid = append(invalid, "default_count cannot exceed max_variants")
	}
	if _, err := variant.ParseTier(cfg.Generator.ValidationTier); err != nil {
		invalid = append(invalid, `validation_tier must be "minimal" or "strict"`)
	}

	if cfg.Limits.MaxRequestBodyBytes < 0 {
		invalid = append(invalid, "max_request_body_bytes must be >= 0")
	}
	if cfg.Limits.RateLimitRPS < 0 {
		invalid = append(invalid, "rate_limit_rps must be >= 0")
	}
	if cfg.Limits.RateLimitRPS > 0 && cfg.Limits.RateLimitBurst < 1 {
		invalid = append(invalid, "rate_limit_burst must be >= 1 when rate limiting is enabled")
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("configuration errors: %s", strings.Join(parts, " | "))
}

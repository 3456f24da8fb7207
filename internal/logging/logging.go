// internal/logging/logging.go

// Package logging builds dotmail's zap loggers and the HTTP logging
// middleware.
package logging

import (
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ValidLogLevels lists all valid zap log levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}

// IsValidLogLevel reports whether level names a zap level, ignoring case.
func IsValidLogLevel(level string) bool {
	return slices.Contains(ValidLogLevels, strings.ToLower(level))
}

// BootstrapLogger returns a development logger for use before config is
// loaded. It logs at info to stderr and never fails.
func BootstrapLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// BuildLogger constructs the service logger. env "prod" selects JSON output;
// anything else the console encoder. An invalid level falls back to info
// with a warning on stderr.
func BuildLogger(level, env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if err := cfg.Level.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		_, _ = os.Stderr.WriteString("WARNING: invalid log level \"" + level +
			"\"; valid levels are: " + strings.Join(ValidLogLevels, ", ") + ". Defaulting to \"info\".\n")
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// MustBuildLogger is BuildLogger for main(): it exits on failure.
func MustBuildLogger(level, env string) *zap.Logger {
	logger, err := BuildLogger(level, env)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	return logger
}

// CLILogger returns a compact console logger for command-line use: no
// caller, no stack traces, stderr only. Unknown levels mean warn.
func CLILogger(level string) *zap.Logger {
	lvl := zap.NewAtomicLevelAt(zap.WarnLevel)
	if level != "" {
		_ = lvl.UnmarshalText([]byte(strings.ToLower(level)))
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), lvl)
	return zap.New(core)
}

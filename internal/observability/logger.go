// Package observability owns the process-wide loggers.
package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logging profiles.
const (
	// ProfileStructured emits JSON lines, for services and log shipping.
	ProfileStructured = "structured"

	// ProfileConsole emits human-readable lines on stderr.
	ProfileConsole = "console"
)

// CLILogger is the logger used by CLI commands. It is a no-op until
// InitCLILogger or SetCLILogger is called.
var CLILogger = zap.NewNop()

// InitCLILogger configures CLILogger for a command-line run. Output goes
// to stderr so stdout stays reserved for records.
func InitCLILogger(name string, verbose bool) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := NewLogger(level, ProfileConsole)
	if err != nil {
		logger = zap.NewNop()
	}
	CLILogger = logger.Named(name)
}

// SetCLILogger replaces CLILogger. A nil logger installs a no-op logger.
func SetCLILogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	CLILogger = l
}

// NewLogger builds a logger writing to stderr at level using profile.
// Profile names are case-insensitive; unknown profiles are rejected.
func NewLogger(level, profile string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	switch strings.ToLower(profile) {
	case "", ProfileStructured:
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case ProfileConsole:
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("unknown logging profile %q (expected %s or %s)", profile, ProfileStructured, ProfileConsole)
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// ParseLevel maps a level name to a zap level. An empty name is info.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

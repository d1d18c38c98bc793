// Package logging configures the zerolog logger used by the server and CLI.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "OSCKIT_LOG_LEVEL"
	EnvLogFormat    = "OSCKIT_LOG_FORMAT"
	EnvLogTimestamp = "OSCKIT_LOG_TIMESTAMP"
	EnvLogNoColor   = "OSCKIT_LOG_NOCOLOR"
)

// Config selects level and output shape.
type Config struct {
	Level     zerolog.Level
	JSON      bool // line-delimited JSON instead of the console writer
	Timestamp bool
	NoColor   bool
}

// DefaultConfig logs info and above to the console with timestamps.
func DefaultConfig() Config {
	return Config{
		Level:     zerolog.InfoLevel,
		Timestamp: true,
	}
}

// New builds a logger writing to w. Environment overrides are applied on
// top of cfg.
func New(app string, w io.Writer, cfg Config) zerolog.Logger {
	ApplyEnv(&cfg)

	out := w
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		}
	}
	ctx := zerolog.New(out).Level(cfg.Level).With().Str("app", app)
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

// Init builds a stderr logger and installs it as the global log.Logger.
func Init(app string, cfg Config) zerolog.Logger {
	logger := New(app, os.Stderr, cfg)
	log.Logger = logger
	return logger
}

// ApplyEnv overrides cfg from OSCKIT_LOG_* variables. Unparseable values are
// ignored.
func ApplyEnv(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogFormat))) {
	case "json":
		cfg.JSON = true
	case "console", "text":
		cfg.JSON = false
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

// ParseLevel maps a level name to a zerolog level. The second result is
// false for empty or unknown names.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

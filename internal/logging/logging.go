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
	EnvLogLevel     = "LANDINGD_LOG_LEVEL"
	EnvLogTimestamp = "LANDINGD_LOG_TIMESTAMP"
	EnvLogNoColor   = "LANDINGD_LOG_NOCOLOR"
)

// Init configures the process logger and returns it. The configured level is
// taken from cfgLevel, then overridden by LANDINGD_LOG_LEVEL when set.
func Init(app string, cfgLevel string) zerolog.Logger {
	level := parseLevel(cfgLevel, zerolog.InfoLevel)
	if lvl, ok := envLevel(); ok {
		level = lvl
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    envBool(EnvLogNoColor),
	}

	ctx := zerolog.New(output).Level(level).With().Str("app", app)
	if !envBoolDefault(EnvLogTimestamp, true) {
		logger := ctx.Logger()
		log.Logger = logger
		return logger
	}
	logger := ctx.Timestamp().Logger()
	log.Logger = logger
	return logger
}

// InitTests returns a quiet logger for package tests.
func InitTests() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func envLevel() (zerolog.Level, bool) {
	raw := os.Getenv(EnvLogLevel)
	if strings.TrimSpace(raw) == "" {
		return zerolog.InfoLevel, false
	}
	return parseLevel(raw, zerolog.InfoLevel), true
}

func parseLevel(raw string, fallback zerolog.Level) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return fallback
	}
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return false
	}
	return v
}

func envBoolDefault(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

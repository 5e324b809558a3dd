// Package logging builds the zerolog logger shared by the server and the CLI.
//
// Logs always go to stderr: stdout carries the MCP protocol stream.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// EnvLevel names the environment variable holding the log level.
const EnvLevel = "REGIONGROW_LOG_LEVEL"

// EnvFormat names the environment variable selecting "json" (default) or
// "console" output.
const EnvFormat = "REGIONGROW_LOG_FORMAT"

// ParseLevel maps debug, info, warn (or warning), error and disabled (or off)
// to a zerolog level. Anything else, including "", is info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New returns a timestamped logger writing to w at the given level.
func New(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewConsole is New with zerolog's human readable console encoder.
func NewConsole(w io.Writer, level string) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: w, NoColor: true}, level)
}

// FromEnv builds the stderr logger. level overrides REGIONGROW_LOG_LEVEL
// when not empty.
func FromEnv(level string) zerolog.Logger {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if strings.EqualFold(os.Getenv(EnvFormat), "console") {
		return NewConsole(os.Stderr, level)
	}
	return New(os.Stderr, level)
}

// Component tags every event of l with the subsystem name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Package logging builds the zerolog logger used across veritas.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console

	// Out defaults to stderr so logs never mix with report output.
	Out io.Writer
}

// New creates a new zerolog logger based on config. Invalid levels fall back
// to info and invalid formats to console; Validate callers see the error first.
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if format, _ := ParseFormat(cfg.Format); format == FormatConsole {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal(out),
		}
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel parses a level name. An empty name yields info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("invalid log level %q, expected debug, info, warn, error or off", level)
}

// ParseFormat parses a format name. An empty name yields console.
func ParseFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", FormatConsole:
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return FormatConsole, fmt.Errorf("invalid log format %q, expected json or console", format)
	}
}

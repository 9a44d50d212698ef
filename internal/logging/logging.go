// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// FormatConsole is human readable output for terminals
	FormatConsole = "console"
	// FormatJSON is one JSON object per line, for CI log collectors
	FormatJSON = "json"
)

// NewWriter returns the writer for a log format
func NewWriter(out io.Writer, format string) (io.Writer, error) {
	switch strings.ToLower(format) {
	case FormatConsole, "":
		return zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}, nil
	case FormatJSON:
		return out, nil
	default:
		return nil, fmt.Errorf("invalid log format: %s (valid: %s, %s)", format, FormatConsole, FormatJSON)
	}
}

// Level picks the global level from the debug and quiet switches; debug wins
func Level(debug, quiet bool) zerolog.Level {
	switch {
	case debug:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup points the global logger at out
func Setup(out io.Writer, format string, level zerolog.Level) error {
	w, err := NewWriter(out, format)
	if err != nil {
		return err
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(level)
	return nil
}

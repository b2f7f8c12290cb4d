package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New builds the process logger. Output goes to w so that stdout stays free
// for command results.
func New(w io.Writer, format, level string) (zerolog.Logger, error) {
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level %q: %w", level, err)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatConsole:
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	case FormatJSON, "":
	default:
		return zerolog.Logger{}, fmt.Errorf("unknown log format %q", format)
	}

	logger := zerolog.New(w).
		Level(parsedLevel).
		With().
		Timestamp().
		Str("service", "pdxtran").
		Logger()

	return logger, nil
}

package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger. Development mode writes human readable
// console output, everything else writes JSON lines.
func New(development bool, level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, development, level)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(out io.Writer, development bool, level string) zerolog.Logger {
	if development {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "ward-reporting").Logger()
}

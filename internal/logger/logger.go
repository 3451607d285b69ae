package logger

import (
	"io"
	"os"
	"time"

	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/rs/zerolog"
)

// New builds the process logger. Development gets a console writer,
// Production writes JSON lines to stdout
func New(cfg config.Configuration) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with a custom destination
func NewWithWriter(cfg config.Configuration, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Log.Pretty && cfg.Environment != config.Production {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.Name).
		Logger()
}

// Nop is used by tests and components that weren't handed a logger
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

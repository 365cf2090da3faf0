package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with the fields the build attaches to its events
type Logger struct {
	zerolog.Logger
}

// LoggerOptions configures NewLogger
type LoggerOptions struct {
	// Level is a zerolog level name; unknown names mean info
	Level string
	// Format is "pretty" for console output, anything else writes JSON lines
	Format string
	// Output defaults to stderr
	Output io.Writer
	// Verbose forces debug level
	Verbose bool
}

// NewLogger creates a logger from opts
func NewLogger(opts LoggerOptions) *Logger {
	var out io.Writer = os.Stderr
	if opts.Output != nil {
		out = opts.Output
	}
	if opts.Format == "pretty" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	return &Logger{Logger: zerolog.New(out).Level(level).With().Timestamp().Logger()}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithComponent tags events with the pipeline stage emitting them
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithPackage tags events with the package being built
func (l *Logger) WithPackage(name string) *Logger {
	return l.with("package", name)
}

// WithEntry tags events with an export key, e.g. ./sub
func (l *Logger) WithEntry(key string) *Logger {
	return l.with("export", key)
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.Logger.With().Str(key, value).Logger()}
}

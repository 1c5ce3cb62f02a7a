package utils

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with printf-style level methods
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a console logger on stdout; LOG_LEVEL picks the level (default info)
func NewLogger() *Logger {
	return NewLoggerWithWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}, os.Getenv("LOG_LEVEL"))
}

// NewLoggerWithWriter creates a logger writing to w at the given level name
func NewLoggerWithWriter(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return &Logger{zl: zerolog.New(w).Level(lvl).With().Timestamp().Logger()}
}

// NewNopLogger discards everything
func NewNopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger that tags every line with key=value
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.zl.Info().Msgf(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.zl.Warn().Msgf(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.zl.Error().Msgf(msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.zl.Debug().Msgf(msg, args...)
}

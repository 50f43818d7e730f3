package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	DEBUG int = iota
	INFO
	WARNING
	ERROR
	SILENCE
)

type Logger interface {
	Debugf(msg string, a ...any)
	Infof(msg string, a ...any)
	Warnf(msg string, a ...any)
	Errorf(msg string, a ...any)
}

type defaultLogger struct {
	zl zerolog.Logger
}

// NewLogger writes human readable lines to stderr.
func NewLogger(level int) *defaultLogger {
	return NewLoggerWithWriter(level, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// NewJSONLogger writes one JSON object per line to stdout.
func NewJSONLogger(level int) *defaultLogger {
	return NewLoggerWithWriter(level, os.Stdout)
}

func NewLoggerWithWriter(level int, w io.Writer) *defaultLogger {
	return &defaultLogger{
		zl: zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger(),
	}
}

// ParseLevel converts a config value (debug, info, warn, error, silence) to a
// level. Unknown values fall back to INFO.
func ParseLevel(s string) int {
	switch s {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARNING
	case "error":
		return ERROR
	case "silence":
		return SILENCE
	default:
		return INFO
	}
}

func toZerologLevel(level int) zerolog.Level {
	switch level {
	case DEBUG:
		return zerolog.DebugLevel
	case INFO:
		return zerolog.InfoLevel
	case WARNING:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

func (l *defaultLogger) Debugf(msg string, a ...any) {
	l.zl.Debug().Msgf(msg, a...)
}

func (l *defaultLogger) Infof(msg string, a ...any) {
	l.zl.Info().Msgf(msg, a...)
}

func (l *defaultLogger) Warnf(msg string, a ...any) {
	l.zl.Warn().Msgf(msg, a...)
}

func (l *defaultLogger) Errorf(msg string, a ...any) {
	l.zl.Error().Msgf(msg, a...)
}

package server

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value any
}

const maxLoggedValue = 100

// ZeroLogger writes structured logs through zerolog
type ZeroLogger struct {
	logger zerolog.Logger
}

// NewLogger builds a logger writing to w. format "json" emits one JSON
// object per line, anything else is human readable console output.
func NewLogger(w io.Writer, level, format string) *ZeroLogger {
	if w == nil {
		w = os.Stdout
	}
	if !strings.EqualFold(format, "json") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05.000"}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return &ZeroLogger{
		logger: zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
	}
}

// NewDefaultLogger logs to stdout at info level
func NewDefaultLogger() *ZeroLogger {
	return NewLogger(os.Stdout, "info", "console")
}

func (l *ZeroLogger) Debug(msg string, fields ...Field) {
	l.log(l.logger.Debug(), msg, fields)
}

func (l *ZeroLogger) Info(msg string, fields ...Field) {
	l.log(l.logger.Info(), msg, fields)
}

func (l *ZeroLogger) Error(msg string, fields ...Field) {
	l.log(l.logger.Error(), msg, fields)
}

func (l *ZeroLogger) Warn(msg string, fields ...Field) {
	l.log(l.logger.Warn(), msg, fields)
}

func (l *ZeroLogger) log(ev *zerolog.Event, msg string, fields []Field) {
	if ev == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case error:
			ev = ev.AnErr(f.Key, v)
		default:
			ev = ev.Interface(f.Key, sanitizeValue(v))
		}
	}
	ev.Msg(msg)
}

// sanitizeValue truncates long strings so header values and bodies never
// land in the log whole
func sanitizeValue(v any) any {
	if s, ok := v.(string); ok && len(s) > maxLoggedValue {
		return s[:maxLoggedValue] + "...[truncated]"
	}
	return v
}

// NullLogger discards all logs (for testing)
type NullLogger struct{}

func (n *NullLogger) Debug(msg string, fields ...Field) {}
func (n *NullLogger) Info(msg string, fields ...Field)  {}
func (n *NullLogger) Error(msg string, fields ...Field) {}
func (n *NullLogger) Warn(msg string, fields ...Field)  {}

// Package logging provides the diagnostics sink used across flagx.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the diagnostics sink. Host applications inject their own
// implementation to control log routing.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Level represents the logging level.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ZerologLogger adapts a zerolog.Logger to Logger.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerolog wraps an existing zerolog logger.
func NewZerolog(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

// New creates a JSON logger writing to out at the given level.
// A nil writer defaults to os.Stderr.
func New(out io.Writer, level Level) *ZerologLogger {
	if out == nil {
		out = os.Stderr
	}
	logger := zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("component", "flagx").
		Logger()
	return NewZerolog(logger)
}

// Default returns the logger used when none is configured: warnings and
// errors only, on stderr.
func Default() *ZerologLogger {
	return New(os.Stderr, LevelWarn)
}

// ParseLevel converts Level to zerolog.Level, defaulting to info.
func ParseLevel(level Level) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZerologLogger) Debug(msg string, keysAndValues ...any) {
	write(l.logger.Debug(), msg, keysAndValues)
}

func (l *ZerologLogger) Info(msg string, keysAndValues ...any) {
	write(l.logger.Info(), msg, keysAndValues)
}

func (l *ZerologLogger) Warn(msg string, keysAndValues ...any) {
	write(l.logger.Warn(), msg, keysAndValues)
}

func (l *ZerologLogger) Error(msg string, keysAndValues ...any) {
	write(l.logger.Error(), msg, keysAndValues)
}

// write attaches alternating key/value pairs to the event. A trailing key
// without a value is logged under "extra".
func write(event *zerolog.Event, msg string, keysAndValues []any) {
	if event == nil {
		return
	}
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 >= len(keysAndValues) {
			event = event.Interface("extra", keysAndValues[i])
			break
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		switch v := keysAndValues[i+1].(type) {
		case error:
			event = event.AnErr(key, v)
		case string:
			event = event.Str(key, v)
		case bool:
			event = event.Bool(key, v)
		case int:
			event = event.Int(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	event.Msg(msg)
}

// NopLogger discards all messages.
type NopLogger struct{}

func (NopLogger) Debug(msg string, keysAndValues ...any) {}
func (NopLogger) Info(msg string, keysAndValues ...any)  {}
func (NopLogger) Warn(msg string, keysAndValues ...any)  {}
func (NopLogger) Error(msg string, keysAndValues ...any) {}

package flagx

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/OrlandoBitencourt/flagx/internal/logging"
)

// Logger receives structured diagnostics as alternating key/value pairs.
type Logger = logging.Logger

// NopLogger discards all diagnostics.
type NopLogger = logging.NopLogger

// NewZerologLogger adapts a zerolog.Logger.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return logging.NewZerolog(logger)
}

// NewJSONLogger writes JSON lines to out at the given level
// ("debug", "info", "warn", "error").
func NewJSONLogger(out io.Writer, level string) Logger {
	return logging.New(out, logging.Level(level))
}

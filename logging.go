package recipe

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

// Log formats accepted by NewLogger.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// NewLogger returns a structured logger writing to w.
//
// format is "console" or "json"; anything else falls back to console when
// w is a terminal and JSON otherwise. level is parsed with log.ParseLevel.
func NewLogger(level, format string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	logger := &log.Logger{
		Level: log.ParseLevel(strings.ToLower(level)),
	}

	switch {
	case format == LogFormatJSON:
		logger.Writer = &log.IOWriter{Writer: w}
	case format == LogFormatConsole, isTerminal(w):
		logger.Writer = &log.ConsoleWriter{
			Writer:      w,
			ColorOutput: isTerminal(w),
		}
	default:
		logger.Writer = &log.IOWriter{Writer: w}
	}
	return logger
}

// nopLogger is used when callers don't supply a logger.
func nopLogger() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && log.IsTerminal(f.Fd())
}

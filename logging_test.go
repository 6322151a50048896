package recipe

import (
	"bytes"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", LogFormatJSON, &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("config", "Linux/x86_64 gcc-10").Msg("building configuration")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"building configuration"`)
	assert.Contains(t, out, `"config":"Linux/x86_64 gcc-10"`)
}

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", LogFormatConsole, &buf)

	assert.Equal(t, log.WarnLevel, logger.Level)
	_, ok := logger.Writer.(*log.ConsoleWriter)
	assert.True(t, ok)

	logger.Warn().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewLoggerNonTerminalDefaultsToJSON(t *testing.T) {
	logger := NewLogger("info", "", &bytes.Buffer{})
	_, ok := logger.Writer.(*log.IOWriter)
	assert.True(t, ok)
}

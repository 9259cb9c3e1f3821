package log

import (
	"bytes"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
)

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "NONE", LogLevelNone.String())
	assert.Contains(t, LogLevel(42).String(), "UNKNOWN")
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelWarn)

	logger.Debug("debug %d", 1)
	logger.Info("info %d", 2)
	logger.Warn("warn %d", 3)
	logger.Error("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "[WARN] warn 3")
	assert.Contains(t, out, "[ERROR] error 4")
	assert.Contains(t, out, "[graphflow]")
}

func TestDefaultLogger_NoneSilencesEverything(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelNone)

	logger.Error("should not appear")

	assert.Empty(t, buf.String())
}

func TestNoOpLogger(t *testing.T) {
	var logger Logger = &NoOpLogger{}

	assert.NotPanics(t, func() {
		logger.Debug("a")
		logger.Info("b")
		logger.Warn("c")
		logger.Error("d")
	})
}

func TestGologLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	inner := golog.New()
	inner.SetOutput(&buf)

	logger := NewGologLogger(inner)
	logger.SetLevel(LogLevelWarn)

	logger.Info("hidden message")
	logger.Warn("visible message")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Equal(t, LogLevelWarn, logger.GetLevel())
}

func TestGologLogger_DefaultsToInfo(t *testing.T) {
	logger := NewGologLogger(golog.New())
	assert.Equal(t, LogLevelInfo, logger.GetLevel())
}

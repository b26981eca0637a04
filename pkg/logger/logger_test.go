package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerWritesAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, slog.LevelInfo, false)

	log.Info("storing item", "id", "m1", "scope", "agent1")

	out := buf.String()
	assert.Contains(t, out, "storing item")
	assert.Contains(t, out, "id=m1")
	assert.Contains(t, out, "scope=agent1")
	assert.NotContains(t, out, "\033[")
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, slog.LevelWarn, false)

	log.Info("should not appear")
	log.Warn("should appear")

	assert.NotContains(t, buf.String(), "should not appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestLoggerGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, slog.LevelInfo, false).With("component", "search").WithGroup("query")

	log.Info("ran", "topk", 5)

	out := buf.String()
	assert.Contains(t, out, "component=search")
	assert.Contains(t, out, "query.topk=5")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("anything"))
}

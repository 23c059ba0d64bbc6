package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":    LevelDebug,
		" DEBUG ":  LevelDebug,
		"info":     LevelInfo,
		"warn":     LevelWarn,
		"warning":  LevelWarn,
		"error":    LevelError,
		"critical": LevelCritical,
		"":         LevelInfo,
		"verbose":  LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerFiltersBelowMin(t *testing.T) {
	var out bytes.Buffer
	l := New(&out, LevelInfo)
	assert.False(t, l.Color)

	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.Errorf("failed: %s", "boom")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Info shown 2")
	assert.Contains(t, lines[1], "Error failed: boom")
	assert.NotContains(t, out.String(), "hidden")
}

func TestLoggerDebug(t *testing.T) {
	var out bytes.Buffer
	l := New(&out, LevelDebug)
	l.Debugf("x=%v", 3)
	l.Warnf("w")
	l.Criticalf("c")
	assert.Contains(t, out.String(), "Debug x=3")
	assert.Contains(t, out.String(), "Warning w")
	assert.Contains(t, out.String(), "Critical c")
}

func TestNewStderr(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "error")
	l := NewStderr("TEST_LOG_LEVEL")
	assert.Equal(t, LevelError, l.Min)
}

func TestPrefixLogger(t *testing.T) {
	var out bytes.Buffer
	var log logs.Log = NewPrefixLogger(New(&out, LevelDebug), "run 42:")
	log.Infof("hello %s", "world")
	log.Debugf("d")
	assert.Contains(t, out.String(), "Info run 42: hello world")
	assert.Contains(t, out.String(), "Debug run 42: d")
	log.Close()
}

func TestDiscard(t *testing.T) {
	var log logs.Log = Discard{}
	log.Infof("nothing")
	log.Close()
}

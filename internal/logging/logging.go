// Package logging provides the stderr logger used by the command line and the
// MCP server. Stdout is reserved for protocol traffic.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/mattn/go-isatty"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

// ParseLevel maps "debug", "info", "warn", "error" and "critical" to a Level.
// Anything else is LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "critical":
		return LevelCritical
	}
	return LevelInfo
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "Debug"
	case LevelInfo:
		return "Info"
	case LevelWarn:
		return "Warning"
	case LevelError:
		return "Error"
	case LevelCritical:
		return "Critical"
	}
	return "Unknown"
}

// Logger writes timestamped lines at or above Min to Output.
type Logger struct {
	Output io.Writer
	Min    Level
	Color  bool

	mu sync.Mutex
}

var _ logs.Log = (*Logger)(nil)

// New returns a Logger on w. Level names are coloured when w is a terminal.
func New(w io.Writer, level Level) *Logger {
	l := &Logger{Output: w, Min: level}
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		l.Color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return l
}

// NewStderr returns a stderr logger with the level read from env.
func NewStderr(env string) *Logger {
	return New(os.Stderr, ParseLevel(os.Getenv(env)))
}

var levelColors = map[Level]string{
	LevelDebug:    "\x1b[90m",
	LevelWarn:     "\x1b[33m",
	LevelError:    "\x1b[31m",
	LevelCritical: "\x1b[1;31m",
}

func (l *Logger) write(level Level, format string, a ...interface{}) {
	if level < l.Min {
		return
	}
	name := level.String()
	if c, ok := levelColors[level]; ok && l.Color {
		name = c + name + "\x1b[0m"
	}
	prefix := fmt.Sprintf("%.3f %v ", float64(time.Now().UnixNano())/1e9, name)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.Output, prefix+format+"\n", a...)
}

func (l *Logger) Close() {}

func (l *Logger) Debugf(format string, a ...interface{}) {
	l.write(LevelDebug, format, a...)
}

func (l *Logger) Infof(format string, a ...interface{}) {
	l.write(LevelInfo, format, a...)
}

func (l *Logger) Warnf(format string, a ...interface{}) {
	l.write(LevelWarn, format, a...)
}

func (l *Logger) Errorf(format string, a ...interface{}) {
	l.write(LevelError, format, a...)
}

func (l *Logger) Criticalf(format string, a ...interface{}) {
	l.write(LevelCritical, format, a...)
}

// PrefixLogger writes to the underlying log, with every message prefixed.
type PrefixLogger struct {
	Log    logs.Log
	Prefix string
}

// NewPrefixLogger prefixes every message with prefix and a space.
func NewPrefixLogger(log logs.Log, prefix string) *PrefixLogger {
	return &PrefixLogger{Log: log, Prefix: prefix + " "}
}

func (l *PrefixLogger) Close() {
	l.Log.Close()
}

func (l *PrefixLogger) Debugf(format string, a ...interface{}) {
	l.Log.Debugf(l.Prefix+format, a...)
}

func (l *PrefixLogger) Infof(format string, a ...interface{}) {
	l.Log.Infof(l.Prefix+format, a...)
}

func (l *PrefixLogger) Warnf(format string, a ...interface{}) {
	l.Log.Warnf(l.Prefix+format, a...)
}

func (l *PrefixLogger) Errorf(format string, a ...interface{}) {
	l.Log.Errorf(l.Prefix+format, a...)
}

func (l *PrefixLogger) Criticalf(format string, a ...interface{}) {
	l.Log.Criticalf(l.Prefix+format, a...)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Close()                                    {}
func (Discard) Debugf(format string, a ...interface{})    {}
func (Discard) Infof(format string, a ...interface{})     {}
func (Discard) Warnf(format string, a ...interface{})     {}
func (Discard) Errorf(format string, a ...interface{})    {}
func (Discard) Criticalf(format string, a ...interface{}) {}

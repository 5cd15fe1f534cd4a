// Structured logging for the CNC dispatch engine.
//
// Provides per-component prefix loggers with levels, and channel-directed
// emission: diagnostics produced while handling a command are written to
// the originating channel in the [MSG:LEVEL: text] wire form, while host
// logging goes to the process log writer.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	// VERBOSE level for very chatty diagnostics
	VERBOSE Level = iota

	// DEBUG level for detailed debugging information
	DEBUG

	// INFO level for general informational messages
	INFO

	// WARN level for warning messages
	WARN

	// ERROR level for error messages
	ERROR
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case VERBOSE:
		return "VRB"
	case DEBUG:
		return "DBG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown strings map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "VERBOSE", "VRB":
		return VERBOSE
	case "DEBUG", "DBG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR", "ERR":
		return ERROR
	default:
		return INFO
	}
}

// Logger writes leveled, prefixed log lines to a writer.
type Logger struct {
	mu         sync.Mutex
	prefix     string
	writer     io.Writer
	level      Level
	timeFormat string
}

var (
	defaultMu     sync.Mutex
	defaultLogger = New("cnc")
)

// New creates a new logger with the given component prefix.
func New(prefix string) *Logger {
	return &Logger{
		prefix:     prefix,
		writer:     os.Stderr,
		level:      INFO,
		timeFormat: "2006-01-02 15:04:05.000",
	}
}

// Default returns the process-wide logger.
func Default() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetWriter sets the output writer (e.g., for testing).
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// Prefixed returns a child logger with an extended prefix, sharing the
// parent's writer and level.
func (l *Logger) Prefixed(sub string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		prefix:     l.prefix + "/" + sub,
		writer:     l.writer,
		level:      l.level,
		timeFormat: l.timeFormat,
	}
}

func (l *Logger) emit(level Level, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level || l.writer == nil {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	var sb strings.Builder
	sb.WriteString(time.Now().Format(l.timeFormat))
	sb.WriteString(" [")
	sb.WriteString(fmt.Sprintf("%-4s", level.String()))
	sb.WriteString("] ")
	sb.WriteString(l.prefix)
	sb.WriteString(": ")
	sb.WriteString(msg)
	sb.WriteString("\n")
	io.WriteString(l.writer, sb.String())
}

// Verbose logs at VERBOSE level.
func (l *Logger) Verbose(format string, args ...interface{}) { l.emit(VERBOSE, format, args) }

// Debug logs at DEBUG level.
func (l *Logger) Debug(format string, args ...interface{}) { l.emit(DEBUG, format, args) }

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...interface{}) { l.emit(INFO, format, args) }

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...interface{}) { l.emit(WARN, format, args) }

// Error logs at ERROR level.
func (l *Logger) Error(format string, args ...interface{}) { l.emit(ERROR, format, args) }

// Package-level helpers using the default logger.

func Verbose(format string, args ...interface{}) { Default().Verbose(format, args...) }
func Debug(format string, args ...interface{})   { Default().Debug(format, args...) }
func Info(format string, args ...interface{})    { Default().Info(format, args...) }
func Warn(format string, args ...interface{})    { Default().Warn(format, args...) }
func Error(format string, args ...interface{})   { Default().Error(format, args...) }

// LineWriter is the subset of the channel contract that log emission
// needs. Using a local interface avoids an import cycle with the channel
// package.
type LineWriter interface {
	WriteString(s string) (int, error)
}

// MsgTo writes a leveled message to a specific output channel in the
// [MSG:LEVEL: text] wire form.
func MsgTo(out LineWriter, level Level, format string, args ...interface{}) {
	if out == nil {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	out.WriteString("[MSG:" + level.String() + ": " + msg + "]\n")
}

// VerboseTo writes a VERBOSE message to a channel.
func VerboseTo(out LineWriter, format string, args ...interface{}) {
	MsgTo(out, VERBOSE, format, args...)
}

// DebugTo writes a DEBUG message to a channel.
func DebugTo(out LineWriter, format string, args ...interface{}) {
	MsgTo(out, DEBUG, format, args...)
}

// InfoTo writes an INFO message to a channel.
func InfoTo(out LineWriter, format string, args ...interface{}) {
	MsgTo(out, INFO, format, args...)
}

// WarnTo writes a WARN message to a channel.
func WarnTo(out LineWriter, format string, args ...interface{}) {
	MsgTo(out, WARN, format, args...)
}

// ErrorTo writes an ERROR message to a channel.
func ErrorTo(out LineWriter, format string, args ...interface{}) {
	MsgTo(out, ERROR, format, args...)
}

// NoteTo writes an unleveled [MSG: ...] line to a channel.
func NoteTo(out LineWriter, format string, args ...interface{}) {
	if out == nil {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	out.WriteString("[MSG: " + msg + "]\n")
}

// StringTo writes a bare feedback line to a channel, without the MSG
// wrapping. Used for listing output.
func StringTo(out LineWriter, s string) {
	if out == nil {
		return
	}
	out.WriteString(s + "\n")
}

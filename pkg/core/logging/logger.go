// Package logging provides structured, leveled logging for all voxlate
// components. Each component creates a named logger; output is JSON by
// default (text for interactive use) and written to stdout.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string level to a Level
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error", "fatal":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format is the log output format
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

var (
	defaultMu     sync.RWMutex
	defaultLevel  = LevelInfo
	defaultFormat = FormatJSON
	defaultOutput io.Writer = os.Stdout
)

// SetDefaultLevel sets the level used by loggers created afterwards
func SetDefaultLevel(level Level) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLevel = level
}

// SetDefaultFormat sets the format used by loggers created afterwards
func SetDefaultFormat(format Format) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultFormat = format
}

// SetDefaultOutput redirects the output of loggers created afterwards
func SetDefaultOutput(w io.Writer) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOutput = w
}

// Logger is a named, leveled structured logger
type Logger struct {
	name   string
	level  Level
	format Format
	out    io.Writer
	mu     *sync.Mutex
}

// New creates a new logger with the given component name
func New(name string) *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return &Logger{
		name:   name,
		level:  defaultLevel,
		format: defaultFormat,
		out:    defaultOutput,
		mu:     &sync.Mutex{},
	}
}

// WithLevel returns a copy of the logger with the specified level
func (l *Logger) WithLevel(level Level) *Logger {
	return &Logger{
		name:   l.name,
		level:  level,
		format: l.format,
		out:    l.out,
		mu:     l.mu,
	}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LevelDebug, msg, keysAndValues...)
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LevelWarn, msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LevelError, msg, keysAndValues...)
}

func (l *Logger) log(level Level, msg string, keysAndValues ...interface{}) {
	if level < l.level {
		return
	}

	fields := toFields(keysAndValues...)
	now := time.Now()

	var line string
	if l.format == FormatJSON {
		record := map[string]interface{}{
			"time":    now.Format(time.RFC3339Nano),
			"level":   level.String(),
			"logger":  l.name,
			"message": msg,
		}
		for k, v := range fields {
			// errors don't marshal to anything useful
			if err, ok := v.(error); ok {
				record[k] = err.Error()
				continue
			}
			record[k] = v
		}
		b, err := json.Marshal(record)
		if err != nil {
			b = []byte(fmt.Sprintf(`{"level":"error","logger":%q,"message":"log marshal failed"}`, l.name))
		}
		line = string(b)
	} else {
		var sb strings.Builder
		sb.WriteString(now.Format("2006-01-02 15:04:05.000"))
		sb.WriteString(" [")
		sb.WriteString(strings.ToUpper(level.String()))
		sb.WriteString("] ")
		sb.WriteString(l.name)
		sb.WriteString(": ")
		sb.WriteString(msg)

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf(" %s=%v", k, fields[k]))
		}
		line = sb.String()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, line)
}

// toFields converts key-value pairs to a field map, skipping malformed pairs
func toFields(keysAndValues ...interface{}) map[string]interface{} {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}

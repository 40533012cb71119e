package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func newTestLogger(name string, level Level, format Format) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &Logger{
		name:   name,
		level:  level,
		format: format,
		out:    buf,
		mu:     &sync.Mutex{},
	}, buf
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}

	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	logger, buf := newTestLogger("test", LevelDebug, FormatJSON)

	logger.Info("hello", "count", 3, "service", "deepl")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if record["message"] != "hello" {
		t.Errorf("Expected message 'hello', got %v", record["message"])
	}
	if record["logger"] != "test" {
		t.Errorf("Expected logger 'test', got %v", record["logger"])
	}
	if record["service"] != "deepl" {
		t.Errorf("Expected service 'deepl', got %v", record["service"])
	}
	if record["count"] != float64(3) {
		t.Errorf("Expected count 3, got %v", record["count"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger("test", LevelWarn, FormatText)

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	logger.Warn("warning message")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Error("Messages below the logger level should be suppressed")
	}
	if !strings.Contains(out, "warning message") {
		t.Error("Warn message should be logged")
	}
}

func TestLogger_TextFormat(t *testing.T) {
	logger, buf := newTestLogger("cache", LevelDebug, FormatText)

	logger.Info("entry evicted", "key", "abc")

	out := buf.String()
	if !strings.Contains(out, "[INFO]") {
		t.Errorf("Expected level marker in text output, got %q", out)
	}
	if !strings.Contains(out, "cache: entry evicted") {
		t.Errorf("Expected logger name and message, got %q", out)
	}
	if !strings.Contains(out, "key=abc") {
		t.Errorf("Expected key-value pair, got %q", out)
	}
}

func TestToFields_MalformedPairs(t *testing.T) {
	fields := toFields("a", 1, 2, "orphan")
	if len(fields) != 1 {
		t.Errorf("Expected 1 field, got %d", len(fields))
	}
	if fields["a"] != 1 {
		t.Errorf("Expected a=1, got %v", fields["a"])
	}
}

package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

// newTestLogger builds a Logger writing JSON lines to a pipe-free buffer by
// swapping the entry's logger output after construction, since NewLogger
// only accepts an *os.File.
func newTestLogger(level logrus.Level) (*Logger, *bytes.Buffer) {
	l := NewLogger(level, nil)
	var buf bytes.Buffer
	l.entry.Logger.SetOutput(&buf)
	return l, &buf
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(logrus.InfoLevel, nil)
	if logger == nil {
		t.Fatal("expected logger to be created")
	}
	if logger.entry.Logger.Level != logrus.InfoLevel {
		t.Errorf("expected level info, got %v", logger.entry.Logger.Level)
	}
}

func TestLogger_WithFields(t *testing.T) {
	logger, _ := newTestLogger(logrus.InfoLevel)
	withFields := logger.WithFields(map[string]interface{}{"key1": "value1", "key2": 123})

	if len(withFields.entry.Data) != 2 {
		t.Errorf("expected 2 fields, got %d", len(withFields.entry.Data))
	}
}

func TestLogger_WithField(t *testing.T) {
	logger, _ := newTestLogger(logrus.InfoLevel)
	withField := logger.WithField("test", "value")

	if withField.entry.Data["test"] != "value" {
		t.Errorf("expected field test=value, got %v", withField.entry.Data["test"])
	}
}

func TestLogger_Info(t *testing.T) {
	logger, buf := newTestLogger(logrus.InfoLevel)
	logger.Info("test message")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log line: %v", err)
	}
	if entry["level"] != "info" {
		t.Errorf("expected level info, got %v", entry["level"])
	}
	if entry["msg"] != "test message" {
		t.Errorf("expected msg 'test message', got %v", entry["msg"])
	}
}

func TestLogger_DebugFiltered(t *testing.T) {
	logger, buf := newTestLogger(logrus.InfoLevel)
	logger.Debug("debug message")

	if buf.Len() != 0 {
		t.Errorf("expected no output for debug when level is info, got: %s", buf.String())
	}
}

func TestLogger_InfoWithFields(t *testing.T) {
	logger, buf := newTestLogger(logrus.InfoLevel)
	logger.Info("test", map[string]interface{}{"key1": "value1", "key2": 123})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log line: %v", err)
	}
	if entry["key1"] != "value1" {
		t.Errorf("expected key1=value1, got %v", entry["key1"])
	}
}

func TestLogger_LogOperation_Success(t *testing.T) {
	logger, buf := newTestLogger(logrus.InfoLevel)

	err := logger.LogOperation("test_operation", func() error { return nil })
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("operation completed")) {
		t.Errorf("expected log to contain completion message, got: %s", buf.String())
	}
}

func TestLogger_LogOperation_Failure(t *testing.T) {
	logger, buf := newTestLogger(logrus.InfoLevel)

	testErr := errors.New("test error")
	err := logger.LogOperation("test_operation", func() error { return testErr })
	if !errors.Is(err, testErr) {
		t.Errorf("expected error to be returned, got %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("operation failed")) {
		t.Errorf("expected log to contain failure message, got: %s", buf.String())
	}
}

func TestLogger_SetLevel(t *testing.T) {
	logger, buf := newTestLogger(logrus.InfoLevel)
	logger.SetLevel(logrus.WarnLevel)

	logger.Info("should not appear")
	if buf.Len() != 0 {
		t.Error("expected info message to be filtered")
	}

	logger.Warn("should appear")
	if !bytes.Contains(buf.Bytes(), []byte("should appear")) {
		t.Error("expected warn message to appear")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"fatal", logrus.FatalLevel},
		{"not-a-level", logrus.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLogLevel(%s): expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	logger, buf := newTestLogger(logrus.InfoLevel)
	SetGlobalLogger(logger)
	defer SetGlobalLogger(NewLogger(logrus.InfoLevel, os.Stdout))

	Info("global test")

	if !bytes.Contains(buf.Bytes(), []byte("global test")) {
		t.Error("expected global logger to log message")
	}
}

func TestAccessLogger(t *testing.T) {
	logger, buf := newTestLogger(logrus.InfoLevel)
	accessLogger := NewAccessLogger(logger)

	accessLogger.LogAccess("GET", "/v1/search", "200", 0, map[string]interface{}{"user": "test"})

	if !bytes.Contains(buf.Bytes(), []byte(`"method":"GET"`)) {
		t.Errorf("expected log to contain method=GET, got: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"user":"test"`)) {
		t.Errorf("expected log to contain user field, got: %s", buf.String())
	}
}

func TestLogger_LogOperationWithFields(t *testing.T) {
	logger, buf := newTestLogger(logrus.InfoLevel)

	err := logger.LogOperationWithFields("test_op", map[string]interface{}{"request_id": "12345"}, func() error {
		return nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"12345"`)) {
		t.Errorf("expected log to contain request_id field, got: %s", buf.String())
	}
}

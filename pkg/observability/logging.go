package observability

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus.Entry, keeping the field-chaining call shape this
// codebase's callers expect (WithField(s), leveled methods, LogOperation)
// while delegating formatting, level filtering, and output to logrus.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a Logger at the given level, writing to output. A nil
// output defaults to os.Stdout.
func NewLogger(level logrus.Level, output *os.File) *Logger {
	if output == nil {
		output = os.Stdout
	}

	base := logrus.New()
	base.SetOutput(output)
	base.SetLevel(level)
	base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})

	return &Logger{entry: logrus.NewEntry(base)}
}

// NewDefaultLogger creates a Logger at info level writing to stdout.
func NewDefaultLogger() *Logger {
	return NewLogger(logrus.InfoLevel, os.Stdout)
}

// WithFields returns a Logger carrying the given fields in addition to any
// already attached.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithField returns a Logger carrying one additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// SetLevel adjusts the minimum level this logger and its descendants emit.
func (l *Logger) SetLevel(level logrus.Level) {
	l.entry.Logger.SetLevel(level)
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) { l.log(logrus.DebugLevel, msg, fields...) }
func (l *Logger) Info(msg string, fields ...map[string]interface{})  { l.log(logrus.InfoLevel, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...map[string]interface{})  { l.log(logrus.WarnLevel, msg, fields...) }
func (l *Logger) Error(msg string, fields ...map[string]interface{}) { l.log(logrus.ErrorLevel, msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) { l.log(logrus.FatalLevel, msg, fields...) }

func (l *Logger) log(level logrus.Level, msg string, extraFields ...map[string]interface{}) {
	entry := l.entry
	for _, fields := range extraFields {
		entry = entry.WithFields(logrus.Fields(fields))
	}
	entry.Log(level, msg)
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

// LogOperation logs the start and end of an operation, including its
// duration and, on failure, the error.
func (l *Logger) LogOperation(operation string, fn func() error) error {
	start := time.Now()
	l.Info("starting operation", map[string]interface{}{"operation": operation})

	err := fn()

	duration := time.Since(start)
	if err != nil {
		l.Error("operation failed", map[string]interface{}{
			"operation": operation,
			"duration":  duration,
			"error":     err.Error(),
		})
	} else {
		l.Info("operation completed", map[string]interface{}{
			"operation": operation,
			"duration":  duration,
		})
	}

	return err
}

// LogOperationWithFields is LogOperation with additional fields attached to
// every log line it emits.
func (l *Logger) LogOperationWithFields(operation string, fields map[string]interface{}, fn func() error) error {
	return l.WithFields(fields).LogOperation(operation, fn)
}

var globalLogger = NewDefaultLogger()

// SetGlobalLogger replaces the package-level default logger.
func SetGlobalLogger(logger *Logger) { globalLogger = logger }

// GetGlobalLogger returns the package-level default logger.
func GetGlobalLogger() *Logger { return globalLogger }

func Debug(msg string, fields ...map[string]interface{}) { globalLogger.Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { globalLogger.Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { globalLogger.Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { globalLogger.Error(msg, fields...) }
func Fatal(msg string, fields ...map[string]interface{}) { globalLogger.Fatal(msg, fields...) }

// ParseLogLevel resolves a level name to a logrus.Level, defaulting to Info
// for anything unrecognized.
func ParseLogLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

// AccessLogger logs HTTP access entries for the REST façade.
type AccessLogger struct {
	logger *Logger
}

// NewAccessLogger wraps logger for access-log use.
func NewAccessLogger(logger *Logger) *AccessLogger {
	return &AccessLogger{logger: logger}
}

// LogAccess records one HTTP request.
func (al *AccessLogger) LogAccess(method, path, status string, duration time.Duration, fields map[string]interface{}) {
	all := map[string]interface{}{
		"method":   method,
		"path":     path,
		"status":   status,
		"duration": duration,
	}
	for k, v := range fields {
		all[k] = v
	}
	al.logger.Info("access", all)
}

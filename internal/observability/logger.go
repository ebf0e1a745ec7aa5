// Package observability provides structured logging for the talent-flow
// backend. Components receive a Logger and never touch the underlying
// zap core directly, so tests can pass a no-op implementation.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface used throughout the service.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithPrefix(prefix string) Logger
}

// ZapLogger backs Logger with a zap production core.
type ZapLogger struct {
	zl *zap.Logger
}

// NewLogger creates a production logger at the given level. Unknown
// levels fall back to info.
func NewLogger(level string) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &ZapLogger{zl: zl}, nil
}

// Debug logs a debug message.
func (l *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	l.zl.Debug(msg, toZapFields(fields)...)
}

// Info logs an info message.
func (l *ZapLogger) Info(msg string, fields map[string]interface{}) {
	l.zl.Info(msg, toZapFields(fields)...)
}

// Warn logs a warning message.
func (l *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	l.zl.Warn(msg, toZapFields(fields)...)
}

// Error logs an error message.
func (l *ZapLogger) Error(msg string, fields map[string]interface{}) {
	l.zl.Error(msg, toZapFields(fields)...)
}

// WithPrefix returns a named child logger.
func (l *ZapLogger) WithPrefix(prefix string) Logger {
	return &ZapLogger{zl: l.zl.Named(prefix)}
}

// Sync flushes buffered log entries. Called on shutdown.
func (l *ZapLogger) Sync() error {
	return l.zl.Sync()
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	return zf
}

// NoopLogger is a logger that does nothing. Used in tests.
type NoopLogger struct{}

func (l *NoopLogger) Debug(msg string, fields map[string]interface{}) {}
func (l *NoopLogger) Info(msg string, fields map[string]interface{})  {}
func (l *NoopLogger) Warn(msg string, fields map[string]interface{})  {}
func (l *NoopLogger) Error(msg string, fields map[string]interface{}) {}

func (l *NoopLogger) WithPrefix(prefix string) Logger { return l }

// NewNoopLogger creates a new NoopLogger.
func NewNoopLogger() Logger {
	return &NoopLogger{}
}

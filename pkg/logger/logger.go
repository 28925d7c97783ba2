package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger wraps a zap sugared logger so call sites stay decoupled from the
// underlying logging library.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New creates a logger for the given environment. Production uses JSON
// output at info level, everything else gets a human-readable console
// encoder at debug level.
func New(env string) *Logger {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.DisableStacktrace = true

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Config above is static, Build can only fail on programmer error.
		panic(err)
	}

	return &Logger{sugar: zl.Sugar()}
}

// NewTestLogger returns a logger that writes through the test framework,
// so output is only shown for failing tests.
func NewTestLogger(t *testing.T) *Logger {
	return &Logger{sugar: zaptest.NewLogger(t).Sugar()}
}

// Debugw logs a message with key-value pairs at debug level.
func (l *Logger) Debugw(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Infow logs a message with key-value pairs at info level.
func (l *Logger) Infow(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warnw logs a message with key-value pairs at warn level.
func (l *Logger) Warnw(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Errorw logs a message with key-value pairs at error level.
func (l *Logger) Errorw(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Fatalw logs a message with key-value pairs and exits.
func (l *Logger) Fatalw(msg string, keysAndValues ...any) {
	l.sugar.Fatalw(msg, keysAndValues...)
}

// Sync flushes buffered log entries. Call on shutdown.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

package logger

import (
	"fmt"
	"os"
	"strings"

	"trading-backend/src/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// -----------------------------------------------------------------------------

// Logger provides named, leveled logging on top of zap
type Logger struct {
	name  string
	sugar *zap.SugaredLogger
	exit  func(int)
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. A nil config logs INFO and above to stdout.
// When config.File is set, entries are also written to a rotated file.
func NewLogger(config *models.MLoggingConfig, name string) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	level := zapcore.InfoLevel
	if config != nil {
		level = ParseLevel(config.Level)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
	}

	if config != nil && config.File != "" {
		rotation := &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    orDefault(config.MaxSizeMB, 100),
			MaxBackups: orDefault(config.MaxBackups, 5),
			MaxAge:     orDefault(config.MaxAgeDays, 7),
			Compress:   config.Compress,
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotation), level))
	}

	base := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	return &Logger{
		name:  name,
		sugar: base.Named(name).Sugar(),
		exit:  os.Exit,
	}
}

// -----------------------------------------------------------------------------

// NewNop returns a Logger that discards everything. Used by tests.
func NewNop(name string) *Logger {
	return &Logger{
		name:  name,
		sugar: zap.NewNop().Sugar(),
		exit:  func(int) {},
	}
}

// -----------------------------------------------------------------------------

// Named derives a component logger sharing the same outputs.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		name:  l.name + "." + name,
		sugar: l.sugar.Named(name),
		exit:  l.exit,
	}
}

// -----------------------------------------------------------------------------

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// -----------------------------------------------------------------------------

// Debug logs verbose diagnostics
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.sugar.Errorf("CRITICAL: %s", msg)
	_ = l.sugar.Sync()
	l.exit(1)
}

// -----------------------------------------------------------------------------

// With returns a logger carrying structured key/value pairs on every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		name:  l.name,
		sugar: l.sugar.With(keysAndValues...),
		exit:  l.exit,
	}
}

// -----------------------------------------------------------------------------

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// -----------------------------------------------------------------------------

// ParseLevel maps config level names (DEBUG, INFO, WARNING, ERROR) to zap levels.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR", "CRITICAL":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

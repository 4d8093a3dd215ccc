package logger

import (
	"fmt"
	"os"
	"strings"

	"market-sync/src/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// -----------------------------------------------------------------------------

// Logger provides named, printf-style logging backed by zap.
type Logger struct {
	name  string
	sugar *zap.SugaredLogger
	exit  func(int)
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. cfg may be nil, in which case INFO to
// stdout is used.
func NewLogger(cfg *models.MConfig, name string) *Logger {
	level := zapcore.InfoLevel
	logFile := ""
	if cfg != nil {
		level = parseLevel(cfg.LogLevel)
		logFile = cfg.LogFile
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stdout), level),
	}

	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // MB
			MaxBackups: 7,
			MaxAge:     30, // days
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rotator), level))
	}

	base := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)).Named(name)

	return &Logger{
		name:  name,
		sugar: base.Sugar(),
		exit:  os.Exit,
	}
}

// -----------------------------------------------------------------------------

// NewNopLogger discards everything. Used in tests.
func NewNopLogger() *Logger {
	return &Logger{name: "nop", sugar: zap.NewNop().Sugar(), exit: func(int) {}}
}

// -----------------------------------------------------------------------------

// Named returns a child logger sharing the same sinks.
func (l *Logger) Named(name string) *Logger {
	return &Logger{name: name, sugar: l.sugar.Named(name), exit: l.exit}
}

// -----------------------------------------------------------------------------

func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// -----------------------------------------------------------------------------

func (l *Logger) Warning(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.sugar.Errorf("CRITICAL: %s", fmt.Sprintf(format, args...))
	_ = l.sugar.Sync()
	l.exit(1)
}

// -----------------------------------------------------------------------------

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// -----------------------------------------------------------------------------

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARNING", "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

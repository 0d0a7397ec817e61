// Package logging provides the engine's structured logger, adapted from
// the teacher's zap wrapper with field helpers swapped to the query/worker/
// retry domain this engine operates in.
package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GeminiLogger is the structured logging interface the rest of the engine
// programs against.
type GeminiLogger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, err error, fields ...zap.Field)
	Fatal(msg string, err error, fields ...zap.Field)
	With(fields ...zap.Field) GeminiLogger
	Sync() error
}

// Logger implements GeminiLogger using zap.
type Logger struct {
	logger *zap.Logger
}

// Config configures the logger.
type Config struct {
	Level       string
	Format      string
	Output      string
	Development bool
}

// New builds a structured logger based on config.
func New(config Config) (GeminiLogger, error) {
	level, err := parseLogLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: invalid level: %w", err)
	}

	var encoderConfig zapcore.EncoderConfig
	if config.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(config.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("logging: unsupported format: %s", config.Format)
	}

	var writeSyncer zapcore.WriteSyncer
	switch strings.ToLower(config.Output) {
	case "stdout", "":
		writeSyncer = zapcore.AddSync(os.Stdout)
	case "stderr":
		writeSyncer = zapcore.AddSync(os.Stderr)
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		writeSyncer = zapcore.AddSync(file)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)

	var options []zap.Option
	if config.Development {
		options = append(options, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		options = append(options, zap.AddCaller())
	}

	return &Logger{logger: zap.New(core, options...)}, nil
}

// NewDefault builds a logger with sensible development defaults.
func NewDefault() GeminiLogger {
	logger, err := New(Config{Level: "info", Format: "console", Output: "stdout", Development: true})
	if err != nil {
		zapLogger, _ := zap.NewDevelopment()
		return &Logger{logger: zapLogger}
	}
	return logger
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.logger.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.logger.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.logger.Warn(msg, fields...) }

func (l *Logger) Error(msg string, err error, fields ...zap.Field) {
	all := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		all = append(all, zap.Error(err))
	}
	all = append(all, fields...)
	l.logger.Error(msg, all...)
}

func (l *Logger) Fatal(msg string, err error, fields ...zap.Field) {
	all := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		all = append(all, zap.Error(err))
	}
	all = append(all, fields...)
	l.logger.Fatal(msg, all...)
}

func (l *Logger) With(fields ...zap.Field) GeminiLogger {
	return &Logger{logger: l.logger.With(fields...)}
}

func (l *Logger) Sync() error { return l.logger.Sync() }

func parseLogLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

// fieldHelpers provides composite field constructors for this engine's
// domain, mirroring the teacher's LoggerFields pattern.
type fieldHelpers struct{}

// Fields is the package-level field constructor singleton.
var Fields fieldHelpers

func (fieldHelpers) String(key, value string) zap.Field      { return zap.String(key, value) }
func (fieldHelpers) Int(key string, value int) zap.Field     { return zap.Int(key, value) }
func (fieldHelpers) Int64(key string, value int64) zap.Field { return zap.Int64(key, value) }
func (fieldHelpers) Error(err error) zap.Field                { return zap.Error(err) }
func (fieldHelpers) Duration(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

// Worker tags a log line with the worker index handling it.
func (fieldHelpers) Worker(index int) []zap.Field {
	return []zap.Field{zap.Int("worker", index)}
}

// Query describes the operation and statement a worker is about to run.
func (fieldHelpers) Query(op string, statement string) []zap.Field {
	return []zap.Field{zap.String("op", op), zap.String("statement", statement)}
}

// Retry describes a deferred-retry attempt.
func (fieldHelpers) Retry(attempt int, op string) []zap.Field {
	return []zap.Field{zap.Int("attempt", attempt), zap.String("op", op)}
}

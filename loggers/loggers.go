// Package loggers provides the zap loggers used by the command line
// tools
package loggers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// DebugEnv enables development logging when set to a non-empty value
const DebugEnv = "RLSAMPLER_DEBUG"

var zapLogger *zap.Logger

// IsDebug returns whether debug logging is enabled
func IsDebug() bool {
	return os.Getenv(DebugEnv) != ""
}

// ZapLogger returns the process wide logger, creating it on first use
func ZapLogger() *zap.Logger {
	if zapLogger != nil {
		return zapLogger
	}

	var err error
	if IsDebug() {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		// Fall back to standard logging
		log.Println(fmt.Errorf("unable to create Zap logger: %w", err))
		return zap.NewNop()
	}

	return zapLogger
}

// ZapLoggerSync flushes the process wide logger
func ZapLoggerSync() {
	if zapLogger != nil {
		// Sync fails on non-file outputs such as terminals
		// https://github.com/uber-go/zap/issues/880
		_ = zapLogger.Sync()
	}
}

// FormatTimestampedLogFileName returns the name of a log file for name
// stamped with the current UTC time
func FormatTimestampedLogFileName(name string) string {
	return fmt.Sprintf("%s-%s.log", name,
		time.Now().UTC().Format("20060102T150405Z"))
}

// NewFileLogger returns a JSON logger writing to a rotated log file in
// dir/log
func NewFileLogger(name string, dir string) (*zap.Logger, error) {
	logPath := filepath.Join(dir, "log")
	if err := os.MkdirAll(logPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log path '%s': %w", logPath,
			err)
	}

	logFilePath := filepath.Join(logPath, FormatTimestampedLogFileName(name))
	f, err := os.Create(logFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file '%s': %w",
			logFilePath, err)
	}
	f.Close()

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     60, // days
	})
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		w,
		zap.DebugLevel,
	)

	return zap.New(core), nil
}

// Tee returns a logger writing to both a and b
func Tee(a, b *zap.Logger) *zap.Logger {
	return zap.New(zapcore.NewTee(a.Core(), b.Core()))
}

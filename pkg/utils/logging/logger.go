package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogsDir is where InitLogger writes log files when no directory is given
const DefaultLogsDir = "logs"

// InitLogger initializes a zap logger with console and file outputs.
// env prefixes the log file name; logsDir defaults to DefaultLogsDir.
func InitLogger(env, logsDir string) (*zap.Logger, error) {
	if env == "" {
		env = "default"
	}
	if logsDir == "" {
		logsDir = DefaultLogsDir
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	logFile, err := os.OpenFile(LogFilePath(logsDir, env, time.Now()), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	// Console: colored, human-readable
	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	// File: JSON
	fileEncoderConfig := zap.NewProductionEncoderConfig()
	fileEncoderConfig.TimeKey = "timestamp"
	fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(logFile), zapcore.DebugLevel),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return logger, nil
}

// LogFilePath returns the file a logger started at t writes to
func LogFilePath(logsDir, env string, t time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", env, t.Format("2006-01-02_15-04-05")))
}

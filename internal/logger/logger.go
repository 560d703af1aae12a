package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

var (
	ErrLoggerInvalidLogLevel  = fmt.Errorf("invalid log level")
	ErrLoggerInvalidLogFormat = fmt.Errorf("invalid log format")
)

// NewLogger creates a logger writing to stdout, or to logFilePath when it is
// set. The log file is truncated on open. The returned closer releases the
// file and is safe to call for stdout loggers.
func NewLogger(logLevel, logFormat, logFilePath string) (*slog.Logger, func(), error) {
	slogLevel, err := getSlogLevel(logLevel)
	if err != nil {
		return nil, nil, err
	}

	var (
		out     io.Writer = os.Stdout
		cleanup           = func() {}
	)
	if logFilePath != "" {
		logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = logFile
		cleanup = func() { logFile.Close() }
	}

	handler, err := newHandler(out, slogLevel, logFormat, logFilePath == "")
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return slog.New(handler), cleanup, nil
}

func newHandler(out io.Writer, level slog.Level, logFormat string, color bool) (slog.Handler, error) {
	switch logFormat {
	case "json":
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}), nil
	case "text":
		return slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}), nil
	case "tint":
		return tint.NewHandler(out, &tint.Options{Level: level, NoColor: !color}), nil
	}

	return nil, errors.Join(ErrLoggerInvalidLogFormat, fmt.Errorf("log format: %s", logFormat))
}

func getSlogLevel(logLevel string) (slog.Level, error) {
	switch logLevel {
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	}

	return slog.LevelInfo, errors.Join(ErrLoggerInvalidLogLevel, fmt.Errorf("log level: %s", logLevel))
}

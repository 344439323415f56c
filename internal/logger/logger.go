package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Setup creates the process logger for the environment.
// local writes text to stdout at debug level; dev and prod write JSON to logPath.
// The returned closer releases the log file and must be called on shutdown.
func Setup(env, logPath string) (*slog.Logger, io.Closer, error) {
	switch env {
	case EnvLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})), io.NopCloser(nil), nil
	case EnvDev, EnvProd:
	default:
		return nil, nil, fmt.Errorf("invalid environment: %q", env)
	}

	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening log file: %w", err)
	}

	level := slog.LevelInfo
	if env == EnvDev {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level})), logFile, nil
}

// Package logging configures the process-wide structured logger.
// Adapted from the teacher's util.InitSlog (util/logutil.go): same
// env-driven log/slog setup, renamed to this project's variable.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// EnvLevel is the environment variable that selects the log level.
const EnvLevel = "ANAGRAMIST_LOG_LEVEL"

// Init configures slog's default logger based on ANAGRAMIST_LOG_LEVEL.
// Supported levels: debug, info, warn, error. Unset or unrecognized
// values default to info.
func Init() {
	level := slog.LevelInfo
	if v, ok := os.LookupEnv(EnvLevel); ok {
		switch strings.ToLower(v) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

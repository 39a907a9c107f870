package logging

import (
	"log/slog"
	"os"
	"strings"
)

const serviceName = "pulse-backend"

var level = new(slog.LevelVar)

// Setup installs the stdout JSON logger at LOG_LEVEL (default info).
// main swaps it for a MultiHandler once the database is reachable.
func Setup() {
	level.Set(parseLevel(os.Getenv("LOG_LEVEL")))
	slog.SetDefault(slog.New(StdoutHandler()))
}

// StdoutHandler is the JSON handler every process log goes through.
func StdoutHandler() slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}).
		WithAttrs([]slog.Attr{slog.String("service", serviceName)})
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

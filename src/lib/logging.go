package lib

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a JSON logger tagged with the service name so lines
// from different processes can be told apart in shared log streams.
func NewLogger(level, service string) *slog.Logger {
	var slogLevel slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		slogLevel = slog.LevelDebug
	case "WARN":
		slogLevel = slog.LevelWarn
	case "ERROR":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})
	return slog.New(handler).With("service", service)
}

package observability

import (
	"log/slog"
	"os"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/config"
)

// NewLogger builds the process logger from config. LOG_FORMAT selects JSON or
// text output; LOG_LEVEL accepts debug, info, warn, and error.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

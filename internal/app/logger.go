package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/heartmarshall/contentflow-backend/internal/config"
)

const redacted = "[REDACTED]"

// secretKeys are attribute keys whose values never reach the log output.
var secretKeys = map[string]bool{
	"api_key":        true,
	"app_password":   true,
	"password":       true,
	"secret":         true,
	"webhook_secret": true,
	"authorization":  true,
}

// NewLogger creates the process logger on os.Stderr and installs it as the
// slog default. See newLogger for the format rules.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)
	return logger
}

// newLogger builds a logger writing to w.
//
// Format "json" produces structured JSON output (production); anything else
// produces text with source locations (development). Level is one of debug,
// info, warn, error (case-insensitive) and defaults to info. Every record
// carries the app name and build version; credential attributes are redacted.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		AddSource:   !strings.EqualFold(cfg.Format, "json"),
		ReplaceAttr: redactSecrets,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(
		slog.String("app", "contentflow"),
		slog.String("version", Version),
	)
}

func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] && a.Value.String() != "" {
		return slog.String(a.Key, redacted)
	}
	return a
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"github.com/i474232898/mywx-push/internal/config"
)

// New builds the process logger writing to w (stderr in production). Every
// record carries the app, version and station attributes.
func New(w io.Writer, cfg *config.AppConfig, version string, appName string) *slog.Logger {
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: cfg.LogLevel(),
		})
	} else {
		h = tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel(),
			AddSource:  cfg.Debug,
			TimeFormat: time.DateTime,
		})
	}

	return slog.New(h).With(
		"app", appName,
		"version", version,
		"station", cfg.Slug,
	)
}

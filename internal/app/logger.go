package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. JSON output feeds the log shipper in
// deployment; the text handler keeps local runs readable.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
}

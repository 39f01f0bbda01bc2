package app

import (
	"io"
	"log/slog"
)

// newLogger builds the logger App threads through every optimization call.
// It writes to the diagnostics stream, never the template output, and does
// not touch the process-wide default; cmd/cli keeps its own bootstrap logger
// for errors raised before configuration is parsed.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}

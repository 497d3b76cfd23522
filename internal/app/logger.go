package app

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// newLogger builds the application logger without touching the global one.
// An empty level or format selects "info" and "text". At debug level every
// record carries its source location as file:line.
func newLogger(levelStr, formatStr string, outW io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", levelStr)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key != slog.SourceKey {
				return a
			}
			if src, ok := a.Value.Any().(*slog.Source); ok {
				a.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
			}
			return a
		},
	}

	switch strings.ToLower(formatStr) {
	case "", "text":
		return slog.New(slog.NewTextHandler(outW, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(outW, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", formatStr)
	}
}

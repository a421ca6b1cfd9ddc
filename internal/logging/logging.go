package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	return slog.New(newHandler(os.Stdout, level))
}

// NewWithFile mirrors console output into the given file when path is set.
// The returned closer releases the file.
func NewWithFile(level, path string) (*slog.Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return New(level), io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return slog.New(newHandler(io.MultiWriter(os.Stdout, f), level)), f, nil
}

func newHandler(w io.Writer, level string) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
}

// levelFromString maps config values to slog levels; unknown values log at info.
func levelFromString(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		if strings.EqualFold(strings.TrimSpace(value), "warning") {
			return slog.LevelWarn
		}
		return slog.LevelInfo
	}
	return level
}

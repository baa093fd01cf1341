// Package logging configures the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds a text logger on stderr at the requested level and
// installs it as the slog default. Level comes straight from the
// environment, so anything unrecognized, including "", means info.
func Setup(level string) *slog.Logger {
	lvl := slog.LevelInfo
	if s := strings.TrimSpace(level); s != "" {
		if err := lvl.UnmarshalText([]byte(s)); err != nil {
			lvl = slog.LevelInfo
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

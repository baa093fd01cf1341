package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestSetupLevels(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, c := range cases {
		logger := Setup(c.in)
		if !logger.Enabled(ctx, c.want) {
			t.Errorf("Setup(%q): level %v not enabled", c.in, c.want)
		}
		if c.want > slog.LevelDebug && logger.Enabled(ctx, c.want-1) {
			t.Errorf("Setup(%q): level below %v unexpectedly enabled", c.in, c.want)
		}
	}
}

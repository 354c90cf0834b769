package run

import (
	"context"
	"log/slog"
	"os"

	"faro/builder/config"
)

// Run executes one full build with the given CLI flags. It is the
// entry point behind `faro build`.
func Run(ctx context.Context, args []string) error {
	cfg := config.Load(args)
	logger := NewLogger(cfg.IsDev)

	b, err := New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	return b.Build(ctx)
}

// NewLogger builds the standard faro logger: text on stderr, debug
// level under the dev server.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

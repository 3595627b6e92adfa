package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
)

// Run is the entrypoint used by cmd/vault. It returns errors instead of exiting so deferred
// cleanup runs; a signal-driven shutdown is not an error.
func Run() error {
	cfg := LoadConfig()
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := New(cfg, log)
	if err != nil {
		log.Error("app.init.fail", "err", err)
		return fmt.Errorf("vault init: %w", err)
	}

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

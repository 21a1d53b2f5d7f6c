package main

import (
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for long-running use.
func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll tracked stores until interrupted",
		Long: `Poll every tracked store, persist its status and send notifications
when a status changes.

The loop runs until interrupted (Ctrl+C) or receives SIGTERM. When
status_port is set, a read-only status API is served while it runs.

Example:
  storewatch run -c storewatch.yaml`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd.ErrOrStderr())

	w, err := openWatcher(cmd, logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if _, err := showStores(cmd, w); err != nil {
		return err
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start loop - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("watcher error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		return awaitShutdown(logger, errChan)
	}
}

// awaitShutdown waits for the watcher to drain after cancellation, giving up
// after shutdownTimeout.
func awaitShutdown(logger *slog.Logger, errChan <-chan error) error {
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("watcher error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil
	case <-time.After(shutdownTimeout):
		logger.Warn("shutdown timed out",
			"timeout", shutdownTimeout.String(),
			"action", "forcing exit",
		)
		return nil
	}
}

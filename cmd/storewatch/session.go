package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jpalmerr/storewatch"
	"github.com/jpalmerr/storewatch/config"
	"github.com/spf13/cobra"
)

// newQuietLogger creates a text logger for one-shot commands that only
// reports problems.
func newQuietLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openWatcher loads the config and opens a Watcher on it.
func openWatcher(cmd *cobra.Command, logger *slog.Logger, extra ...storewatch.Option) (*storewatch.Watcher, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	opts := append(config.BuildOptions(cfg), storewatch.WithLogger(logger))
	opts = append(opts, extra...)

	w, err := storewatch.Open(cmd.Context(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open watcher: %w", err)
	}
	return w, nil
}

// showStores prints the tracked stores and returns them so commands can
// refer to them by their printed number.
func showStores(cmd *cobra.Command, w *storewatch.Watcher) ([]storewatch.Store, error) {
	stores, err := w.Stores(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	printStoreList(cmd.OutOrStdout(), stores)
	return stores, nil
}

// prompt writes label and reads one line of input.
func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [number]",
		Short: "Stop tracking a store",
		Long: `Stop tracking a store by its number in the store list.

The number is taken from the argument, or prompted for when none is given.
Nothing happens when no stores are tracked.

Example:
  storewatch remove 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	w, err := openWatcher(cmd, newQuietLogger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	stores, err := showStores(cmd, w)
	if err != nil {
		return err
	}
	if len(stores) == 0 {
		return nil
	}

	var raw string
	if len(args) == 1 {
		raw = args[0]
	} else {
		raw, err = prompt(cmd, "Store number: ")
		if err != nil {
			return err
		}
	}

	idx, err := parseIndex(raw, len(stores))
	if err != nil {
		return err
	}

	target := stores[idx]
	if err := w.RemoveStore(cmd.Context(), target.ID); err != nil {
		return fmt.Errorf("failed to remove store: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Store '%s' removed from database\n", target.Title)
	return nil
}

// parseIndex converts a 1-based store number into a slice index.
func parseIndex(raw string, count int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid store number %q", raw)
	}
	if n < 1 || n > count {
		return 0, fmt.Errorf("store number %d out of range (1-%d)", n, count)
	}
	return n - 1, nil
}

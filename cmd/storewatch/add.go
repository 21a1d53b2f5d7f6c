package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jpalmerr/storewatch"
	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [name...]",
		Short: "Track a store",
		Long: `Search for a store near the configured address and start tracking the
first match.

The name is taken from the arguments, or prompted for when none are given.

Example:
  storewatch add "Pizza Place"
  storewatch add`,
		RunE: runAdd,
	}
}

func runAdd(cmd *cobra.Command, args []string) error {
	w, err := openWatcher(cmd, newQuietLogger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if _, err := showStores(cmd, w); err != nil {
		return err
	}

	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		name, err = prompt(cmd, "Store name: ")
		if err != nil {
			return err
		}
	}
	if name == "" {
		return errors.New("store name cannot be empty")
	}

	out := cmd.OutOrStdout()
	added, err := w.AddStore(cmd.Context(), name)
	switch {
	case errors.Is(err, storewatch.ErrAddressNotFound):
		fmt.Fprintln(out, "Address not found")
	case errors.Is(err, storewatch.ErrStoreNotFound):
		fmt.Fprintln(out, "Store not found")
	case errors.Is(err, storewatch.ErrAlreadyTracked):
		fmt.Fprintf(out, "Store '%s' is already tracked\n", added.Title)
	case err != nil:
		return fmt.Errorf("failed to add store: %w", err)
	default:
		fmt.Fprintf(out, "Store '%s' added to database\n", added.Title)
	}
	return nil
}

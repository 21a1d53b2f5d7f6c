package main

import (
	"errors"
	"fmt"

	"github.com/jpalmerr/storewatch"
	"github.com/spf13/cobra"
)

func newAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Show the resolved delivery address",
		Long: `Resolve the configured place id and print the delivery address the
service will use for searches.`,
		Args: cobra.NoArgs,
		RunE: runAddress,
	}
}

func runAddress(cmd *cobra.Command, args []string) error {
	w, err := openWatcher(cmd, newQuietLogger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if _, err := showStores(cmd, w); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	address, err := w.CheckAddress(cmd.Context())
	switch {
	case errors.Is(err, storewatch.ErrAddressNotFound):
		fmt.Fprintln(out, "Address not found")
	case err != nil:
		return fmt.Errorf("failed to check address: %w", err)
	default:
		fmt.Fprintf(out, "Your address: %s\n", address)
	}
	return nil
}

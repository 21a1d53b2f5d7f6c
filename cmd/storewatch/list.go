package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked stores",
		Long:  `List tracked stores in the order they were added, with their last known status.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWatcher(cmd, newQuietLogger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			stores, err := w.Stores(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list stores: %w", err)
			}
			printStoreStatuses(cmd.OutOrStdout(), stores)
			return nil
		},
	}
}

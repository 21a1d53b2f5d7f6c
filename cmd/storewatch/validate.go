package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		Long: `Validate a storewatch configuration file without touching the database
or the network.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  storewatch validate -c storewatch.yaml`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	notifications := "none"
	switch {
	case cfg.Webhook != "" && cfg.DesktopNotify:
		notifications = "webhook, desktop"
	case cfg.Webhook != "":
		notifications = "webhook"
	case cfg.DesktopNotify:
		notifications = "desktop"
	}

	statusAPI := "disabled"
	if cfg.StatusPort > 0 {
		statusAPI = fmt.Sprintf("port %d", cfg.StatusPort)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config %s is valid!\n", configFile)
	fmt.Fprintf(out, "  Database:      %s\n", redactDSN(cfg.DatabaseURL))
	fmt.Fprintf(out, "  Region:        %s\n", cfg.Region)
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Fprintf(out, "  Notifications: %s\n", notifications)
	fmt.Fprintf(out, "  Status API:    %s\n", statusAPI)

	return nil
}

// redactDSN hides the password of URL-style database addresses.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}

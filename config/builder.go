package config

import (
	"github.com/jpalmerr/storewatch"
)

// BuildOptions converts parsed configuration into [storewatch.Option]s.
//
// Logging and callbacks are left to the caller.
func BuildOptions(cfg *Config) []storewatch.Option {
	opts := []storewatch.Option{
		storewatch.WithDatabase(cfg.DatabaseURL),
		storewatch.WithPlaceID(cfg.Address),
		storewatch.WithRegion(cfg.Region),
		storewatch.WithBaseURL(cfg.BaseURL),
		storewatch.WithPollingInterval(cfg.PollInterval.Duration()),
		storewatch.WithStatusPort(cfg.StatusPort),
		storewatch.WithDesktopNotifications(cfg.DesktopNotify),
		storewatch.WithFieldPaths(cfg.Fields.Title, cfg.Fields.Image, cfg.Fields.Status),
	}

	if cfg.RequestTimeout > 0 {
		opts = append(opts, storewatch.WithRequestTimeout(cfg.RequestTimeout.Duration()))
	}
	if cfg.Webhook != "" {
		opts = append(opts,
			storewatch.WithWebhook(cfg.Webhook),
			storewatch.WithWebhookUsername(cfg.WebhookUsername),
		)
	}

	return opts
}

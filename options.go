package storewatch

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// watcherConfig holds mutable state during Watcher construction.
type watcherConfig struct {
	databaseURL     string
	placeID         string
	region          string
	baseURL         string
	requestTimeout  time.Duration
	webhookURL      string
	webhookUsername string
	desktopNotify   bool
	pollingInterval time.Duration
	statusPort      int
	logger          *slog.Logger
	pollCallbacks   []func(PollResult)
	fieldTitle      string
	fieldImage      string
	fieldStatus     string

	// after replaces time.After between sweeps; tests only
	after func(time.Duration) <-chan time.Time
}

// Option is a function that configures a [Watcher] during [Open].
//
// Options return an error if validation fails.
type Option func(*watcherConfig) error

// WithDatabase sets where tracked stores are persisted.
//
// Accepted forms are postgres://... (PostgreSQL), sqlite://path, a bare file
// path (SQLite), and "memory" (not persisted). Defaults to
// "sqlite://storewatch.db".
func WithDatabase(dsn string) Option {
	return func(cfg *watcherConfig) error {
		if strings.TrimSpace(dsn) == "" {
			return errors.New("database url cannot be empty")
		}
		cfg.databaseURL = dsn
		return nil
	}
}

// WithPlaceID sets the delivery address as a Google Places identifier.
// Required.
func WithPlaceID(id string) Option {
	return func(cfg *watcherConfig) error {
		if strings.TrimSpace(id) == "" {
			return errors.New("place id cannot be empty")
		}
		cfg.placeID = id
		return nil
	}
}

// WithRegion sets the locale code sent with every request. Defaults to "en-US".
func WithRegion(region string) Option {
	return func(cfg *watcherConfig) error {
		if strings.TrimSpace(region) == "" {
			return errors.New("region cannot be empty")
		}
		cfg.region = region
		return nil
	}
}

// WithBaseURL overrides the delivery service origin.
//
// Useful for pointing at a recorded or fake API. Defaults to
// "https://www.ubereats.com".
func WithBaseURL(raw string) Option {
	return func(cfg *watcherConfig) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid base url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base url scheme must be http or https, got %q", u.Scheme)
		}
		cfg.baseURL = raw
		return nil
	}
}

// WithRequestTimeout sets the timeout of each request to the delivery
// service. Defaults to 10 seconds.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithWebhook enables chat webhook notifications on status changes.
//
// An empty url leaves webhooks disabled.
func WithWebhook(rawURL string) Option {
	return func(cfg *watcherConfig) error {
		if rawURL == "" {
			return nil
		}
		u, err := url.Parse(rawURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid webhook url %q", rawURL)
		}
		cfg.webhookURL = rawURL
		return nil
	}
}

// WithWebhookUsername sets the sender name shown on webhook messages.
// Defaults to "Uber Eats Monitoring".
func WithWebhookUsername(name string) Option {
	return func(cfg *watcherConfig) error {
		cfg.webhookUsername = name
		return nil
	}
}

// WithDesktopNotifications enables local desktop notifications on status
// changes.
func WithDesktopNotifications(enabled bool) Option {
	return func(cfg *watcherConfig) error {
		cfg.desktopNotify = enabled
		return nil
	}
}

// WithPollingInterval sets the pause between the end of one sweep over all
// stores and the start of the next. Defaults to 15 seconds.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithStatusPort serves the read-only status API on port while
// [Watcher.Start] runs. Port 0 disables the API, which is the default.
//
// Returns an error if the port is outside 0-65535.
func WithStatusPort(port int) Option {
	return func(cfg *watcherConfig) error {
		if port < 0 || port > 65535 {
			return errors.New("status port must be between 0 and 65535")
		}
		cfg.statusPort = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *watcherConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithPollCallback registers a function called after every store poll.
//
// Callbacks run in registration order on a single goroutine, after the
// record was persisted and any notification sent. They must not block.
// Panics are recovered and logged. Nil callbacks are ignored.
//
// Example:
//
//	w, err := storewatch.Open(ctx,
//	    storewatch.WithPlaceID(placeID),
//	    storewatch.WithPollCallback(func(r storewatch.PollResult) {
//	        if r.Outcome == storewatch.OutcomeNotified {
//	            log.Printf("%s is now %s", r.Title, r.Current)
//	        }
//	    }),
//	)
func WithPollCallback(cb func(PollResult)) Option {
	return func(cfg *watcherConfig) error {
		if cb == nil {
			return nil
		}
		cfg.pollCallbacks = append(cfg.pollCallbacks, cb)
		return nil
	}
}

// WithFieldPaths overrides where title, image and status are read from in
// store detail responses, using dot notation with numeric array indices,
// e.g. "heroImageUrls.1.url". Empty paths keep their defaults.
func WithFieldPaths(title, image, status string) Option {
	return func(cfg *watcherConfig) error {
		cfg.fieldTitle = title
		cfg.fieldImage = image
		cfg.fieldStatus = status
		return nil
	}
}

// withWaiter replaces the wait between sweeps.
func withWaiter(after func(time.Duration) <-chan time.Time) Option {
	return func(cfg *watcherConfig) error {
		cfg.after = after
		return nil
	}
}

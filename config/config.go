// Package config provides YAML configuration parsing for storewatch.
//
// Example configuration:
//
//	database_url: sqlite://storewatch.db
//	address: ChIJOwg_06VPwokRYv534QaPC8g
//	region: en-US
//	webhook: ${DISCORD_WEBHOOK}
//	poll_interval: 15s
//
// String values support environment variable substitution with ${VAR} and
// ${VAR:-default}.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// minPollInterval keeps a misconfigured loop from hammering the service.
	minPollInterval = 1 * time.Second

	defaultDatabaseURL    = "sqlite://storewatch.db"
	defaultRegion         = "en-US"
	defaultBaseURL        = "https://www.ubereats.com"
	defaultPollInterval   = 15 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

// Config is the root configuration structure.
//
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// DatabaseURL selects where stores are persisted: postgres://...,
	// sqlite://path, a bare path, or "memory".
	// Defaults to sqlite://storewatch.db.
	DatabaseURL string `yaml:"database_url"`

	// Address is the delivery location as a Google Places id. Required.
	Address string `yaml:"address"`

	// Region is the locale code sent with every request. Defaults to en-US.
	Region string `yaml:"region"`

	// Webhook is the chat webhook URL notified on status changes. Optional.
	Webhook string `yaml:"webhook"`

	// WebhookUsername is the sender name on webhook messages.
	WebhookUsername string `yaml:"webhook_username"`

	// DesktopNotify enables local desktop notifications.
	DesktopNotify bool `yaml:"desktop_notify"`

	// PollInterval is the pause after each sweep over all stores.
	// Defaults to 15s; must be at least 1s.
	PollInterval Duration `yaml:"poll_interval"`

	// RequestTimeout bounds every request to the delivery service.
	// Defaults to 10s.
	RequestTimeout Duration `yaml:"request_timeout"`

	// BaseURL is the delivery service origin. Defaults to
	// https://www.ubereats.com.
	BaseURL string `yaml:"base_url"`

	// StatusPort serves the read-only status API while running.
	// 0 disables it.
	StatusPort int `yaml:"status_port"`

	// Fields overrides where store details are read from in API responses.
	Fields FieldsConfig `yaml:"fields"`
}

// FieldsConfig holds dot-notation paths into the store detail payload.
// Empty paths keep the built-in defaults.
type FieldsConfig struct {
	Title  string `yaml:"title"`
	Image  string `yaml:"image"`
	Status string `yaml:"status"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part, if present
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read, parsed, or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in string values, then defaults are
// applied and the result validated.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables, applies defaults and
// validates the config.
func (c *Config) expandAndValidate() error {
	expandable := []struct {
		key string
		val *string
	}{
		{"database_url", &c.DatabaseURL},
		{"address", &c.Address},
		{"region", &c.Region},
		{"webhook", &c.Webhook},
		{"webhook_username", &c.WebhookUsername},
		{"base_url", &c.BaseURL},
	}
	for _, f := range expandable {
		expanded, err := expandEnvVars(*f.val)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.val = strings.TrimSpace(expanded)
	}

	if c.DatabaseURL == "" {
		c.DatabaseURL = defaultDatabaseURL
	}
	if c.Region == "" {
		c.Region = defaultRegion
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(defaultPollInterval)
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = Duration(defaultRequestTimeout)
	}

	if c.Address == "" {
		return errors.New("address is required")
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.RequestTimeout.Duration() < 0 {
		return fmt.Errorf("request_timeout cannot be negative, got %s", c.RequestTimeout.Duration())
	}

	if err := validateHTTPURL("base_url", c.BaseURL); err != nil {
		return err
	}
	if c.Webhook != "" {
		if err := validateHTTPURL("webhook", c.Webhook); err != nil {
			return err
		}
	}

	if c.StatusPort < 0 || c.StatusPort > 65535 {
		return fmt.Errorf("status_port must be between 0 and 65535, got %d", c.StatusPort)
	}

	for _, p := range []struct{ key, path string }{
		{"fields.title", c.Fields.Title},
		{"fields.image", c.Fields.Image},
		{"fields.status", c.Fields.Status},
	} {
		if p.path == "" {
			continue
		}
		for i, seg := range strings.Split(p.path, ".") {
			if seg == "" {
				return fmt.Errorf("%s: empty segment %d in path %q", p.key, i, p.path)
			}
		}
	}

	return nil
}

// validateHTTPURL checks that raw is an absolute http(s) URL.
func validateHTTPURL(key, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid url: %w", key, err)
	}
	if parsed.Scheme == "" {
		return fmt.Errorf("%s: url must have a scheme (http:// or https://)", key)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s: url scheme must be http or https, got %q", key, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s: url must have a host", key)
	}
	return nil
}

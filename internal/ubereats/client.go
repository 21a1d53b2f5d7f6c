package ubereats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public Uber Eats web origin.
	DefaultBaseURL = "https://www.ubereats.com"

	// DefaultRegion is the locale sent with every request.
	DefaultRegion = "en-US"

	// DefaultTimeout bounds a single request, including reading the body.
	DefaultTimeout = 10 * time.Second

	maxResponseBodySize = 1 << 20 // 1MB

	locationCookie = "uev2.loc"
	statusSuccess  = "success"
)

// connection pooling limits; the watcher talks to a single host
const (
	defaultMaxIdleConnsPerHost = 2
	defaultIdleConnTimeout     = 60 * time.Second
)

// sessionHeaders are required by the web API on every request.
var sessionHeaders = map[string]string{
	"x-csrf-token": "x",
	"x-uber-xps":   "%7B%7D",
}

var (
	// ErrAddressNotFound is returned when the delivery place cannot be resolved.
	ErrAddressNotFound = errors.New("address not found")

	// ErrNotSuccess is returned when the API answers with a non-success status.
	ErrNotSuccess = errors.New("api returned non-success status")

	// ErrMalformedResponse is returned when a response cannot be decoded or
	// lacks a required field.
	ErrMalformedResponse = errors.New("malformed api response")
)

// Config configures a [Client].
type Config struct {
	// BaseURL is the API origin. Defaults to [DefaultBaseURL].
	BaseURL string

	// PlaceID is the delivery location identifier (a Google Places id).
	PlaceID string

	// Region is the locale code. Defaults to [DefaultRegion].
	Region string

	// Timeout is the per-request timeout. Defaults to [DefaultTimeout].
	Timeout time.Duration

	// Fields locates values inside store detail responses.
	// Zero-value paths fall back to [DefaultFieldPaths].
	Fields FieldPaths
}

// Client is the API session shared by every request in a process.
//
// Client carries the fixed session headers and a cookie jar. A successful
// [Client.ResolveAddress] stores the delivery location cookie in the jar,
// and later requests on the same Client send it implicitly.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	placeID    string
	region     string
	timeout    time.Duration
	fields     FieldPaths
}

// envelope is the shape shared by all API responses.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func (e envelope) ok() bool {
	return e.Status == statusSuccess
}

// NewClient creates a new [Client].
//
// Timeouts are applied per request via context rather than as a global
// client timeout.
func NewClient(cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base url scheme must be http or https, got %q", baseURL.Scheme)
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Jar: jar,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		baseURL: baseURL,
		placeID: cfg.PlaceID,
		region:  region,
		timeout: timeout,
		fields:  cfg.Fields.withDefaults(),
	}, nil
}

// post sends a form-encoded request to /api/<op> and decodes the envelope.
func (c *Client) post(ctx context.Context, op string, form url.Values) (envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL.JoinPath("api", op)
	q := u.Query()
	q.Set("localeCode", c.region)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return envelope{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for key, value := range sessionHeaders {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("%s request failed: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return envelope{}, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, fmt.Errorf("%s (http %d): %w: %v", op, resp.StatusCode, ErrMalformedResponse, err)
	}
	return env, nil
}

// setLocationCookie stores the resolved address payload in the session.
func (c *Client) setLocationCookie(raw json.RawMessage) {
	cookie := &http.Cookie{
		Name:  locationCookie,
		Value: url.PathEscape(string(raw)),
		Path:  "/",
	}
	if domain := cookieDomain(c.baseURL.Hostname()); domain != "" {
		cookie.Domain = domain
	}
	c.httpClient.Jar.SetCookies(c.baseURL, []*http.Cookie{cookie})
}

// cookieDomain returns the registrable domain for host, or "" for a
// host-only cookie (IP addresses and single-label hosts).
func cookieDomain(host string) string {
	if net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return ""
	}
	return strings.TrimPrefix(host, "www.")
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

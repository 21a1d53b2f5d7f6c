package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUsername is the sender name shown on webhook messages.
const DefaultUsername = "Uber Eats Monitoring"

const defaultWebhookTimeout = 10 * time.Second

// webhookPayload is the Discord-compatible message body.
type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title     string       `json:"title"`
	Fields    []embedField `json:"fields"`
	Thumbnail thumbnail    `json:"thumbnail"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type thumbnail struct {
	URL string `json:"url"`
}

// Webhook posts changes to a Discord-compatible webhook URL.
type Webhook struct {
	url      string
	username string
	client   *http.Client
}

// NewWebhook creates a [Webhook] notifier. An empty username falls back to
// [DefaultUsername].
func NewWebhook(url, username string) *Webhook {
	if username == "" {
		username = DefaultUsername
	}
	return &Webhook{
		url:      url,
		username: username,
		client: &http.Client{
			Timeout: defaultWebhookTimeout,
		},
	}
}

// Notify posts one embed describing change.
//
// Any non-2xx response is returned as an error.
func (w *Webhook) Notify(ctx context.Context, change Change) error {
	body, err := json.Marshal(w.payload(change))
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned http %d", resp.StatusCode)
	}
	return nil
}

func (w *Webhook) payload(change Change) webhookPayload {
	return webhookPayload{
		Username: w.username,
		Embeds: []embed{
			{
				Title: change.Title,
				Fields: []embedField{
					{Name: "Previous status", Value: change.PreviousLabel(), Inline: false},
					{Name: "Current status", Value: change.Current, Inline: false},
				},
				Thumbnail: thumbnail{URL: change.Image},
			},
		},
	}
}

// Package mailer sends transactional email through an external delivery
// service. All sends are fire-and-forget: failures are logged by callers
// and never propagated to the request that triggered them.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender is the email surface the handlers depend on.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Client talks to the delivery service's HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

// New creates a mail client.
func New(baseURL, apiKey, from string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send submits one message for delivery.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	payload := map[string]string{
		"from":    c.from,
		"to":      to,
		"subject": subject,
		"body":    body,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delivery service returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}

// Noop discards all messages. Used in development and tests.
type Noop struct{}

func (Noop) Send(ctx context.Context, to, subject, body string) error {
	return nil
}

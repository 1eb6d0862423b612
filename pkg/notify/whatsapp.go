// Package notify delivers scan notifications over WhatsApp via the
// Evolution API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hiloscan/pkg/scan"
)

const (
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 2
	defaultRetryBackoffBase = 200 * time.Millisecond
)

// Client posts text messages to an Evolution API instance.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	maxRetries int
}

// ClientOption configures a new Client.
type ClientOption func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(max int) ClientOption {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// NewClient constructs an Evolution API client from configuration.
func NewClient(cfg *Config, opts ...ClientOption) *Client {
	client := &Client{
		url:        cfg.SendTextURL(),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// SendText delivers one text message to the given number.
func (c *Client) SendText(ctx context.Context, number, text string) error {
	payload, err := json.Marshal(sendTextRequest{Number: number, Text: text})
	if err != nil {
		return fmt.Errorf("notify: encode request: %w", err)
	}

	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("notify: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("apikey", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("notify: read response: %w", readErr)
			case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
				lastErr = fmt.Errorf("notify: http status %d: %s", resp.StatusCode, string(body))
			default:
				return nil
			}
		}

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}
	return lastErr
}

// WhatsAppNotifier adapts the Evolution client to the scanner's Notifier
// interface for a fixed target number.
type WhatsAppNotifier struct {
	client *Client
	number string
	nowFn  func() time.Time
}

// NotifierOption customises a WhatsAppNotifier.
type NotifierOption func(*WhatsAppNotifier)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) NotifierOption {
	return func(n *WhatsAppNotifier) {
		if now != nil {
			n.nowFn = now
		}
	}
}

// NewWhatsAppNotifier wires a notifier for the given target number. An empty
// number is rejected here rather than on the first send.
func NewWhatsAppNotifier(client *Client, number string, opts ...NotifierOption) (*WhatsAppNotifier, error) {
	if number == "" {
		return nil, errors.New("notify: target number is required")
	}
	n := &WhatsAppNotifier{client: client, number: number, nowFn: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// SendSignal formats and delivers one asset's notification.
func (n *WhatsAppNotifier) SendSignal(ctx context.Context, notification scan.Notification) error {
	text := FormatSignal(notification, n.nowFn())
	logx.WithContext(ctx).Infof("notify %s: sending signal message to %s", notification.Ticker, n.number)
	return n.client.SendText(ctx, n.number, text)
}

// SendDigest formats and delivers the consolidated end-of-run report.
func (n *WhatsAppNotifier) SendDigest(ctx context.Context, results []scan.AssetResult) error {
	if len(results) == 0 {
		return nil
	}
	text := FormatDigest(results, n.nowFn())
	logx.WithContext(ctx).Infof("notify: sending digest for %d assets to %s", len(results), n.number)
	return n.client.SendText(ctx, n.number, text)
}

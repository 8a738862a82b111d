// Package httpx provides the HTTP client shared by watchers, the asset
// downloader and the config loaders. Transient failures (network errors,
// timeouts, 429, 5xx) are retried with bounded exponential backoff;
// anything else surfaces immediately.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrRetriesExhausted is returned when every retry attempt failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		(e.StatusCode >= 500 && e.StatusCode < 600)
}

// Config holds retry behavior.
type Config struct {
	// Attempts is the total number of tries, including the first
	Attempts int
	// BaseDelay is the delay before the first retry
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff
	MaxDelay time.Duration
	// Timeout bounds each individual request
	Timeout time.Duration
}

// DefaultConfig returns the default retry configuration: three attempts
// with 1s/2s backoff and a 15s per-request timeout.
func DefaultConfig() Config {
	return Config{
		Attempts:  3,
		BaseDelay: 1 * time.Second,
		MaxDelay:  8 * time.Second,
		Timeout:   15 * time.Second,
	}
}

// Client wraps http.Client with retry logic.
type Client struct {
	hc    *http.Client
	cfg   Config
	sleep func(time.Duration)
}

// New creates a client with the default retry configuration.
func New() *Client {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a client with a custom retry configuration.
func NewWithConfig(cfg Config) *Client {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &Client{
		hc:    &http.Client{Timeout: cfg.Timeout},
		cfg:   cfg,
		sleep: time.Sleep,
	}
}

// SetTransport replaces the underlying transport, for tests.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.hc.Transport = rt
}

// SetSleep replaces the backoff sleep function, for tests.
func (c *Client) SetSleep(fn func(time.Duration)) {
	c.sleep = fn
}

// Do executes a request with retries. A non-nil body is replayed on every
// attempt. The returned response may still carry a non-2xx status; use
// Fetch or the JSON helpers when a StatusError is wanted instead.
func (c *Client) Do(ctx context.Context, method, url string, header http.Header, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if attempt > 0 {
			c.sleep(c.backoff(attempt))
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		for k, vs := range header {
			req.Header[k] = vs
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Network-level failures are all treated as transient.
			lastErr = err
			continue
		}

		if retryableStatus(resp.StatusCode) {
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: drain(resp.Body)}
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

// Fetch performs a GET and returns the body for a 2xx response.
// Non-2xx responses become a *StatusError.
func (c *Client) Fetch(ctx context.Context, url string, header http.Header) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, url, header, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: drain(resp.Body)}
	}
	return io.ReadAll(resp.Body)
}

// GetJSON performs a GET and decodes a JSON response into v.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, v interface{}) error {
	data, err := c.Fetch(ctx, url, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

// PostJSON performs a POST with a JSON payload and decodes the response into v.
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, payload, v interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Type", "application/json")

	resp, err := c.Do(ctx, http.MethodPost, url, header, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: drain(resp.Body)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

// Stream performs a GET and returns the open response body for a 2xx
// response, letting the caller copy large payloads without buffering.
func (c *Client) Stream(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	resp, err := c.Do(ctx, http.MethodGet, url, header, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: drain(resp.Body)}
	}
	return resp, nil
}

// backoff returns the delay before the given attempt (1-based), doubling
// from BaseDelay and capped at MaxDelay.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.cfg.BaseDelay * time.Duration(1<<(attempt-1))
	if delay > c.cfg.MaxDelay {
		delay = c.cfg.MaxDelay
	}
	return delay
}

func retryableStatus(code int) bool {
	if code >= 500 && code < 600 {
		return true
	}
	return code == http.StatusTooManyRequests
}

// drain reads at most 512 bytes of a body for error messages and closes it.
func drain(body io.ReadCloser) string {
	defer body.Close()
	data, _ := io.ReadAll(io.LimitReader(body, 512))
	return string(bytes.TrimSpace(data))
}

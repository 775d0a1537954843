// Package upstream provides the resilient HTTP client used for all provider
// calls. It retries transient failures with exponential backoff, applies a
// fixed cooldown after rate-limit responses, and bounds every attempt with
// its own timeout. It performs no caching and no validation.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonesrussell/finfeed/internal/logger"
)

// Default retry parameters, matching provider behavior observed in production.
const (
	DefaultMaxRetries        = 3
	DefaultInitialDelay      = 2 * time.Second
	DefaultAttemptTimeout    = 10 * time.Second
	DefaultRateLimitCooldown = 30 * time.Second
)

// Config configures retry behavior for a Client.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// InitialDelay is the delay before the first retry; it doubles per attempt.
	InitialDelay time.Duration
	// AttemptTimeout bounds each individual attempt.
	AttemptTimeout time.Duration
	// RateLimitCooldown replaces the backoff delay for the retry that follows
	// an HTTP 429 response.
	RateLimitCooldown time.Duration
	// UserAgent is sent with every request when non-empty.
	UserAgent string
}

func (c *Config) setDefaults() {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	if c.RateLimitCooldown <= 0 {
		c.RateLimitCooldown = DefaultRateLimitCooldown
	}
}

// Client wraps outbound provider calls with bounded retries.
type Client struct {
	httpClient *http.Client
	cfg        Config
	log        logger.Logger
}

// NewClient creates a Client with the given retry configuration.
func NewClient(cfg Config, log logger.Logger) *Client {
	cfg.setDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		httpClient: newHTTPClient(),
		cfg:        cfg,
		log:        log,
	}
}

// Get performs a GET against url, retrying transient failures. It returns the
// response body on success or an *Error after exhausting retries. The caller's
// context deadline aborts the retry schedule early.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	maxAttempts := c.cfg.MaxRetries + 1
	delay := c.cfg.InitialDelay

	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &Error{URL: url, Attempts: attempt - 1, Status: lastStatus, Err: err}
		}

		body, status, err := c.attempt(ctx, url)
		if err == nil {
			return body, nil
		}

		lastErr = err
		lastStatus = status

		if !retryable(status, err) {
			return nil, &Error{URL: url, Attempts: attempt, Status: status, Err: err}
		}

		if attempt == maxAttempts {
			break
		}

		// A 429 gets the fixed cooldown instead of the doubled delay;
		// the normal schedule resumes on the attempt after.
		wait := delay
		if status == http.StatusTooManyRequests {
			wait = c.cfg.RateLimitCooldown
			c.log.Warn("Rate limit hit, cooling down",
				logger.String("url", url),
				logger.Duration("cooldown", wait),
				logger.Int("attempt", attempt),
			)
		} else {
			c.log.Warn("Provider call failed, retrying",
				logger.String("url", url),
				logger.Duration("delay", wait),
				logger.Int("attempt", attempt),
				logger.Error(err),
			)
		}
		delay *= 2

		select {
		case <-ctx.Done():
			return nil, &Error{URL: url, Attempts: attempt, Status: status, Err: ctx.Err()}
		case <-time.After(wait):
		}
	}

	return nil, &Error{URL: url, Attempts: maxAttempts, Status: lastStatus, Err: lastErr}
}

// GetJSON performs Get and decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{URL: url, Attempts: 1, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// attempt performs one bounded request. A timed-out attempt counts as one
// failed attempt.
func (c *Client) attempt(ctx context.Context, url string) (body []byte, status int, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resp.StatusCode, fmt.Errorf("%w: %s", ErrRateLimited, url)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, resp.StatusCode, &statusError{status: resp.StatusCode}
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// retryable reports whether an attempt outcome should be retried. Network
// errors, timeouts, 429 and 5xx responses are transient; other 4xx responses
// surface immediately.
func retryable(status int, err error) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if status >= http.StatusInternalServerError {
		return true
	}
	if status == 0 && err != nil {
		return true
	}
	return false
}

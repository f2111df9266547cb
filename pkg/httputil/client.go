package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/config"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
)

// Client is an HTTP client wrapper with rate limiting, a circuit breaker,
// retry logic and logging. All downloads go through it.
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// StatusError is returned for a non-2xx response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	return IsRetryableError(e.StatusCode)
}

// tripAfter is the number of consecutive failed attempts that opens the breaker
const tripAfter = 5

// New creates a new HTTP client from config
func New(cfg *config.Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
		},
		logger: log,
		retryConfig: RetryConfig{
			MaxRetries:   cfg.HTTP.MaxRetries,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Enabled:      cfg.HTTP.MaxRetries > 0,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.HTTP.RatePerSecond), 1),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "http",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		// A 404 is an answer, not an outage
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return !se.Retryable()
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
	return c
}

// NewWithTimeout creates a client with custom timeout
func NewWithTimeout(cfg *config.Config, log *logger.Logger, timeout time.Duration) *Client {
	client := New(cfg, log)
	client.httpClient.Timeout = timeout
	return client
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = maxRetries > 0
	return c
}

// DisableRetry disables automatic retry
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// WithRateLimit replaces the request rate (requests per second)
func (c *Client) WithRateLimit(perSecond float64) *Client {
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	return c
}

// BreakerState returns the circuit breaker state ("closed", "half-open", "open")
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Get performs a GET request. Only 2xx responses are returned; any other
// status is a *StatusError and the body is already closed.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	return c.do(req)
}

// GetBytes performs a GET request and reads the whole body
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	return body, nil
}

// do sends req, retrying with exponential backoff while the failure is
// retryable and the budget allows
func (c *Client) do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	log := c.logger.WithField("url", req.URL.String())
	start := time.Now()

	budget := 0
	if c.retryConfig.Enabled {
		budget = c.retryConfig.MaxRetries
	}
	delay := c.retryConfig.InitialDelay

	for attempt := 0; ; attempt++ {
		resp, err := c.attempt(req)
		if err == nil {
			log.WithFields(map[string]interface{}{
				"status_code": resp.StatusCode,
				"attempts":    attempt + 1,
				"duration":    time.Since(start).String(),
			}).Debug("HTTP request completed")
			return resp, nil
		}

		if attempt >= budget || !retryable(ctx, err) {
			log.WithError(err).WithField("attempts", attempt+1).Error("HTTP request failed")
			return nil, err
		}

		log.WithError(err).WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).Warn("Retrying HTTP request")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(2*delay, c.retryConfig.MaxDelay)
	}
}

// attempt waits for the rate limiter and sends the request once through
// the circuit breaker
func (c *Client) attempt(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

// retryable reports whether a failed attempt should be repeated: transport
// errors and retryable statuses are, an open breaker or a done context are not
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

// IsRetryableError reports whether a status signals a transient condition:
// throttling or a server-side failure
func IsRetryableError(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError
}

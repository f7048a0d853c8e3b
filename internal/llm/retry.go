package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// RetryConfig bounds a completion call.
type RetryConfig struct {
	// Timeout applies to each attempt separately.
	Timeout time.Duration
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// Backoff is multiplied by the attempt number between attempts.
	Backoff time.Duration
}

// DefaultRetryConfig returns the deadline and retry policy used by the server.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		Backoff:    DefaultRetryBackoff,
	}
}

// RetryingClient wraps a Client with a per-attempt deadline and bounded retries.
type RetryingClient struct {
	next   Client
	config RetryConfig
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryingClient wraps next. Zero config values fall back to DefaultRetryConfig.
func NewRetryingClient(next Client, config RetryConfig, logger *zap.Logger) *RetryingClient {
	defaults := DefaultRetryConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.Backoff < 0 {
		config.Backoff = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingClient{
		next:   next,
		config: config,
		logger: logger,
		sleep:  sleepContext,
	}
}

// GenerateContent calls the wrapped client until it succeeds, the error is
// permanent, the retries are spent, or ctx is done.
func (c *RetryingClient) GenerateContent(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	attempts := c.config.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := c.attempt(ctx, prompt, params)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) || attempt == attempts {
			break
		}

		wait := c.config.Backoff * time.Duration(attempt)
		c.logger.Warn("completion attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))

		if err := c.sleep(ctx, wait); err != nil {
			break
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(lastErr, ctxErr) {
		return "", fmt.Errorf("completion cancelled: %w", ctxErr)
	}
	return "", fmt.Errorf("completion failed: %w", lastErr)
}

func (c *RetryingClient) attempt(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	return c.next.GenerateContent(attemptCtx, prompt, params)
}

// Close closes the wrapped client.
func (c *RetryingClient) Close() error {
	return c.next.Close()
}

// IsRetryable reports whether a failed completion may succeed on another attempt.
// Configuration errors and client-side API errors are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoModel) || errors.Is(err, ErrMissingAPIKey) || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests, apiErr.Code == http.StatusRequestTimeout:
			return true
		case apiErr.Code >= 400 && apiErr.Code < 500:
			return false
		}
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

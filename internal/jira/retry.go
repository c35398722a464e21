package jira

import (
	"context"
	"fmt"
	"time"
)

// StatusError is a non-2xx response from the remote instance.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jira returned %s", e.Status)
}

// Retryable reports whether the error is worth another attempt. Client errors
// that cannot resolve themselves (bad request, bad credentials, missing
// resource) fail immediately; everything else, including rate limiting and
// server errors, is retried.
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case 400, 401, 403, 404:
		return false
	}
	return true
}

// RetryConfig bounds the retry wrapper around every outbound call.
type RetryConfig struct {
	// MaxAttempts is the total number of call attempts, including the first.
	MaxAttempts int
	// BaseDelay is doubled after every failed attempt.
	BaseDelay time.Duration
}

// DefaultRetryConfig matches the remote client defaults: three attempts with
// exponential backoff starting at one second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Second}
}

// withRetry runs op until it succeeds, fails terminally, or exhausts the
// configured attempts; exhaustion returns the last error seen. Bare network
// failures count as retryable.
func withRetry(ctx context.Context, cfg RetryConfig, op func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.BaseDelay * (1 << (attempt - 1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if statusErr, ok := err.(*StatusError); ok && !statusErr.Retryable() {
			return err
		}
	}

	return lastErr
}

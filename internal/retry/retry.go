// Package retry provides the one retry-with-backoff policy shared by every
// network collaborator.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrExhausted is returned when every attempt failed with a retryable error.
var ErrExhausted = errors.New("retry attempts exhausted")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Policy is parameterized by attempt budget, retryable predicate and backoff.
type Policy struct {
	MaxAttempts int
	Retryable   func(err error) bool
	Backoff     func(attempt int, err error) time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// Default is the policy used against the inference proxy: three attempts,
// retry on network errors and 429/5xx, linear backoff.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		Retryable:   IsTransient,
		Backoff:     Linear(600*time.Millisecond, 700*time.Millisecond),
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or the budget is spent.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt, err)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}

// IsTransient treats network failures and 429/500/502/503/504 as retryable.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return RetryableStatus(status.Code)
	}
	return !errors.Is(err, context.Canceled)
}

// RetryableStatus reports whether an HTTP status is worth retrying.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Linear waits network*attempt after transport errors and status*attempt after retryable statuses.
func Linear(network, status time.Duration) func(int, error) time.Duration {
	return func(attempt int, err error) time.Duration {
		var se *StatusError
		if errors.As(err, &se) {
			return status * time.Duration(attempt)
		}
		return network * time.Duration(attempt)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

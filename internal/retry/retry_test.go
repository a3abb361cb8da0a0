package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(p Policy) (Policy, *[]time.Duration) {
	var waits []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return p, &waits
}

func TestDoRetriesTransientStatusWithLinearBackoff(t *testing.T) {
	t.Parallel()

	p, waits := noSleep(Default())
	calls := 0
	err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		if calls < 3 {
			return &StatusError{Code: http.StatusServiceUnavailable}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{700 * time.Millisecond, 1400 * time.Millisecond}, *waits)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	p, waits := noSleep(Default())
	calls := 0
	err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return &StatusError{Code: http.StatusBadRequest}
	})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
	assert.NotErrorIs(t, err, ErrExhausted)
}

func TestDoExhaustsBudget(t *testing.T) {
	t.Parallel()

	p, waits := noSleep(Default())
	netErr := errors.New("connection reset")
	calls := 0
	err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return netErr
	})

	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, netErr)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{600 * time.Millisecond, 1200 * time.Millisecond}, *waits)
}

func TestDoHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Default().Do(ctx, func(context.Context, int) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryableStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, RetryableStatus(code), code)
	}
	for _, code := range []int{400, 401, 403, 404, 501} {
		assert.False(t, RetryableStatus(code), code)
	}
}

package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/carprice/internal/service"
)

func TestWithRetry(t *testing.T) {
	transient := errors.New("connection reset")

	tests := []struct {
		failWith  error
		wantErr   error
		name      string
		failures  int
		wantCalls int
	}{
		{name: "succeeds first time", wantCalls: 1},
		{name: "recovers from transient failures", failWith: transient, failures: 2, wantCalls: 3},
		{name: "gives up after max attempts", failWith: transient, failures: 10, wantCalls: 3, wantErr: ErrMaxRetries},
		{name: "missing objects are not retried", failWith: ErrNotFound, failures: 10, wantCalls: 1, wantErr: ErrNotFound},
		{name: "permanent failures are not retried", failWith: &RetryableError{Err: transient}, failures: 10, wantCalls: 1, wantErr: transient},
		{name: "throttling keeps its cause", failWith: &RateLimitError{Err: transient}, failures: 10, wantCalls: 3, wantErr: ErrRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetry_HonoursRetryAfter(t *testing.T) {
	calls := 0
	start := time.Now()
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return &RateLimitError{Err: errors.New("slow down"), RetryAfter: time.Millisecond}
		}
		return nil
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Hour})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestThrottleDelay(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want time.Duration
	}{
		{name: "requested wait", err: &RateLimitError{RetryAfter: 2 * time.Second}, want: 2 * time.Second},
		{name: "capped at max", err: &RateLimitError{RetryAfter: time.Hour}, want: 30 * time.Second},
		{name: "no wait given", err: &RateLimitError{}, want: 30 * time.Second},
		{name: "bare sentinel", err: ErrRateLimit, want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, throttleDelay(tt.err, 30*time.Second))
		})
	}
}

func TestWithRetry_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return errors.New("connection reset")
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
}

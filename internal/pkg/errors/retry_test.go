package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

// failing returns a RetryFunc that fails with errs in order, then succeeds.
func failing(calls *int, errs ...error) RetryFunc {
	return func(ctx context.Context) error {
		*calls++
		if *calls <= len(errs) {
			return errs[*calls-1]
		}
		return nil
	}
}

func TestRetry_Outcomes(t *testing.T) {
	network := NewNetworkError(errors.New("connection reset"))
	auth := NewAuthenticationError("openai")

	tests := []struct {
		name      string
		attempts  int
		errs      []error
		wantErr   error
		wantCalls int
	}{
		{name: "first try", attempts: 3, wantCalls: 1},
		{name: "recovers", attempts: 3, errs: []error{network, network}, wantCalls: 3},
		{name: "gives up", attempts: 2, errs: []error{network, network, network}, wantErr: network, wantCalls: 2},
		{name: "auth is final", attempts: 3, errs: []error{auth}, wantErr: auth, wantCalls: 1},
		{name: "plain errors are final", attempts: 3, errs: []error{errors.New("boom")}, wantErr: errors.New("boom"), wantCalls: 1},
		{name: "single attempt", attempts: 1, errs: []error{network}, wantErr: network, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), fastRetry(tt.attempts), failing(&calls, tt.errs...))

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr.Error())
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRetry_CustomRetryable(t *testing.T) {
	calls := 0
	cfg := fastRetry(4)
	cfg.Retryable = func(err error) bool { return err.Error() == "again" }

	err := Retry(context.Background(), cfg, failing(&calls,
		errors.New("again"), errors.New("again"), errors.New("stop")))

	assert.EqualError(t, err, "stop")
	assert.Equal(t, 3, calls)
}

func TestRetry_NotifyReportsEachWait(t *testing.T) {
	var attempts []int
	cfg := fastRetry(3)
	cfg.Notify = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
		assert.True(t, IsTransportError(err))
		assert.Positive(t, delay)
	}

	calls := 0
	timeout := NewTimeoutError(context.DeadlineExceeded)
	require.Error(t, Retry(context.Background(), cfg, failing(&calls, timeout, timeout, timeout)))

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRetry_ContextNotifyFollowsConfigNotify(t *testing.T) {
	var order []string
	cfg := fastRetry(2)
	cfg.Notify = func(attempt int, _ error, _ time.Duration) {
		order = append(order, fmt.Sprintf("config %d", attempt))
	}
	ctx := WithRetryNotify(context.Background(), func(attempt int, _ error, _ time.Duration) {
		order = append(order, fmt.Sprintf("caller %d", attempt))
	})

	calls := 0
	require.NoError(t, Retry(ctx, cfg, failing(&calls, NewNetworkError(nil))))

	assert.Equal(t, []string{"config 1", "caller 1"}, order)
}

func TestRetry_CancelDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry(5)
	cfg.InitialDelay = time.Hour
	cfg.MaxDelay = time.Hour
	cfg.Notify = func(int, error, time.Duration) { cancel() }

	calls := 0
	err := Retry(ctx, cfg, failing(&calls, NewNetworkError(nil), NewNetworkError(nil)))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryConfig_Delay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, cfg.delay(1, nil))
	assert.Equal(t, 200*time.Millisecond, cfg.delay(2, nil))
	assert.Equal(t, 800*time.Millisecond, cfg.delay(4, nil))
	assert.Equal(t, time.Second, cfg.delay(5, nil), "capped")
	assert.Equal(t, time.Second, cfg.delay(30, nil), "capped")
}

func TestRetryConfig_DelayHonoursRetryAfter(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: 10 * time.Second, Multiplier: 2}

	assert.Equal(t, 3*time.Second, cfg.delay(1, NewRateLimitError(3*time.Second)))
	assert.Equal(t, 10*time.Second, cfg.delay(1, NewRateLimitError(time.Minute)), "capped")
	assert.Equal(t, 100*time.Millisecond, cfg.delay(1, NewRateLimitError(0)), "no hint")
}

func TestRetryConfig_DelayJitter(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2, Jitter: true}

	for i := 0; i < 50; i++ {
		d := cfg.delay(2, nil)
		assert.GreaterOrEqual(t, d, 1500*time.Millisecond)
		assert.LessOrEqual(t, d, 2500*time.Millisecond)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.MaxDelay)
	assert.True(t, cfg.Jitter)
	assert.Nil(t, cfg.Retryable)
	assert.NotNil(t, cfg.Notify)
}

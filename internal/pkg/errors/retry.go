package errors

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig controls how Retry repeats a failing call.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter spreads each delay by up to 25% either way.
	Jitter bool

	// Retryable reports whether a failure may be repeated. Nil means IsRetryable.
	Retryable func(err error) bool

	// Notify, if set, runs before each wait.
	Notify RetryCallback
}

// RetryFunc is one attempt.
type RetryFunc func(ctx context.Context) error

// RetryCallback receives the 1-based number of the failed attempt and the
// wait before the next one.
type RetryCallback func(attempt int, err error, delay time.Duration)

// DefaultRetryConfig is used for completion requests: three attempts, one
// second doubling to at most ten.
func DefaultRetryConfig() RetryConfig {
	const attempts = 3
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Jitter:       true,
		Notify: func(attempt int, err error, delay time.Duration) {
			LogRetry(attempt, attempts, err, delay)
		},
	}
}

type retryNotifyKey struct{}

// WithRetryNotify returns a copy of ctx carrying fn. Retry calls it before
// each wait, after the config's own Notify, so a caller can follow retries
// made deep inside a client.
func WithRetryNotify(ctx context.Context, fn RetryCallback) context.Context {
	return context.WithValue(ctx, retryNotifyKey{}, fn)
}

// Retry calls fn until it succeeds, fails with an error Retryable rejects,
// or MaxAttempts calls have been made. The last error is returned as is.
// Cancelling ctx during a wait returns ctx.Err().
func Retry(ctx context.Context, config RetryConfig, fn RetryFunc) error {
	retryable := config.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= config.MaxAttempts || !retryable(err) {
			return err
		}

		delay := config.delay(attempt, err)
		if config.Notify != nil {
			config.Notify(attempt, err, delay)
		}
		if notify, ok := ctx.Value(retryNotifyKey{}).(RetryCallback); ok && notify != nil {
			notify(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// delay returns the wait after the given failed attempt. A retry-after hint
// from the server replaces the backoff; both are capped at MaxDelay.
func (c RetryConfig) delay(attempt int, err error) time.Duration {
	if hint := GetRetryAfter(err); hint > 0 {
		return c.capped(hint)
	}

	d := float64(c.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= c.Multiplier
	}
	d = float64(c.capped(time.Duration(d)))

	if c.Jitter {
		d += d * 0.25 * (2*rand.Float64() - 1)
	}
	return time.Duration(d)
}

func (c RetryConfig) capped(d time.Duration) time.Duration {
	if c.MaxDelay > 0 && d > c.MaxDelay {
		return c.MaxDelay
	}
	return d
}

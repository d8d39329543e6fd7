// Package retry runs an operation with exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("maximum retry count exceeded")

// Policy decides whether an error deserves another attempt. A nil Policy
// retries every error.
type Policy func(error) bool

type options struct {
	retryable Policy
	sleep     func(context.Context, time.Duration) error
	onRetry   func(attempt int, delay time.Duration, err error)
}

type Option func(*options)

func WithPolicy(p Policy) Option {
	return func(o *options) { o.retryable = p }
}

// WithSleep replaces the wait between attempts. Useful for tests.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(o *options) { o.sleep = sleep }
}

// OnRetry is called before each wait.
func OnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(o *options) { o.onRetry = fn }
}

// Do runs fn up to maxRetries+1 times. The delay starts at initialDelay and
// doubles after every failed attempt. A non-retryable error is returned
// immediately and unwrapped; exhausting retries returns an error matching
// both ErrExhausted and the last failure.
func Do[T any](ctx context.Context, maxRetries int, initialDelay time.Duration, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	o := options{sleep: sleepCtx}
	for _, opt := range opts {
		opt(&o)
	}

	delay := initialDelay
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if o.retryable != nil && !o.retryable(err) {
			return v, err
		}
		if attempt >= maxRetries {
			if maxRetries == 0 {
				return v, err
			}
			return v, errors.Join(ErrExhausted, err)
		}
		if o.onRetry != nil {
			o.onRetry(attempt+1, delay, err)
		}
		if serr := o.sleep(ctx, delay); serr != nil {
			return v, errors.Join(serr, err)
		}
		delay *= 2
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

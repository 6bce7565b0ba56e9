// Package wait converts event-driven state changes into bounded synchronous
// waits by polling a predicate until it produces a value or a deadline
// passes.
package wait

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when the predicate never succeeded before the
// deadline.
var ErrTimeout = errors.New("wait: timed out")

const (
	DefaultTimeout  = 15 * time.Second
	DefaultInterval = 100 * time.Millisecond
)

type config struct {
	timeout  time.Duration
	interval time.Duration
}

type Option func(*config)

// WithTimeout sets the overall deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithInterval sets how often the predicate is re-checked.
func WithInterval(d time.Duration) Option {
	return func(c *config) { c.interval = d }
}

// Until polls pred every interval until it reports ok, returning the
// produced value. The predicate is checked once immediately, then on every
// tick. Fails with ErrTimeout once the deadline elapses, or with ctx.Err()
// if the context is canceled first.
func Until[T any](ctx context.Context, pred func() (T, bool), opts ...Option) (T, error) {
	cfg := config{timeout: DefaultTimeout, interval: DefaultInterval}
	for _, o := range opts {
		o(&cfg)
	}

	var zero T
	if v, ok := pred(); ok {
		return v, nil
	}

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(cfg.timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ticker.C:
			if v, ok := pred(); ok {
				return v, nil
			}
		case <-deadline.C:
			return zero, ErrTimeout
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// True is Until for predicates with no produced value.
func True(ctx context.Context, pred func() bool, opts ...Option) error {
	_, err := Until(ctx, func() (struct{}, bool) {
		return struct{}{}, pred()
	}, opts...)
	return err
}

// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package poll implements the bounded waits and retries used around
// provider and remote-shell calls: check, sleep a fixed interval, repeat
// until success, a fatal error, the deadline or cancellation.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/logging"
	"github.com/clawmacdo/clawmacdo/internal/model"
)

var errNotReady = errors.New("condition not met yet")

const defaultInterval = 5 * time.Second

type fatalError struct{ err error }

func (f fatalError) Error() string { return f.err.Error() }
func (f fatalError) Unwrap() error { return f.err }

// Fatal marks err as non-retryable: Until and Retry return it at once.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return fatalError{err}
}

func unwrapFatal(err error) (error, bool) {
	var f fatalError
	if errors.As(err, &f) {
		return f.err, true
	}
	return err, false
}

// Check reports whether the awaited condition holds. A non-nil error is
// treated as transient unless wrapped with Fatal.
type Check func(ctx context.Context) (bool, error)

// Options bound a poll.
type Options struct {
	Stage    model.Stage
	Timeout  time.Duration
	Interval time.Duration
	Clock    clock.Clock

	// Label names the wait in debug logs; defaults to the stage name.
	Label string
}

// Until runs check every Interval until it reports true. It returns a
// *apperr.TimeoutError once Timeout has elapsed, the unwrapped error for a
// Fatal check failure, and ctx.Err() on cancellation.
func Until(ctx context.Context, o Options, check Check) error {
	clk := o.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	if o.Interval <= 0 {
		o.Interval = defaultInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = o.Interval
	}
	label := o.Label
	if label == "" {
		label = o.Stage.String()
	}
	var last, fatal error
	attempts := 0
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			attempts++
			ok, err := check(ctx)
			switch {
			case err != nil:
				if inner, isFatal := unwrapFatal(err); isFatal {
					fatal = inner
					return err
				}
				last = err
				return err
			case !ok:
				return errNotReady
			}
			return nil
		},
		IsFatalError: func(err error) bool {
			return fatal != nil || ctx.Err() != nil
		},
		NotifyFunc: func(err error, attempt int) {
			logging.Debugf("%s: attempt %d: %v", label, attempt, err)
		},
		Attempts:    -1,
		Delay:       o.Interval,
		MaxDuration: o.Timeout,
		Clock:       clk,
		Stop:        ctx.Done(),
	})
	switch {
	case err == nil:
		return nil
	case fatal != nil:
		return fatal
	case ctx.Err() != nil:
		return ctx.Err()
	}
	logging.Debugf("%s: gave up after %d attempts", label, attempts)
	return &apperr.TimeoutError{Stage: o.Stage, After: o.Timeout, Last: last}
}

// RetryOptions bound a retried call.
type RetryOptions struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
	Clock    clock.Clock
}

// DefaultRetry is the small exponential backoff applied to provider calls.
var DefaultRetry = RetryOptions{Attempts: 3, Delay: time.Second, MaxDelay: 8 * time.Second}

// Retry calls fn until it succeeds, fails with an error retryable rejects,
// or the attempts are used up. The last error is returned unchanged.
func Retry(ctx context.Context, o RetryOptions, retryable func(error) bool, fn func() error) error {
	clk := o.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	if o.Attempts <= 0 {
		o.Attempts = DefaultRetry.Attempts
	}
	if o.Delay <= 0 {
		o.Delay = DefaultRetry.Delay
	}
	var last error
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			last = fn()
			return last
		},
		IsFatalError: func(err error) bool {
			return ctx.Err() != nil || !retryable(err)
		},
		NotifyFunc: func(err error, attempt int) {
			logging.Debugf("retrying after attempt %d: %v", attempt, err)
		},
		Attempts:    o.Attempts,
		Delay:       o.Delay,
		MaxDelay:    o.MaxDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       clk,
		Stop:        ctx.Done(),
	})
	if err == nil {
		return nil
	}
	if last == nil {
		return ctx.Err()
	}
	return last
}

// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/model"
)

// advance keeps moving the test clock forward while a poll is sleeping,
// until done is closed.
func advance(clk *testclock.Clock, step time.Duration, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		_ = clk.WaitAdvance(step, 20*time.Millisecond, 1)
	}
}

func TestUntilSucceedsAfterSomeAttempts(t *testing.T) {
	calls := 0
	err := Until(context.Background(), Options{Stage: model.StageDropletActive, Timeout: time.Second, Interval: time.Millisecond},
		func(context.Context) (bool, error) {
			calls++
			return calls == 3, nil
		})
	if err != nil || calls != 3 {
		t.Fatalf("Until: err=%v calls=%d", err, calls)
	}
}

func TestUntilTimesOutAtDeadlineInVirtualTime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := testclock.NewClock(start)
	done := make(chan struct{})
	go advance(clk, 5*time.Second, done)

	transient := errors.New("503 from backend")
	calls := 0
	err := Until(context.Background(), Options{Stage: model.StageDropletActive, Timeout: 5 * time.Minute, Interval: 5 * time.Second, Clock: clk},
		func(context.Context) (bool, error) {
			calls++
			if calls%2 == 0 {
				return false, transient
			}
			return false, nil
		})
	close(done)

	var te *apperr.TimeoutError
	if !errors.As(err, &te) || te.Stage != model.StageDropletActive {
		t.Fatalf("expected TimeoutError(DropletActive), got %v", err)
	}
	elapsed := clk.Now().Sub(start)
	if elapsed < 5*time.Minute-5*time.Second || elapsed > 5*time.Minute {
		t.Fatalf("timed out after %s of virtual time, want ~5m", elapsed)
	}
	if !errors.Is(err, transient) {
		t.Fatalf("timeout should carry the last transient error")
	}
}

func TestUntilFatalStopsImmediately(t *testing.T) {
	auth := errors.New("unable to authenticate")
	calls := 0
	err := Until(context.Background(), Options{Stage: model.StageSSHReady, Timeout: time.Minute, Interval: time.Millisecond},
		func(context.Context) (bool, error) {
			calls++
			return false, Fatal(auth)
		})
	if err != auth || calls != 1 {
		t.Fatalf("expected the fatal error after one call, got %v after %d", err, calls)
	}
}

func TestUntilHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	begin := time.Now()
	err := Until(ctx, Options{Stage: model.StageProvisioningComplete, Timeout: time.Hour, Interval: 5 * time.Millisecond},
		func(context.Context) (bool, error) {
			calls++
			return false, nil
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(begin) > 5*time.Second {
		t.Fatalf("cancellation was not prompt")
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	done := make(chan struct{})
	go advance(clk, 10*time.Second, done)
	defer close(done)

	rateLimited := &apperr.ProviderAPIError{Kind: apperr.ProviderRateLimited, Status: 429}
	calls := 0
	err := Retry(context.Background(), RetryOptions{Attempts: 3, Delay: time.Second, Clock: clk},
		func(err error) bool {
			var pe *apperr.ProviderAPIError
			return errors.As(err, &pe) && pe.Temporary()
		},
		func() error {
			calls++
			return rateLimited
		})
	if err != rateLimited || calls != 3 {
		t.Fatalf("expected 3 attempts then the last error, got %v after %d", err, calls)
	}

	unauthorized := &apperr.ProviderAPIError{Kind: apperr.ProviderUnauthorized, Status: 401}
	calls = 0
	err = Retry(context.Background(), RetryOptions{Attempts: 3, Delay: time.Second, Clock: clk},
		func(error) bool { return false },
		func() error {
			calls++
			return unauthorized
		})
	if err != unauthorized || calls != 1 {
		t.Fatalf("non-retryable error retried: %v after %d", err, calls)
	}
}

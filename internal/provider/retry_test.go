// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package provider_test

import (
	"context"
	"testing"
	"time"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/poll"
	"github.com/clawmacdo/clawmacdo/internal/provider"
	"github.com/clawmacdo/clawmacdo/internal/provider/memory"
)

func fastRetry() poll.RetryOptions {
	return poll.RetryOptions{Attempts: 3, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestWithRetryRecoversFromTransientErrors(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	failures := 2
	mem.Fail = func(op string) error {
		if op == "ListDroplets" && failures > 0 {
			failures--
			return &apperr.ProviderAPIError{Op: op, Kind: apperr.ProviderOther, Status: 503}
		}
		return nil
	}
	mem.AddDroplet(model.Droplet{Name: "a", Tags: []string{model.DropletTag}})

	c := provider.WithRetry(mem, fastRetry())
	ds, err := c.ListDroplets(ctx, model.DropletTag)
	if err != nil || len(ds) != 1 {
		t.Fatalf("ListDroplets: %v, %v", ds, err)
	}
}

func TestWithRetryDoesNotRepeatCreateOnServerError(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	key := mem.AddKey(model.SSHKey{Name: "k"})
	mem.Fail = func(op string) error {
		if op == "CreateDroplet" {
			return &apperr.ProviderAPIError{Op: op, Kind: apperr.ProviderOther, Status: 500}
		}
		return nil
	}
	c := provider.WithRetry(mem, fastRetry())
	if _, err := c.CreateDroplet(ctx, model.DropletSpec{Name: "x", SSHKeyID: key.ID}); err == nil {
		t.Fatalf("expected error")
	}
	n := 0
	for _, call := range mem.Calls() {
		if call == "CreateDroplet" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("CreateDroplet attempted %d times, want 1", n)
	}
}

func TestWithRetryNeverRetriesUnauthorized(t *testing.T) {
	mem := memory.New()
	mem.Fail = func(op string) error {
		return &apperr.ProviderAPIError{Op: op, Kind: apperr.ProviderUnauthorized, Status: 401}
	}
	c := provider.WithRetry(mem, fastRetry())
	if _, err := c.ListKeys(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if got := len(mem.Calls()); got != 1 {
		t.Fatalf("unauthorized call repeated %d times", got)
	}
}

// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package memory

import (
	"context"
	"reflect"
	"testing"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/provider"
)

var _ provider.Client = (*Provider)(nil)

func TestDropletLifecycle(t *testing.T) {
	ctx := context.Background()
	p := New()
	p.ActivateAfter = 2

	key, _ := p.UploadKey(ctx, "clawmacdo-abc", "ssh-ed25519 AAAA")
	d, err := p.CreateDroplet(ctx, model.DropletSpec{Name: "openclaw-abc", SSHKeyID: key.ID, Tags: []string{model.DropletTag}})
	if err != nil || d.Status != "new" {
		t.Fatalf("CreateDroplet: %+v, %v", d, err)
	}
	if got, _ := p.GetDroplet(ctx, d.ID); got.Active() {
		t.Fatalf("droplet active too early")
	}
	got, _ := p.GetDroplet(ctx, d.ID)
	if !got.Active() || got.PublicIP == "" {
		t.Fatalf("droplet should be active with an IP: %+v", got)
	}
	if err := p.DeleteDroplet(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDroplet: %v", err)
	}
	if err := p.DeleteDroplet(ctx, d.ID); !apperr.IsNotFound(err) {
		t.Fatalf("second delete should be not-found, got %v", err)
	}
}

func TestListDropletsFiltersByTagAndIsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	p := New()
	p.AddDroplet(model.Droplet{Name: "b", Tags: []string{model.DropletTag}})
	p.AddDroplet(model.Droplet{Name: "unmanaged", Tags: []string{"web"}})
	p.AddDroplet(model.Droplet{Name: "a", Tags: []string{"x", model.DropletTag}})

	first, _ := p.ListDroplets(ctx, model.DropletTag)
	_, _ = p.ListKeys(ctx)
	second, _ := p.ListDroplets(ctx, model.DropletTag)
	if len(first) != 2 || !reflect.DeepEqual(first, second) {
		t.Fatalf("listing not stable: %v vs %v", first, second)
	}

	if _, err := provider.FindDropletByName(ctx, p, model.DropletTag, "unmanaged"); !apperr.IsNotFound(err) {
		t.Fatalf("untagged droplet must not be found, got %v", err)
	}
	if d, err := provider.FindDropletByName(ctx, p, model.DropletTag, "a"); err != nil || d.Name != "a" {
		t.Fatalf("FindDropletByName: %+v, %v", d, err)
	}
}

func TestFailHookAndMutationCount(t *testing.T) {
	ctx := context.Background()
	p := New()
	p.Fail = func(op string) error {
		if op == "UploadKey" {
			return &apperr.ProviderAPIError{Op: op, Kind: apperr.ProviderUnauthorized, Status: 401}
		}
		return nil
	}
	if _, err := p.UploadKey(ctx, "k", "pub"); err == nil {
		t.Fatalf("expected injected failure")
	}
	if _, err := provider.FindKeyByName(ctx, p, "k"); !apperr.IsNotFound(err) {
		t.Fatalf("expected key not found, got %v", err)
	}
	if p.Mutations() != 1 {
		t.Fatalf("Mutations = %d, want 1 (the failed upload attempt)", p.Mutations())
	}
}

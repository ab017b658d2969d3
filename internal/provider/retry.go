// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package provider

import (
	"context"
	"errors"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/poll"
)

// Temporary reports whether a provider call may succeed when repeated.
func Temporary(err error) bool {
	var pe *apperr.ProviderAPIError
	return errors.As(err, &pe) && pe.Temporary()
}

// rateLimited is the only retry condition for non-idempotent calls: a 429
// guarantees nothing was created, a dropped connection does not.
func rateLimited(err error) bool {
	var pe *apperr.ProviderAPIError
	return errors.As(err, &pe) && pe.Kind == apperr.ProviderRateLimited
}

type retrying struct {
	next Client
	opts poll.RetryOptions
}

// WithRetry wraps c so every call gets a small bounded exponential backoff.
func WithRetry(c Client, opts poll.RetryOptions) Client {
	return &retrying{next: c, opts: opts}
}

func (r *retrying) CreateDroplet(ctx context.Context, spec model.DropletSpec) (model.Droplet, error) {
	var d model.Droplet
	err := poll.Retry(ctx, r.opts, rateLimited, func() (err error) {
		d, err = r.next.CreateDroplet(ctx, spec)
		return err
	})
	return d, err
}

func (r *retrying) GetDroplet(ctx context.Context, id int) (model.Droplet, error) {
	var d model.Droplet
	err := poll.Retry(ctx, r.opts, Temporary, func() (err error) {
		d, err = r.next.GetDroplet(ctx, id)
		return err
	})
	return d, err
}

func (r *retrying) ListDroplets(ctx context.Context, tag string) ([]model.Droplet, error) {
	var ds []model.Droplet
	err := poll.Retry(ctx, r.opts, Temporary, func() (err error) {
		ds, err = r.next.ListDroplets(ctx, tag)
		return err
	})
	return ds, err
}

func (r *retrying) DeleteDroplet(ctx context.Context, id int) error {
	return poll.Retry(ctx, r.opts, Temporary, func() error {
		return r.next.DeleteDroplet(ctx, id)
	})
}

func (r *retrying) UploadKey(ctx context.Context, name, publicKey string) (model.SSHKey, error) {
	var k model.SSHKey
	err := poll.Retry(ctx, r.opts, rateLimited, func() (err error) {
		k, err = r.next.UploadKey(ctx, name, publicKey)
		return err
	})
	return k, err
}

func (r *retrying) ListKeys(ctx context.Context) ([]model.SSHKey, error) {
	var ks []model.SSHKey
	err := poll.Retry(ctx, r.opts, Temporary, func() (err error) {
		ks, err = r.next.ListKeys(ctx)
		return err
	})
	return ks, err
}

func (r *retrying) DeleteKey(ctx context.Context, id int) error {
	return poll.Retry(ctx, r.opts, Temporary, func() error {
		return r.next.DeleteKey(ctx, id)
	})
}

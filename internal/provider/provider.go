// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package provider defines the compute provider operations the workflows
// depend on. Implementations live in subpackages.
package provider

import (
	"context"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/model"
)

// Client is the slice of the provider API the tool uses. Implementations
// return *apperr.ProviderAPIError for API failures; a missing droplet or
// key is a ProviderAPIError of kind ProviderNotFound.
type Client interface {
	CreateDroplet(ctx context.Context, spec model.DropletSpec) (model.Droplet, error)
	GetDroplet(ctx context.Context, id int) (model.Droplet, error)
	// ListDroplets returns the droplets carrying tag. Order carries no meaning.
	ListDroplets(ctx context.Context, tag string) ([]model.Droplet, error)
	DeleteDroplet(ctx context.Context, id int) error

	UploadKey(ctx context.Context, name, publicKey string) (model.SSHKey, error)
	ListKeys(ctx context.Context) ([]model.SSHKey, error)
	DeleteKey(ctx context.Context, id int) error
}

// FindKeyByName looks a provider key up by its exact name.
func FindKeyByName(ctx context.Context, c Client, name string) (model.SSHKey, error) {
	keys, err := c.ListKeys(ctx)
	if err != nil {
		return model.SSHKey{}, err
	}
	for _, k := range keys {
		if k.Name == name {
			return k, nil
		}
	}
	return model.SSHKey{}, &apperr.NotFoundError{What: "ssh key", Name: name}
}

// FindDropletByName returns the tagged droplet with exactly this name.
func FindDropletByName(ctx context.Context, c Client, tag, name string) (model.Droplet, error) {
	droplets, err := c.ListDroplets(ctx, tag)
	if err != nil {
		return model.Droplet{}, err
	}
	for _, d := range droplets {
		if d.Name == name && d.HasTag(tag) {
			return d, nil
		}
	}
	return model.Droplet{}, &apperr.NotFoundError{What: "droplet", Name: name}
}

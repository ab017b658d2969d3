// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package digitalocean implements provider.Client on top of godo.
package digitalocean

import (
	"context"
	"errors"
	"net/http"

	"github.com/digitalocean/godo"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/model"
)

const perPage = 200

// Client talks to the DigitalOcean v2 API.
type Client struct {
	api *godo.Client
}

// New returns a Client authenticated with a personal access token.
func New(token string) *Client {
	return &Client{api: godo.NewFromToken(token)}
}

// NewFromGodo wraps an already configured godo client.
func NewFromGodo(api *godo.Client) *Client {
	return &Client{api: api}
}

func (c *Client) CreateDroplet(ctx context.Context, spec model.DropletSpec) (model.Droplet, error) {
	req := &godo.DropletCreateRequest{
		Name:     spec.Name,
		Region:   spec.Region,
		Size:     spec.Size,
		Image:    godo.DropletCreateImage{Slug: spec.Image},
		SSHKeys:  []godo.DropletCreateSSHKey{{ID: spec.SSHKeyID}},
		Backups:  spec.EnableBackups,
		UserData: spec.UserData,
		Tags:     spec.Tags,
	}
	d, resp, err := c.api.Droplets.Create(ctx, req)
	if err != nil {
		return model.Droplet{}, wrap("create droplet", resp, err)
	}
	return toDroplet(d), nil
}

func (c *Client) GetDroplet(ctx context.Context, id int) (model.Droplet, error) {
	d, resp, err := c.api.Droplets.Get(ctx, id)
	if err != nil {
		return model.Droplet{}, wrap("get droplet", resp, err)
	}
	return toDroplet(d), nil
}

func (c *Client) ListDroplets(ctx context.Context, tag string) ([]model.Droplet, error) {
	var out []model.Droplet
	opt := &godo.ListOptions{Page: 1, PerPage: perPage}
	for {
		page, resp, err := c.api.Droplets.ListByTag(ctx, tag, opt)
		if err != nil {
			return nil, wrap("list droplets", resp, err)
		}
		for i := range page {
			out = append(out, toDroplet(&page[i]))
		}
		if lastPage(resp) {
			return out, nil
		}
		opt.Page++
	}
}

func (c *Client) DeleteDroplet(ctx context.Context, id int) error {
	resp, err := c.api.Droplets.Delete(ctx, id)
	return wrap("delete droplet", resp, err)
}

func (c *Client) UploadKey(ctx context.Context, name, publicKey string) (model.SSHKey, error) {
	k, resp, err := c.api.Keys.Create(ctx, &godo.KeyCreateRequest{Name: name, PublicKey: publicKey})
	if err != nil {
		return model.SSHKey{}, wrap("upload key", resp, err)
	}
	return toKey(*k), nil
}

func (c *Client) ListKeys(ctx context.Context) ([]model.SSHKey, error) {
	var out []model.SSHKey
	opt := &godo.ListOptions{Page: 1, PerPage: perPage}
	for {
		page, resp, err := c.api.Keys.List(ctx, opt)
		if err != nil {
			return nil, wrap("list keys", resp, err)
		}
		for _, k := range page {
			out = append(out, toKey(k))
		}
		if lastPage(resp) {
			return out, nil
		}
		opt.Page++
	}
}

func (c *Client) DeleteKey(ctx context.Context, id int) error {
	resp, err := c.api.Keys.DeleteByID(ctx, id)
	return wrap("delete key", resp, err)
}

func lastPage(resp *godo.Response) bool {
	return resp == nil || resp.Links == nil || resp.Links.IsLastPage()
}

func toDroplet(d *godo.Droplet) model.Droplet {
	out := model.Droplet{
		ID:     d.ID,
		Name:   d.Name,
		Status: d.Status,
		Size:   d.SizeSlug,
		Tags:   append([]string(nil), d.Tags...),
	}
	if d.Region != nil {
		out.Region = d.Region.Slug
	}
	if ip, err := d.PublicIPv4(); err == nil {
		out.PublicIP = ip
	}
	return out
}

func toKey(k godo.Key) model.SSHKey {
	return model.SSHKey{ID: k.ID, Name: k.Name, Fingerprint: k.Fingerprint, PublicKey: k.PublicKey}
}

// wrap converts a godo failure into the provider error taxonomy.
func wrap(op string, resp *godo.Response, err error) error {
	if err == nil {
		return nil
	}
	pe := &apperr.ProviderAPIError{Op: op, Err: err}
	var er *godo.ErrorResponse
	if errors.As(err, &er) {
		pe.Message = er.Message
		if er.Response != nil {
			pe.Status = er.Response.StatusCode
		}
	}
	if pe.Status == 0 && resp != nil && resp.Response != nil {
		pe.Status = resp.StatusCode
	}
	switch pe.Status {
	case http.StatusTooManyRequests:
		pe.Kind = apperr.ProviderRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		pe.Kind = apperr.ProviderUnauthorized
	case http.StatusNotFound:
		pe.Kind = apperr.ProviderNotFound
	default:
		pe.Kind = apperr.ProviderOther
	}
	return pe
}

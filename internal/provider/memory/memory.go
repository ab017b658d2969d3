// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package memory is an in-process provider.Client used by tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/model"
)

// Provider keeps droplets and keys in maps. New droplets start in status
// "new" and turn "active" after ActivateAfter GetDroplet calls; a negative
// value keeps them "new" forever.
type Provider struct {
	mu sync.Mutex

	ActivateAfter int
	// Fail, when set, is consulted before every call; a non-nil result is
	// returned instead of performing the operation.
	Fail func(op string) error

	nextID   int
	droplets map[int]*entry
	keys     map[int]model.SSHKey
	calls    []string
}

type entry struct {
	droplet model.Droplet
	spec    model.DropletSpec
	gets    int
}

// New returns an empty Provider whose droplets become active on the first poll.
func New() *Provider {
	return &Provider{
		ActivateAfter: 1,
		nextID:        1000,
		droplets:      map[int]*entry{},
		keys:          map[int]model.SSHKey{},
	}
}

func (p *Provider) begin(op string) error {
	p.calls = append(p.calls, op)
	if p.Fail != nil {
		return p.Fail(op)
	}
	return nil
}

func notFound(op string, id int) error {
	return &apperr.ProviderAPIError{Op: op, Kind: apperr.ProviderNotFound, Status: 404, Message: fmt.Sprintf("id %d not found", id)}
}

// Calls returns the operation names invoked so far, in order.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Mutations counts calls that create or delete something.
func (p *Provider) Mutations() int {
	n := 0
	for _, c := range p.Calls() {
		switch c {
		case "CreateDroplet", "DeleteDroplet", "UploadKey", "DeleteKey":
			n++
		}
	}
	return n
}

// AddDroplet seeds an existing droplet.
func (p *Provider) AddDroplet(d model.Droplet) model.Droplet {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d.ID == 0 {
		p.nextID++
		d.ID = p.nextID
	}
	p.droplets[d.ID] = &entry{droplet: d}
	return d
}

// AddKey seeds an existing provider key.
func (p *Provider) AddKey(k model.SSHKey) model.SSHKey {
	p.mu.Lock()
	defer p.mu.Unlock()
	if k.ID == 0 {
		p.nextID++
		k.ID = p.nextID
	}
	p.keys[k.ID] = k
	return k
}

// Spec returns the create request a droplet was made from.
func (p *Provider) Spec(id int) (model.DropletSpec, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.droplets[id]
	if !ok {
		return model.DropletSpec{}, false
	}
	return e.spec, true
}

func (p *Provider) CreateDroplet(_ context.Context, spec model.DropletSpec) (model.Droplet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin("CreateDroplet"); err != nil {
		return model.Droplet{}, err
	}
	if _, ok := p.keys[spec.SSHKeyID]; !ok {
		return model.Droplet{}, &apperr.ProviderAPIError{Op: "CreateDroplet", Kind: apperr.ProviderOther, Status: 422, Message: "unknown ssh key"}
	}
	p.nextID++
	d := model.Droplet{
		ID:     p.nextID,
		Name:   spec.Name,
		Status: "new",
		Region: spec.Region,
		Size:   spec.Size,
		Tags:   append([]string(nil), spec.Tags...),
	}
	p.droplets[d.ID] = &entry{droplet: d, spec: spec}
	return d, nil
}

func (p *Provider) GetDroplet(_ context.Context, id int) (model.Droplet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin("GetDroplet"); err != nil {
		return model.Droplet{}, err
	}
	e, ok := p.droplets[id]
	if !ok {
		return model.Droplet{}, notFound("GetDroplet", id)
	}
	e.gets++
	if e.droplet.Status == "new" && p.ActivateAfter >= 0 && e.gets >= p.ActivateAfter {
		e.droplet.Status = "active"
		e.droplet.PublicIP = fmt.Sprintf("203.0.113.%d", id%250+1)
	}
	return e.droplet, nil
}

func (p *Provider) ListDroplets(_ context.Context, tag string) ([]model.Droplet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin("ListDroplets"); err != nil {
		return nil, err
	}
	var out []model.Droplet
	for _, e := range p.droplets {
		if e.droplet.HasTag(tag) {
			out = append(out, e.droplet)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (p *Provider) DeleteDroplet(_ context.Context, id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin("DeleteDroplet"); err != nil {
		return err
	}
	if _, ok := p.droplets[id]; !ok {
		return notFound("DeleteDroplet", id)
	}
	delete(p.droplets, id)
	return nil
}

func (p *Provider) UploadKey(_ context.Context, name, publicKey string) (model.SSHKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin("UploadKey"); err != nil {
		return model.SSHKey{}, err
	}
	p.nextID++
	k := model.SSHKey{ID: p.nextID, Name: name, PublicKey: publicKey}
	p.keys[k.ID] = k
	return k, nil
}

func (p *Provider) ListKeys(_ context.Context) ([]model.SSHKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin("ListKeys"); err != nil {
		return nil, err
	}
	out := make([]model.SSHKey, 0, len(p.keys))
	for _, k := range p.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (p *Provider) DeleteKey(_ context.Context, id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin("DeleteKey"); err != nil {
		return err
	}
	if _, ok := p.keys[id]; !ok {
		return notFound("DeleteKey", id)
	}
	delete(p.keys, id)
	return nil
}

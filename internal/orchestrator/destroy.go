// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/logging"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/provider"
)

// CleanupStep is the outcome of one destroy sub-step. Missing means the
// resource was already gone, which is not a failure.
type CleanupStep struct {
	Name    string
	Missing bool
	Err     error
}

// DestroyReport lists what destroy did.
type DestroyReport struct {
	Droplet model.Droplet
	Steps   []CleanupStep
}

// Err joins the failed sub-steps; nil when everything was removed or
// already absent.
func (r DestroyReport) Err() error {
	var errs []error
	for _, s := range r.Steps {
		if s.Err != nil && !s.Missing {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, s.Err))
		}
	}
	return errors.Join(errs...)
}

// Destroy removes the tagged droplet called name together with its
// provider key and local key files. Unless assumeYes is set the Prompter
// must confirm first; declining returns apperr.ErrConfirmationDeclined.
// Past the confirmation every cleanup step is attempted regardless of
// earlier failures, and the returned error is DestroyReport.Err.
func (o *Orchestrator) Destroy(ctx context.Context, name string, assumeYes bool) (DestroyReport, error) {
	if err := o.needProvider(); err != nil {
		return DestroyReport{}, err
	}
	d, err := provider.FindDropletByName(ctx, o.provider, model.DropletTag, name)
	if err != nil {
		return DestroyReport{}, err
	}
	o.reporter.Reportf("Droplet %s: ID %d, IP %s, region %s, status %s", d.Name, d.ID, valueOr(d.PublicIP, "-"), d.Region, d.Status)

	if !assumeYes {
		ok, err := o.prompter.Confirm(ctx, fmt.Sprintf("Destroy droplet %s (ID %d)? This cannot be undone.", d.Name, d.ID))
		if err != nil {
			return DestroyReport{Droplet: d}, err
		}
		if !ok {
			return DestroyReport{Droplet: d}, apperr.ErrConfirmationDeclined
		}
	}
	rep := o.cleanup(ctx, d)
	return rep, rep.Err()
}

// DestroyByID removes a droplet this tool created, identified by ID,
// without asking. Used to reclaim a droplet left behind by an interrupted
// deploy after the user agreed.
func (o *Orchestrator) DestroyByID(ctx context.Context, id int) (DestroyReport, error) {
	if err := o.needProvider(); err != nil {
		return DestroyReport{}, err
	}
	d, err := o.provider.GetDroplet(ctx, id)
	if err != nil {
		return DestroyReport{}, err
	}
	if !d.HasTag(model.DropletTag) {
		return DestroyReport{}, &apperr.NotFoundError{What: "droplet tagged " + model.DropletTag, Name: fmt.Sprint(id)}
	}
	rep := o.cleanup(ctx, d)
	return rep, rep.Err()
}

func (o *Orchestrator) cleanup(ctx context.Context, d model.Droplet) DestroyReport {
	rep := DestroyReport{Droplet: d}
	record := func(name string, err error) {
		step := CleanupStep{Name: name, Err: err, Missing: apperr.IsNotFound(err)}
		switch {
		case err == nil:
			o.reporter.Reportf("%s: done", name)
		case step.Missing:
			logging.Warnf("%s: already gone: %v", name, err)
			o.reporter.Warnf("%s: not found, skipped", name)
		default:
			logging.Errorf("%s: %v", name, err)
			o.reporter.Warnf("%s: %v", name, err)
		}
		rep.Steps = append(rep.Steps, step)
	}

	record("delete droplet", o.provider.DeleteDroplet(ctx, d.ID))

	keyName := model.ProviderKeyName(d.Name)
	key, err := provider.FindKeyByName(ctx, o.provider, keyName)
	if err == nil {
		err = o.provider.DeleteKey(ctx, key.ID)
	}
	record("delete provider key "+keyName, err)

	for _, err := range splitJoined(o.keys.Remove(d.Name)) {
		record("delete local key files", err)
	}
	return rep
}

// splitJoined returns the members of an errors.Join result, a single
// error as a one-element slice, and a single nil for nil.
func splitJoined(err error) []error {
	if err == nil {
		return []error{nil}
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

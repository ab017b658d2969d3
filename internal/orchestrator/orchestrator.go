// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package orchestrator implements the deploy, migrate and destroy
// workflows on top of the provider, remote, key, archive and record
// packages. Every workflow is one sequential pipeline; the only long waits
// are the bounded polls in internal/poll, all of which honour ctx.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/juju/clock"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/archive"
	"github.com/clawmacdo/clawmacdo/internal/cloudinit"
	"github.com/clawmacdo/clawmacdo/internal/config"
	"github.com/clawmacdo/clawmacdo/internal/keys"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/poll"
	"github.com/clawmacdo/clawmacdo/internal/provider"
	"github.com/clawmacdo/clawmacdo/internal/records"
	"github.com/clawmacdo/clawmacdo/internal/remote"
	"github.com/clawmacdo/clawmacdo/internal/security"
)

// Reporter receives user-facing progress. Implementations may write to a
// terminal, a log or a test buffer.
type Reporter interface {
	StageStarted(s model.Stage)
	Reportf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Prompter asks the user for missing values. Implementations that cannot
// ask return apperr.ErrNotInteractive.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
	Text(ctx context.Context, label, def string) (string, error)
	Secret(ctx context.Context, label string) (security.Secret, error)
	Select(ctx context.Context, label string, options []string) (int, error)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) StageStarted(model.Stage) {}
func (NopReporter) Reportf(string, ...any)   {}
func (NopReporter) Warnf(string, ...any)     {}

// StaticPrompter answers without a terminal. Confirm returns Answer; the
// other questions fail with apperr.ErrNotInteractive.
type StaticPrompter struct {
	Answer bool
}

func (p StaticPrompter) Confirm(context.Context, string) (bool, error) { return p.Answer, nil }

func (StaticPrompter) Text(context.Context, string, string) (string, error) {
	return "", apperr.ErrNotInteractive
}

func (StaticPrompter) Secret(context.Context, string) (security.Secret, error) {
	return nil, apperr.ErrNotInteractive
}

func (StaticPrompter) Select(context.Context, string, []string) (int, error) {
	return 0, apperr.ErrNotInteractive
}

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Provider provider.Client
	Executor remote.Executor
	Reporter Reporter
	Prompter Prompter
	// Clock drives polls and retries; the wall clock when nil.
	Clock clock.Clock
}

// Orchestrator runs the workflows against one set of local directories.
type Orchestrator struct {
	provider provider.Client
	executor remote.Executor
	reporter Reporter
	prompter Prompter
	clock    clock.Clock

	keys     *keys.Manager
	archives *archive.Service
	records  *records.Store

	paths    config.Paths
	timeouts config.Timeouts

	// CloudInit is rendered into the user data of every new droplet.
	CloudInit cloudinit.Config
	// Image is the droplet image slug.
	Image string
}

// New wires an Orchestrator. Provider calls are wrapped with the default
// bounded retry.
func New(paths config.Paths, timeouts config.Timeouts, deps Deps) *Orchestrator {
	clk := deps.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	rep := deps.Reporter
	if rep == nil {
		rep = NopReporter{}
	}
	pr := deps.Prompter
	if pr == nil {
		pr = StaticPrompter{}
	}
	retry := poll.DefaultRetry
	retry.Clock = clk

	var prov provider.Client
	if deps.Provider != nil {
		prov = provider.WithRetry(deps.Provider, retry)
	}
	return &Orchestrator{
		provider:  prov,
		executor:  deps.Executor,
		reporter:  rep,
		prompter:  pr,
		clock:     clk,
		keys:      keys.NewManager(paths.Keys),
		archives:  archive.NewService(paths.Backups),
		records:   records.NewStore(paths.Deploys),
		paths:     paths,
		timeouts:  timeouts.WithDefaults(),
		CloudInit: cloudinit.Default(),
		Image:     config.DefaultImage,
	}
}

var errNoProvider = errors.New("no provider client configured")

func (o *Orchestrator) needProvider() error {
	if o.provider == nil {
		return errNoProvider
	}
	return nil
}

// pipeline tracks one deploy run for stage attribution.
type pipeline struct {
	o         *Orchestrator
	dropletID int
}

// stage runs fn as stage s. Any failure, including cancellation observed
// on entry, is returned as a *apperr.StageError.
func (p *pipeline) stage(ctx context.Context, s model.Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return p.fail(s, err)
	}
	p.o.reporter.StageStarted(s)
	if err := fn(); err != nil {
		return p.fail(s, err)
	}
	return nil
}

func (p *pipeline) fail(s model.Stage, err error) error {
	var se *apperr.StageError
	if errors.As(err, &se) {
		return err
	}
	return &apperr.StageError{Stage: s, Err: err, DropletID: p.dropletID}
}

func (o *Orchestrator) pollOptions(s model.Stage, timeout time.Duration) poll.Options {
	return poll.Options{Stage: s, Timeout: timeout, Interval: o.timeouts.PollInterval, Clock: o.clock}
}

// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package provision holds the host setup that runs over SSH once
// cloud-init has finished: the openclaw system user, firewall hardening,
// Docker, Node tooling, the gateway install and its systemd user service.
package provision

import (
	"context"
	"fmt"
	"os"

	"github.com/kballard/go-shellquote"

	"github.com/clawmacdo/clawmacdo/internal/logging"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/remote"
	"github.com/clawmacdo/clawmacdo/internal/security"
)

// Remote layout.
const (
	User      = "openclaw"
	Home      = "/home/openclaw"
	ConfigDir = Home + "/.openclaw"
	EnvFile   = ConfigDir + "/.env"
)

// Options configure the host plan.
type Options struct {
	// PublicKey is the authorized_keys line installed for the openclaw user.
	PublicKey string
	// Credentials must already be sanitized.
	Credentials      model.Credentials
	Tailscale        bool
	TailscaleAuthKey security.Secret
}

// Step is one remote action.
type Step struct {
	Phase string
	Name  string
	run   func(ctx context.Context, s remote.Session) error
}

// Apply runs steps in order and stops at the first failure. onStep, when
// set, is called before each step.
func Apply(ctx context.Context, s remote.Session, steps []Step, onStep func(Step)) error {
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if onStep != nil {
			onStep(st)
		}
		logging.Debugf("provision %s: %s", st.Phase, st.Name)
		if err := st.run(ctx, s); err != nil {
			return fmt.Errorf("%s (%s): %w", st.Name, st.Phase, err)
		}
	}
	return nil
}

// AsUser wraps cmd so root runs it as the openclaw user in a login shell.
func AsUser(cmd string) string {
	return "su - " + User + " -c " + shellquote.Join(cmd)
}

func root(phase, name, cmd string) Step {
	return Step{Phase: phase, Name: name, run: func(ctx context.Context, s remote.Session) error {
		_, err := remote.Run(ctx, s, cmd)
		return err
	}}
}

func asUser(phase, name, cmd string) Step {
	return root(phase, name, AsUser(cmd))
}

// file writes content to path and hands it to owner ("user:group"),
// leaving it root-owned when owner is empty.
func file(phase, name, path string, content []byte, mode os.FileMode, owner string) Step {
	return Step{Phase: phase, Name: name, run: func(ctx context.Context, s remote.Session) error {
		if err := s.WriteFile(ctx, path, content, mode); err != nil {
			return err
		}
		if owner == "" {
			return nil
		}
		_, err := remote.Run(ctx, s, fmt.Sprintf("chown %s %s", owner, shellquote.Join(path)))
		return err
	}}
}

func owned() string { return User + ":" + User }

// Host is the plan run while entering ConfigWritten: user, firewall,
// docker, node tooling, the gateway install with its environment file,
// and optionally tailscale.
func Host(o Options) []Step {
	var steps []Step
	steps = append(steps, userSteps(o.PublicKey)...)
	steps = append(steps, firewallSteps(o.Tailscale)...)
	steps = append(steps, dockerSteps()...)
	steps = append(steps, nodeSteps()...)
	steps = append(steps, openclawSteps(o.Credentials)...)
	if o.Tailscale {
		steps = append(steps, tailscaleSteps(o.TailscaleAuthKey)...)
	}
	return steps
}

// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package prompt asks the user for missing values with small inline
// bubbletea programs: a yes/no confirmation, a text field, a masked
// secret field and a list selection.
package prompt

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/security"
)

// ErrAborted is returned when the user leaves a prompt with esc or ctrl+c.
var ErrAborted = errors.New("prompt aborted")

// Prompter implements the orchestrator's Prompter on a terminal.
type Prompter struct {
	in  io.Reader
	out io.Writer

	// interactive reports whether both ends are a terminal.
	interactive func() bool
	// run executes a model to completion and returns its final state.
	run func(ctx context.Context, m tea.Model) (tea.Model, error)
}

// New returns a Prompter on stdin/stdout. When either is not a terminal
// every question fails with apperr.ErrNotInteractive.
func New() *Prompter {
	p := &Prompter{in: os.Stdin, out: os.Stderr}
	p.interactive = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
	}
	p.run = p.runProgram
	return p
}

// NonInteractive returns a Prompter that never asks.
func NonInteractive() *Prompter {
	p := New()
	p.interactive = func() bool { return false }
	return p
}

func (p *Prompter) runProgram(ctx context.Context, m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m,
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
		tea.WithContext(ctx),
	).Run()
}

func (p *Prompter) ask(ctx context.Context, m tea.Model) (tea.Model, error) {
	if !p.interactive() {
		return nil, apperr.ErrNotInteractive
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	final, err := p.run(ctx, m)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if a, ok := final.(interface{ aborted() bool }); ok && a.aborted() {
		return nil, ErrAborted
	}
	return final, nil
}

// Confirm asks a yes/no question. Aborting counts as no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	final, err := p.ask(ctx, newConfirm(question))
	if errors.Is(err, ErrAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return final.(confirmModel).value, nil
}

// Text asks for a line of text; an empty answer yields def.
func (p *Prompter) Text(ctx context.Context, label, def string) (string, error) {
	final, err := p.ask(ctx, newInput(label, def, false))
	if err != nil {
		return "", err
	}
	v := strings.TrimSpace(final.(inputModel).input.Value())
	if v == "" {
		v = def
	}
	return v, nil
}

// Secret asks for a value without echoing it.
func (p *Prompter) Secret(ctx context.Context, label string) (security.Secret, error) {
	final, err := p.ask(ctx, newInput(label, "", true))
	if err != nil {
		return nil, err
	}
	return security.FromString(strings.TrimSpace(final.(inputModel).input.Value())), nil
}

// Select asks the user to pick one of options and returns its index.
func (p *Prompter) Select(ctx context.Context, label string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("nothing to select")
	}
	final, err := p.ask(ctx, newSelect(label, options))
	if err != nil {
		return 0, err
	}
	return final.(selectModel).cursor, nil
}

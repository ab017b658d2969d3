// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/clawmacdo/clawmacdo/internal/model"
)

var (
	stageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// termReporter prints workflow progress.
type termReporter struct {
	mu sync.Mutex
	w  io.Writer
}

func newTermReporter(w io.Writer) *termReporter {
	return &termReporter{w: w}
}

func (r *termReporter) StageStarted(s model.Stage) {
	if s == model.StageInit {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, stageStyle.Render("==> "+s.String()))
}

func (r *termReporter) Reportf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "    "+format+"\n", args...)
}

func (r *termReporter) Warnf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, warnStyle.Render("    warning: "+fmt.Sprintf(format, args...)))
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "active":
		return okStyle
	case "new":
		return warnStyle
	default:
		return badStyle
	}
}

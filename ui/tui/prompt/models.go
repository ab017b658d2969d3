// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Yes    key.Binding
	No     key.Binding
	Toggle key.Binding
	Submit key.Binding
	Abort  key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j", "tab"), key.WithHelp("↓/j", "down")),
	Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	No:     key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "no")),
	Toggle: key.NewBinding(key.WithKeys("left", "right", "h", "l")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Abort:  key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
}

var (
	labelStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type confirmModel struct {
	question string
	value    bool
	done     bool
	abort    bool
}

func newConfirm(question string) confirmModel {
	return confirmModel{question: question}
}

func (m confirmModel) aborted() bool { return m.abort }

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, keys.Abort):
		m.abort = true
	case key.Matches(k, keys.Yes):
		m.value = true
	case key.Matches(k, keys.No):
		m.value = false
	case key.Matches(k, keys.Toggle):
		m.value = !m.value
		return m, nil
	case key.Matches(k, keys.Submit):
	default:
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	yes, no := dimStyle.Render("yes"), dimStyle.Render("no")
	if m.value {
		yes = selectedStyle.Render("yes")
	} else {
		no = selectedStyle.Render("no")
	}
	return fmt.Sprintf("%s %s / %s\n", labelStyle.Render(m.question), yes, no)
}

type inputModel struct {
	label string
	input textinput.Model
	done  bool
	abort bool
}

func newInput(label, def string, secret bool) inputModel {
	ti := textinput.New()
	ti.Placeholder = def
	ti.Prompt = "> "
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()
	return inputModel{label: label, input: ti}
}

func (m inputModel) aborted() bool { return m.abort }

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Abort):
			m.abort = true
			return m, tea.Quit
		case key.Matches(k, keys.Submit):
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return ""
	}
	return labelStyle.Render(m.label) + "\n" + m.input.View() + "\n"
}

type selectModel struct {
	label   string
	options []string
	cursor  int
	done    bool
	abort   bool
}

func newSelect(label string, options []string) selectModel {
	return selectModel{label: label, options: options}
}

func (m selectModel) aborted() bool { return m.abort }

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, keys.Abort):
		m.abort = true
		return m, tea.Quit
	case key.Matches(k, keys.Submit):
		m.done = true
		return m, tea.Quit
	case key.Matches(k, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(k, keys.Down):
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	}
	return m, nil
}

func (m selectModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render(m.label))
	b.WriteByte('\n')
	for i, o := range m.options {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + o))
		} else {
			b.WriteString("  " + o)
		}
		b.WriteByte('\n')
	}
	b.WriteString(dimStyle.Render("↑/↓ move • enter select • esc cancel"))
	b.WriteByte('\n')
	return b.String()
}

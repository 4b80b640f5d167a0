package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// interactiveModel re-packs the typed literals on every edit.
type interactiveModel struct {
	err     error
	session *session
	report  *report
	input   textinput.Model
	table   string
}

func newInteractiveModel(s *session, initial []string) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "s32:5 string:hi f64:2.5"
	ti.Prompt = "args: "
	ti.Width = 60
	ti.SetValue(strings.Join(initial, " "))
	ti.Focus()

	m := &interactiveModel{session: s, input: ti}
	m.repack()
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.repack()
	}
	return m, cmd
}

func (m *interactiveModel) repack() {
	m.report, m.err, m.table = nil, nil, ""
	fields := strings.Fields(m.input.Value())
	r, err := m.session.pack(parseLiterals(fields))
	if err != nil {
		m.err = err
		return
	}
	var b strings.Builder
	if err := renderTable(&b, r, true); err != nil {
		m.err = err
		return
	}
	m.report, m.table = r, b.String()
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("vapack"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else {
		b.WriteString(m.table)
		if m.report != nil {
			fmt.Fprintf(&b, "\nheap: %d allocs, %d frees, %d live\n",
				m.report.Heap.Allocs, m.report.Heap.Frees, m.report.Heap.Live)
		}
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("type:value separated by spaces • types: " + typeNames() + " • esc quit"))

	return b.String()
}

func runInteractive(p profile) (err error) {
	s, err := openSession(context.Background(), p)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()

	prog := tea.NewProgram(newInteractiveModel(s, p.Values), tea.WithAltScreen())
	_, err = prog.Run()
	return err
}

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/binpack"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelect modelState = iota
	stateDump
)

// lines reserved for the title, header and help around the viewport
const chromeHeight = 6

type interactiveModel struct {
	err      error
	engine   *binpack.Engine
	report   *report
	fixtures []Fixture
	visible  []int
	filter   textinput.Model
	view     viewport.Model
	selected int
	width    int
	height   int
	state    modelState
}

func newInteractiveModel(e *binpack.Engine, fixtures []Fixture) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "filter: "
	ti.Placeholder = "name or type"
	ti.Width = 40
	ti.Focus()

	m := &interactiveModel{
		engine:   e,
		fixtures: fixtures,
		filter:   ti,
		view:     viewport.New(80, 20),
		width:    80,
		height:   26,
	}
	m.applyFilter()
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for i, f := range m.fixtures {
		if q == "" || strings.Contains(strings.ToLower(f.Name), q) || strings.Contains(f.Type, q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *interactiveModel) open() {
	f := m.fixtures[m.visible[m.selected]]
	r, err := inspect(m.engine, f, true)
	m.report = r
	m.err = err
	m.state = stateDump
	m.view.SetYOffset(0)
	m.refreshDump()
}

func (m *interactiveModel) refreshDump() {
	if m.report == nil {
		m.view.SetContent(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		return
	}
	var b strings.Builder
	b.WriteString(resultStyle.Render(hexDump(m.report.Data, bytesPerLine(m.width))))
	b.WriteString("\n")
	b.WriteString(m.report.sizeTable())
	m.view.SetContent(b.String())
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-chromeHeight, 3)
		if m.state == stateDump {
			m.refreshDump()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "up":
			if m.state == stateSelect && m.selected > 0 {
				m.selected--
			}
			if m.state == stateSelect {
				return m, nil
			}

		case "down":
			if m.state == stateSelect && m.selected < len(m.visible)-1 {
				m.selected++
			}
			if m.state == stateSelect {
				return m, nil
			}

		case "enter":
			if m.state == stateSelect && len(m.visible) > 0 {
				m.open()
				return m, nil
			}

		case "esc", "q":
			if m.state == stateDump {
				m.state = stateSelect
				m.report = nil
				m.err = nil
				return m, nil
			}
			if msg.String() == "esc" {
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelect:
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
	case stateDump:
		m.view, cmd = m.view.Update(msg)
	}
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("binpack inspector"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelect:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no fixtures match"))
			b.WriteString("\n")
		}
		for i, idx := range m.visible {
			f := m.fixtures[idx]
			line := nameStyle.Render(f.Name) + " " + typeStyle.Render(f.Type)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + f.Name + " " + f.Type))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • type to filter • enter inspect • esc quit"))

	case stateDump:
		if m.report != nil {
			b.WriteString(nameStyle.Render(m.report.header()))
		} else {
			b.WriteString(errorStyle.Render("inspection failed"))
		}
		b.WriteString("\n\n")
		b.WriteString(m.view.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • ctrl+c quit"))
	}

	return b.String()
}

func runInteractive(e *binpack.Engine, fixtures []Fixture) error {
	p := tea.NewProgram(newInteractiveModel(e, fixtures), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

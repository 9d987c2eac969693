// Package tui provides the terminal user interface for PlanPilot runs.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/planpilot/planpilot/internal/orchestrator"
)

// EventMsg wraps an orchestration event for the TUI.
type EventMsg struct {
	Event orchestrator.Event
}

// DoneMsg signals that the run has finished.
type DoneMsg struct {
	Success bool
	Message string
}

// logLine is one rendered row in the activity log.
type logLine struct {
	timestamp time.Time
	text      string
	isError   bool
}

const maxLogLines = 200

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	phaseStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// RunView is the bubbletea model showing a live orchestration run.
type RunView struct {
	projectID string
	request   string

	spinner   spinner.Model
	phase     string
	iteration int
	lines     []logLine

	width    int
	height   int
	done     bool
	success  bool
	summary  string
	quitting bool
}

// NewRunView creates a run view for the given project and request.
func NewRunView(projectID, request string) *RunView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return &RunView{
		projectID: projectID,
		request:   request,
		spinner:   s,
		phase:     "starting",
	}
}

// NewRunProgram wraps a RunView in a tea.Program on the alt screen.
func NewRunProgram(projectID, request string) (*tea.Program, *RunView) {
	view := NewRunView(projectID, request)
	return tea.NewProgram(view, tea.WithAltScreen()), view
}

// Init implements tea.Model.
func (v *RunView) Init() tea.Cmd {
	return v.spinner.Tick
}

// Update implements tea.Model.
func (v *RunView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			v.quitting = true
			return v, tea.Quit
		}
		return v, nil

	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case EventMsg:
		v.applyEvent(msg.Event)
		return v, nil

	case DoneMsg:
		v.done = true
		v.success = msg.Success
		v.summary = msg.Message
		return v, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	return v, nil
}

func (v *RunView) applyEvent(event orchestrator.Event) {
	if event.Iteration > v.iteration {
		v.iteration = event.Iteration
	}

	switch event.Type {
	case orchestrator.EventRunStarted:
		v.phase = "starting"
	case orchestrator.EventDeciding:
		v.phase = "deciding"
	case orchestrator.EventAction:
		v.phase = "acting"
	case orchestrator.EventObservation:
		v.phase = "observing"
	case orchestrator.EventFinal:
		v.phase = "finished"
	case orchestrator.EventAborted:
		v.phase = "aborted"
	}

	text := event.Message
	if event.Op != "" {
		text = fmt.Sprintf("[%s] %s", event.Op, text)
	}
	if event.Type == orchestrator.EventDeciding {
		text = "consulting the reasoner"
	}

	v.lines = append(v.lines, logLine{
		timestamp: event.Timestamp,
		text:      text,
		isError:   event.IsError,
	})
	if len(v.lines) > maxLogLines {
		v.lines = v.lines[len(v.lines)-maxLogLines:]
	}
}

// View implements tea.Model.
func (v *RunView) View() string {
	if v.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("PlanPilot"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  project %s", v.projectID)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(truncate(v.request, v.contentWidth())))
	b.WriteString("\n\n")

	if v.done {
		if v.success {
			b.WriteString(successStyle.Render("✓ " + v.summary))
		} else {
			b.WriteString(errorStyle.Render("✗ " + v.summary))
		}
		b.WriteString("\n")
	} else {
		b.WriteString(fmt.Sprintf("%s %s",
			v.spinner.View(),
			phaseStyle.Render(fmt.Sprintf("%s (iteration %d)", v.phase, v.iteration))))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, line := range v.visibleLines() {
		stamp := dimStyle.Render(line.timestamp.Format("15:04:05"))
		text := truncate(line.text, v.contentWidth()-9)
		if line.isError {
			text = errorStyle.Render(text)
		}
		b.WriteString(fmt.Sprintf("%s %s\n", stamp, text))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q to quit"))
	return b.String()
}

// visibleLines returns the tail of the log that fits the terminal height.
func (v *RunView) visibleLines() []logLine {
	budget := v.height - 8
	if v.height == 0 {
		budget = 20
	}
	if budget < 1 {
		budget = 1
	}
	if len(v.lines) <= budget {
		return v.lines
	}
	return v.lines[len(v.lines)-budget:]
}

func (v *RunView) contentWidth() int {
	if v.width == 0 {
		return 80
	}
	return v.width
}

func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

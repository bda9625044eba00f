package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/formsync/model"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	pathStyle    = lipgloss.NewStyle()
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// Executor runs one command and reports what it did.
type Executor interface {
	Execute() (model.Summary, error)
}

// StackTracer is implemented by errors carrying a stack trace.
type StackTracer interface {
	StackTrace() []byte
}

// --- Messages ---
type summaryMsg struct {
	model.Summary
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

// --- Model ---
type Model struct {
	app     Executor
	spinner spinner.Model
	state   state
	summary summaryMsg
	err     error
}

type state int

const (
	stateProcessing state = iota
	stateSummary
	stateError
)

func New(app Executor) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		app:     app,
		spinner: s,
		state:   stateProcessing,
	}
}

// Err returns the error the command failed with, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runApp)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.err = msg.err
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		return fmt.Sprintf("%s Reconciling...", m.spinner.View())
	case stateError:
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	case stateSummary:
		return RenderSummary(m.summary.Summary)
	default:
		return ""
	}
}

func section(b *strings.Builder, title string, style lipgloss.Style, items []string) bool {
	if len(items) == 0 {
		return false
	}
	b.WriteString(style.Render(title))
	b.WriteString("\n")
	for _, f := range items {
		b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
	}
	return true
}

// RenderSummary formats s for the terminal.
func RenderSummary(s model.Summary) string {
	var b strings.Builder

	if s.Message != "" {
		b.WriteString(headerStyle.Render(s.Message))
		b.WriteString("\n\n")
	}

	hasContent := false
	if p := s.Pass; p != nil {
		if p.Skipped {
			b.WriteString(warningStyle.Render(p.Message))
			b.WriteString("\n")
			hasContent = true
		}
		if p.Renamed != "" {
			b.WriteString(successStyle.Render("Renamed to " + p.Renamed))
			b.WriteString("\n")
			hasContent = true
		}
		hasContent = section(&b, "Added:", successStyle, p.Added) || hasContent
		hasContent = section(&b, "Changed:", successStyle, p.Changed) || hasContent
		hasContent = section(&b, "Removed:", successStyle, p.Removed) || hasContent
		var warned []string
		for _, w := range p.Warnings {
			warned = append(warned, w.Field+": "+w.Reason)
		}
		hasContent = section(&b, "Warnings:", warningStyle, warned) || hasContent
		var failed []string
		for _, f := range p.Failed {
			failed = append(failed, f.Field+": "+f.Reason)
		}
		hasContent = section(&b, "Not synchronized:", errorStyle, failed) || hasContent
	}
	hasContent = section(&b, "Modified:", successStyle, s.Modified) || hasContent
	hasContent = section(&b, "Failed:", errorStyle, s.Failed) || hasContent
	for _, l := range s.Lines {
		b.WriteString(l)
		b.WriteString("\n")
		hasContent = true
	}

	if !hasContent && s.Message == "" {
		b.WriteString(faintStyle.Render("Nothing to do."))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) runApp() tea.Msg {
	summary, err := m.app.Execute()
	if err != nil {
		var st StackTracer
		if errors.As(err, &st) {
			// The TUI will exit, so we can print to stderr here for the stack trace.
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", st.StackTrace())
		}
		return errorMsg{err}
	}
	return summaryMsg{
		Summary: summary,
	}
}

// Package tui is an interactive terminal front end for a calculator session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/session"
)

const (
	defaultWidth = 40
	tapeHeight   = 8
)

var (
	accent = lipgloss.Color("#8BC34A")
	danger = lipgloss.Color("#e53935")
	muted  = lipgloss.Color("#6b7785")
)

type styles struct {
	Title   lipgloss.Style
	Display lipgloss.Style
	History lipgloss.Style
	Error   lipgloss.Style
	Status  lipgloss.Style
	Tape    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		Display: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1).Align(lipgloss.Right),
		History: lipgloss.NewStyle().Foreground(muted).Align(lipgloss.Right),
		Error:   lipgloss.NewStyle().Foreground(danger),
		Status:  lipgloss.NewStyle().Foreground(muted),
		Tape:    lipgloss.NewStyle().Foreground(muted),
	}
}

// Model is the bubbletea model driving one session.
type Model struct {
	sess   *session.Session
	keys   keyMap
	help   help.Model
	tape   viewport.Model
	lines  []string
	styles styles
	width  int
	status string
}

// New creates a model for sess.
func New(sess *session.Session) Model {
	return Model{
		sess:   sess,
		keys:   defaultKeyMap(),
		help:   help.New(),
		tape:   viewport.New(defaultWidth, tapeHeight),
		styles: defaultStyles(),
		width:  defaultWidth,
	}
}

// Session returns the session the model drives.
func (m Model) Session() *session.Session { return m.sess }

// Tape returns the evaluations completed so far, oldest first.
func (m Model) Tape() []string { return m.lines }

// Status returns the message about the last rejected key, if any.
func (m Model) Status() string { return m.status }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-2, defaultWidth/2)
		m.tape.Width = m.width
		m.help.Width = m.width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Evaluate):
			m.press("=")
		case key.Matches(msg, m.keys.Clear):
			m.press("AC")
		case key.Matches(msg, m.keys.Back):
			m.press("CE")
		case key.Matches(msg, m.keys.Angle):
			if m.sess.AngleMode() == evaluator.Degrees {
				m.press("RAD")
			} else {
				m.press("DEG")
			}
		case key.Matches(msg, m.keys.MemoryAdd):
			m.press("M+")
		case key.Matches(msg, m.keys.MemorySub):
			m.press("M-")
		case key.Matches(msg, m.keys.MemoryRecall):
			m.press("MR")
		case key.Matches(msg, m.keys.MemoryClear):
			m.press("MC")
		case msg.Type == tea.KeyRunes:
			k := string(msg.Runes)
			if mapped, ok := shortcuts[k]; ok {
				k = mapped
			}
			m.press(k)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.tape, cmd = m.tape.Update(msg)
	return m, cmd
}

// press forwards k to the session and records new results on the tape.
func (m *Model) press(k string) {
	before := m.sess.State()
	if err := m.sess.Press(k); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
	if m.sess.State() == session.StateEvaluated && before != session.StateEvaluated {
		m.lines = append(m.lines, m.sess.History()+" "+m.sess.Display())
		m.tape.SetContent(strings.Join(m.lines, "\n"))
		m.tape.GotoBottom()
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("gocalc"))
	b.WriteString("\n\n")

	if len(m.lines) > 0 {
		b.WriteString(m.styles.Tape.Render(m.tape.View()))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.History.Width(m.width).Render(m.sess.History()))
	b.WriteString("\n")
	b.WriteString(m.styles.Display.Width(m.width).Render(m.sess.Display()))
	b.WriteString("\n")

	if err := m.sess.LastError(); err != nil {
		b.WriteString(m.styles.Error.Render(err.Error()))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.styles.Error.Render(m.status))
		b.WriteString("\n")
	}

	status := strings.ToUpper(m.sess.AngleMode().String())
	if mem := m.sess.Memory(); mem != 0 {
		status += fmt.Sprintf("  M=%s", evaluator.Canonical(mem))
	}
	b.WriteString(m.styles.Status.Render(status))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Run starts an interactive program for sess and blocks until the user
// quits or ctx is done.
func Run(ctx context.Context, sess *session.Session) error {
	p := tea.NewProgram(New(sess), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

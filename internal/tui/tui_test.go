package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/session"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func TestTypingAndEvaluate(t *testing.T) {
	m := New(session.New())
	m = send(t, m, runes("1"), runes("2"), runes("+"), runes("3"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, session.StateEvaluated, m.Session().State())
	assert.Equal(t, "15", m.Session().Display())
	assert.Equal(t, []string{"12+3 = 15"}, m.Tape())
	assert.Contains(t, m.View(), "15")
}

func TestShortcuts(t *testing.T) {
	m := New(session.New())
	m = send(t, m, runes("s"), runes("3"), runes("0"), runes(")"), runes("x"), runes("4"), runes("="))

	assert.Equal(t, "2", m.Session().Display())
	assert.Equal(t, []string{"sin(30)×4 = 2"}, m.Tape())
}

func TestClearKeys(t *testing.T) {
	m := New(session.New())
	m = send(t, m, runes("4"), runes("2"), tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "4", m.Session().Display())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, session.StateIdle, m.Session().State())
	assert.Equal(t, "0", m.Session().Display())
}

func TestAngleToggle(t *testing.T) {
	m := New(session.New())
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, evaluator.Radians, m.Session().AngleMode())
	assert.Contains(t, m.View(), "RAD")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, evaluator.Degrees, m.Session().AngleMode())
}

func TestMemoryKeys(t *testing.T) {
	m := New(session.New())
	m = send(t, m, runes("7"), tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.Equal(t, 7.0, m.Session().Memory())
	assert.Contains(t, m.View(), "M=7")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc}, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, "7", m.Session().Display())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Zero(t, m.Session().Memory())
}

func TestErrorsAreShown(t *testing.T) {
	m := New(session.New())
	m = send(t, m, runes("1"), runes("/"), runes("0"), runes("="))

	assert.Equal(t, session.StateError, m.Session().State())
	view := m.View()
	assert.Contains(t, view, "Error")
	assert.Contains(t, view, "division by zero")
	assert.Empty(t, m.Tape())
}

func TestUnknownKeyStatus(t *testing.T) {
	m := New(session.New())
	m = send(t, m, runes("z"))
	assert.Contains(t, m.Status(), "unknown key")

	m = send(t, m, runes("1"))
	assert.Empty(t, m.Status())
}

func TestQuit(t *testing.T) {
	m := New(session.New())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestWindowResize(t *testing.T) {
	m := New(session.New())
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Equal(t, 78, m.width)
}

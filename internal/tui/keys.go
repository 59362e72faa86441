package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings that do not map one-to-one onto calculator keys.
type keyMap struct {
	Evaluate     key.Binding
	Clear        key.Binding
	Back         key.Binding
	Angle        key.Binding
	MemoryAdd    key.Binding
	MemorySub    key.Binding
	MemoryRecall key.Binding
	MemoryClear  key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Evaluate:     key.NewBinding(key.WithKeys("enter", "="), key.WithHelp("enter", "evaluate")),
		Clear:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear all")),
		Back:         key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "clear entry")),
		Angle:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "deg/rad")),
		MemoryAdd:    key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "M+")),
		MemorySub:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "M−")),
		MemoryRecall: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "MR")),
		MemoryClear:  key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "MC")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:         key.NewBinding(key.WithKeys("ctrl+c", "ctrl+d"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Evaluate, k.Clear, k.Angle, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Evaluate, k.Back, k.Clear, k.Angle},
		{k.MemoryAdd, k.MemorySub, k.MemoryRecall, k.MemoryClear},
		{k.Help, k.Quit},
	}
}

// shortcuts maps single letters onto calculator keys. Any other rune is
// passed to the session as is.
var shortcuts = map[string]string{
	"s": "sin",
	"c": "cos",
	"t": "tan",
	"l": "log",
	"n": "ln",
	"r": "√",
	"p": "π",
	"x": "×",
	"q": "x²",
}

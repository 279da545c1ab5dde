package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines key bindings used across the TUI.
type KeyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Quit     key.Binding

	// Analyzer form
	Submit    key.Binding
	CycleMode key.Binding
	YearsUp   key.Binding
	YearsDown key.Binding
	Dismiss   key.Binding
	Reset     key.Binding
}

// DefaultKeyMap provides the default key bindings for the TUI.
var DefaultKeyMap = KeyMap{
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

	Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "analyze")),
	CycleMode: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "cycle mode")),
	YearsUp:   key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "more years")),
	YearsDown: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "fewer years")),
	Dismiss:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss error")),
	Reset:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
}

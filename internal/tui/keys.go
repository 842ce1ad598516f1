package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the load confirmation screen.
type KeyMap struct {
	Yes    key.Binding
	No     key.Binding
	Toggle key.Binding
	Select key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "load"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N"),
			key.WithHelp("n", "cancel"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("left", "right", "h", "l", "tab"),
			key.WithHelp("←/→", "toggle"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// HelpText returns a formatted help string for the confirmation screen.
func (k KeyMap) HelpText() string {
	return "y load • n cancel • ←/→ toggle • enter confirm • q quit"
}

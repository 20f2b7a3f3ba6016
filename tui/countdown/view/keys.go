package view

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the countdown view.
type KeyMap struct {
	Start    key.Binding
	Pause    key.Binding
	Resume   key.Binding
	Toggle   key.Binding
	Stop     key.Binding
	Increase key.Binding
	Decrease key.Binding
	Quit     key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause"),
	),
	Resume: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "resume"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "space"),
		key.WithHelp("space", "toggle"),
	),
	Stop: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "stop"),
	),
	Increase: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "longer"),
	),
	Decrease: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "shorter"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp returns the bindings shown in the help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Start, k.Pause, k.Resume, k.Stop, k.Increase, k.Decrease, k.Quit}
}

// FullHelp is the same as ShortHelp; the view has a single help line.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

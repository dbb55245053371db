package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Strum    key.Binding
	BassDown key.Binding
	BassUp   key.Binding
	Release  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Strum: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "strum style"),
	),
	BassDown: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "lower bass"),
	),
	BassUp: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "raise bass"),
	),
	Release: key.NewBinding(
		key.WithKeys(" ", "space"),
		key.WithHelp("space", "release all"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Strum, k.BassDown, k.BassUp, k.Release, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Strum, k.BassDown, k.BassUp},
		{k.Release, k.Help, k.Quit},
	}
}

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Advance key.Binding
	Restart key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Advance, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Advance, k.Restart, k.Quit}}
}

var keys = keyMap{
	Advance: key.NewBinding(
		key.WithKeys("enter", " ", "right", "l"),
		key.WithHelp("enter/space", "next"),
	),
	Restart: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "play again"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

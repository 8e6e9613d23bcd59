package preview

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Prev  key.Binding
	Next  key.Binding
	First key.Binding
	Last  key.Binding
	Clear key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.First, k.Last},
		{k.Clear, k.Help, k.Quit},
	}
}

var defaultKeys = keyMap{
	Prev: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "previous state"),
	),
	Next: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next state"),
	),
	First: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("g", "first"),
	),
	Last: key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("G", "last"),
	),
	Clear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "hide tooltip"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Activate key.Binding
	NextTree key.Binding
	PrevTree key.Binding
	Copy     key.Binding
	Detail   key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Activate: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "expand/collapse")),
		NextTree: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tree")),
		PrevTree: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("S-tab", "prev tree")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy svg")),
		Detail:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "details")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Activate, k.NextTree, k.Copy, k.Detail, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.PrevTree}}
}

// domKey maps a terminal key press onto the key name an activation event
// carries.
func domKey(s string) string {
	switch s {
	case "enter":
		return "Enter"
	case " ", "space":
		return " "
	}
	return s
}

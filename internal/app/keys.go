package app

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Toggle   key.Binding
	Down     key.Binding
	Up       key.Binding
	View     key.Binding
	MarkRead key.Binding
	Bell     key.Binding
}

// No Escape binding: only the trigger or an outside click closes the panel.
func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "ctrl+d"), key.WithHelp("q", "quit")),
		Toggle:   key.NewBinding(key.WithKeys("n", " "), key.WithHelp("n", "notifications")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "move")),
		Up:       key.NewBinding(key.WithKeys("k", "up")),
		View:     key.NewBinding(key.WithKeys("v", "enter"), key.WithHelp("v", "view")),
		MarkRead: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "mark as read")),
		Bell:     key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bell")),
	}
}

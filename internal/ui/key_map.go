package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the progress display.
type keyMap struct {
	cancel key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		cancel: key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("ctrl+c", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.cancel}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.cancel}}
}

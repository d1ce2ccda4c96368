package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings for the dashboard.
// It implements the help.KeyMap interface for bubbles/help integration.
type keyMap struct {
	Quit       key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Overview   key.Binding
	CPU        key.Binding
	Memory     key.Binding
	Network    key.Binding
	Processes  key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	GoTop      key.Binding
	Sort       key.Binding
	Refresh    key.Binding
	Help       key.Binding
}

// ShortHelp returns the compact set of keybindings shown by default in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.NextTab, k.Sort, k.Quit}
}

// FullHelp returns the expanded keybinding groups shown when help is toggled.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Overview, k.CPU, k.Memory, k.Network, k.Processes},
		{k.ScrollUp, k.ScrollDown, k.GoTop, k.Sort},
		{k.Refresh, k.Help, k.Quit},
	}
}

// keys holds the default key bindings used by the application.
var keys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	NextTab:    key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab", "next tab")),
	PrevTab:    key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab", "prev tab")),
	Overview:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "overview")),
	CPU:        key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "cpu")),
	Memory:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "memory")),
	Network:    key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "network")),
	Processes:  key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "processes")),
	ScrollUp:   key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "scroll up")),
	ScrollDown: key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/dn", "scroll down")),
	GoTop:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort cpu/mem")),
	Refresh:    key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

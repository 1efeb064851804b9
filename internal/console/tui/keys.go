package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the console TUI.
type KeyMap struct {
	// Tab switching, direct and relative.
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	Tab4    key.Binding
	Tab5    key.Binding
	Tab6    key.Binding
	NextTab key.Binding
	PrevTab key.Binding

	// Row cursor on list tabs.
	Up   key.Binding
	Down key.Binding

	// Paging through the active list.
	NextPage key.Binding
	PrevPage key.Binding

	// Filters.
	Search      key.Binding // Enter search input (users tab).
	CycleFilter key.Binding // Cycle the tab's enumerated filter.

	// Mutations.
	Delete   key.Binding // Delete the selected user.
	Scan     key.Binding // Enter QR scan input (validation tab).
	Hours    key.Binding // Raise coupon validity (settings tab).
	HoursDec key.Binding // Lower coupon validity (settings tab).
	Machine  key.Binding // Toggle the vending machine (settings tab).

	Refresh key.Binding
	Escape  key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "dashboard"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "users"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "qr logs"),
	),
	Tab4: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "validation"),
	),
	Tab5: key.NewBinding(
		key.WithKeys("5"),
		key.WithHelp("5", "audit"),
	),
	Tab6: key.NewBinding(
		key.WithKeys("6"),
		key.WithHelp("6", "settings"),
	),
	NextTab: key.NewBinding(
		key.WithKeys("tab", "right"),
		key.WithHelp("Tab/→", "next tab"),
	),
	PrevTab: key.NewBinding(
		key.WithKeys("shift+tab", "left"),
		key.WithHelp("S-Tab/←", "previous tab"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("n", "pgdown"),
		key.WithHelp("n", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("p", "pgup"),
		key.WithHelp("p", "previous page"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	CycleFilter: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "cycle filter"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete user"),
	),
	Scan: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "validate QR"),
	),
	Hours: key.NewBinding(
		key.WithKeys("+"),
		key.WithHelp("+", "validity +1h"),
	),
	HoursDec: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "validity -1h"),
	),
	Machine: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "toggle machine"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter", "y"),
		key.WithHelp("Enter", "confirm"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

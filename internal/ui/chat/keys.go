// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines keyboard bindings for the DataWise interface and
// the help text shown in the ? overlay.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the DataWise interface.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Home       key.Binding
	End        key.Binding
	Submit     key.Binding
	Cancel     key.Binding
	NewSession key.Binding
	Sessions   key.Binding
	Upload     key.Binding
	Export     key.Binding
	Delete     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("Home", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("End", "go to bottom"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "ask"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel / close"),
		),
		NewSession: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new session"),
		),
		Sessions: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "sessions"),
		),
		Upload: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("C-u", "upload dataset"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export results"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "delete session"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// =============================================================================
// KEY BINDING HELPERS
// =============================================================================

// ShortHelp returns the bindings shown in the status bar help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Upload, k.Sessions, k.Help, k.Quit}
}

// FullHelp returns the bindings for the full help overlay, grouped.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Navigation
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		// Asking
		{k.Submit, k.Cancel, k.Export},
		// Data and sessions
		{k.Upload, k.NewSession, k.Sessions, k.Delete},
		// App
		{k.Help, k.Quit},
	}
}

// =============================================================================
// HELP OVERLAY DATA
// =============================================================================

// HelpItem is a single row in the help overlay.
type HelpItem struct {
	Key  string
	Desc string
}

// HelpSection groups help rows under a heading.
type HelpSection struct {
	Title string
	Items []HelpItem
}

// HelpSections returns the help overlay content in display order.
func HelpSections() []HelpSection {
	return []HelpSection{
		{
			Title: "Asking",
			Items: []HelpItem{
				{"Enter", "Ask a question about the uploaded data"},
				{"Esc", "Cancel the streaming answer"},
				{"C-e", "Export the latest result table to CSV"},
			},
		},
		{
			Title: "Data & sessions",
			Items: []HelpItem{
				{"C-u", "Upload a dataset (.csv, .xls, .xlsx)"},
				{"C-n", "Start a new session"},
				{"C-s", "Open the session picker"},
				{"C-d", "Delete the highlighted session (in picker)"},
			},
		},
		{
			Title: "Navigation",
			Items: []HelpItem{
				{"up/down", "Scroll the timeline"},
				{"PgUp/PgDn", "Page the timeline"},
				{"Home/End", "Jump to top / bottom"},
			},
		},
		{
			Title: "App",
			Items: []HelpItem{
				{"?", "Toggle this help"},
				{"C-c", "Quit"},
			},
		},
	}
}

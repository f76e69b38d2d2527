// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/datawise-tui/internal/ui/styles"
	"github.com/jeranaias/datawise-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the single-line footer: session, dataset state, and the
// key shortcuts that matter right now.
type StatusBar struct {
	SessionID    string
	UploadedFile string
	FileStale    bool
	Streaming    bool
	Width        int
}

// shortcut is one key hint in the footer.
type shortcut struct {
	key  string
	desc string
}

// View renders the status bar at the configured width.
func (s StatusBar) View(theme *styles.Theme) string {
	left := s.renderLeft(theme)
	right := s.renderShortcuts(theme)

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s StatusBar) renderLeft(theme *styles.Theme) string {
	var parts []string

	if s.SessionID != "" {
		parts = append(parts, theme.SessionMeta.Render("session "+util.TruncateRunes(s.SessionID, 8)))
	}

	switch {
	case s.UploadedFile == "":
		parts = append(parts, theme.SessionMeta.Render("no dataset"))
	case s.FileStale:
		parts = append(parts, theme.StaleBadge.Render(s.UploadedFile+" (changed on disk)"))
	default:
		parts = append(parts, theme.UploadBadge.Render(s.UploadedFile))
	}

	return strings.Join(parts, "  ")
}

func (s StatusBar) renderShortcuts(theme *styles.Theme) string {
	shortcuts := []shortcut{
		{"^U", "upload"},
		{"^S", "sessions"},
		{"^N", "new"},
	}
	if s.Streaming {
		shortcuts = append([]shortcut{{"esc", "cancel"}}, shortcuts...)
	} else {
		shortcuts = append(shortcuts, shortcut{"^E", "export"})
	}

	var parts []string
	for _, sc := range shortcuts {
		parts = append(parts, theme.ShortcutKey.Render(sc.key)+theme.ShortcutDesc.Render(" "+sc.desc))
	}
	return strings.Join(parts, "  ")
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/datawise-tui/internal/api"
	"github.com/jeranaias/datawise-tui/internal/ui/styles"
	"github.com/jeranaias/datawise-tui/internal/util"
)

// =============================================================================
// SESSION PICKER
// =============================================================================

// SessionList is the overlay for browsing and switching sessions.
type SessionList struct {
	sessions []api.SessionInfo
	cursor   int
	visible  bool
	width    int
}

// NewSessionList creates a hidden picker.
func NewSessionList() SessionList {
	return SessionList{}
}

// Show opens the picker with a fresh directory listing.
func (l *SessionList) Show(sessions []api.SessionInfo) {
	l.sessions = sessions
	l.cursor = 0
	l.visible = true
}

// Hide closes the picker.
func (l *SessionList) Hide() {
	l.visible = false
}

// Visible reports whether the picker is open.
func (l SessionList) Visible() bool {
	return l.visible
}

// SetWidth resizes the picker.
func (l *SessionList) SetWidth(width int) {
	l.width = width
}

// MoveUp moves the cursor up.
func (l *SessionList) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
}

// MoveDown moves the cursor down.
func (l *SessionList) MoveDown() {
	if l.cursor < len(l.sessions)-1 {
		l.cursor++
	}
}

// Selected returns the session under the cursor, or nil when empty.
func (l SessionList) Selected() *api.SessionInfo {
	if len(l.sessions) == 0 || l.cursor >= len(l.sessions) {
		return nil
	}
	return &l.sessions[l.cursor]
}

// Remove drops the session under the cursor from the listing after a
// delete.
func (l *SessionList) Remove() {
	if len(l.sessions) == 0 || l.cursor >= len(l.sessions) {
		return
	}
	l.sessions = append(l.sessions[:l.cursor], l.sessions[l.cursor+1:]...)
	if l.cursor >= len(l.sessions) && l.cursor > 0 {
		l.cursor--
	}
}

// View renders the picker.
func (l SessionList) View(theme *styles.Theme) string {
	if !l.visible {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(theme.HeaderTitle.Render("Sessions"))
	sb.WriteString("\n\n")

	if len(l.sessions) == 0 {
		sb.WriteString(theme.SessionMeta.Render("no sessions yet"))
	}

	for i, sess := range l.sessions {
		title := sess.Title
		if title == "" {
			title = util.TruncateRunes(sess.ID, 8)
		}
		line := util.TruncateWidth(title, 40)
		if !sess.CreatedAt.IsZero() {
			line += "  " + theme.SessionMeta.Render(sess.CreatedAt.Format("Jan 2 15:04"))
		}

		if i == l.cursor {
			sb.WriteString(theme.SessionItemSelected.Render("> " + line))
		} else {
			sb.WriteString(theme.SessionItem.Render("  " + line))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(theme.SessionMeta.Render("enter switch  d delete  esc close"))

	maxWidth := l.width - 4
	if maxWidth < 30 {
		maxWidth = 30
	}
	return theme.SessionList.MaxWidth(maxWidth).Render(sb.String())
}

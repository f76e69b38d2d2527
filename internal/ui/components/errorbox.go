// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/jeranaias/datawise-tui/internal/ui/styles"
)

// =============================================================================
// ERROR BANNER
// =============================================================================

// ErrorBanner is a dismissible inline error notice. Validation
// rejections and backend failures both surface through it.
type ErrorBanner struct {
	title     string
	message   string
	visible   bool
	createdAt time.Time
	width     int
}

// NewErrorBanner creates a hidden banner.
func NewErrorBanner() ErrorBanner {
	return ErrorBanner{}
}

// Show displays the banner with a title and message.
func (e *ErrorBanner) Show(title, message string) {
	e.title = title
	e.message = message
	e.visible = true
	e.createdAt = time.Now()
}

// Dismiss hides the banner.
func (e *ErrorBanner) Dismiss() {
	e.visible = false
}

// Visible reports whether the banner is showing.
func (e ErrorBanner) Visible() bool {
	return e.visible
}

// SetWidth resizes the banner.
func (e *ErrorBanner) SetWidth(width int) {
	e.width = width
}

// View renders the banner.
func (e ErrorBanner) View(theme *styles.Theme) string {
	if !e.visible {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(theme.ErrorTitle.Render(styles.StatusIndicators.Error + " " + e.title))
	if e.message != "" {
		sb.WriteString("\n")
		sb.WriteString(theme.ErrorMessage.Render(e.message))
	}
	sb.WriteString("\n")
	sb.WriteString(theme.SessionMeta.Render("esc to dismiss"))

	maxWidth := e.width - 4
	if maxWidth < 20 {
		maxWidth = 20
	}
	return theme.ErrorBox.MaxWidth(maxWidth).Render(sb.String())
}

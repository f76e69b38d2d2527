// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/datawise-tui/internal/ui/styles"
)

// =============================================================================
// UPLOAD PROGRESS BAR
// =============================================================================

// UploadBar shows the progress of the in-flight spreadsheet upload.
type UploadBar struct {
	bar      progress.Model
	filename string
	percent  int
	active   bool
}

// NewUploadBar creates an idle upload bar.
func NewUploadBar() UploadBar {
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)
	return UploadBar{bar: bar}
}

// Start begins tracking a new upload.
func (u *UploadBar) Start(path string) {
	u.filename = filepath.Base(path)
	u.percent = 0
	u.active = true
}

// SetPercent updates the transfer progress (0..100).
func (u *UploadBar) SetPercent(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	u.percent = pct
}

// Finish hides the bar.
func (u *UploadBar) Finish() {
	u.active = false
}

// Active reports whether an upload is being tracked.
func (u UploadBar) Active() bool {
	return u.active
}

// SetWidth resizes the bar.
func (u *UploadBar) SetWidth(width int) {
	w := width - 30
	if w < 10 {
		w = 10
	}
	u.bar.Width = w
}

// Update forwards animation messages to the underlying bar.
func (u UploadBar) Update(msg tea.Msg) (UploadBar, tea.Cmd) {
	model, cmd := u.bar.Update(msg)
	if bar, ok := model.(progress.Model); ok {
		u.bar = bar
	}
	return u, cmd
}

// View renders the bar with the filename and percentage.
func (u UploadBar) View(theme *styles.Theme) string {
	if !u.active {
		return ""
	}
	label := theme.ProgressLabel.Render("Uploading " + u.filename + "  ")
	pct := theme.ProgressLabel.Render("  " + strconv.Itoa(u.percent) + "%")
	return label + u.bar.ViewAs(float64(u.percent)/100.0) + pct
}

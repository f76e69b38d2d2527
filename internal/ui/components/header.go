// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/datawise-tui/internal/ui/styles"
)

// =============================================================================
// HEADER
// =============================================================================

// Header is the single-line application banner.
type Header struct {
	Title    string
	Subtitle string
	Width    int
}

// NewHeader creates the default DataWise header.
func NewHeader() Header {
	return Header{
		Title:    "DataWise",
		Subtitle: "ask your spreadsheet anything",
	}
}

// View renders the header at the configured width.
func (h Header) View(theme *styles.Theme) string {
	title := theme.HeaderTitle.Render(h.Title)
	subtitle := theme.HeaderSubtitle.Render(" " + h.Subtitle)

	line := title + subtitle
	if lipgloss.Width(line) > h.Width-4 {
		line = title
	}
	return theme.Header.Width(h.Width).Render(line)
}

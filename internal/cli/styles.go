// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - shared styling for all CLI command output.
//
// Color handling:
// - Colors are automatically disabled for non-TTY output (piped, redirected)
// - Respects NO_COLOR environment variable (https://no-color.org/)
package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/datawise-tui/internal/ui/styles"
)

// init configures the lipgloss color profile for CLI output.
func init() {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor || !IsStdoutTTY() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Blue).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)

	sqlStyle = lipgloss.NewStyle().
			Foreground(styles.Teal)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	metaStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)
)

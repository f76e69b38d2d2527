// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}

	// Spot-check that styles were initialized.
	if theme.ErrorTitle.GetBold() != true {
		t.Error("ErrorTitle should be bold")
	}
	if theme.SessionItemSelected.GetBold() != true {
		t.Error("SessionItemSelected should be bold")
	}
}

func TestThemeSetSize(t *testing.T) {
	theme := NewTheme()
	theme.SetSize(120, 40)

	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("SetSize = %dx%d, want 120x40", theme.Width, theme.Height)
	}
}

func TestThemeContentWidth(t *testing.T) {
	theme := NewTheme()

	theme.SetSize(100, 40)
	if got := theme.ContentWidth(); got != 96 {
		t.Errorf("ContentWidth() = %d, want 96", got)
	}

	// Narrow terminals clamp to a usable minimum.
	theme.SetSize(10, 40)
	if got := theme.ContentWidth(); got != 20 {
		t.Errorf("ContentWidth() = %d, want clamped 20", got)
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the DataWise TUI.
//
// All colors use Lip Gloss AdaptiveColor so the palette adjusts to
// light and dark terminals automatically. A Theme bundles every styled
// element the views need; construct one with NewTheme and resize it
// with SetSize as the terminal changes.
package styles

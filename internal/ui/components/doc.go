// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the
// DataWise TUI: the header, status bar, upload progress, result
// tables, SQL blocks, insight boxes, the session picker, and error
// banners. Components are pure view helpers; state lives in the chat
// model that renders them.
package components

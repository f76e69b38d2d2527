// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the chat timeline and its entries.
//
// The timeline is the single source of truth for what the user sees:
// an ordered list of question/answer entries, at most one of which is
// streaming at any time.
//
// # Key Types
//
//   - Timeline: Ordered entries for one session, with exclusive-stream
//     enforcement
//   - ChatEntry: Single entry with role, text, status, and the
//     structured analysis attached on completion
//   - ValidationError: Rejected local input (blank query, oversized
//     file) that never reaches the backend
//
// # Ownership
//
// A Timeline is owned by the UI event loop and is not safe for
// concurrent use. Stream events produced on other goroutines must be
// delivered to the loop as messages before being applied.
package model

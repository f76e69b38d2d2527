// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive DataWise view: the question
// input, the streaming answer timeline, upload progress, the session
// picker, and result export.
//
// The Bubble Tea update loop owns all mutable state. Work that blocks
// (streams, uploads, visualization, directory fetches) runs on
// goroutines and reports back through a buffered event channel that
// the loop drains as messages, so no lock is ever taken around the
// timeline.
package chat

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload coordinates spreadsheet uploads to the backend.
//
// The coordinator validates files locally before any bytes move,
// reports transfer progress, and guarantees that starting a new upload
// supersedes any upload still in flight: the superseded transfer is
// cancelled and none of its callbacks fire afterwards.
//
// A Watcher can track the selected file on disk and flag it as stale
// when it changes after upload, so the user knows the backend's copy
// no longer matches.
package upload

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local SQLite cache under ~/.datawise.
//
// The backend owns all durable chat data; this store only caches what
// the client needs to start fast and to browse offline:
//
//   - the session ID from the previous run (so a restart resumes the
//     same session)
//   - a mirror of the session directory
//   - the most recently fetched history per session
//
// Cache contents are always overwritten by fresh backend responses;
// nothing here is a source of truth.
package storage

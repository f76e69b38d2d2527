// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session resolves and tracks the analysis session identifier.
//
// Every backend call is scoped by a session ID. Resolution order at
// startup:
//
//  1. an explicit ID (command-line flag or session picker)
//  2. the ID cached from the previous run
//  3. a freshly generated UUID
//
// The manager also tracks per-session volatile state that must NOT
// survive a switch, such as whether a dataset has been uploaded for
// the current session.
package session

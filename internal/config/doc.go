// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and persists DataWise client configuration.
//
// Configuration lives under ~/.datawise as config.toml (preferred) or
// config.json (legacy). Load order:
//
//  1. built-in defaults
//  2. config.toml, falling back to config.json
//  3. DATAWISE_* environment variable overrides
//
// A Watcher can reload the file on change so edits apply without a
// restart.
package config

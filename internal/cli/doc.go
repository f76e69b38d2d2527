// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-TUI entry points: one-shot questions
// with "datawise ask", a line-oriented REPL with "datawise chat", and
// the session and upload subcommands. It is the fallback surface for
// piped output and terminals where the full-screen view is unwanted.
package cli

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the DataWise analysis backend.
//
// The backend exposes a small REST surface plus one streaming endpoint:
//
//   - POST /api/analysis/   multipart upload of a spreadsheet (session-scoped)
//   - POST /api/analysis/   JSON {query, session_id, stream:true} returning a
//     stream of "data: <json>\n\n" frames typed token/status/complete/error
//   - POST /api/visualize/  chart and insight generation for a result set
//   - POST /api/save-results/  CSV export of a result set
//   - GET  /api/chat-history/  persisted turns for a session
//   - GET/DELETE /api/chat-sessions/  session directory
//
// The streaming consumer buffers partial frames across read chunks and
// dispatches complete frames to typed callbacks. Exactly one terminal
// callback (complete or error) fires per non-cancelled stream; after
// cancellation no callbacks fire at all.
package api

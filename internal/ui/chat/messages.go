// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines all Bubble Tea message types used by the DataWise
// interface. Messages are organized into the following categories:
//   - Streaming: token batches, status updates, completion, and errors
//   - Upload: dataset upload progress and acknowledgement
//   - Visualization: chart suggestions arriving after completion
//   - Sessions: directory listing, history loads, deletion
//   - Export: saving a result table to disk
//
// All message types follow Bubble Tea conventions and are immutable.
// Events produced on goroutines enter the update loop through the
// model's event channel, never by mutating shared state.
package chat

import (
	"time"

	"github.com/jeranaias/datawise-tui/internal/api"
	"github.com/jeranaias/datawise-tui/internal/config"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// streamStatusMsg carries a server progress note ("Running SQL...").
type streamStatusMsg struct {
	EntryID string
	Status  string
}

// streamCompleteMsg signals that the analysis stream finished and
// carries the structured payload (result rows, SQL, explanation).
type streamCompleteMsg struct {
	EntryID string
	Payload api.AnalysisPayload
}

// streamErrorMsg signals that the stream ended with a failure.
type streamErrorMsg struct {
	EntryID string
	Message string
}

// frameTickMsg drives token buffer drains at the repaint cap while a
// stream is live.
type frameTickMsg struct {
	Time time.Time
}

// =============================================================================
// UPLOAD MESSAGES
// =============================================================================

// uploadProgressMsg reports transport progress for the active upload.
type uploadProgressMsg struct {
	Path    string
	Percent int
}

// uploadDoneMsg reports a finished upload and the server's table list.
type uploadDoneMsg struct {
	Path string
	Ack  api.UploadAck
}

// uploadErrorMsg reports an upload failure.
type uploadErrorMsg struct {
	Path    string
	Message string
}

// fileStaleMsg signals the uploaded file changed on disk after upload.
type fileStaleMsg struct {
	Path string
}

// =============================================================================
// VISUALIZATION MESSAGES
// =============================================================================

// vizReadyMsg attaches chart suggestions to a completed answer.
type vizReadyMsg struct {
	EntryID string
	Viz     *api.Visualization
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// sessionsLoadedMsg carries the session directory for the picker.
type sessionsLoadedMsg struct {
	Sessions []api.SessionInfo
	Err      error
}

// historyLoadedMsg carries past turns for the active session.
type historyLoadedMsg struct {
	SessionID string
	Turns     []api.HistoryTurn
	Err       error
}

// sessionDeletedMsg reports the outcome of a session delete.
type sessionDeletedMsg struct {
	SessionID string
	Err       error
}

// =============================================================================
// EXPORT MESSAGES
// =============================================================================

// exportDoneMsg reports where the result table was written, or why not.
type exportDoneMsg struct {
	Path string
	Err  error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a fresh configuration after the config file
// changed on disk. Exported: the file watcher lives outside the program
// and delivers it through tea.Program.Send.
type ConfigReloadedMsg struct {
	Config *config.Config
}

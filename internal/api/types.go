// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"sort"
	"time"
)

// =============================================================================
// STREAM EVENTS
// =============================================================================

// EventType identifies the kind of a stream frame.
type EventType string

const (
	// EventToken carries an incremental fragment of the explanation text.
	EventToken EventType = "token"
	// EventStatus carries a transient progress message ("Running query...").
	EventStatus EventType = "status"
	// EventComplete carries the final structured payload and ends the stream.
	EventComplete EventType = "complete"
	// EventError carries a server-side failure message and ends the stream.
	EventError EventType = "error"
)

// wireFrame is the JSON shape of a single stream frame.
type wireFrame struct {
	Type    string          `json:"type"`
	Content string          `json:"content,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// StreamCallbacks receives decoded stream events. Any callback may be nil,
// in which case the corresponding event type is silently dropped.
type StreamCallbacks struct {
	OnToken    func(text string)
	OnStatus   func(text string)
	OnComplete func(payload AnalysisPayload)
	OnError    func(message string)
}

func (cb StreamCallbacks) token(text string) {
	if cb.OnToken != nil {
		cb.OnToken(text)
	}
}

func (cb StreamCallbacks) status(text string) {
	if cb.OnStatus != nil {
		cb.OnStatus(text)
	}
}

func (cb StreamCallbacks) complete(payload AnalysisPayload) {
	if cb.OnComplete != nil {
		cb.OnComplete(payload)
	}
}

func (cb StreamCallbacks) error(message string) {
	if cb.OnError != nil {
		cb.OnError(message)
	}
}

// =============================================================================
// ANALYSIS PAYLOAD
// =============================================================================

// Row is one record of a structured result set.
type Row = map[string]any

// AnalysisPayload is the structured result carried by a complete event.
type AnalysisPayload struct {
	Explanation string `json:"explanation"`
	Results     []Row  `json:"results"`
	SQL         string `json:"sql,omitempty"`
}

// Columns returns the column names of the result set in a stable
// (sorted) order. JSON objects carry no column ordering, so a
// deterministic order is derived rather than trusting map iteration.
func (p *AnalysisPayload) Columns() []string {
	if len(p.Results) == 0 {
		return nil
	}
	cols := make([]string, 0, len(p.Results[0]))
	for k := range p.Results[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// RowCount returns the number of result rows.
func (p *AnalysisPayload) RowCount() int {
	return len(p.Results)
}

// =============================================================================
// VISUALIZATION
// =============================================================================

// ChartSpec describes one chart produced by the visualization endpoint.
// The renderer treats it as opaque configuration; only Type and Title are
// inspected client-side.
type ChartSpec struct {
	Type   string          `json:"type"`
	Title  string          `json:"title"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Visualization is the result of a visualization request.
type Visualization struct {
	Charts   []ChartSpec    `json:"charts"`
	Insights string         `json:"insights"`
	Summary  map[string]any `json:"summary"`
}

// visualizeRequest is the JSON body for POST /api/visualize/.
type visualizeRequest struct {
	Results  []Row  `json:"results"`
	Question string `json:"question"`
}

// =============================================================================
// UPLOAD
// =============================================================================

// UploadAck is the backend's acknowledgment of a successful upload.
type UploadAck struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Tables  []string `json:"tables,omitempty"`
}

// ProgressFunc reports upload progress as a percentage in 0..100.
type ProgressFunc func(percent int)

// =============================================================================
// HISTORY AND SESSIONS
// =============================================================================

// HistoryTurn is one persisted question/answer pair.
type HistoryTurn struct {
	ID        any       `json:"id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// historyResponse is the JSON shape of GET /api/chat-history/.
type historyResponse struct {
	History []HistoryTurn `json:"history"`
}

// SessionInfo is one entry of the session directory.
type SessionInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// queryRequest is the JSON body for the streaming analysis endpoint.
type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	Stream    bool   `json:"stream"`
}

// apiErrorResponse is the generic error body returned by the backend.
type apiErrorResponse struct {
	Error string `json:"error"`
}

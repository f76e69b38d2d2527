// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/datawise-tui/internal/api"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a timeline entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "DataWise"
	default:
		return string(r)
	}
}

// =============================================================================
// ENTRY STATUS
// =============================================================================

// EntryStatus tracks an assistant entry through its lifecycle.
// User entries are Complete from creation.
type EntryStatus string

const (
	// StatusStreaming means tokens are still arriving.
	StatusStreaming EntryStatus = "streaming"
	// StatusComplete means a terminal complete event landed.
	StatusComplete EntryStatus = "complete"
	// StatusFailed means a terminal error event (or local failure) landed.
	StatusFailed EntryStatus = "failed"
)

// =============================================================================
// CHAT ENTRY
// =============================================================================

// ChatEntry is a single item in the timeline: either a user question
// or the assistant answer paired with it.
type ChatEntry struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content. For assistant entries this accumulates streamed tokens
	// and is preserved verbatim on completion.
	Content string `json:"content"`

	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	streamContent strings.Builder

	Status EntryStatus `json:"status"`

	// StatusLine is the transient progress message ("Running query...").
	// It is display-only and cleared on any terminal transition.
	StatusLine string `json:"-"`

	// Structured analysis, set on completion (assistant entries only).
	SQL     string    `json:"sql,omitempty"`
	Results []api.Row `json:"results,omitempty"`
	Columns []string  `json:"columns,omitempty"`

	// Visualization is attached asynchronously after completion; it is
	// set at most once.
	Visualization *api.Visualization `json:"visualization,omitempty"`

	// ErrorMessage holds the failure text for StatusFailed entries.
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewUserEntry creates a completed user entry with a generated ID.
func NewUserEntry(content string) *ChatEntry {
	return &ChatEntry{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Status:    StatusComplete,
		Timestamp: time.Now(),
	}
}

// NewAssistantEntry creates the streaming answer entry paired with a
// user entry. Its ID is derived from the question's ID so the pair
// stays correlated across the stream's lifetime.
func NewAssistantEntry(userID string) *ChatEntry {
	return &ChatEntry{
		ID:        userID + "-a",
		Role:      RoleAssistant,
		Status:    StatusStreaming,
		Timestamp: time.Now(),
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// AppendToken appends a streamed fragment. Ignored once the entry has
// reached a terminal status.
func (e *ChatEntry) AppendToken(text string) {
	if e.IsTerminal() {
		return
	}
	e.streamContent.WriteString(text)
	e.Content = e.streamContent.String()
}

// SetStatusLine updates the transient progress message. Ignored once
// the entry has reached a terminal status.
func (e *ChatEntry) SetStatusLine(text string) {
	if e.IsTerminal() {
		return
	}
	e.StatusLine = text
}

// Complete transitions the entry to StatusComplete and attaches the
// structured payload. Text streamed so far is authoritative; the
// payload's explanation only fills in when nothing was streamed, so a
// backend that both streams and echoes the full text never duplicates
// it.
func (e *ChatEntry) Complete(p api.AnalysisPayload) {
	if e.IsTerminal() {
		return
	}
	e.Status = StatusComplete
	e.StatusLine = ""
	if e.Content == "" {
		e.Content = p.Explanation
	}
	e.SQL = p.SQL
	e.Results = p.Results
	e.Columns = p.Columns()
}

// Fail transitions the entry to StatusFailed. Partial streamed text is
// kept so the user can see how far the answer got.
func (e *ChatEntry) Fail(message string) {
	if e.IsTerminal() {
		return
	}
	e.Status = StatusFailed
	e.StatusLine = ""
	e.ErrorMessage = message
}

// AttachVisualization attaches charts to a completed entry. It is
// set-once: later attempts are ignored, as are attempts on entries
// that never completed.
func (e *ChatEntry) AttachVisualization(viz *api.Visualization) bool {
	if e.Status != StatusComplete || e.Visualization != nil || viz == nil {
		return false
	}
	e.Visualization = viz
	return true
}

// IsTerminal reports whether the entry finished streaming.
func (e *ChatEntry) IsTerminal() bool {
	return e.Status == StatusComplete || e.Status == StatusFailed
}

// HasResults reports whether the entry carries a non-empty result set.
func (e *ChatEntry) HasResults() bool {
	return len(e.Results) > 0
}

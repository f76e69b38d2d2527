// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/datawise-tui/internal/api"
)

// MaxEntries is the maximum number of timeline entries kept in memory.
// When exceeded, the oldest entries are pruned to prevent unbounded
// growth during long sessions.
const MaxEntries = 1000

// =============================================================================
// ERRORS
// =============================================================================

// ValidationError is a locally rejected input. It never reaches the
// backend and renders as an inline notice, not a failed entry.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// =============================================================================
// TIMELINE
// =============================================================================

// Timeline holds the ordered entries of one session. At most one
// assistant entry is streaming at any time; submissions while a stream
// is live are rejected rather than queued.
type Timeline struct {
	// Identity
	SessionID string
	UpdatedAt time.Time

	entries []*ChatEntry

	// streamingID is the ID of the live assistant entry, or "" when
	// the timeline is idle. Stale stream events (after a session
	// switch or cancel) target an ID that no longer matches and are
	// dropped.
	streamingID string
}

// NewTimeline creates an empty timeline for a session.
func NewTimeline(sessionID string) *Timeline {
	return &Timeline{
		SessionID: sessionID,
		UpdatedAt: time.Now(),
		entries:   make([]*ChatEntry, 0),
	}
}

// Entries returns the entries in display order. The slice is shared;
// callers must not mutate it.
func (t *Timeline) Entries() []*ChatEntry {
	return t.entries
}

// Len returns the number of entries.
func (t *Timeline) Len() int {
	return len(t.entries)
}

// IsStreaming reports whether an answer is currently in flight.
func (t *Timeline) IsStreaming() bool {
	return t.streamingID != ""
}

// StreamingID returns the ID of the live assistant entry, or "".
func (t *Timeline) StreamingID() string {
	return t.streamingID
}

// =============================================================================
// SUBMISSION
// =============================================================================

// SubmitQuery validates a question and appends the user/assistant pair
// atomically. Returns the new assistant entry, whose ID routes the
// stream events that follow.
func (t *Timeline) SubmitQuery(query string) (*ChatEntry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &ValidationError{Field: "query", Message: "question cannot be empty"}
	}
	if t.IsStreaming() {
		return nil, &ValidationError{Field: "query", Message: "an answer is already in progress"}
	}

	user := NewUserEntry(query)
	assistant := NewAssistantEntry(user.ID)

	t.entries = append(t.entries, user, assistant)
	t.streamingID = assistant.ID
	t.UpdatedAt = time.Now()
	t.prune()
	return assistant, nil
}

// =============================================================================
// STREAM EVENT APPLICATION
// =============================================================================

// find returns the entry with the given ID, or nil.
func (t *Timeline) find(id string) *ChatEntry {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].ID == id {
			return t.entries[i]
		}
	}
	return nil
}

// live returns the entry only if it is the current stream target.
// Events addressed to any other ID are stale and dropped.
func (t *Timeline) live(id string) *ChatEntry {
	if id == "" || id != t.streamingID {
		return nil
	}
	return t.find(id)
}

// ApplyToken appends a streamed fragment to the live entry. Returns
// false for stale events.
func (t *Timeline) ApplyToken(id, text string) bool {
	e := t.live(id)
	if e == nil {
		return false
	}
	e.AppendToken(text)
	t.UpdatedAt = time.Now()
	return true
}

// ApplyStatus updates the live entry's transient progress line.
func (t *Timeline) ApplyStatus(id, text string) bool {
	e := t.live(id)
	if e == nil {
		return false
	}
	e.SetStatusLine(text)
	return true
}

// ApplyComplete finishes the live entry with the structured payload
// and returns the timeline to idle.
func (t *Timeline) ApplyComplete(id string, p api.AnalysisPayload) bool {
	e := t.live(id)
	if e == nil {
		return false
	}
	e.Complete(p)
	t.streamingID = ""
	t.UpdatedAt = time.Now()
	return true
}

// ApplyError fails the live entry and returns the timeline to idle.
func (t *Timeline) ApplyError(id, message string) bool {
	e := t.live(id)
	if e == nil {
		return false
	}
	e.Fail(message)
	t.streamingID = ""
	t.UpdatedAt = time.Now()
	return true
}

// AttachVisualization attaches charts to a completed entry by ID.
// Unlike stream events this is not restricted to the live entry:
// visualization arrives after completion by design.
func (t *Timeline) AttachVisualization(id string, viz *api.Visualization) bool {
	e := t.find(id)
	if e == nil {
		return false
	}
	if ok := e.AttachVisualization(viz); !ok {
		return false
	}
	t.UpdatedAt = time.Now()
	return true
}

// CancelStream marks the live entry as failed with a local message and
// returns its ID, or "" if nothing was streaming. The caller is
// responsible for cancelling the transport context.
func (t *Timeline) CancelStream(message string) string {
	id := t.streamingID
	if id == "" {
		return ""
	}
	t.ApplyError(id, message)
	return id
}

// =============================================================================
// HISTORY
// =============================================================================

// HistoryTurn is one persisted question/answer pair, already in
// chronological order.
type HistoryTurn struct {
	Query     string
	Response  string
	CreatedAt time.Time
}

// LoadHistory replaces the timeline's entries with persisted turns.
// Rejected while a stream is live: history loads happen on session
// switch, which must cancel the stream first.
func (t *Timeline) LoadHistory(turns []HistoryTurn) error {
	if t.IsStreaming() {
		return &ValidationError{Message: "cannot load history while an answer is streaming"}
	}

	entries := make([]*ChatEntry, 0, len(turns)*2)
	for _, turn := range turns {
		user := NewUserEntry(turn.Query)
		assistant := NewAssistantEntry(user.ID)
		assistant.Content = turn.Response
		assistant.Status = StatusComplete
		if !turn.CreatedAt.IsZero() {
			user.Timestamp = turn.CreatedAt
			assistant.Timestamp = turn.CreatedAt
		}
		entries = append(entries, user, assistant)
	}

	t.entries = entries
	t.UpdatedAt = time.Now()
	return nil
}

// Reset clears all entries and any live stream marker. Used when
// switching to a fresh session.
func (t *Timeline) Reset(sessionID string) {
	t.SessionID = sessionID
	t.entries = t.entries[:0]
	t.streamingID = ""
	t.UpdatedAt = time.Now()
}

// prune drops the oldest entries past MaxEntries, always in pairs so a
// question is never separated from its answer.
func (t *Timeline) prune() {
	if len(t.entries) <= MaxEntries {
		return
	}
	excess := len(t.entries) - MaxEntries
	if excess%2 != 0 {
		excess++
	}
	t.entries = t.entries[excess:]
}

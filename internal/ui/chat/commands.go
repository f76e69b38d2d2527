// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the tea.Cmd constructors that run blocking work
// off the update loop: streaming, uploads, session directory fetches,
// history loads, and CSV export.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/datawise-tui/internal/api"
	"github.com/jeranaias/datawise-tui/internal/model"
	"github.com/jeranaias/datawise-tui/internal/upload"
	"github.com/jeranaias/datawise-tui/internal/util"
)

// =============================================================================
// EVENT PUMP
// =============================================================================

// waitForEvent blocks on the event channel and hands the next
// goroutine result to Update. Reissued after every delivery.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// =============================================================================
// STREAMING
// =============================================================================

// startStreamCmd launches the analysis stream for a submitted question.
// Tokens go straight into the streaming buffer; everything else crosses
// back through the event channel. A cancelled stream produces nothing.
func (m *Model) startStreamCmd(entryID, query, sessionID string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.set(cancel)

	buf := m.streamBuf
	events := m.events
	client := m.client
	logger := m.logger

	go func() {
		defer cancel()

		err := client.StreamQuery(ctx, query, sessionID, api.StreamCallbacks{
			OnToken: func(text string) {
				buf.Write(text)
			},
			OnStatus: func(text string) {
				events <- streamStatusMsg{EntryID: entryID, Status: text}
			},
			OnComplete: func(payload api.AnalysisPayload) {
				events <- streamCompleteMsg{EntryID: entryID, Payload: payload}
			},
			OnError: func(message string) {
				events <- streamErrorMsg{EntryID: entryID, Message: message}
			},
		})
		if err != nil && logger != nil {
			// Cancellation lands here; terminal events were already
			// delivered through the callbacks for everything else.
			logger.Printf("stream ended: %v", err)
		}
	}()

	return frameTickCmd()
}

// =============================================================================
// SESSIONS AND HISTORY
// =============================================================================

// loadHistoryCmd fetches past turns for a session, preferring the
// server and falling back to the local cache when offline.
func (m *Model) loadHistoryCmd(sessionID string) tea.Cmd {
	client := m.client
	store := m.store

	return func() tea.Msg {
		turns, err := client.History(context.Background(), sessionID)
		if err == nil {
			if store != nil {
				if cacheErr := store.CacheHistory(sessionID, turns); cacheErr != nil && m.logger != nil {
					m.logger.Printf("history cache write failed: %v", cacheErr)
				}
			}
			return historyLoadedMsg{SessionID: sessionID, Turns: turns}
		}
		if store != nil {
			if cached, cacheErr := store.CachedHistory(sessionID); cacheErr == nil && len(cached) > 0 {
				return historyLoadedMsg{SessionID: sessionID, Turns: cached}
			}
		}
		return historyLoadedMsg{SessionID: sessionID, Err: err}
	}
}

// loadSessionsCmd fetches the session directory for the picker,
// mirroring it into the local cache for offline listing.
func (m *Model) loadSessionsCmd() tea.Cmd {
	client := m.client
	store := m.store

	return func() tea.Msg {
		sessions, err := client.ListSessions(context.Background())
		if err == nil {
			if store != nil {
				if mirrorErr := store.MirrorSessions(sessions); mirrorErr != nil && m.logger != nil {
					m.logger.Printf("session mirror failed: %v", mirrorErr)
				}
			}
			return sessionsLoadedMsg{Sessions: sessions}
		}
		if store != nil {
			if cached, cacheErr := store.Sessions(); cacheErr == nil && len(cached) > 0 {
				return sessionsLoadedMsg{Sessions: cached}
			}
		}
		return sessionsLoadedMsg{Err: err}
	}
}

// deleteSessionCmd removes a session on the server and from the cache.
func (m *Model) deleteSessionCmd(id string) tea.Cmd {
	client := m.client
	store := m.store

	return func() tea.Msg {
		if err := client.DeleteSession(context.Background(), id); err != nil {
			return sessionDeletedMsg{SessionID: id, Err: err}
		}
		if store != nil {
			if err := store.DeleteSession(id); err != nil && m.logger != nil {
				m.logger.Printf("cache delete failed: %v", err)
			}
		}
		return sessionDeletedMsg{SessionID: id}
	}
}

// =============================================================================
// UPLOAD
// =============================================================================

// startUploadCmd hands a dataset path to the upload coordinator. The
// coordinator validates synchronously; transfer events arrive through
// the channel.
func (m *Model) startUploadCmd(path string) tea.Cmd {
	events := m.events
	uploads := m.uploads
	sessionID := m.sessions.Current()

	return func() tea.Msg {
		err := uploads.Start(context.Background(), path, sessionID, upload.Events{
			OnProgress: func(percent int) {
				events <- uploadProgressMsg{Path: path, Percent: percent}
			},
			OnDone: func(ack api.UploadAck) {
				events <- uploadDoneMsg{Path: path, Ack: ack}
			},
			OnError: func(message string) {
				events <- uploadErrorMsg{Path: path, Message: message}
			},
		})
		if err != nil {
			return uploadErrorMsg{Path: path, Message: err.Error()}
		}
		return nil
	}
}

// =============================================================================
// EXPORT
// =============================================================================

// exportCmd saves the newest completed result table. The server
// normalizes the rows to CSV; the bytes land next to the binary as
// results_<timestamp>.csv.
func (m *Model) exportCmd(entry *model.ChatEntry) tea.Cmd {
	client := m.client
	rows := entry.Results

	return func() tea.Msg {
		data, err := client.SaveResults(context.Background(), rows)
		if err != nil {
			return exportDoneMsg{Err: err}
		}
		path := fmt.Sprintf("results_%d.csv", time.Now().UnixMilli())
		if err := util.AtomicWriteFile(path, data, 0o644); err != nil {
			return exportDoneMsg{Err: err}
		}
		return exportDoneMsg{Path: path}
	}
}

// latestResultEntry returns the most recent completed answer that
// carries a result table, or nil.
func (m *Model) latestResultEntry() *model.ChatEntry {
	entries := m.timeline.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].HasResults() {
			return entries[i]
		}
	}
	return nil
}

// historyTurns converts wire turns to timeline turns, dropping blanks.
func historyTurns(turns []api.HistoryTurn) []model.HistoryTurn {
	out := make([]model.HistoryTurn, 0, len(turns))
	for _, t := range turns {
		if strings.TrimSpace(t.Query) == "" {
			continue
		}
		out = append(out, model.HistoryTurn{
			Query:     t.Query,
			Response:  t.Response,
			CreatedAt: t.CreatedAt,
		})
	}
	return out
}

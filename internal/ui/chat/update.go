// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file handles all Bubble Tea message dispatch. Keyboard handling
// branches on the view state; stream, upload, and session events apply
// to the timeline and schedule a repaint.
package chat

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/datawise-tui/internal/config"
	"github.com/jeranaias/datawise-tui/internal/model"
	"github.com/jeranaias/datawise-tui/internal/ui/components"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update is the single entry point for all messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameTickMsg:
		return m, m.handleFrameTick()

	case streamStatusMsg:
		if m.timeline.ApplyStatus(msg.EntryID, msg.Status) {
			m.spin.SetMessage(msg.Status)
			m.refreshViewport()
		}
		return m, m.waitForEvent()

	case streamCompleteMsg:
		return m, tea.Batch(m.handleStreamComplete(msg), m.waitForEvent())

	case streamErrorMsg:
		m.handleStreamError(msg)
		return m, m.waitForEvent()

	case uploadProgressMsg:
		m.uploadBar.SetPercent(msg.Percent)
		return m, m.waitForEvent()

	case uploadDoneMsg:
		m.handleUploadDone(msg)
		return m, m.waitForEvent()

	case uploadErrorMsg:
		m.uploadBar.Finish()
		m.errBanner.Show("upload failed", msg.Message)
		return m, m.waitForEvent()

	case fileStaleMsg:
		m.fileStale = true
		return m, m.waitForEvent()

	case vizReadyMsg:
		if m.timeline.AttachVisualization(msg.EntryID, msg.Viz) {
			delete(m.renderCache, msg.EntryID)
			m.refreshViewport()
		}
		return m, m.waitForEvent()

	case sessionsLoadedMsg:
		if msg.Err != nil {
			m.errBanner.Show("sessions unavailable", msg.Err.Error())
			m.state = StateReady
			return m, nil
		}
		m.sessionList.Show(msg.Sessions)
		m.state = StatePicking
		return m, nil

	case historyLoadedMsg:
		m.handleHistoryLoaded(msg)
		return m, nil

	case sessionDeletedMsg:
		return m, m.handleSessionDeleted(msg)

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		return m, nil

	case exportDoneMsg:
		if msg.Err != nil {
			m.errBanner.Show("export failed", msg.Err.Error())
		} else {
			m.statusNote = "saved " + msg.Path
		}
		return m, nil
	}

	// Component ticks (spinner frames, progress animation).
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	cmds = append(cmds, cmd)
	m.uploadBar, cmd = m.uploadBar.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// =============================================================================
// RESIZE
// =============================================================================

func (m *Model) handleResize(msg tea.WindowSizeMsg) tea.Cmd {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	// Header, input, status bar, and upload strip take fixed rows.
	chromeRows := 6
	vpHeight := msg.Height - chromeRows
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = vpHeight
	m.input.Width = msg.Width - 4
	m.uploadBar.SetWidth(msg.Width - 4)
	m.sessionList.SetWidth(msg.Width - 8)
	m.errBanner.SetWidth(msg.Width - 4)

	m.rebuildMarkdown()
	m.refreshViewport()
	m.ready = true
	return nil
}

// =============================================================================
// KEYBOARD
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		m.Close()
		return m, tea.Quit
	}

	if m.helpOpen {
		m.helpOpen = false
		return m, nil
	}

	if m.errBanner.Visible() && key.Matches(msg, m.keyMap.Cancel) {
		m.errBanner.Dismiss()
		return m, nil
	}

	switch m.state {
	case StatePicking:
		return m.handlePickerKey(msg)
	case StateUploading:
		return m.handleUploadKey(msg)
	case StateStreaming:
		return m.handleStreamingKey(msg)
	default:
		return m.handleReadyKey(msg)
	}
}

func (m *Model) handleReadyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m, m.submitQuery()

	case key.Matches(msg, m.keyMap.Upload):
		m.state = StateUploading
		m.input.Reset()
		m.input.Placeholder = "path to .csv, .xls, or .xlsx..."
		return m, nil

	case key.Matches(msg, m.keyMap.Sessions):
		return m, m.loadSessionsCmd()

	case key.Matches(msg, m.keyMap.NewSession):
		m.startNewSession()
		return m, nil

	case key.Matches(msg, m.keyMap.Export):
		entry := m.latestResultEntry()
		if entry == nil {
			m.errBanner.Show("nothing to export", "ask a question that returns rows first")
			return m, nil
		}
		return m, m.exportCmd(entry)

	case key.Matches(msg, m.keyMap.Help):
		m.helpOpen = true
		return m, nil

	case key.Matches(msg, m.keyMap.Up), key.Matches(msg, m.keyMap.Down),
		key.Matches(msg, m.keyMap.PageUp), key.Matches(msg, m.keyMap.PageDown),
		key.Matches(msg, m.keyMap.Home), key.Matches(msg, m.keyMap.End):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleStreamingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Cancel) {
		m.cancelStream()
		return m, nil
	}

	// Scrolling stays available while an answer streams.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		m.sessionList.Hide()
		m.state = StateReady
		return m, nil

	case key.Matches(msg, m.keyMap.Up):
		m.sessionList.MoveUp()
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.sessionList.MoveDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Delete):
		if sel := m.sessionList.Selected(); sel != nil {
			return m, m.deleteSessionCmd(sel.ID)
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		sel := m.sessionList.Selected()
		m.sessionList.Hide()
		m.state = StateReady
		if sel == nil || sel.ID == m.sessions.Current() {
			return m, nil
		}
		return m, m.switchSession(sel.ID)
	}
	return m, nil
}

func (m *Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		m.state = StateReady
		m.resetInput()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		path := strings.TrimSpace(m.input.Value())
		m.state = StateReady
		m.resetInput()
		if path == "" {
			return m, nil
		}
		// A new dataset invalidates the running conversation: the old
		// timeline belongs to the previous dataset's session.
		if m.timeline.Len() > 0 {
			m.startNewSession()
		}
		m.uploadBar.Start(filepath.Base(path))
		return m, m.startUploadCmd(path)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// STREAM EVENTS
// =============================================================================

// submitQuery appends the question/answer pair and starts the stream.
// Questions are rejected until the session has a dataset: the backend
// has nothing to query without one.
func (m *Model) submitQuery() tea.Cmd {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return nil // blank input is a silent no-op
	}

	if !m.sessions.HasUpload() {
		err := &model.ValidationError{Field: "file", Message: "upload a dataset with ctrl+u before asking a question"}
		m.errBanner.Show("no dataset", err.Error())
		return nil
	}

	entry, err := m.timeline.SubmitQuery(query)
	if err != nil {
		m.errBanner.Show("cannot ask", err.Error())
		return nil
	}

	m.resetInput()
	m.state = StateStreaming
	m.pendingQuery = query
	m.streamBuf.Reset()
	m.sessions.RecordActivity()
	m.refreshViewport()

	return tea.Batch(
		m.startStreamCmd(entry.ID, query, m.sessions.Current()),
		m.spin.Start("Thinking..."),
	)
}

// handleFrameTick drains batched tokens into the live entry and keeps
// the tick running while the stream is live.
func (m *Model) handleFrameTick() tea.Cmd {
	if !m.timeline.IsStreaming() {
		return nil
	}
	if chunk, ok := m.streamBuf.Flush(); ok {
		m.timeline.ApplyToken(m.timeline.StreamingID(), chunk)
		m.refreshViewport()
	}
	return frameTickCmd()
}

func (m *Model) handleStreamComplete(msg streamCompleteMsg) tea.Cmd {
	if msg.EntryID != m.timeline.StreamingID() {
		return nil // stale stream; the buffer belongs to a newer question
	}
	if chunk, ok := m.streamBuf.ForceFlush(); ok {
		m.timeline.ApplyToken(msg.EntryID, chunk)
	}
	if !m.timeline.ApplyComplete(msg.EntryID, msg.Payload) {
		return nil
	}

	m.state = StateReady
	m.spin.Stop()
	m.cancelMgr.cancel()
	delete(m.renderCache, msg.EntryID)
	m.refreshViewport()

	// Chart suggestions arrive asynchronously for answers with rows.
	if len(msg.Payload.Results) > 0 {
		m.charts.Request(context.Background(), msg.EntryID, m.pendingQuery, msg.Payload.Results)
	}
	return nil
}

func (m *Model) handleStreamError(msg streamErrorMsg) {
	if msg.EntryID != m.timeline.StreamingID() {
		return // stale stream; the buffer belongs to a newer question
	}
	if chunk, ok := m.streamBuf.ForceFlush(); ok {
		m.timeline.ApplyToken(msg.EntryID, chunk)
	}
	if !m.timeline.ApplyError(msg.EntryID, msg.Message) {
		return
	}
	m.state = StateReady
	m.spin.Stop()
	m.cancelMgr.cancel()
	m.errBanner.Show("analysis failed", msg.Message)
	delete(m.renderCache, msg.EntryID)
	m.refreshViewport()
}

// cancelStream aborts the in-flight answer, keeping partial text.
func (m *Model) cancelStream() {
	m.cancelMgr.cancel()
	if chunk, ok := m.streamBuf.ForceFlush(); ok {
		m.timeline.ApplyToken(m.timeline.StreamingID(), chunk)
	}
	if id := m.timeline.CancelStream("cancelled"); id != "" {
		delete(m.renderCache, id)
	}
	m.state = StateReady
	m.spin.Stop()
	m.refreshViewport()
}

// =============================================================================
// UPLOAD EVENTS
// =============================================================================

func (m *Model) handleUploadDone(msg uploadDoneMsg) {
	m.uploadBar.Finish()
	m.fileStale = false
	m.sessions.MarkUploaded(filepath.Base(msg.Path))

	if len(msg.Ack.Tables) > 0 {
		m.statusNote = "loaded tables: " + strings.Join(msg.Ack.Tables, ", ")
	} else if msg.Ack.Message != "" {
		m.statusNote = msg.Ack.Message
	}

	if m.watcher != nil {
		if err := m.watcher.Watch(msg.Path); err != nil && m.logger != nil {
			m.logger.Printf("cannot watch %s: %v", msg.Path, err)
		}
	}
}

// =============================================================================
// SESSION EVENTS
// =============================================================================

func (m *Model) handleHistoryLoaded(msg historyLoadedMsg) {
	if msg.SessionID != m.sessions.Current() {
		return // switched away while the fetch was in flight
	}
	if msg.Err != nil {
		// A brand-new session has no history; nothing to show.
		if m.logger != nil {
			m.logger.Printf("history unavailable for %s: %v", msg.SessionID, msg.Err)
		}
		return
	}
	if err := m.timeline.LoadHistory(historyTurns(msg.Turns)); err != nil {
		if m.logger != nil {
			m.logger.Printf("history rejected: %v", err)
		}
		return
	}
	m.renderCache = make(map[string]string)
	m.refreshViewport()
	m.viewport.GotoBottom()
}

func (m *Model) handleSessionDeleted(msg sessionDeletedMsg) tea.Cmd {
	if msg.Err != nil {
		m.errBanner.Show("delete failed", msg.Err.Error())
		return nil
	}
	if msg.SessionID == m.sessions.Current() {
		m.startNewSession()
	}
	if m.state == StatePicking {
		return m.loadSessionsCmd()
	}
	return nil
}

// switchSession cancels any live stream, swaps the active session, and
// loads the target's history. Upload state never crosses sessions.
func (m *Model) switchSession(id string) tea.Cmd {
	if m.timeline.IsStreaming() {
		m.cancelStream()
	}
	m.uploads.Cancel()
	m.sessions.Switch(id)
	m.timeline.Reset(id)
	m.resetUploadBar()
	m.fileStale = false
	m.statusNote = ""
	m.renderCache = make(map[string]string)
	m.refreshViewport()
	return m.loadHistoryCmd(id)
}

// startNewSession begins a blank session locally; the server learns
// the ID on the first request that carries it.
func (m *Model) startNewSession() {
	if m.timeline.IsStreaming() {
		m.cancelStream()
	}
	m.uploads.Cancel()
	id := m.sessions.StartNew()
	m.timeline.Reset(id)
	m.resetUploadBar()
	m.fileStale = false
	m.statusNote = ""
	m.renderCache = make(map[string]string)
	m.refreshViewport()
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) resetInput() {
	m.input.Reset()
	m.input.Placeholder = "ask a question about your data..."
}

// applyConfig swaps in a reloaded configuration. The render cache is
// dropped so ShowSQL, MaxTableRows, theme, and compact mode take
// effect on the next repaint.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.cfg = cfg
	m.uploads.SetMaxFileSize(int64(cfg.Upload.MaxSizeMB) << 20)
	m.rebuildMarkdown()
	m.refreshViewport()
}

func (m *Model) resetUploadBar() {
	m.uploadBar = components.NewUploadBar()
	if m.width > 4 {
		m.uploadBar.SetWidth(m.width - 4)
	}
}

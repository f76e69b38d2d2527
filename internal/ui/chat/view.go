// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file renders the DataWise screen: header, answer timeline,
// input line, upload strip, and status bar. Completed answers are
// rendered once through glamour and cached by entry ID; streaming text
// is drawn raw so repaints stay cheap at 30fps.
package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/datawise-tui/internal/model"
	"github.com/jeranaias/datawise-tui/internal/ui/components"
)

// =============================================================================
// TOP-LEVEL VIEW
// =============================================================================

// View renders the whole screen.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.header.View(m.theme))
	b.WriteString("\n")

	if m.helpOpen {
		b.WriteString(m.renderHelp())
	} else if m.sessionList.Visible() {
		b.WriteString(m.sessionList.View(m.theme))
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	if m.errBanner.Visible() {
		b.WriteString(m.errBanner.View(m.theme))
		b.WriteString("\n")
	}
	if m.uploadBar.Active() {
		b.WriteString(m.uploadBar.View(m.theme))
		b.WriteString("\n")
	}

	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderInput() string {
	prompt := m.theme.InputPrompt.Render("> ")
	return m.theme.InputContainer.Width(m.width - 2).Render(prompt + m.input.View())
}

func (m *Model) renderStatusBar() string {
	bar := components.StatusBar{
		SessionID:    m.sessions.Current(),
		UploadedFile: m.sessions.UploadedFile(),
		FileStale:    m.fileStale,
		Streaming:    m.state == StateStreaming,
		Width:        m.width,
	}
	out := bar.View(m.theme)
	if m.statusNote != "" {
		out += "\n" + m.theme.InfoStyle.Render(m.statusNote)
	}
	return out
}

// =============================================================================
// TIMELINE RENDERING
// =============================================================================

// refreshViewport re-renders the timeline into the viewport, pinning
// the view to the bottom while an answer streams.
func (m *Model) refreshViewport() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTimeline())
	if atBottom || m.state == StateStreaming {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderTimeline() string {
	entries := m.timeline.Entries()
	if len(entries) == 0 {
		return m.theme.InfoStyle.Render(
			"Upload a dataset with C-u, then ask a question about it.")
	}

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, m.renderEntry(e))
	}
	sep := "\n\n"
	if m.cfg.UI.CompactMode {
		sep = "\n"
	}
	return strings.Join(parts, sep)
}

func (m *Model) renderEntry(e *model.ChatEntry) string {
	if e.Role == model.RoleUser {
		bubble := m.theme.UserBubble.Width(m.bubbleWidth()).Render(e.Content)
		if m.cfg.UI.CompactMode {
			return bubble
		}
		return m.entryLabel(e) + "\n" + bubble
	}
	return m.renderAssistant(e)
}

// entryLabel renders "You 15:04" / "DataWise 15:04" above a bubble.
func (m *Model) entryLabel(e *model.ChatEntry) string {
	name := m.theme.ShortcutKey.Render(e.Role.DisplayName())
	return name + " " + m.theme.SessionMeta.Render(formatTimestamp(e.Timestamp))
}

func (m *Model) renderAssistant(e *model.ChatEntry) string {
	var body string
	switch e.Status {
	case model.StatusStreaming:
		body = m.renderStreaming(e)
	case model.StatusFailed:
		body = m.renderFailed(e)
	default:
		body = m.renderCompleted(e)
	}
	if m.cfg.UI.CompactMode {
		return body
	}
	return m.entryLabel(e) + "\n" + body
}

func (m *Model) renderStreaming(e *model.ChatEntry) string {
	var b strings.Builder
	if e.Content != "" {
		b.WriteString(m.theme.StreamingText.Width(m.bubbleWidth()).Render(e.Content))
		b.WriteString("\n")
	}
	line := m.spin.View(m.theme)
	if e.StatusLine != "" {
		line = m.spin.View(m.theme) + " " + m.theme.StatusLine.Render(e.StatusLine)
	}
	b.WriteString(line)
	return b.String()
}

func (m *Model) renderFailed(e *model.ChatEntry) string {
	var b strings.Builder
	if e.Content != "" {
		b.WriteString(m.theme.StreamingText.Width(m.bubbleWidth()).Render(e.Content))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.ErrorMessage.Render("x " + e.ErrorMessage))
	return b.String()
}

// renderCompleted draws the full answer: explanation, SQL, result
// table, and chart suggestions. Cached per entry.
func (m *Model) renderCompleted(e *model.ChatEntry) string {
	if cached, ok := m.renderCache[e.ID]; ok {
		return cached
	}

	var b strings.Builder
	b.WriteString(m.renderMarkdown(e.Content))

	if m.cfg.UI.ShowSQL && e.SQL != "" {
		block := components.NewSQLBlock(e.SQL)
		block.SetMaxWidth(m.bubbleWidth())
		b.WriteString("\n")
		b.WriteString(block.Render(m.theme))
	}

	if e.HasResults() {
		table := components.NewResultTable(e.Columns, e.Results)
		table.MaxRows = m.cfg.UI.MaxTableRows
		table.MaxWidth = m.bubbleWidth()
		b.WriteString("\n")
		b.WriteString(table.Render(m.theme))
	}

	if e.Visualization != nil {
		b.WriteString("\n")
		b.WriteString(components.RenderVisualization(e.Visualization, m.theme, m.bubbleWidth()))
	}

	out := m.theme.AssistantBubble.Width(m.bubbleWidth()).Render(b.String())
	m.renderCache[e.ID] = out
	return out
}

// =============================================================================
// MARKDOWN
// =============================================================================

// rebuildMarkdown recreates the glamour renderer after a resize or a
// config reload and drops the render cache, since wrapping width or
// styling changed.
func (m *Model) rebuildMarkdown() {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.cfg.UI.Theme),
		glamour.WithWordWrap(m.bubbleWidth()),
	)
	if err != nil {
		if m.logger != nil {
			m.logger.Printf("markdown renderer unavailable: %v", err)
		}
		m.markdown = nil
	} else {
		m.markdown = r
	}
	m.renderCache = make(map[string]string)
}

// renderMarkdown formats explanation text, falling back to plain text
// when the renderer is unavailable.
func (m *Model) renderMarkdown(text string) string {
	if text == "" {
		return ""
	}
	if m.markdown == nil {
		return text
	}
	out, err := m.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Keyboard shortcuts"))
	b.WriteString("\n\n")

	for _, section := range HelpSections() {
		b.WriteString(m.theme.ShortcutDesc.Render(section.Title))
		b.WriteString("\n")
		for _, item := range section.Items {
			key := m.theme.ShortcutKey.Render(padRight(item.Key, 10))
			b.WriteString("  " + key + " " + item.Desc + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(m.theme.InfoStyle.Render("press any key to close"))
	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func (m *Model) bubbleWidth() int {
	w := m.width - 6
	if w < 20 {
		w = 20
	}
	return w
}

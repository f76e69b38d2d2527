// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"log"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/datawise-tui/internal/api"
	"github.com/jeranaias/datawise-tui/internal/config"
	"github.com/jeranaias/datawise-tui/internal/model"
	"github.com/jeranaias/datawise-tui/internal/session"
	"github.com/jeranaias/datawise-tui/internal/storage"
	"github.com/jeranaias/datawise-tui/internal/ui/components"
	"github.com/jeranaias/datawise-tui/internal/ui/styles"
	"github.com/jeranaias/datawise-tui/internal/upload"
	"github.com/jeranaias/datawise-tui/internal/viz"
)

// =============================================================================
// VIEW STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for a question
	StateStreaming              // Receiving a streamed answer
	StatePicking                // Session picker open
	StateUploading              // Typing an upload path
)

// eventBufferSize bounds the channel that carries goroutine results
// into the update loop. Large enough that a slow repaint never blocks
// a stream callback.
const eventBufferSize = 128

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the DataWise view.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Conversation state
	timeline *model.Timeline
	sessions *session.Manager

	// Backends
	client  *api.Client
	store   *storage.Store // nil when the local cache could not open
	uploads *upload.Coordinator
	watcher *upload.Watcher // nil when file watching is disabled
	charts  *viz.Pipeline

	// Stream plumbing. Goroutines push results into events; the update
	// loop drains it via waitForEvent. Tokens bypass the channel and go
	// through streamBuf so they can be batched.
	events    chan tea.Msg
	streamBuf *StreamingBuffer
	cancelMgr *cancelManager // Pointer to avoid copying the mutex during Bubble Tea updates

	// Question being streamed, kept for the visualization request.
	pendingQuery string

	// UI components
	viewport    viewport.Model
	input       textinput.Model
	spin        components.Spinner
	uploadBar   components.UploadBar
	sessionList components.SessionList
	errBanner   components.ErrorBanner
	header      components.Header
	keyMap      KeyMap

	// Upload state (display only; the coordinator owns the transfer)
	fileStale bool

	// Rendering
	markdown    *glamour.TermRenderer
	renderCache map[string]string // entry ID -> rendered markdown
	helpOpen    bool
	statusNote  string // transient footer note (export path etc.)

	cfg    *config.Config
	logger *log.Logger
	ready  bool
}

// New assembles the DataWise view around an already resolved session.
// store and watcher may be nil; the view degrades to online-only mode
// and no stale detection respectively.
func New(cfg *config.Config, client *api.Client, sessions *session.Manager, store *storage.Store, logger *log.Logger) *Model {
	input := textinput.New()
	input.Placeholder = "ask a question about your data..."
	input.CharLimit = 2000
	input.Focus()

	m := &Model{
		state:       StateReady,
		theme:       styles.NewTheme(),
		timeline:    model.NewTimeline(sessions.Current()),
		sessions:    sessions,
		client:      client,
		store:       store,
		uploads:     newCoordinator(client, cfg),
		events:      make(chan tea.Msg, eventBufferSize),
		streamBuf:   NewStreamingBuffer(),
		cancelMgr:   newCancelManager(),
		viewport:    viewport.New(80, 20),
		input:       input,
		spin:        components.NewSpinner(),
		uploadBar:   components.NewUploadBar(),
		sessionList: components.NewSessionList(),
		errBanner:   components.NewErrorBanner(),
		header:      components.NewHeader(),
		keyMap:      DefaultKeyMap(),
		renderCache: make(map[string]string),
		cfg:         cfg,
		logger:      logger,
	}

	m.charts = viz.NewPipeline(client, m.deliverVisualization).WithLogger(logger)

	if cfg.Upload.WatchFile {
		w, err := upload.NewWatcher(func(path string) {
			m.events <- fileStaleMsg{Path: path}
		})
		if err != nil {
			logger.Printf("file watcher unavailable: %v", err)
		} else {
			m.watcher = w
		}
	}

	return m
}

// newCoordinator builds the upload coordinator with the configured
// size limit.
func newCoordinator(client *api.Client, cfg *config.Config) *upload.Coordinator {
	c := upload.NewCoordinator(client)
	c.SetMaxFileSize(int64(cfg.Upload.MaxSizeMB) << 20)
	return c
}

// deliverVisualization is the chart pipeline's delivery callback. It
// runs on the pipeline goroutine and hands off through the channel.
func (m *Model) deliverVisualization(entryID string, v *api.Visualization) {
	m.events <- vizReadyMsg{EntryID: entryID, Viz: v}
}

// Init starts the event pump and loads the session's history.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.waitForEvent(),
		m.loadHistoryCmd(m.sessions.Current()),
	)
}

// Close releases background resources. Called when the program exits.
func (m *Model) Close() {
	m.cancelMgr.cancel()
	m.uploads.Cancel()
	if m.watcher != nil {
		m.watcher.Close()
	}
}

// Timeline exposes the conversation state, used by export and tests.
func (m *Model) Timeline() *model.Timeline {
	return m.timeline
}

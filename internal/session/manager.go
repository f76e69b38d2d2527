// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store persists the session ID between runs. Implemented by the
// storage package; a nil store degrades to fresh-ID-per-run.
type Store interface {
	CachedSessionID() (string, error)
	SaveSessionID(id string) error
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve determines the session ID for this run. An explicit ID wins;
// otherwise the cached ID from the previous run is reused; otherwise a
// fresh UUID is generated. The result is written back to the store so
// the next run resumes the same session.
func Resolve(explicit string, store Store) string {
	id := strings.TrimSpace(explicit)

	if id == "" && store != nil {
		if cached, err := store.CachedSessionID(); err == nil {
			id = strings.TrimSpace(cached)
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	if store != nil {
		// Best effort; a read-only cache dir should not block startup.
		_ = store.SaveSessionID(id)
	}
	return id
}

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks the current session and its volatile per-session
// state. Safe for concurrent use: stream and upload goroutines read
// the session ID while the UI loop may switch it.
type Manager struct {
	mu sync.Mutex

	current      string
	startTime    time.Time
	lastActivity time.Time

	// uploaded records whether a dataset has been uploaded for the
	// CURRENT session. It is volatile: the backend's working dataset
	// is per-session, so a switch always resets it.
	uploaded     bool
	uploadedFile string

	store Store
}

// NewManager creates a manager for an already resolved session ID.
func NewManager(id string, store Store) *Manager {
	now := time.Now()
	return &Manager{
		current:      id,
		startTime:    now,
		lastActivity: now,
		store:        store,
	}
}

// Current returns the active session ID.
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// StartTime returns when this session became active locally.
func (m *Manager) StartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startTime
}

// IdleTime returns how long since last recorded activity.
func (m *Manager) IdleTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastActivity)
}

// RecordActivity updates the last activity timestamp. Called on user
// input and on every stream event.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = time.Now()
}

// =============================================================================
// SWITCHING
// =============================================================================

// Switch changes the active session and returns the previous ID.
// Upload state does not carry across: the new session starts with no
// dataset until the user uploads one for it.
func (m *Manager) Switch(id string) (previous string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous = m.current
	if id == m.current {
		return previous
	}

	m.current = id
	m.startTime = time.Now()
	m.lastActivity = m.startTime
	m.uploaded = false
	m.uploadedFile = ""

	if m.store != nil {
		_ = m.store.SaveSessionID(id)
	}
	return previous
}

// StartNew switches to a freshly generated session ID and returns it.
func (m *Manager) StartNew() string {
	id := uuid.NewString()
	m.Switch(id)
	return id
}

// =============================================================================
// UPLOAD STATE
// =============================================================================

// MarkUploaded records that a dataset was uploaded for the current
// session.
func (m *Manager) MarkUploaded(filename string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploaded = true
	m.uploadedFile = filename
	m.lastActivity = time.Now()
}

// HasUpload reports whether the current session has a dataset.
func (m *Manager) HasUpload() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploaded
}

// UploadedFile returns the filename of the current session's dataset,
// or "" when nothing has been uploaded.
func (m *Manager) UploadedFile() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploadedFile
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store for tests.
type fakeStore struct {
	mu     sync.Mutex
	cached string
	saved  []string
	err    error
}

func (s *fakeStore) CachedSessionID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached, s.err
}

func (s *fakeStore) SaveSessionID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, id)
	return s.err
}

// =============================================================================
// RESOLUTION TESTS
// =============================================================================

func TestResolve_ExplicitWins(t *testing.T) {
	store := &fakeStore{cached: "cached-id"}
	id := Resolve("explicit-id", store)

	if id != "explicit-id" {
		t.Errorf("Resolve() = %q, want explicit-id", id)
	}
	if len(store.saved) != 1 || store.saved[0] != "explicit-id" {
		t.Errorf("resolved ID not written back: %v", store.saved)
	}
}

func TestResolve_FallsBackToCache(t *testing.T) {
	store := &fakeStore{cached: "cached-id"}
	id := Resolve("", store)

	if id != "cached-id" {
		t.Errorf("Resolve() = %q, want cached-id", id)
	}
}

func TestResolve_GeneratesFreshID(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
	}{
		{"empty cache", &fakeStore{}},
		{"whitespace cache", &fakeStore{cached: "  "}},
		{"cache error", &fakeStore{err: errors.New("db locked")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id := Resolve("", tc.store)
			if _, err := uuid.Parse(id); err != nil {
				t.Errorf("Resolve() = %q, want a UUID: %v", id, err)
			}
		})
	}
}

func TestResolve_NilStore(t *testing.T) {
	id := Resolve("", nil)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("Resolve() = %q, want a UUID: %v", id, err)
	}
}

// =============================================================================
// MANAGER TESTS
// =============================================================================

func TestManager_Current(t *testing.T) {
	m := NewManager("s1", nil)
	if m.Current() != "s1" {
		t.Errorf("Current() = %q, want s1", m.Current())
	}
	if m.StartTime().IsZero() {
		t.Error("StartTime should not be zero")
	}
}

func TestManager_SwitchResetsUploadState(t *testing.T) {
	store := &fakeStore{}
	m := NewManager("s1", store)

	m.MarkUploaded("sales.csv")
	if !m.HasUpload() || m.UploadedFile() != "sales.csv" {
		t.Fatal("upload state not recorded")
	}

	prev := m.Switch("s2")
	if prev != "s1" {
		t.Errorf("Switch() previous = %q, want s1", prev)
	}
	if m.Current() != "s2" {
		t.Errorf("Current() = %q, want s2", m.Current())
	}
	if m.HasUpload() || m.UploadedFile() != "" {
		t.Error("upload state survived session switch")
	}
	if len(store.saved) != 1 || store.saved[0] != "s2" {
		t.Errorf("switch not persisted: %v", store.saved)
	}
}

func TestManager_SwitchToSameIDKeepsState(t *testing.T) {
	m := NewManager("s1", nil)
	m.MarkUploaded("sales.csv")

	m.Switch("s1")
	if !m.HasUpload() {
		t.Error("no-op switch reset upload state")
	}
}

func TestManager_StartNew(t *testing.T) {
	m := NewManager("s1", nil)
	id := m.StartNew()

	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("StartNew() = %q, want a UUID: %v", id, err)
	}
	if m.Current() != id {
		t.Errorf("Current() = %q, want %q", m.Current(), id)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager("s1", &fakeStore{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = m.Current()
		}()
		go func() {
			defer wg.Done()
			m.RecordActivity()
		}()
		go func() {
			defer wg.Done()
			m.Switch(uuid.NewString())
		}()
	}
	wg.Wait()
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// staleDebounce coalesces the burst of write events editors emit when
// saving a file.
const staleDebounce = 300 * time.Millisecond

// Watcher flags the uploaded file as stale when it changes on disk
// after upload, meaning the backend's working copy no longer matches.
type Watcher struct {
	mu sync.Mutex

	fw      *fsnotify.Watcher
	path    string
	stale   bool
	onStale func(path string)
	done    chan struct{}
}

// NewWatcher creates a watcher that calls onStale (once per watched
// file) when the file changes. onStale runs on the watcher goroutine.
func NewWatcher(onStale func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fw:      fw,
		onStale: onStale,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Watch starts tracking a freshly uploaded file, replacing any
// previous watch and clearing the stale flag.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.path != "" {
		// Removing a watch on a deleted file fails harmlessly.
		_ = w.fw.Remove(w.path)
	}
	w.path = abs
	w.stale = false
	return w.fw.Add(abs)
}

// IsStale reports whether the watched file changed since upload.
func (w *Watcher) IsStale() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stale
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.mu.Lock()
			match := w.path != "" && event.Name == w.path && !w.stale
			w.mu.Unlock()
			if !match {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(staleDebounce, func() { w.markStale() })
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the stale flag is advisory.
		}
	}
}

func (w *Watcher) markStale() {
	w.mu.Lock()
	if w.stale || w.path == "" {
		w.mu.Unlock()
		return
	}
	w.stale = true
	path := w.path
	cb := w.onStale
	w.mu.Unlock()

	if cb != nil {
		cb(path)
	}
}

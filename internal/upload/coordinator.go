// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/datawise-tui/internal/api"
	"github.com/jeranaias/datawise-tui/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxFileSize is the upload size limit.
	MaxFileSize = 10 * 1024 * 1024 // 10MB

	// SettleDelay holds the progress bar at 100% briefly before the
	// done event, so fast uploads do not flash past the user.
	SettleDelay = 500 * time.Millisecond
)

// allowedExtensions are the spreadsheet formats the backend accepts.
var allowedExtensions = map[string]bool{
	".csv":  true,
	".xls":  true,
	".xlsx": true,
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateFile checks a file locally before any bytes move. limit is
// the maximum size in bytes; zero or negative falls back to
// MaxFileSize. Returns the file size on success and a
// model.ValidationError on rejection.
func ValidateFile(path string, limit int64) (int64, error) {
	if limit <= 0 {
		limit = MaxFileSize
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedExtensions[ext] {
		return 0, &model.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("unsupported file type %q (use .csv, .xls, or .xlsx)", ext),
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, &model.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("cannot read %s: %v", filepath.Base(path), err),
		}
	}
	if info.IsDir() {
		return 0, &model.ValidationError{Field: "file", Message: "path is a directory"}
	}
	if info.Size() == 0 {
		return 0, &model.ValidationError{Field: "file", Message: "file is empty"}
	}
	if info.Size() > limit {
		return 0, &model.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("file is %.1f MB; the limit is %d MB", float64(info.Size())/(1024*1024), limit/(1024*1024)),
		}
	}
	return info.Size(), nil
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Uploader is the slice of the API client the coordinator needs.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, name string, size int64, sessionID string, onProgress api.ProgressFunc) (*api.UploadAck, error)
}

// Events receives the outcome of one upload. Callbacks run on the
// upload goroutine; UI callers must bridge them to their event loop.
// Any callback may be nil.
type Events struct {
	OnProgress func(percent int)
	OnDone     func(ack api.UploadAck)
	OnError    func(message string)
}

// Coordinator runs at most one visible upload at a time. Starting a
// new upload supersedes the previous one: its transfer is cancelled
// and its remaining callbacks are suppressed.
type Coordinator struct {
	mu sync.Mutex

	client Uploader

	// generation identifies the current upload; events from older
	// generations are dropped.
	generation uint64
	cancel     context.CancelFunc

	settleDelay time.Duration
	maxBytes    int64
}

// NewCoordinator creates a coordinator backed by the given client.
func NewCoordinator(client Uploader) *Coordinator {
	return &Coordinator{
		client:      client,
		settleDelay: SettleDelay,
		maxBytes:    MaxFileSize,
	}
}

// WithSettleDelay overrides the cosmetic completion delay.
func (c *Coordinator) WithSettleDelay(d time.Duration) *Coordinator {
	c.settleDelay = d
	return c
}

// SetMaxFileSize changes the upload size limit in bytes. Non-positive
// values are ignored. Safe to call while an upload is in flight; the
// new limit applies from the next Start.
func (c *Coordinator) SetMaxFileSize(n int64) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	c.maxBytes = n
	c.mu.Unlock()
}

// Start validates path and begins uploading it for the session,
// superseding any upload in flight. Validation failures are returned
// synchronously and do not supersede anything. On success the upload
// proceeds on a new goroutine and reports through ev.
func (c *Coordinator) Start(ctx context.Context, path, sessionID string, ev Events) error {
	c.mu.Lock()
	limit := c.maxBytes
	c.mu.Unlock()

	size, err := ValidateFile(path, limit)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	uploadCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(uploadCtx, gen, path, size, sessionID, ev)
	return nil
}

// Cancel aborts the upload in flight, if any. No callbacks fire after
// cancellation.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
}

// current reports whether gen is still the live upload.
func (c *Coordinator) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation
}

// run performs one upload attempt on its own goroutine.
func (c *Coordinator) run(ctx context.Context, gen uint64, path string, size int64, sessionID string, ev Events) {
	f, err := os.Open(path)
	if err != nil {
		c.emitError(gen, ev, fmt.Sprintf("cannot open %s: %v", filepath.Base(path), err))
		return
	}
	defer f.Close()

	ack, err := c.client.Upload(ctx, f, path, size, sessionID, func(pct int) {
		if c.current(gen) && ev.OnProgress != nil {
			ev.OnProgress(pct)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			// Superseded or cancelled: stay silent.
			return
		}
		c.emitError(gen, ev, err.Error())
		return
	}

	// Hold at 100% so the completed bar is visible.
	select {
	case <-ctx.Done():
		return
	case <-time.After(c.settleDelay):
	}

	if c.current(gen) && ev.OnDone != nil {
		ev.OnDone(*ack)
	}
}

func (c *Coordinator) emitError(gen uint64, ev Events, msg string) {
	if c.current(gen) && ev.OnError != nil {
		ev.OnError(msg)
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"fmt"
	"sync"
	"testing"
)

// =============================================================================
// STREAMING BUFFER TESTS
// =============================================================================

func TestStreamingBufferWrite(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("total")
	sb.Write(" ")
	sb.Write("revenue")

	if pending := sb.Pending(); pending != 3 {
		t.Errorf("Expected 3 pending tokens, got %d", pending)
	}
}

func TestStreamingBufferFlushBySize(t *testing.T) {
	sb := NewStreamingBuffer()

	// Below the batch threshold and inside the frame window: no flush.
	sb.Write("A")
	sb.Write("B")
	if content, ok := sb.Flush(); ok {
		t.Errorf("Expected no flush below batch size, got %q", content)
	}

	// Crossing the batch threshold flushes everything buffered.
	for i := 0; i < 13; i++ {
		sb.Write("x")
	}
	content, ok := sb.Flush()
	if !ok {
		t.Fatal("Expected flush at batch size")
	}
	if len(content) != 15 {
		t.Errorf("Expected 15 buffered characters, got %d", len(content))
	}

	// Buffer is drained after the flush.
	if pending := sb.Pending(); pending != 0 {
		t.Errorf("Expected 0 pending after flush, got %d", pending)
	}
}

func TestStreamingBufferFlushEmpty(t *testing.T) {
	sb := NewStreamingBuffer()

	if content, ok := sb.Flush(); ok {
		t.Errorf("Expected no flush from empty buffer, got %q", content)
	}
	if content, ok := sb.ForceFlush(); ok {
		t.Errorf("Expected no force flush from empty buffer, got %q", content)
	}
}

func TestStreamingBufferForceFlush(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("partial")
	content, ok := sb.ForceFlush()
	if !ok {
		t.Fatal("Expected force flush to drain the buffer")
	}
	if content != "partial" {
		t.Errorf("Expected %q, got %q", "partial", content)
	}
}

func TestStreamingBufferReset(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("discard me")
	sb.Reset()

	if pending := sb.Pending(); pending != 0 {
		t.Errorf("Expected 0 pending after reset, got %d", pending)
	}
	if content, ok := sb.ForceFlush(); ok {
		t.Errorf("Expected nothing after reset, got %q", content)
	}
}

func TestStreamingBufferConcurrentWrites(t *testing.T) {
	sb := NewStreamingBuffer()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sb.Write(fmt.Sprintf("t%d-%d", n, j))
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for {
		content, ok := sb.ForceFlush()
		if !ok {
			break
		}
		total += len(content)
	}
	if total == 0 {
		t.Error("Expected buffered content from concurrent writers")
	}
}

// =============================================================================
// CANCEL MANAGER TESTS
// =============================================================================

func TestCancelManagerCancel(t *testing.T) {
	cm := newCancelManager()

	called := 0
	cm.set(func() { called++ })
	cm.cancel()
	if called != 1 {
		t.Errorf("Expected cancel func called once, got %d", called)
	}

	// Second cancel is a no-op.
	cm.cancel()
	if called != 1 {
		t.Errorf("Expected no further calls, got %d", called)
	}
}

func TestCancelManagerSetCancelsStale(t *testing.T) {
	cm := newCancelManager()

	staleCalled := false
	cm.set(func() { staleCalled = true })
	cm.set(func() {})

	if !staleCalled {
		t.Error("Expected replacing the cancel func to cancel the previous stream")
	}
}

func TestCancelManagerCancelWithoutSet(t *testing.T) {
	cm := newCancelManager()
	cm.cancel() // must not panic
}

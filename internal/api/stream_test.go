// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects callback invocations for assertions.
type recorder struct {
	mu        sync.Mutex
	tokens    []string
	statuses  []string
	completes []AnalysisPayload
	errors    []string
}

func (r *recorder) callbacks() StreamCallbacks {
	return StreamCallbacks{
		OnToken: func(s string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.tokens = append(r.tokens, s)
		},
		OnStatus: func(s string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.statuses = append(r.statuses, s)
		},
		OnComplete: func(p AnalysisPayload) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completes = append(r.completes, p)
		},
		OnError: func(s string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errors = append(r.errors, s)
		},
	}
}

func (r *recorder) terminalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completes) + len(r.errors)
}

func streamServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, chunk := range chunks {
			_, _ = w.Write([]byte(chunk))
			flusher.Flush()
		}
	}))
}

func TestStreamQueryTokenAndComplete(t *testing.T) {
	srv := streamServer(t,
		"data: {\"type\":\"status\",\"content\":\"Running query...\"}\n\n",
		"data: {\"type\":\"token\",\"content\":\"Sales \"}\n\n",
		"data: {\"type\":\"token\",\"content\":\"rose.\"}\n\n",
		"data: {\"type\":\"complete\",\"data\":{\"explanation\":\"Sales rose.\",\"results\":[{\"region\":\"west\",\"total\":42}],\"sql\":\"SELECT 1\"}}\n\n",
	)
	defer srv.Close()

	rec := &recorder{}
	client := NewClient(srv.URL)
	err := client.StreamQuery(context.Background(), "how did sales do?", "s1", rec.callbacks())
	require.NoError(t, err)

	assert.Equal(t, []string{"Sales ", "rose."}, rec.tokens)
	assert.Equal(t, []string{"Running query..."}, rec.statuses)
	require.Len(t, rec.completes, 1)
	assert.Equal(t, "Sales rose.", rec.completes[0].Explanation)
	assert.Equal(t, "SELECT 1", rec.completes[0].SQL)
	assert.Equal(t, 1, rec.completes[0].RowCount())
	assert.Empty(t, rec.errors)
	assert.Equal(t, 1, rec.terminalCount())
}

func TestStreamQueryFrameSplitAcrossChunks(t *testing.T) {
	// A frame split mid-JSON across network chunks must reassemble.
	srv := streamServer(t,
		"data: {\"type\":\"token\",\"con",
		"tent\":\"hel",
		"lo\"}\n\ndata: {\"type\":\"comp",
		"lete\",\"data\":{\"explanation\":\"hello\",\"results\":[]}}\n\n",
	)
	defer srv.Close()

	rec := &recorder{}
	client := NewClient(srv.URL)
	err := client.StreamQuery(context.Background(), "q", "s1", rec.callbacks())
	require.NoError(t, err)

	assert.Equal(t, []string{"hello"}, rec.tokens)
	require.Len(t, rec.completes, 1)
	assert.Equal(t, "hello", rec.completes[0].Explanation)
}

func TestStreamQuerySkipsMalformedFrames(t *testing.T) {
	srv := streamServer(t,
		"data: {not json}\n\n",
		": heartbeat comment\n\n",
		"data: {\"type\":\"token\",\"content\":\"ok\"}\n\n",
		"data: {\"type\":\"complete\",\"data\":{\"explanation\":\"ok\",\"results\":[]}}\n\n",
	)
	defer srv.Close()

	rec := &recorder{}
	client := NewClient(srv.URL)
	err := client.StreamQuery(context.Background(), "q", "s1", rec.callbacks())
	require.NoError(t, err)

	assert.Equal(t, []string{"ok"}, rec.tokens)
	assert.Len(t, rec.completes, 1)
	assert.Empty(t, rec.errors)
}

func TestStreamQueryIgnoresUnknownFrameType(t *testing.T) {
	srv := streamServer(t,
		"data: {\"type\":\"heartbeat\"}\n\n",
		"data: {\"type\":\"complete\",\"data\":{\"explanation\":\"done\",\"results\":[]}}\n\n",
	)
	defer srv.Close()

	rec := &recorder{}
	client := NewClient(srv.URL)
	err := client.StreamQuery(context.Background(), "q", "s1", rec.callbacks())
	require.NoError(t, err)

	assert.Empty(t, rec.tokens)
	assert.Len(t, rec.completes, 1)
}

func TestStreamQueryErrorFrameTerminates(t *testing.T) {
	srv := streamServer(t,
		"data: {\"type\":\"token\",\"content\":\"partial\"}\n\n",
		"data: {\"type\":\"error\",\"error\":\"query failed\"}\n\n",
		"data: {\"type\":\"token\",\"content\":\"after terminal\"}\n\n",
	)
	defer srv.Close()

	rec := &recorder{}
	client := NewClient(srv.URL)
	err := client.StreamQuery(context.Background(), "q", "s1", rec.callbacks())
	require.NoError(t, err)

	// Nothing after the terminal frame is delivered.
	assert.Equal(t, []string{"partial"}, rec.tokens)
	require.Len(t, rec.errors, 1)
	assert.Equal(t, "query failed", rec.errors[0])
	assert.Equal(t, 1, rec.terminalCount())
}

func TestStreamQueryDoneSentinelEndsSilently(t *testing.T) {
	// The legacy [DONE] sentinel ends the stream cleanly: no terminal
	// callback, and nothing after it is read.
	srv := streamServer(t,
		"data: {\"type\":\"token\",\"content\":\"partial\"}\n\n",
		"data: [DONE]\n\n",
		"data: {\"type\":\"token\",\"content\":\"after sentinel\"}\n\n",
	)
	defer srv.Close()

	rec := &recorder{}
	client := NewClient(srv.URL)
	err := client.StreamQuery(context.Background(), "q", "s1", rec.callbacks())
	require.NoError(t, err)

	assert.Equal(t, []string{"partial"}, rec.tokens)
	assert.Equal(t, 0, rec.terminalCount())
}

func TestStreamQueryEOFWithoutTerminal(t *testing.T) {
	srv := streamServer(t,
		"data: {\"type\":\"token\",\"content\":\"partial\"}\n\n",
	)
	defer srv.Close()

	rec := &recorder{}
	client := NewClient(srv.URL)
	err := client.StreamQuery(context.Background(), "q", "s1", rec.callbacks())
	require.NoError(t, err)

	assert.Equal(t, []string{"partial"}, rec.tokens)
	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], "ended before completion")
}

func TestStreamQueryTrailingFrameWithoutDelimiter(t *testing.T) {
	// A terminal frame that ends at EOF without the blank-line
	// delimiter still counts.
	srv := streamServer(t,
		"data: {\"type\":\"complete\",\"data\":{\"explanation\":\"x\",\"results\":[]}}",
	)
	defer srv.Close()

	rec := &recorder{}
	client := NewClient(srv.URL)
	err := client.StreamQuery(context.Background(), "q", "s1", rec.callbacks())
	require.NoError(t, err)

	assert.Len(t, rec.completes, 1)
	assert.Empty(t, rec.errors)
}

func TestStreamQueryNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	client := NewClient(srv.URL)
	err := client.StreamQuery(context.Background(), "q", "s1", rec.callbacks())
	require.NoError(t, err)

	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], "boom")
	assert.Equal(t, 1, rec.terminalCount())
}

func TestStreamQueryCancellationSuppressesCallbacks(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("data: {\"type\":\"token\",\"content\":\"a\"}\n\n"))
		flusher.Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	client := NewClient(srv.URL)

	done := make(chan error, 1)
	go func() {
		done <- client.StreamQuery(ctx, "q", "s1", rec.callbacks())
	}()

	// Let the first token land, then cancel mid-stream.
	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.tokens) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, rec.terminalCount())
}

func TestFrameScannerOversizedFrame(t *testing.T) {
	s := &frameScanner{}
	_, err := s.push([]byte(strings.Repeat("x", MaxFrameSize+1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}

func TestFrameScannerMultipleFramesInOneChunk(t *testing.T) {
	s := &frameScanner{}
	frames, err := s.push([]byte("data: a\n\ndata: b\n\ndata: c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"data: a", "data: b"}, frames)
	assert.Equal(t, "data: c", s.rest())
}

func TestPayloadPrefixVariants(t *testing.T) {
	got, ok := payload("data: {\"type\":\"token\"}")
	assert.True(t, ok)
	assert.Equal(t, "{\"type\":\"token\"}", got)

	// No space after the colon is also accepted.
	got, ok = payload("data:{\"type\":\"token\"}")
	assert.True(t, ok)
	assert.Equal(t, "{\"type\":\"token\"}", got)

	_, ok = payload(": comment")
	assert.False(t, ok)
}

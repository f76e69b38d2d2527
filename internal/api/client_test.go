// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadSendsMultipartAndReportsProgress(t *testing.T) {
	var gotSession, gotFilename string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, req.ParseMultipartForm(1<<20))
		gotSession = req.FormValue("session_id")
		file, header, err := req.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		buf := make([]byte, header.Size)
		_, _ = file.Read(buf)
		gotBody = buf
		_ = json.NewEncoder(w).Encode(UploadAck{Success: true, Message: "ok", Tables: []string{"sales"}})
	}))
	defer srv.Close()

	var progress []int
	client := NewClient(srv.URL)
	content := "region,total\nwest,42\n"
	ack, err := client.Upload(context.Background(), strings.NewReader(content),
		"/tmp/sales.csv", int64(len(content)), "s1", func(pct int) {
			progress = append(progress, pct)
		})
	require.NoError(t, err)

	assert.True(t, ack.Success)
	assert.Equal(t, []string{"sales"}, ack.Tables)
	assert.Equal(t, "s1", gotSession)
	assert.Equal(t, "sales.csv", gotFilename)
	assert.Equal(t, content, string(gotBody))

	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
	for i := 1; i < len(progress); i++ {
		assert.Greater(t, progress[i], progress[i-1])
	}
}

func TestUploadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Unsupported file type"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Upload(context.Background(), strings.NewReader("x"), "f.csv", 1, "s1", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Unsupported file type", apiErr.Message)
}

func TestVisualizeCapsRows(t *testing.T) {
	var gotRows int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body visualizeRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		gotRows = len(body.Results)
		_ = json.NewEncoder(w).Encode(Visualization{Insights: "trend up"})
	}))
	defer srv.Close()

	rows := make([]Row, MaxVisualizationRows+250)
	for i := range rows {
		rows[i] = Row{"n": i}
	}

	client := NewClient(srv.URL)
	viz, err := client.Visualize(context.Background(), rows, "trend?")
	require.NoError(t, err)

	assert.Equal(t, MaxVisualizationRows, gotRows)
	assert.Equal(t, "trend up", viz.Insights)
}

func TestHistoryReversedToChronological(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "s1", req.URL.Query().Get("session_id"))
		// Backend order is most-recent-first.
		_, _ = w.Write([]byte(`{"history":[
			{"id":3,"query":"third","response":"c"},
			{"id":2,"query":"second","response":"b"},
			{"id":1,"query":"first","response":"a"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	turns, err := client.History(context.Background(), "s1")
	require.NoError(t, err)

	require.Len(t, turns, 3)
	assert.Equal(t, "first", turns[0].Query)
	assert.Equal(t, "second", turns[1].Query)
	assert.Equal(t, "third", turns[2].Query)
}

func TestGetRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"s1","title":"Sales analysis"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	sessions, err := client.ListSessions(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	require.Len(t, sessions, 1)
	assert.Equal(t, "Sales analysis", sessions[0].Title)
}

func TestGetDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"unknown session"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.History(context.Background(), "missing")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestRateLimitedMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Visualize(context.Background(), nil, "q")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestDeleteSession(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotMethod = req.Method
		gotPath = req.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	require.NoError(t, client.DeleteSession(context.Background(), "s1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/chat-sessions/s1/", gotPath)
}

func TestSaveResultsReturnsRawBytes(t *testing.T) {
	csv := "region,total\nwest,42\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(csv))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	data, err := client.SaveResults(context.Background(), []Row{{"region": "west", "total": 42}})
	require.NoError(t, err)
	assert.Equal(t, csv, string(data))
}

func TestColumnsSortedFromFirstRow(t *testing.T) {
	p := &AnalysisPayload{Results: []Row{{"zeta": 1, "alpha": 2, "mid": 3}}}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, p.Columns())

	empty := &AnalysisPayload{}
	assert.Nil(t, empty.Columns())
	assert.Equal(t, 0, empty.RowCount())
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"testing"

	"github.com/jeranaias/datawise-tui/internal/api"
	"github.com/jeranaias/datawise-tui/internal/config"
	"github.com/jeranaias/datawise-tui/internal/model"
	"github.com/jeranaias/datawise-tui/internal/session"
)

// =============================================================================
// ASK COMMAND TESTS
// =============================================================================

func newTestEnv() *env {
	return &env{
		cfg:      config.Default(),
		client:   api.NewClient("http://127.0.0.1:1"),
		sessions: session.NewManager("sess-cli", nil),
	}
}

func TestRunQueryRequiresUpload(t *testing.T) {
	e := newTestEnv()

	_, _, err := runQuery(e, Args{Query: "total rows"})

	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error without a dataset, got %v", err)
	}
	if verr.Field != "file" {
		t.Errorf("Expected the file field flagged, got %q", verr.Field)
	}
}

func TestRunQueryWithUploadReachesServer(t *testing.T) {
	e := newTestEnv()
	e.sessions.MarkUploaded("sales.csv")

	// The client points at a closed port, so the query fails on the
	// network, past the local dataset gate.
	_, _, err := runQuery(e, Args{Query: "total rows", Quiet: true})
	if err == nil {
		t.Fatal("Expected a network error from the unreachable server")
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		t.Errorf("Expected a non-validation error once a dataset exists, got %v", err)
	}
}

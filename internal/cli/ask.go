// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - single question command handler for the datawise CLI.
//
// Handles "datawise ask", which streams one answer to stdout and
// exits. Tokens stream raw; SQL, the result table, and row counts are
// printed after completion. With --json the streamed text is
// suppressed and the structured payload is emitted instead.
//
// Examples:
//   datawise ask "total revenue by region"
//   datawise ask --file sales.csv "busiest month?"
//   datawise ask --json "orders per customer" | jq .results
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/datawise-tui/internal/api"
	"github.com/jeranaias/datawise-tui/internal/config"
	"github.com/jeranaias/datawise-tui/internal/model"
	"github.com/jeranaias/datawise-tui/internal/session"
	"github.com/jeranaias/datawise-tui/internal/storage"
	"github.com/jeranaias/datawise-tui/internal/ui/components"
	"github.com/jeranaias/datawise-tui/internal/ui/styles"
	"github.com/jeranaias/datawise-tui/internal/upload"
	"github.com/jeranaias/datawise-tui/internal/util"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

// env bundles the pieces every CLI command needs.
type env struct {
	cfg      *config.Config
	client   *api.Client
	sessions *session.Manager
	store    *storage.Store // nil when the local cache is unavailable
}

// setup loads config, opens the local cache, and resolves the session.
func setup(args Args) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if args.Server != "" {
		cfg.Server.BaseURL = args.Server
	}

	client := api.NewClient(cfg.Server.BaseURL).
		WithTimeout(time.Duration(cfg.Server.TimeoutSecs) * time.Second).
		WithMaxRetries(cfg.Server.MaxRetries)

	var store *storage.Store
	if path, err := storage.DefaultPath(); err == nil {
		if s, err := storage.Open(path); err == nil {
			store = s
		}
	}

	var resumeStore session.Store
	if store != nil && cfg.Session.Resume {
		resumeStore = store
	}
	id := session.Resolve(args.Session, resumeStore)

	return &env{
		cfg:      cfg,
		client:   client,
		sessions: session.NewManager(id, resumeStore),
		store:    store,
	}, nil
}

func (e *env) close() {
	if e.store != nil {
		e.store.Close()
	}
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAskCommand runs a single question end to end. With no
// question and an interactive terminal it drops into the REPL.
func HandleAskCommand(args Args) error {
	if args.Query == "" {
		if IsTTY() {
			return HandleChatCommand(args)
		}
		return errors.New("usage: datawise ask \"question\"")
	}

	e, err := setup(args)
	if err != nil {
		return err
	}
	defer e.close()

	if args.File != "" {
		if err := uploadFile(e, args.File, args.Quiet); err != nil {
			return err
		}
	}

	payload, streamed, err := runQuery(e, args)
	if err != nil {
		return err
	}

	if args.JSON {
		return printJSON(payload)
	}
	printAnswer(e.cfg, payload, streamed)
	return nil
}

// runQuery streams the answer, echoing tokens unless --json or --quiet
// suppressed them. Returns the structured payload and whether any
// token text was already written to stdout. Rejected locally when the
// session has no dataset: the backend has nothing to query.
func runQuery(e *env, args Args) (*api.AnalysisPayload, bool, error) {
	if !e.sessions.HasUpload() {
		return nil, false, &model.ValidationError{
			Field:   "file",
			Message: "no dataset uploaded for this session (use --file FILE, or /upload in chat)",
		}
	}

	var payload *api.AnalysisPayload
	var streamErr error
	streamed := false

	err := e.client.StreamQuery(context.Background(), args.Query, e.sessions.Current(), api.StreamCallbacks{
		OnToken: func(text string) {
			if args.JSON {
				return
			}
			fmt.Print(text)
			streamed = true
		},
		OnStatus: func(text string) {
			if args.Quiet || args.JSON {
				return
			}
			fmt.Fprintln(os.Stderr, statusStyle.Render(text))
		},
		OnComplete: func(p api.AnalysisPayload) {
			payload = &p
		},
		OnError: func(message string) {
			streamErr = errors.New(message)
		},
	})
	if streamed {
		fmt.Println()
	}
	if err != nil {
		return nil, streamed, err
	}
	if streamErr != nil {
		return nil, streamed, streamErr
	}
	if payload == nil {
		return nil, streamed, errors.New("stream ended without a result")
	}
	return payload, streamed, nil
}

// printAnswer renders the structured parts of a completed answer: the
// explanation (when nothing streamed), the SQL, and the result table.
func printAnswer(cfg *config.Config, p *api.AnalysisPayload, streamed bool) {
	if !streamed && p.Explanation != "" {
		fmt.Println(renderMarkdown(cfg, p.Explanation))
	}

	if cfg.UI.ShowSQL && p.SQL != "" {
		fmt.Println()
		fmt.Println(sqlStyle.Render(p.SQL))
	}

	if len(p.Results) > 0 {
		theme := styles.NewTheme()
		table := components.NewResultTable(p.Columns(), p.Results)
		table.MaxRows = cfg.UI.MaxTableRows
		table.MaxWidth = GetTerminalWidth()
		fmt.Println()
		fmt.Println(table.Render(theme))
	}
}

func printJSON(p *api.AnalysisPayload) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// =============================================================================
// UPLOAD
// =============================================================================

// uploadFile validates and uploads a dataset, reporting progress on
// stderr so stdout stays clean for answers.
func uploadFile(e *env, path string, quiet bool) error {
	size, err := upload.ValidateFile(path, int64(e.cfg.Upload.MaxSizeMB)<<20)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := filepath.Base(path)
	ack, err := e.client.Upload(context.Background(), f, name, size, e.sessions.Current(), func(pct int) {
		if quiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\ruploading %s... %d%%", name, pct)
	})
	if !quiet {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	e.sessions.MarkUploaded(name)
	if !quiet {
		if len(ack.Tables) > 0 {
			fmt.Fprintln(os.Stderr, successStyle.Render("loaded tables: ")+metaStyle.Render(fmt.Sprint(ack.Tables)))
		} else {
			fmt.Fprintln(os.Stderr, successStyle.Render("upload complete"))
		}
	}
	return nil
}

// HandleUploadCommand implements "datawise upload FILE".
func HandleUploadCommand(args Args) error {
	if args.File == "" {
		return errors.New("usage: datawise upload FILE")
	}
	e, err := setup(args)
	if err != nil {
		return err
	}
	defer e.close()
	return uploadFile(e, args.File, args.Quiet)
}

// =============================================================================
// EXPORT
// =============================================================================

// exportResults asks the server to normalize rows to CSV and writes
// the blob next to the working directory.
func exportResults(e *env, rows []api.Row) (string, error) {
	data, err := e.client.SaveResults(context.Background(), rows)
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("results_%d.csv", time.Now().UnixMilli())
	if err := util.AtomicWriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// =============================================================================
// MARKDOWN
// =============================================================================

// renderMarkdown formats explanation text for TTY output, passing it
// through unchanged when piped or when the renderer is unavailable.
func renderMarkdown(cfg *config.Config, content string) string {
	if !IsStdoutTTY() {
		return content
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(cfg.UI.Theme),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}

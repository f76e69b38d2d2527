// DataWise TUI - a terminal client for conversational data analysis.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/datawise-tui/internal/api"
	"github.com/jeranaias/datawise-tui/internal/cli"
	"github.com/jeranaias/datawise-tui/internal/config"
	"github.com/jeranaias/datawise-tui/internal/session"
	"github.com/jeranaias/datawise-tui/internal/storage"
	"github.com/jeranaias/datawise-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(args)
	case cli.CmdAsk:
		err = cli.HandleAskCommand(args)
	case cli.CmdChat:
		err = cli.HandleChatCommand(args)
	case cli.CmdUpload:
		err = cli.HandleUploadCommand(args)
	case cli.CmdSessions:
		err = cli.HandleSessionsCommand(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.Usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI assembles the full-screen interface.
func runTUI(args cli.Args) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if args.Server != "" {
		cfg.Server.BaseURL = args.Server
	}

	logger, logCleanup := setupLogger(cfg)
	defer logCleanup()

	client := api.NewClient(cfg.Server.BaseURL).
		WithTimeout(time.Duration(cfg.Server.TimeoutSecs) * time.Second).
		WithMaxRetries(cfg.Server.MaxRetries).
		WithLogger(logger)

	// Local cache is best effort: the TUI works online-only without it.
	var store *storage.Store
	if path, err := storage.DefaultPath(); err == nil {
		if s, err := storage.Open(path); err == nil {
			store = s
			defer store.Close()
		} else {
			logger.Printf("local cache unavailable: %v", err)
		}
	}

	var resumeStore session.Store
	if store != nil && cfg.Session.Resume {
		resumeStore = store
	}
	id := session.Resolve(args.Session, resumeStore)
	sessions := session.NewManager(id, resumeStore)

	m := chat.New(cfg, client, sessions, store, logger)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Deliver config edits into the running program.
	if cfgDir, err := config.ConfigDir(); err == nil {
		w, watchErr := config.Watch(filepath.Join(cfgDir, "config.toml"), func(updated *config.Config) {
			config.SetGlobal(updated)
			logger.Printf("config reloaded")
			p.Send(chat.ConfigReloadedMsg{Config: updated})
		})
		if watchErr == nil {
			defer w.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// setupLogger routes diagnostics to the configured log file, or
// discards them when logging is disabled.
func setupLogger(cfg *config.Config) (*log.Logger, func()) {
	if !cfg.Logging.Enabled {
		return log.New(io.Discard, "", 0), func() {}
	}

	path := cfg.Logging.Path
	if path == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return log.New(io.Discard, "", 0), func() {}
		}
		path = filepath.Join(dir, "datawise.log")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return log.New(io.Discard, "", 0), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return log.New(io.Discard, "", 0), func() {}
	}
	return log.New(f, "", log.LstdFlags|log.Lshortfile), func() { f.Close() }
}

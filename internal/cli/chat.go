// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - line-oriented interactive mode for the datawise CLI.
//
// Handles "datawise chat": a liner-backed REPL for terminals where the
// full-screen TUI is unwanted (ssh sessions, minimal terminals, screen
// readers). Questions stream inline; slash commands cover uploads and
// session management.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/datawise-tui/internal/api"
	"github.com/jeranaias/datawise-tui/internal/config"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with history navigation.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChatCommand runs the interactive REPL.
func HandleChatCommand(args Args) error {
	if !IsTTY() {
		return errors.New("chat mode requires an interactive terminal; use 'datawise ask' for piped input")
	}

	e, err := setup(args)
	if err != nil {
		return err
	}
	defer e.close()

	input := NewChatCLI()
	defer input.Close()

	fmt.Println(promptStyle.Render("DataWise") + metaStyle.Render(" -- ask your spreadsheet anything"))
	fmt.Println(metaStyle.Render("session " + e.sessions.Current()))
	fmt.Println(metaStyle.Render("/upload FILE to load data, /help for commands, /quit to exit"))
	fmt.Println()

	var lastResults []api.Row

	for {
		text, err := input.ReadInput(promptStyle.Render("> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return nil // EOF ends the session
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			quit, err := handleSlashCommand(e, text, lastResults)
			if err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		askArgs := Args{Query: text, Quiet: args.Quiet}
		payload, streamed, err := runQuery(e, askArgs)
		if err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			continue
		}
		printAnswer(e.cfg, payload, streamed)
		fmt.Println()
		if len(payload.Results) > 0 {
			lastResults = payload.Results
		}
		e.sessions.RecordActivity()
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand executes a /command. Returns true when the REPL
// should exit.
func handleSlashCommand(e *env, text string, lastResults []api.Row) (bool, error) {
	fields := strings.Fields(text)
	cmd := fields[0]
	rest := fields[1:]

	switch cmd {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help", "/?":
		fmt.Println(metaStyle.Render(`commands:
  /upload FILE   upload a dataset for this session
  /sessions      list sessions
  /switch ID     switch to another session
  /new           start a fresh session
  /export        save the last result table to CSV
  /quit          exit`))
		return false, nil

	case "/upload":
		if len(rest) == 0 {
			return false, errors.New("usage: /upload FILE")
		}
		return false, uploadFile(e, rest[0], false)

	case "/sessions":
		return false, listSessions(e)

	case "/export":
		if len(lastResults) == 0 {
			return false, errors.New("no result table yet; ask a question that returns rows first")
		}
		path, err := exportResults(e, lastResults)
		if err != nil {
			return false, err
		}
		fmt.Println(successStyle.Render("saved " + path))
		return false, nil

	case "/switch":
		if len(rest) == 0 {
			return false, errors.New("usage: /switch SESSION_ID")
		}
		e.sessions.Switch(rest[0])
		fmt.Println(successStyle.Render("switched to " + rest[0]))
		fmt.Println(warningStyle.Render("upload a dataset before asking; uploads do not carry across sessions"))
		return false, nil

	case "/new":
		id := e.sessions.StartNew()
		fmt.Println(successStyle.Render("started session " + id))
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - argument parsing and command dispatch for datawise.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdUpload
	CmdSessions
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Server  string // override server URL
	Session string // explicit session ID
	JSON    bool   // structured output for scripting
	Quiet   bool   // suppress status lines
	Verbose bool

	// Command-specific
	Query      string
	File       string
	Subcommand string

	// Raw args remaining after flag parsing
	Raw []string
}

const usageText = `datawise - ask your spreadsheet anything

DataWise is a terminal client for conversational data analysis.
Upload a CSV or Excel file, then ask questions in plain language;
answers stream back with the SQL that produced them, a result
table, and suggested charts.

Usage:
  datawise                    Start the TUI (default)
  datawise ask "question"     Ask a single question and exit
  datawise chat               Line-oriented interactive mode
  datawise upload FILE        Upload a dataset to the current session
  datawise sessions [list|delete ID]
                              Manage analysis sessions
  datawise version            Print version information

Flags:
  --server URL     Analysis server (default from config)
  --session ID     Use a specific session
  --file FILE      Upload FILE before asking (ask only)
  --json           Machine-readable output
  -q, --quiet      Suppress progress lines
  -v, --verbose    Verbose logging

Examples:
  datawise upload sales.csv
  datawise ask "total revenue by region"
  datawise ask --file sales.csv "which month had the most orders?"
  datawise sessions list
`

// Usage prints the top-level help text.
func Usage() {
	fmt.Print(usageText)
}

// Parse interprets os.Args-style input into a command and arguments.
func Parse(raw []string) (Command, Args) {
	args := Args{}
	var positional []string

	for i := 0; i < len(raw); i++ {
		a := raw[i]
		switch {
		case a == "--json":
			args.JSON = true
		case a == "-q" || a == "--quiet":
			args.Quiet = true
		case a == "-v" || a == "--verbose":
			args.Verbose = true
		case a == "--server":
			if i+1 < len(raw) {
				i++
				args.Server = raw[i]
			}
		case a == "--session":
			if i+1 < len(raw) {
				i++
				args.Session = raw[i]
			}
		case a == "--file" || a == "-f":
			if i+1 < len(raw) {
				i++
				args.File = raw[i]
			}
		case a == "-h" || a == "--help" || a == "help":
			return CmdHelp, args
		case strings.HasPrefix(a, "-"):
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", a)
		default:
			positional = append(positional, a)
		}
	}

	if len(positional) == 0 {
		return CmdTUI, args
	}

	cmd := positional[0]
	rest := positional[1:]
	args.Raw = rest

	switch cmd {
	case "ask":
		args.Query = strings.Join(rest, " ")
		return CmdAsk, args
	case "chat":
		return CmdChat, args
	case "upload":
		if len(rest) > 0 {
			args.File = rest[0]
		}
		return CmdUpload, args
	case "session", "sessions":
		if len(rest) > 0 {
			args.Subcommand = rest[0]
			args.Raw = rest[1:]
		}
		return CmdSessions, args
	case "version", "--version":
		return CmdVersion, args
	default:
		// Bare words are treated as a question, matching user instinct:
		// datawise "total sales by month"
		args.Query = strings.Join(positional, " ")
		return CmdAsk, args
	}
}

// PrintVersion prints build information.
func PrintVersion() {
	fmt.Printf("datawise %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"testing"
)

// =============================================================================
// ARGUMENT PARSING TESTS
// =============================================================================

func TestParseNoArgsStartsTUI(t *testing.T) {
	cmd, _ := Parse(nil)
	if cmd != CmdTUI {
		t.Errorf("Expected CmdTUI, got %v", cmd)
	}
}

func TestParseAsk(t *testing.T) {
	cmd, args := Parse([]string{"ask", "total", "revenue"})
	if cmd != CmdAsk {
		t.Fatalf("Expected CmdAsk, got %v", cmd)
	}
	if args.Query != "total revenue" {
		t.Errorf("Expected joined query, got %q", args.Query)
	}
}

func TestParseBareQuestionIsAsk(t *testing.T) {
	cmd, args := Parse([]string{"which month had the most orders?"})
	if cmd != CmdAsk {
		t.Fatalf("Expected CmdAsk for bare question, got %v", cmd)
	}
	if !strings.Contains(args.Query, "most orders") {
		t.Errorf("Unexpected query %q", args.Query)
	}
}

func TestParseAskWithFlags(t *testing.T) {
	cmd, args := Parse([]string{"ask", "--json", "--file", "sales.csv", "--session", "s42", "busiest day"})
	if cmd != CmdAsk {
		t.Fatalf("Expected CmdAsk, got %v", cmd)
	}
	if !args.JSON {
		t.Error("Expected JSON flag set")
	}
	if args.File != "sales.csv" {
		t.Errorf("Expected file flag parsed, got %q", args.File)
	}
	if args.Session != "s42" {
		t.Errorf("Expected session flag parsed, got %q", args.Session)
	}
	if args.Query != "busiest day" {
		t.Errorf("Expected query without flags, got %q", args.Query)
	}
}

func TestParseUpload(t *testing.T) {
	cmd, args := Parse([]string{"upload", "data/sales.xlsx"})
	if cmd != CmdUpload {
		t.Fatalf("Expected CmdUpload, got %v", cmd)
	}
	if args.File != "data/sales.xlsx" {
		t.Errorf("Expected upload path, got %q", args.File)
	}
}

func TestParseSessions(t *testing.T) {
	cmd, args := Parse([]string{"sessions", "delete", "sess-9"})
	if cmd != CmdSessions {
		t.Fatalf("Expected CmdSessions, got %v", cmd)
	}
	if args.Subcommand != "delete" {
		t.Errorf("Expected delete subcommand, got %q", args.Subcommand)
	}
	if len(args.Raw) != 1 || args.Raw[0] != "sess-9" {
		t.Errorf("Expected session ID in raw args, got %v", args.Raw)
	}
}

func TestParseServerOverride(t *testing.T) {
	_, args := Parse([]string{"ask", "--server", "http://analysis.internal:8000", "q"})
	if args.Server != "http://analysis.internal:8000" {
		t.Errorf("Expected server override, got %q", args.Server)
	}
}

func TestParseHelp(t *testing.T) {
	for _, in := range [][]string{{"help"}, {"-h"}, {"--help"}} {
		cmd, _ := Parse(in)
		if cmd != CmdHelp {
			t.Errorf("Parse(%v): expected CmdHelp, got %v", in, cmd)
		}
	}
}

func TestParseVersion(t *testing.T) {
	cmd, _ := Parse([]string{"version"})
	if cmd != CmdVersion {
		t.Errorf("Expected CmdVersion, got %v", cmd)
	}
}

// =============================================================================
// TEXT WRAPPING TESTS
// =============================================================================

func TestWrapTextShortLineUnchanged(t *testing.T) {
	if got := WrapText("short line", 40); got != "short line" {
		t.Errorf("Expected unchanged, got %q", got)
	}
}

func TestWrapTextBreaksAtWords(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta"
	got := WrapText(text, 14)

	for _, line := range strings.Split(got, "\n") {
		if len(line) > 12 {
			t.Errorf("Line %q exceeds wrap width", line)
		}
	}
	joined := strings.ReplaceAll(got, "\n", " ")
	if joined != text {
		t.Errorf("Wrapping lost words: %q", joined)
	}
}

func TestWrapTextPreservesNewlines(t *testing.T) {
	got := WrapText("a\nb", 40)
	if got != "a\nb" {
		t.Errorf("Expected newlines preserved, got %q", got)
	}
}

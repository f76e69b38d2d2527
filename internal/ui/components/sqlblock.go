// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/datawise-tui/internal/ui/styles"
)

// =============================================================================
// SQL BLOCK RENDERER
// =============================================================================

// SQLBlock renders the generated SQL under an answer with syntax
// highlighting.
type SQLBlock struct {
	SQL      string
	MaxWidth int
}

// NewSQLBlock creates a SQL block.
func NewSQLBlock(sql string) SQLBlock {
	return SQLBlock{
		SQL:      sql,
		MaxWidth: 80,
	}
}

// SetMaxWidth sets the maximum width for the block.
func (b *SQLBlock) SetMaxWidth(width int) {
	b.MaxWidth = width
}

// Render renders the SQL with a badge and highlighting.
func (b SQLBlock) Render(theme *styles.Theme) string {
	sql := strings.TrimSpace(b.SQL)
	if sql == "" {
		return ""
	}

	badge := theme.SQLBadge.Render("SQL")
	highlighted := highlightSQL(sql)

	maxWidth := b.MaxWidth - 4
	if maxWidth < 20 {
		maxWidth = 20
	}

	return theme.SQLBlock.MaxWidth(maxWidth).Render(badge + "\n" + highlighted)
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// highlightSQL applies ANSI-safe SQL highlighting for terminal output.
func highlightSQL(sql string) string {
	lexer := lexers.Get("sql")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, sql)
	if err != nil {
		return sql // Fallback to plain text
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return sql
	}
	return buf.String()
}

// RenderInlineCode renders inline code with a subtle background.
func RenderInlineCode(code string) string {
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.Teal).
		Padding(0, 1).
		Render(code)
}

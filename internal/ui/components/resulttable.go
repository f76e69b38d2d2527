// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/datawise-tui/internal/api"
	"github.com/jeranaias/datawise-tui/internal/ui/styles"
	"github.com/jeranaias/datawise-tui/internal/util"
)

// =============================================================================
// RESULT TABLE RENDERER
// =============================================================================

const (
	// maxCellWidth caps one column so a single long value cannot eat
	// the whole terminal.
	maxCellWidth = 24

	// minCellWidth keeps columns readable.
	minCellWidth = 4
)

// ResultTable renders a structured result set as an aligned table.
type ResultTable struct {
	Columns []string
	Rows    []api.Row

	// MaxRows caps the rendered rows; a footer reports the remainder.
	MaxRows  int
	MaxWidth int
}

// NewResultTable creates a table for an answer's result set.
func NewResultTable(columns []string, rows []api.Row) ResultTable {
	return ResultTable{
		Columns:  columns,
		Rows:     rows,
		MaxRows:  20,
		MaxWidth: 80,
	}
}

// Render renders the table with zebra striping and a row-count footer.
func (rt ResultTable) Render(theme *styles.Theme) string {
	if len(rt.Rows) == 0 || len(rt.Columns) == 0 {
		return ""
	}

	shown := rt.Rows
	if rt.MaxRows > 0 && len(shown) > rt.MaxRows {
		shown = shown[:rt.MaxRows]
	}

	widths := rt.columnWidths(shown)

	var sb strings.Builder

	// Header row
	var header []string
	for i, col := range rt.Columns {
		header = append(header, theme.TableHeader.Render(pad(col, widths[i])))
	}
	sb.WriteString(strings.Join(header, ""))
	sb.WriteString("\n")

	// Data rows with zebra striping
	for r, row := range shown {
		style := theme.TableCell
		if r%2 == 1 {
			style = theme.TableCellAlt
		}
		var cells []string
		for i, col := range rt.Columns {
			cells = append(cells, style.Render(pad(cellValue(row, col), widths[i])))
		}
		sb.WriteString(strings.Join(cells, ""))
		sb.WriteString("\n")
	}

	table := theme.TableFrame.Render(strings.TrimRight(sb.String(), "\n"))

	if len(shown) < len(rt.Rows) {
		footer := theme.TableFooter.Render(
			fmt.Sprintf("showing %s of %s rows", fmtNumber(len(shown)), fmtNumber(len(rt.Rows))))
		return table + "\n" + footer
	}
	return table
}

// columnWidths computes a display width per column from the header and
// the visible rows.
func (rt ResultTable) columnWidths(rows []api.Row) []int {
	widths := make([]int, len(rt.Columns))
	for i, col := range rt.Columns {
		widths[i] = util.StringWidth(col)
	}
	for _, row := range rows {
		for i, col := range rt.Columns {
			if w := util.StringWidth(cellValue(row, col)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] > maxCellWidth {
			widths[i] = maxCellWidth
		}
		if widths[i] < minCellWidth {
			widths[i] = minCellWidth
		}
	}
	return widths
}

// cellValue formats one cell. JSON numbers arrive as float64; whole
// values render without a decimal point.
func cellValue(row api.Row, col string) string {
	v, ok := row[col]
	if !ok || v == nil {
		return ""
	}
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%.2f", n)
	case string:
		return n
	default:
		return fmt.Sprintf("%v", v)
	}
}

// pad truncates or pads a value to the column width.
func pad(s string, width int) string {
	s = util.TruncateWidth(s, width)
	if gap := width - util.StringWidth(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/datawise-tui/internal/api"
	"github.com/jeranaias/datawise-tui/internal/ui/styles"
)

// =============================================================================
// VISUALIZATION RENDERER
// =============================================================================

// chartGlyphs maps backend chart types to a terminal marker.
var chartGlyphs = map[string]string{
	"bar":     "|#|",
	"line":    "/\\/",
	"pie":     "(%)",
	"scatter": ": .",
}

// RenderVisualization renders the charts-and-insights augmentation
// attached to a completed answer.
func RenderVisualization(viz *api.Visualization, theme *styles.Theme, maxWidth int) string {
	if viz == nil {
		return ""
	}

	var parts []string

	if len(viz.Charts) > 0 {
		var lines []string
		for _, chart := range viz.Charts {
			glyph, ok := chartGlyphs[strings.ToLower(chart.Type)]
			if !ok {
				glyph = "[~]"
			}
			title := chart.Title
			if title == "" {
				title = chart.Type
			}
			lines = append(lines, fmt.Sprintf("%s %s", glyph, theme.ChartTitle.Render(title)))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	if viz.Insights != "" {
		box := theme.InsightBox.MaxWidth(maxWidth).Render(
			theme.ChartTitle.Render("Insights") + "\n" +
				theme.InsightText.Render(strings.TrimSpace(viz.Insights)))
		parts = append(parts, box)
	}

	if len(viz.Summary) > 0 {
		var lines []string
		for key, value := range viz.Summary {
			lines = append(lines, fmt.Sprintf("%s: %v", key, value))
		}
		// Map order is random; sort for stable rendering.
		sort.Strings(lines)
		parts = append(parts, theme.InsightText.Render(strings.Join(lines, "\n")))
	}

	return strings.Join(parts, "\n")
}

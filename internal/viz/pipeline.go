// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package viz augments completed answers with charts and insights.
//
// Visualization is strictly additive: it starts only after an answer
// completes with results, and a failure leaves the answer exactly as
// it was. The user never sees a visualization error, only the absence
// of charts.
package viz

import (
	"context"
	"log"

	"github.com/jeranaias/datawise-tui/internal/api"
)

// Visualizer is the slice of the API client the pipeline needs.
type Visualizer interface {
	Visualize(ctx context.Context, rows []api.Row, question string) (*api.Visualization, error)
}

// Delivery hands a finished visualization back to the timeline owner,
// keyed by the assistant entry it belongs to. It runs on the pipeline
// goroutine; UI callers must bridge it to their event loop.
type Delivery func(entryID string, viz *api.Visualization)

// Pipeline requests visualizations in the background.
type Pipeline struct {
	client  Visualizer
	logger  *log.Logger
	deliver Delivery
}

// NewPipeline creates a pipeline that reports results through deliver.
func NewPipeline(client Visualizer, deliver Delivery) *Pipeline {
	return &Pipeline{
		client:  client,
		logger:  log.Default(),
		deliver: deliver,
	}
}

// WithLogger sets the logger used for swallowed failures.
func (p *Pipeline) WithLogger(l *log.Logger) *Pipeline {
	if l != nil {
		p.logger = l
	}
	return p
}

// Request starts a background visualization for a completed entry.
// Entries without results are skipped outright. Failures are logged
// and swallowed; the entry simply stays chartless.
func (p *Pipeline) Request(ctx context.Context, entryID, question string, rows []api.Row) {
	if len(rows) == 0 {
		return
	}

	go func() {
		viz, err := p.client.Visualize(ctx, rows, question)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Printf("Visualization for entry %s failed: %v", entryID, err)
			}
			return
		}
		if viz == nil || (len(viz.Charts) == 0 && viz.Insights == "" && len(viz.Summary) == 0) {
			return
		}
		if ctx.Err() != nil {
			return
		}
		p.deliver(entryID, viz)
	}()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/citegraph/pkg/types"
)

// ErrEdgeNotFound reports an unknown edge ID in a single-edge retry.
var ErrEdgeNotFound = errors.New("edge not in graph")

// BatchStats summarizes an edge annotation run.
type BatchStats struct {
	Total     int      `json:"total" yaml:"total"`
	Annotated int      `json:"annotated" yaml:"annotated"`
	Skipped   int      `json:"skipped" yaml:"skipped"`
	Failed    int      `json:"failed" yaml:"failed"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// edgeResult is one completed comparison, slotted by edge index so the
// apply phase is independent of completion order.
type edgeResult struct {
	cmp types.Comparison
	err error
}

// AnnotateEdges compares the endpoint papers of every edge and writes the
// results onto the edges: Context gets the short label, DeltaDescription
// the insight, ContributionType the relationship. Comparisons run with
// bounded parallelism; per-edge failures are recorded in the stats and do
// not abort the batch. Cancelling ctx stops launching new comparisons;
// results already computed are still written back, each edge updated
// atomically or not at all.
func (c *Comparator) AnnotateEdges(ctx context.Context, g *types.ResearchGraph, w io.Writer) (BatchStats, error) {
	stats := BatchStats{Total: len(g.Edges)}
	results := make([]*edgeResult, len(g.Edges))

	sem := make(chan struct{}, c.Config.MaxParallel)
	var wg sync.WaitGroup

	for i := range g.Edges {
		if ctx.Err() != nil {
			break
		}

		e := &g.Edges[i]
		from := g.NodeByID(e.FromPaper)
		to := g.NodeByID(e.ToPaper)
		if from == nil || to == nil {
			stats.Skipped++
			continue
		}
		if from.Abstract == "" && from.FullText == "" && to.Abstract == "" && to.FullText == "" {
			// Nothing to prompt with; annotate with a neutral label the
			// way an analyst would mark an unreviewable citation.
			e.Context = "citation"
			e.DeltaDescription = "insufficient text to analyze the relationship"
			stats.Skipped++
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(i int, from, to *types.PaperNode) {
			defer wg.Done()
			defer func() { <-sem }()
			cmp, err := c.ComparePair(ctx, from, to)
			results[i] = &edgeResult{cmp: cmp, err: err}
		}(i, from, to)
	}
	wg.Wait()

	for i, r := range results {
		if r == nil {
			continue
		}
		e := &g.Edges[i]
		if r.err != nil {
			stats.Failed++
			stats.Warnings = append(stats.Warnings,
				fmt.Sprintf("edge %s -> %s: %v", e.FromPaper, e.ToPaper, r.err))
			fmt.Fprintf(w, "failed    %s -> %s: %v\n", e.FromPaper, e.ToPaper, r.err)
			continue
		}
		applyComparison(e, r.cmp)
		stats.Annotated++
		fmt.Fprintf(w, "annotated %s -> %s: %s\n", e.FromPaper, e.ToPaper, e.Context)
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// AnnotateEdge re-runs the comparison for a single edge, the retry path
// after a per-edge failure in a batch.
func (c *Comparator) AnnotateEdge(ctx context.Context, g *types.ResearchGraph, edgeID string) (types.CitationEdge, error) {
	e := g.EdgeByID(edgeID)
	if e == nil {
		return types.CitationEdge{}, fmt.Errorf("edge %s: %w", edgeID, ErrEdgeNotFound)
	}
	from := g.NodeByID(e.FromPaper)
	to := g.NodeByID(e.ToPaper)
	if from == nil || to == nil {
		return types.CitationEdge{}, fmt.Errorf("edge %s has a missing endpoint: %w", edgeID, ErrEdgeNotFound)
	}

	cmp, err := c.ComparePair(ctx, from, to)
	if err != nil {
		return types.CitationEdge{}, err
	}
	applyComparison(e, cmp)
	return *e, nil
}

// applyComparison writes a comparison onto an edge. All fields change
// together so a reader never sees a half-annotated edge.
func applyComparison(e *types.CitationEdge, cmp types.Comparison) {
	e.Context = cmp.ShortLabel
	e.DeltaDescription = cmp.Insight
	e.ContributionType = string(cmp.RelationshipType)
}

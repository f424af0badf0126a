// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine exposes the citation network operations behind a single
// facade: assembly, clustering, filtering, path queries, edge comparison,
// and attribute extraction, all reading and writing graphs through the
// graph store. The CLI is a thin wrapper over this package.
package engine

import (
	"context"
	"io"
	"net/http"

	"github.com/pdiddy/citegraph/internal/assemble"
	"github.com/pdiddy/citegraph/internal/cluster"
	"github.com/pdiddy/citegraph/internal/compare"
	"github.com/pdiddy/citegraph/internal/extract"
	"github.com/pdiddy/citegraph/internal/filter"
	"github.com/pdiddy/citegraph/internal/graphstore"
	"github.com/pdiddy/citegraph/internal/pathfind"
	"github.com/pdiddy/citegraph/internal/source"
	"github.com/pdiddy/citegraph/pkg/types"
)

// Engine wires the components together. Tests construct it directly with
// fakes; New builds the production wiring from configuration.
type Engine struct {
	Store      graphstore.Store
	Source     source.Source
	Clusterer  *cluster.Clusterer
	Comparator *compare.Comparator
	Registry   *extract.Registry
	Config     types.EngineConfig
}

// New constructs an engine from configuration.
func New(cfg types.EngineConfig) (*Engine, error) {
	store, err := graphstore.New(cfg.Store)
	if err != nil {
		return nil, err
	}
	src, err := source.New(cfg.Source)
	if err != nil {
		store.Close()
		return nil, err
	}

	backend := &compare.ClaudeBackend{
		APIKey: cfg.Compare.APIKey,
		Model:  cfg.Compare.Model,
		Client: &http.Client{Timeout: cfg.Compare.Timeout},
	}

	return &Engine{
		Store:      store,
		Source:     src,
		Clusterer:  cluster.New(cfg.Cluster),
		Comparator: compare.New(backend, cfg.Compare),
		Registry:   extract.NewRegistry(),
		Config:     cfg,
	}, nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	return e.Store.Close()
}

// Build assembles a graph from seed identifiers and stores it. Options
// left at their zero values fall back to the engine configuration.
func (e *Engine) Build(ctx context.Context, seeds []string, opts assemble.Options, w io.Writer) (*types.ResearchGraph, assemble.Stats, error) {
	if opts.MaxIntermediate <= 0 {
		opts.MaxIntermediate = e.Config.Assembly.MaxIntermediate
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = e.Config.Assembly.MaxParallel
	}

	g, stats, err := assemble.Assemble(ctx, e.Source, seeds, opts, w)
	if err != nil {
		return nil, stats, err
	}
	if err := e.Store.Put(ctx, g); err != nil {
		return nil, stats, err
	}
	return g, stats, nil
}

// BuildFromRecords stores a seed-only graph built from pre-extracted
// paper records, the ingestion path for papers arriving from a document
// extraction service rather than a metadata provider.
func (e *Engine) BuildFromRecords(ctx context.Context, name string, records []types.PaperRecord) (*types.ResearchGraph, assemble.Stats, error) {
	g, stats, err := assemble.BuildFromRecords(name, records)
	if err != nil {
		return nil, stats, err
	}
	if err := e.Store.Put(ctx, g); err != nil {
		return nil, stats, err
	}
	return g, stats, nil
}

// Cluster groups the stored graph's papers and persists the cluster_id
// attributes.
func (e *Engine) Cluster(ctx context.Context, graphID string, opts cluster.Options) (*cluster.Result, error) {
	var result *cluster.Result
	_, err := e.Store.Update(ctx, graphID, func(g *types.ResearchGraph) error {
		var err error
		result, err = e.Clusterer.Cluster(g, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Filter returns the matching sub-graph. The result is derived and not
// stored.
func (e *Engine) Filter(ctx context.Context, graphID string, conditions []filter.Condition, logic filter.Logic) (*filter.Result, error) {
	g, err := e.Store.Get(ctx, graphID)
	if err != nil {
		return nil, err
	}
	return filter.Apply(g, conditions, logic)
}

// Path finds the shortest directed citation path between two papers.
func (e *Engine) Path(ctx context.Context, graphID, sourceID, targetID string) (*pathfind.Path, error) {
	g, err := e.Store.Get(ctx, graphID)
	if err != nil {
		return nil, err
	}
	return pathfind.Find(g, sourceID, targetID)
}

// CompareEdges annotates every edge of the stored graph with the
// comparator's relationship analysis. Per-edge failures accumulate in
// the stats. A cancelled run still commits the edges annotated before
// the cancellation and reports the context error.
func (e *Engine) CompareEdges(ctx context.Context, graphID string, w io.Writer) (compare.BatchStats, error) {
	var stats compare.BatchStats
	var runErr error
	_, err := e.Store.Update(ctx, graphID, func(g *types.ResearchGraph) error {
		stats, runErr = e.Comparator.AnnotateEdges(ctx, g, w)
		// Commit partial annotations even when the run was cancelled.
		return nil
	})
	if err != nil {
		return stats, err
	}
	return stats, runErr
}

// CompareSingleEdge re-runs the comparison for one edge, the retry path
// for a pair that failed during a batch.
func (e *Engine) CompareSingleEdge(ctx context.Context, graphID, edgeID string) (types.CitationEdge, error) {
	var edge types.CitationEdge
	_, err := e.Store.Update(ctx, graphID, func(g *types.ResearchGraph) error {
		var err error
		edge, err = e.Comparator.AnnotateEdge(ctx, g, edgeID)
		return err
	})
	if err != nil {
		return types.CitationEdge{}, err
	}
	return edge, nil
}

// Extract runs attribute extractors over the stored graph. An empty name
// list runs all registered extractors.
func (e *Engine) Extract(ctx context.Context, graphID string, names []string, force bool, w io.Writer) error {
	_, err := e.Store.Update(ctx, graphID, func(g *types.ResearchGraph) error {
		return e.Registry.Apply(g, names, force, w)
	})
	return err
}

// Get returns the stored graph.
func (e *Engine) Get(ctx context.Context, graphID string) (*types.ResearchGraph, error) {
	return e.Store.Get(ctx, graphID)
}

// List returns summaries of all stored graphs.
func (e *Engine) List(ctx context.Context) ([]types.GraphSummary, error) {
	return e.Store.List(ctx)
}

// Delete removes a stored graph.
func (e *Engine) Delete(ctx context.Context, graphID string) error {
	return e.Store.Delete(ctx, graphID)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graphstore keeps ResearchGraph snapshots keyed by graph ID.
// The store is the engine's only shared mutable resource: writes to one
// graph ID serialize behind a per-ID lock, reads return the last
// committed snapshot, and operations on different graphs never block
// each other.
package graphstore

import (
	"context"
	"errors"

	"github.com/pdiddy/citegraph/pkg/types"
)

// ErrNotFound reports an unknown graph ID.
var ErrNotFound = errors.New("graph not found")

// Store is the graph registry. Get returns a deep copy of the committed
// snapshot; callers mutate a graph only through Update, which holds the
// graph's write lock for the whole read-modify-write cycle.
type Store interface {
	// Put stores a graph snapshot under its ID, replacing any previous
	// snapshot.
	Put(ctx context.Context, g *types.ResearchGraph) error

	// Get returns a deep copy of the committed snapshot for id.
	Get(ctx context.Context, id string) (*types.ResearchGraph, error)

	// Update applies fn to a working copy of the graph under the ID's
	// write lock and commits the result if fn returns nil. The committed
	// copy is returned.
	Update(ctx context.Context, id string, fn func(*types.ResearchGraph) error) (*types.ResearchGraph, error)

	// Delete removes a graph.
	Delete(ctx context.Context, id string) error

	// List returns summaries of all stored graphs ordered by creation time.
	List(ctx context.Context) ([]types.GraphSummary, error)

	// Close releases store resources.
	Close() error
}

// New constructs a store from configuration: SQLite-backed when a path is
// configured, in-memory otherwise.
func New(cfg types.StoreConfig) (Store, error) {
	if cfg.Path == "" {
		return NewMemoryStore(), nil
	}
	return NewSQLiteStore(cfg.Path)
}

func summarize(g *types.ResearchGraph) types.GraphSummary {
	return types.GraphSummary{
		ID:        g.ID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt,
		NodeCount: len(g.Nodes),
		EdgeCount: len(g.Edges),
	}
}

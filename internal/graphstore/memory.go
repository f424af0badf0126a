// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graphstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pdiddy/citegraph/pkg/types"
)

// MemoryStore keeps graphs in process memory. Each graph ID owns a mutex
// so concurrent operations on the same graph serialize while different
// graphs proceed independently.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memEntry
}

type memEntry struct {
	mu    sync.Mutex
	graph *types.ResearchGraph
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memEntry)}
}

// Put stores a deep copy of g under its ID.
func (s *MemoryStore) Put(_ context.Context, g *types.ResearchGraph) error {
	if g.ID == "" {
		return fmt.Errorf("graph has no ID")
	}

	s.mu.Lock()
	e, ok := s.entries[g.ID]
	if !ok {
		e = &memEntry{}
		s.entries[g.ID] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	e.graph = g.Clone()
	e.mu.Unlock()
	return nil
}

// Get returns a deep copy of the committed snapshot for id.
func (s *MemoryStore) Get(_ context.Context, id string) (*types.ResearchGraph, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("graph %s: %w", id, ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return nil, fmt.Errorf("graph %s: %w", id, ErrNotFound)
	}
	return e.graph.Clone(), nil
}

// Update applies fn to a working copy under the graph's lock and commits
// the copy when fn succeeds. A failing fn leaves the committed snapshot
// untouched.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*types.ResearchGraph) error) (*types.ResearchGraph, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("graph %s: %w", id, ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return nil, fmt.Errorf("graph %s: %w", id, ErrNotFound)
	}

	working := e.graph.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	e.graph = working
	return working.Clone(), nil
}

// Delete removes a graph. Deleting an unknown ID is an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("graph %s: %w", id, ErrNotFound)
	}
	delete(s.entries, id)
	return nil
}

// List returns summaries ordered by creation time, then ID.
func (s *MemoryStore) List(_ context.Context) ([]types.GraphSummary, error) {
	s.mu.RLock()
	entries := make([]*memEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var summaries []types.GraphSummary
	for _, e := range entries {
		e.mu.Lock()
		if e.graph != nil {
			summaries = append(summaries, summarize(e.graph))
		}
		e.mu.Unlock()
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pathfind answers directed shortest-path queries over the
// citation relation of a research graph.
package pathfind

import (
	"errors"
	"fmt"

	"github.com/pdiddy/citegraph/pkg/types"
)

// ErrNodeNotFound reports a source or target ID absent from the graph.
var ErrNodeNotFound = errors.New("node not in graph")

// ErrNoPath reports that both endpoints exist but no directed path
// connects them.
var ErrNoPath = errors.New("no citation path between papers")

// Path is a directed citation path. Nodes lists the papers from source to
// target; Edges lists the traversed citation edges, one per hop.
type Path struct {
	Nodes []types.PaperNode   `json:"nodes" yaml:"nodes"`
	Edges []types.CitationEdge `json:"edges" yaml:"edges"`
}

// Length returns the hop count.
func (p *Path) Length() int { return len(p.Edges) }

// hop records how BFS reached a node: the predecessor and the edge taken.
type hop struct {
	prev string
	edge *types.CitationEdge
}

// Find returns the shortest directed path from sourceID to targetID
// following edge direction (citing paper to cited paper). Breadth-first
// search over edges in insertion order makes tie-breaks among equal-length
// paths deterministic. A query from a node to itself returns a zero-hop
// path.
func Find(g *types.ResearchGraph, sourceID, targetID string) (*Path, error) {
	src := g.NodeByID(sourceID)
	if src == nil {
		return nil, fmt.Errorf("source %s: %w", sourceID, ErrNodeNotFound)
	}
	dst := g.NodeByID(targetID)
	if dst == nil {
		return nil, fmt.Errorf("target %s: %w", targetID, ErrNodeNotFound)
	}

	if sourceID == targetID {
		return &Path{Nodes: []types.PaperNode{*src}}, nil
	}

	// Adjacency in edge insertion order.
	out := make(map[string][]*types.CitationEdge)
	for i := range g.Edges {
		e := &g.Edges[i]
		out[e.FromPaper] = append(out[e.FromPaper], e)
	}

	visited := map[string]hop{sourceID: {}}
	queue := []string{sourceID}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, e := range out[cur] {
			if _, seen := visited[e.ToPaper]; seen {
				continue
			}
			visited[e.ToPaper] = hop{prev: cur, edge: e}
			if e.ToPaper == targetID {
				return reconstruct(g, sourceID, targetID, visited), nil
			}
			queue = append(queue, e.ToPaper)
		}
	}

	return nil, fmt.Errorf("%s to %s: %w", sourceID, targetID, ErrNoPath)
}

func reconstruct(g *types.ResearchGraph, sourceID, targetID string, visited map[string]hop) *Path {
	var nodes []types.PaperNode
	var edges []types.CitationEdge

	for cur := targetID; ; {
		nodes = append(nodes, *g.NodeByID(cur))
		if cur == sourceID {
			break
		}
		h := visited[cur]
		edges = append(edges, *h.edge)
		cur = h.prev
	}

	reverseNodes(nodes)
	reverseEdges(edges)
	return &Path{Nodes: nodes, Edges: edges}
}

func reverseNodes(s []types.PaperNode) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseEdges(s []types.CitationEdge) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

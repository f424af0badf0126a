// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the citation network
// engine: paper nodes, citation edges, research graphs, and the
// configuration structs consumed by each component.
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaperSource records how a paper entered a graph. It is fixed at node
// creation and never mutated afterwards.
type PaperSource string

const (
	// SourceInput marks a paper supplied directly by the caller as a seed.
	SourceInput PaperSource = "input"

	// SourceIntermediate marks a paper discovered through the reference and
	// citer lists of seeds and materialized for its connector score.
	SourceIntermediate PaperSource = "intermediate"
)

// PaperNode is a paper in a citation graph.
type PaperNode struct {
	// ID is a normalized external identifier (arXiv ID, DOI, provider ID)
	// or an internally minted UUID when no external identifier exists.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// PublicationDate is the publication date; the zero value means unknown.
	PublicationDate time.Time `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`

	// Venue is the publication venue, if known.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// FullText is the full paper text when available (seeds ingested from
	// an extraction service); empty for papers known only by metadata.
	FullText string `json:"full_text,omitempty" yaml:"full_text,omitempty"`

	// CitationCount is the provider-reported citation count.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// Attributes holds extracted and derived attributes (open schema).
	Attributes Attributes `json:"attributes" yaml:"attributes"`

	// Source records whether the paper was a seed or discovered.
	Source PaperSource `json:"paper_source" yaml:"paper_source"`
}

// Year returns the publication year, or 0 when the date is unknown.
func (n *PaperNode) Year() int {
	if n.PublicationDate.IsZero() {
		return 0
	}
	return n.PublicationDate.Year()
}

// SetAttr writes an attribute, allocating the map on first use.
func (n *PaperNode) SetAttr(key string, v AttrValue) {
	if n.Attributes == nil {
		n.Attributes = make(Attributes)
	}
	n.Attributes[key] = v
}

// CitationEdge is a directed citation relation: FromPaper cites ToPaper.
type CitationEdge struct {
	// ID identifies the edge within its graph.
	ID string `json:"id" yaml:"id"`

	// FromPaper is the citing paper's node ID.
	FromPaper string `json:"from_paper" yaml:"from_paper"`

	// ToPaper is the cited paper's node ID.
	ToPaper string `json:"to_paper" yaml:"to_paper"`

	// ContributionType categorizes the citation (e.g. "reference",
	// "foundation", "extension", "baseline"). Open vocabulary.
	ContributionType string `json:"contribution_type" yaml:"contribution_type"`

	// Strength is the citation importance in [0,1].
	Strength float64 `json:"strength" yaml:"strength"`

	// Context is free text describing the citation context.
	Context string `json:"context,omitempty" yaml:"context,omitempty"`

	// DeltaDescription summarizes what the citing paper took from the cited
	// paper. Populated lazily by the comparator; empty until then.
	DeltaDescription string `json:"delta_description,omitempty" yaml:"delta_description,omitempty"`
}

// ResearchGraph is a citation graph snapshot. Nodes and edges keep their
// insertion order so API responses are deterministic. Callers mutate a
// graph only through AddNode, AddEdge, and the engine operations.
type ResearchGraph struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	Nodes []PaperNode    `json:"nodes" yaml:"nodes"`
	Edges []CitationEdge `json:"edges" yaml:"edges"`

	// Metadata holds free-form graph statistics (paper counts, date range).
	Metadata map[string]string `json:"metadata" yaml:"metadata"`

	// ExtractorsApplied lists the extractor names that have run on this
	// graph, to avoid redundant re-extraction.
	ExtractorsApplied []string `json:"extractors_applied" yaml:"extractors_applied"`
}

// NewResearchGraph creates an empty graph with a minted UUID.
func NewResearchGraph(name string) *ResearchGraph {
	now := time.Now().UTC()
	return &ResearchGraph{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  make(map[string]string),
	}
}

// AddNode appends a node. Node IDs must be unique within the graph; a
// duplicate ID is an error. An empty ID receives a minted UUID.
func (g *ResearchGraph) AddNode(n PaperNode) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if g.NodeByID(n.ID) != nil {
		return fmt.Errorf("node %s already exists in graph %s", n.ID, g.ID)
	}
	g.Nodes = append(g.Nodes, n)
	g.UpdatedAt = time.Now().UTC()
	return nil
}

// AddEdge appends a directed citation edge. Self-loops are rejected, and
// both endpoints must already exist as nodes. When an edge for the same
// ordered pair already exists the two are merged: the higher strength
// wins and empty context or contribution type fields are filled in from
// the new edge.
func (g *ResearchGraph) AddEdge(e CitationEdge) error {
	if e.FromPaper == e.ToPaper {
		return fmt.Errorf("self-loop on node %s rejected", e.FromPaper)
	}
	if g.NodeByID(e.FromPaper) == nil {
		return fmt.Errorf("edge endpoint %s not in graph %s", e.FromPaper, g.ID)
	}
	if g.NodeByID(e.ToPaper) == nil {
		return fmt.Errorf("edge endpoint %s not in graph %s", e.ToPaper, g.ID)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	for i := range g.Edges {
		ex := &g.Edges[i]
		if ex.FromPaper == e.FromPaper && ex.ToPaper == e.ToPaper {
			if e.Strength > ex.Strength {
				ex.Strength = e.Strength
			}
			if ex.Context == "" {
				ex.Context = e.Context
			}
			if ex.ContributionType == "" {
				ex.ContributionType = e.ContributionType
			}
			g.UpdatedAt = time.Now().UTC()
			return nil
		}
	}

	g.Edges = append(g.Edges, e)
	g.UpdatedAt = time.Now().UTC()
	return nil
}

// NodeByID returns a pointer to the node with the given ID, or nil.
func (g *ResearchGraph) NodeByID(id string) *PaperNode {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// EdgeByID returns a pointer to the edge with the given ID, or nil.
func (g *ResearchGraph) EdgeByID(id string) *CitationEdge {
	for i := range g.Edges {
		if g.Edges[i].ID == id {
			return &g.Edges[i]
		}
	}
	return nil
}

// NodeIndex returns a map from node ID to index in the Nodes slice.
func (g *ResearchGraph) NodeIndex() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i := range g.Nodes {
		idx[g.Nodes[i].ID] = i
	}
	return idx
}

// HasExtractor reports whether the named extractor has run on this graph.
func (g *ResearchGraph) HasExtractor(name string) bool {
	for _, e := range g.ExtractorsApplied {
		if e == name {
			return true
		}
	}
	return false
}

// MarkExtractor records that the named extractor has run, once.
func (g *ResearchGraph) MarkExtractor(name string) {
	if !g.HasExtractor(name) {
		g.ExtractorsApplied = append(g.ExtractorsApplied, name)
	}
}

// Clone returns a deep copy of the graph.
func (g *ResearchGraph) Clone() *ResearchGraph {
	out := &ResearchGraph{
		ID:        g.ID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
	out.Nodes = make([]PaperNode, len(g.Nodes))
	for i, n := range g.Nodes {
		n.Authors = append([]string(nil), n.Authors...)
		n.Attributes = n.Attributes.Clone()
		out.Nodes[i] = n
	}
	out.Edges = append([]CitationEdge(nil), g.Edges...)
	if g.Metadata != nil {
		out.Metadata = make(map[string]string, len(g.Metadata))
		for k, v := range g.Metadata {
			out.Metadata[k] = v
		}
	}
	out.ExtractorsApplied = append([]string(nil), g.ExtractorsApplied...)
	return out
}

// GraphSummary is a listing entry for a stored graph.
type GraphSummary struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	NodeCount int       `json:"node_count" yaml:"node_count"`
	EdgeCount int       `json:"edge_count" yaml:"edge_count"`
}

// PaperRecord is a provider-neutral paper metadata record returned by a
// metadata source or an external text-extraction service. Any field other
// than Title may be missing.
type PaperRecord struct {
	// ID is the provider's identifier for the paper.
	ID string `json:"id" yaml:"id"`

	Title    string   `json:"title" yaml:"title"`
	Authors  []string `json:"authors" yaml:"authors"`
	Abstract string   `json:"abstract" yaml:"abstract"`
	FullText string   `json:"full_text,omitempty" yaml:"full_text,omitempty"`
	Venue    string   `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Date is the publication date; zero when the provider reports none.
	Date time.Time `json:"date,omitempty" yaml:"date,omitempty"`

	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// DOI and ArXivID carry external identifiers when the provider
	// reports them.
	DOI     string `json:"doi,omitempty" yaml:"doi,omitempty"`
	ArXivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
}

// Node converts the record into a PaperNode with the given provenance.
func (r PaperRecord) Node(src PaperSource) PaperNode {
	return PaperNode{
		ID:              r.ID,
		Title:           r.Title,
		Authors:         append([]string(nil), r.Authors...),
		PublicationDate: r.Date,
		Venue:           r.Venue,
		Abstract:        r.Abstract,
		FullText:        r.FullText,
		CitationCount:   r.CitationCount,
		Attributes:      make(Attributes),
		Source:          src,
	}
}

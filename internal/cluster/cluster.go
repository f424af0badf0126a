// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cluster groups the papers of a research graph into thematic
// clusters. Three methods are supported: content (TF-IDF vectors over
// title+abstract, k-means), citation (label propagation communities over
// the undirected citation graph), and hybrid (weighted combination of
// content cosine similarity and co-neighbor Jaccard similarity, grouped
// by average-linkage agglomerative clustering).
//
// Content and hybrid clustering honor the requested cluster count. The
// citation method returns the natural community count, which may differ
// from the request; callers read the actual count from the result.
package cluster

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/pdiddy/citegraph/pkg/types"
)

// ErrInsufficientData reports a graph with fewer nodes than the requested
// cluster count.
var ErrInsufficientData = errors.New("insufficient data for requested cluster count")

// Method selects the clustering algorithm.
type Method string

const (
	MethodContent  Method = "content"
	MethodCitation Method = "citation"
	MethodHybrid   Method = "hybrid"
)

// Options are the per-call clustering parameters.
type Options struct {
	Method   Method
	Clusters int

	// ContentWeight and CitationWeight apply to the hybrid method only.
	// When they do not sum to 1 they are normalized; when both are zero
	// the defaults 0.7 and 0.3 apply.
	ContentWeight  float64
	CitationWeight float64
}

// Summary describes one cluster.
type Summary struct {
	ClusterID int      `json:"cluster_id" yaml:"cluster_id"`
	Size      int      `json:"size" yaml:"size"`
	TopTerms  []string `json:"top_terms,omitempty" yaml:"top_terms,omitempty"`

	// SamplePapers holds up to five member titles in graph order.
	SamplePapers []string `json:"sample_papers" yaml:"sample_papers"`

	// MeanYear averages the publication years of members with a known
	// date; zero when no member has one.
	MeanYear float64 `json:"mean_year" yaml:"mean_year"`

	// InternalEdges counts edges with both endpoints inside the cluster.
	// Reported for the citation method, where connectivity rather than
	// vocabulary defines the cluster.
	InternalEdges int `json:"internal_edges,omitempty" yaml:"internal_edges,omitempty"`
}

// Result is a completed clustering run.
type Result struct {
	Method    Method         `json:"method" yaml:"method"`
	Clusters  int            `json:"clusters" yaml:"clusters"`
	Labels    map[string]int `json:"labels" yaml:"labels"`
	Summaries []Summary      `json:"summaries" yaml:"summaries"`
}

// Clusterer runs clustering passes over research graphs.
type Clusterer struct {
	Config types.ClusterConfig
}

// New creates a Clusterer, applying config defaults.
func New(cfg types.ClusterConfig) *Clusterer {
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = 500
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.TopTerms <= 0 {
		cfg.TopTerms = 10
	}
	return &Clusterer{Config: cfg}
}

// Cluster assigns every node of g a cluster_id attribute and returns the
// labels with per-cluster summaries. Prior cluster_id values are
// overwritten. Cluster IDs are contiguous integers starting at 0.
func (c *Clusterer) Cluster(g *types.ResearchGraph, opts Options) (*Result, error) {
	if opts.Clusters < 1 {
		opts.Clusters = 5
	}
	if opts.Method != MethodCitation && len(g.Nodes) < opts.Clusters {
		return nil, fmt.Errorf("%d nodes for %d clusters: %w",
			len(g.Nodes), opts.Clusters, ErrInsufficientData)
	}
	if len(g.Nodes) == 0 {
		return nil, fmt.Errorf("empty graph: %w", ErrInsufficientData)
	}

	var (
		labels []int
		vocab  *vocabulary
		vecs   [][]float64
		err    error
	)

	switch opts.Method {
	case MethodContent:
		vocab, vecs, labels, err = c.contentLabels(g, opts.Clusters)
	case MethodCitation:
		labels = c.citationLabels(g)
	case MethodHybrid:
		vocab, vecs, labels, err = c.hybridLabels(g, opts)
	default:
		return nil, fmt.Errorf("unknown clustering method %q", opts.Method)
	}
	if err != nil {
		return nil, err
	}

	labels = relabel(labels)
	count := 0
	for _, l := range labels {
		if l+1 > count {
			count = l + 1
		}
	}

	result := &Result{
		Method:   opts.Method,
		Clusters: count,
		Labels:   make(map[string]int, len(g.Nodes)),
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		result.Labels[n.ID] = labels[i]
		n.SetAttr("cluster_id", types.NumberAttr(float64(labels[i])))
	}

	result.Summaries = c.summarize(g, labels, count, vocab, vecs, opts.Method)

	if g.Metadata == nil {
		g.Metadata = make(map[string]string)
	}
	g.Metadata["cluster_method"] = string(opts.Method)
	g.Metadata["cluster_count"] = strconv.Itoa(count)

	return result, nil
}

// contentLabels vectorizes title+abstract and runs k-means.
func (c *Clusterer) contentLabels(g *types.ResearchGraph, k int) (*vocabulary, [][]float64, []int, error) {
	vocab, vecs := c.vectorize(g)
	labels := kMeans(vecs, k, c.Config.Seed)
	return vocab, vecs, labels, nil
}

// citationLabels runs label propagation over the undirected citation
// graph and returns the natural community count.
func (c *Clusterer) citationLabels(g *types.ResearchGraph) []int {
	idx := g.NodeIndex()
	neighbors := make([][]int, len(g.Nodes))
	for _, e := range g.Edges {
		i, okFrom := idx[e.FromPaper]
		j, okTo := idx[e.ToPaper]
		if !okFrom || !okTo {
			continue
		}
		neighbors[i] = append(neighbors[i], j)
		neighbors[j] = append(neighbors[j], i)
	}
	return labelPropagation(neighbors)
}

// hybridLabels combines content cosine similarity with co-neighbor
// Jaccard similarity and clusters the combined matrix.
func (c *Clusterer) hybridLabels(g *types.ResearchGraph, opts Options) (*vocabulary, [][]float64, []int, error) {
	cw, xw := normalizeWeights(opts.ContentWeight, opts.CitationWeight)

	vocab, vecs := c.vectorize(g)
	n := len(g.Nodes)

	neighborSets := neighborSets(g)

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := cw*cosine(vecs[i], vecs[j]) + xw*jaccard(neighborSets[i], neighborSets[j])
			d := 1 - sim
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	labels := averageLinkage(dist, opts.Clusters)
	return vocab, vecs, labels, nil
}

// vectorize builds TF-IDF vectors over each node's title and abstract.
func (c *Clusterer) vectorize(g *types.ResearchGraph) (*vocabulary, [][]float64) {
	docs := make([][]string, len(g.Nodes))
	for i := range g.Nodes {
		text := g.Nodes[i].Title + " " + g.Nodes[i].Abstract
		if g.Nodes[i].FullText != "" {
			text = g.Nodes[i].Title + " " + g.Nodes[i].FullText
		}
		docs[i] = tokenize(text)
	}
	vocab := buildVocabulary(docs, c.Config.MaxFeatures)
	vecs := make([][]float64, len(docs))
	for i, doc := range docs {
		vecs[i] = vocab.vector(doc)
	}
	return vocab, vecs
}

// summarize builds per-cluster summaries: sizes, sample titles, mean
// publication year, and either top TF-IDF terms or internal edge counts.
func (c *Clusterer) summarize(g *types.ResearchGraph, labels []int, count int, vocab *vocabulary, vecs [][]float64, method Method) []Summary {
	summaries := make([]Summary, count)
	for id := range summaries {
		summaries[id].ClusterID = id
	}

	yearSum := make([]float64, count)
	yearN := make([]int, count)
	for i := range g.Nodes {
		s := &summaries[labels[i]]
		s.Size++
		if len(s.SamplePapers) < 5 {
			s.SamplePapers = append(s.SamplePapers, g.Nodes[i].Title)
		}
		if y := g.Nodes[i].Year(); y > 0 {
			yearSum[labels[i]] += float64(y)
			yearN[labels[i]]++
		}
	}
	for id := range summaries {
		if yearN[id] > 0 {
			summaries[id].MeanYear = yearSum[id] / float64(yearN[id])
		}
	}

	switch method {
	case MethodCitation:
		idx := g.NodeIndex()
		for _, e := range g.Edges {
			i, okFrom := idx[e.FromPaper]
			j, okTo := idx[e.ToPaper]
			if okFrom && okTo && labels[i] == labels[j] {
				summaries[labels[i]].InternalEdges++
			}
		}
	default:
		for id := range summaries {
			summaries[id].TopTerms = vocab.topTerms(meanVector(vecs, labels, id), c.Config.TopTerms)
		}
	}

	return summaries
}

// neighborSets returns, per node index, the set of adjacent node indices
// ignoring edge direction.
func neighborSets(g *types.ResearchGraph) []map[int]struct{} {
	idx := g.NodeIndex()
	sets := make([]map[int]struct{}, len(g.Nodes))
	for i := range sets {
		sets[i] = make(map[int]struct{})
	}
	for _, e := range g.Edges {
		i, okFrom := idx[e.FromPaper]
		j, okTo := idx[e.ToPaper]
		if !okFrom || !okTo {
			continue
		}
		sets[i][j] = struct{}{}
		sets[j][i] = struct{}{}
	}
	return sets
}

// jaccard computes |a∩b| / |a∪b|, zero when both sets are empty.
func jaccard(a, b map[int]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// normalizeWeights scales the hybrid weights to sum to 1, defaulting to
// 0.7 content, 0.3 citation when both are zero.
func normalizeWeights(content, citation float64) (float64, float64) {
	if content <= 0 && citation <= 0 {
		return 0.7, 0.3
	}
	if content < 0 {
		content = 0
	}
	if citation < 0 {
		citation = 0
	}
	sum := content + citation
	return content / sum, citation / sum
}

// relabel maps labels to contiguous IDs ordered by first appearance.
func relabel(labels []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
		}
		out[i] = id
	}
	return out
}

// meanVector averages the vectors of the nodes carrying the given label.
func meanVector(vecs [][]float64, labels []int, label int) []float64 {
	if len(vecs) == 0 {
		return nil
	}
	mean := make([]float64, len(vecs[0]))
	n := 0
	for i, l := range labels {
		if l != label {
			continue
		}
		for d, v := range vecs[i] {
			mean[d] += v
		}
		n++
	}
	if n > 0 {
		for d := range mean {
			mean[d] /= float64(n)
		}
	}
	return mean
}

// sortedKeys is used by tests to iterate label maps deterministically.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

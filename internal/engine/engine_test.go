// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

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

type fakeSource struct {
	papers map[string]types.PaperRecord
	refs   map[string][]types.PaperRecord
	citers map[string][]types.PaperRecord
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Resolve(_ context.Context, identifier string) (types.PaperRecord, error) {
	rec, ok := f.papers[identifier]
	if !ok {
		return types.PaperRecord{}, fmt.Errorf("paper %q: %w", identifier, source.ErrNotFound)
	}
	return rec, nil
}

func (f *fakeSource) References(_ context.Context, id string) ([]types.PaperRecord, error) {
	return f.refs[id], nil
}

func (f *fakeSource) Citers(_ context.Context, id string) ([]types.PaperRecord, error) {
	return f.citers[id], nil
}

type fixedBackend struct {
	mu    sync.Mutex
	calls int
	raw   compare.RawComparison
	err   error
}

func (b *fixedBackend) Compare(_ context.Context, _, _ *types.PaperNode) (compare.RawComparison, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.err != nil {
		return compare.RawComparison{}, b.err
	}
	return b.raw, nil
}

func (b *fixedBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func newTestEngine(src source.Source, backend compare.TextBackend) *Engine {
	return &Engine{
		Store:      graphstore.NewMemoryStore(),
		Source:     src,
		Clusterer:  cluster.New(types.ClusterConfig{}),
		Comparator: compare.New(backend, types.CompareConfig{}),
		Registry:   extract.NewRegistry(),
		Config: types.EngineConfig{
			Assembly: types.AssemblyConfig{MaxIntermediate: 50, MaxParallel: 2},
		},
	}
}

// seedGraph stores a four-paper graph with a citation chain and returns
// its ID: a -> b -> c, plus d isolated.
func seedGraph(t *testing.T, e *Engine) string {
	t.Helper()
	g := types.NewResearchGraph("seed")
	nodes := []types.PaperNode{
		{ID: "a", Title: "Transformer Attention Models", Venue: "NeurIPS",
			Abstract: "Attention layers for sequence transduction and language modeling tasks.", Source: types.SourceInput},
		{ID: "b", Title: "Pretrained Language Encoders", Venue: "ACL",
			Abstract: "Pretraining deep language encoders on large text corpora improves transfer.", Source: types.SourceInput},
		{ID: "c", Title: "Protein Folding Networks", Venue: "Nature",
			Abstract: "Deep networks predict protein structure from amino acid sequences.", Source: types.SourceInput},
		{ID: "d", Title: "Genome Sequence Assembly", Venue: "Bioinformatics",
			Abstract: "Assembling genome sequences from short amino acid reads with overlap graphs.", Source: types.SourceInput},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}} {
		if err := g.AddEdge(types.CitationEdge{FromPaper: pair[0], ToPaper: pair[1], ContributionType: "reference", Strength: 1.0}); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.Store.Put(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	return g.ID
}

func TestBuildStoresGraph(t *testing.T) {
	src := &fakeSource{
		papers: map[string]types.PaperRecord{
			"A": {ID: "A", Title: "Paper A"},
			"B": {ID: "B", Title: "Paper B"},
		},
		refs: map[string][]types.PaperRecord{
			"A": {{ID: "X", Title: "Connector X"}},
			"B": {{ID: "X", Title: "Connector X"}},
		},
	}
	e := newTestEngine(src, &fixedBackend{})

	var buf strings.Builder
	g, stats, err := e.Build(context.Background(), []string{"A", "B"},
		assemble.Options{Name: "built", IncludeIntermediate: true}, &buf)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.TotalPapers != 3 {
		t.Errorf("stats = %+v", stats)
	}

	stored, err := e.Get(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("Get after Build: %v", err)
	}
	if len(stored.Nodes) != 3 || len(stored.Edges) != 2 {
		t.Errorf("stored graph: %d nodes, %d edges", len(stored.Nodes), len(stored.Edges))
	}
}

func TestBuildFromRecordsStoresGraph(t *testing.T) {
	e := newTestEngine(&fakeSource{}, &fixedBackend{})

	g, stats, err := e.BuildFromRecords(context.Background(), "ingested", []types.PaperRecord{
		{ID: "p1", Title: "First"},
		{ID: "p2", Title: "Second"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.InputPapers != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if _, err := e.Get(context.Background(), g.ID); err != nil {
		t.Errorf("Get after BuildFromRecords: %v", err)
	}
}

func TestClusterPersistsAttributes(t *testing.T) {
	e := newTestEngine(&fakeSource{}, &fixedBackend{})
	id := seedGraph(t, e)

	result, err := e.Cluster(context.Background(), id, cluster.Options{Method: cluster.MethodContent, Clusters: 2})
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if result.Clusters != 2 {
		t.Errorf("Clusters = %d, want 2", result.Clusters)
	}

	stored, err := e.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	for i := range stored.Nodes {
		if _, ok := stored.Nodes[i].Attributes["cluster_id"]; !ok {
			t.Errorf("node %s missing cluster_id after Cluster", stored.Nodes[i].ID)
		}
	}
	if stored.Metadata["cluster_method"] != "content" {
		t.Errorf("cluster_method = %q", stored.Metadata["cluster_method"])
	}
}

func TestClusterFailureLeavesGraphUntouched(t *testing.T) {
	e := newTestEngine(&fakeSource{}, &fixedBackend{})
	id := seedGraph(t, e)

	// More clusters than nodes.
	_, err := e.Cluster(context.Background(), id, cluster.Options{Method: cluster.MethodContent, Clusters: 10})
	if !errors.Is(err, cluster.ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}

	stored, _ := e.Get(context.Background(), id)
	for i := range stored.Nodes {
		if _, ok := stored.Nodes[i].Attributes["cluster_id"]; ok {
			t.Error("failed clustering run left attributes behind")
		}
	}
}

func TestFilterDerivesWithoutStoring(t *testing.T) {
	e := newTestEngine(&fakeSource{}, &fixedBackend{})
	id := seedGraph(t, e)

	res, err := e.Filter(context.Background(), id, []filter.Condition{
		{Field: "venue", Operator: filter.OpEq, Value: types.StringAttr("NeurIPS")},
	}, filter.LogicAnd)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if res.MatchCount != 1 {
		t.Errorf("MatchCount = %d, want 1", res.MatchCount)
	}

	stored, _ := e.Get(context.Background(), id)
	if len(stored.Nodes) != 4 {
		t.Errorf("filter mutated the stored graph: %d nodes", len(stored.Nodes))
	}
}

func TestPath(t *testing.T) {
	e := newTestEngine(&fakeSource{}, &fixedBackend{})
	id := seedGraph(t, e)

	p, err := e.Path(context.Background(), id, "a", "c")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if p.Length() != 2 {
		t.Errorf("path length = %d, want 2", p.Length())
	}

	if _, err := e.Path(context.Background(), id, "a", "d"); !errors.Is(err, pathfind.ErrNoPath) {
		t.Errorf("err = %v, want ErrNoPath", err)
	}
}

func TestCompareEdgesCommitsAnnotations(t *testing.T) {
	backend := &fixedBackend{raw: compare.RawComparison{
		RelationshipType: "builds_on",
		ShortLabel:       "adds pretraining",
		Insight:          "The citing paper pretrains the cited architecture.",
	}}
	e := newTestEngine(&fakeSource{}, backend)
	id := seedGraph(t, e)

	var buf strings.Builder
	stats, err := e.CompareEdges(context.Background(), id, &buf)
	if err != nil {
		t.Fatalf("CompareEdges: %v", err)
	}
	if stats.Annotated != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}

	stored, _ := e.Get(context.Background(), id)
	for _, edge := range stored.Edges {
		if edge.Context != "adds pretraining" {
			t.Errorf("edge %s->%s context = %q", edge.FromPaper, edge.ToPaper, edge.Context)
		}
		if edge.ContributionType != string(types.RelBuildsOn) {
			t.Errorf("edge contribution = %q", edge.ContributionType)
		}
		if edge.DeltaDescription == "" {
			t.Error("delta description not persisted")
		}
	}
}

func TestCompareSingleEdge(t *testing.T) {
	backend := &fixedBackend{raw: compare.RawComparison{
		RelationshipType: "extends",
		ShortLabel:       "extends the encoder",
		Insight:          "Deeper encoder stack.",
	}}
	e := newTestEngine(&fakeSource{}, backend)
	id := seedGraph(t, e)

	stored, _ := e.Get(context.Background(), id)
	edgeID := stored.Edges[0].ID

	edge, err := e.CompareSingleEdge(context.Background(), id, edgeID)
	if err != nil {
		t.Fatalf("CompareSingleEdge: %v", err)
	}
	if edge.Context != "extends the encoder" {
		t.Errorf("context = %q", edge.Context)
	}
	if got := backend.callCount(); got != 1 {
		t.Errorf("backend calls = %d, want 1", got)
	}

	stored, _ = e.Get(context.Background(), id)
	if stored.EdgeByID(edgeID).Context != "extends the encoder" {
		t.Error("single-edge annotation not committed")
	}

	if _, err := e.CompareSingleEdge(context.Background(), id, "bogus"); !errors.Is(err, compare.ErrEdgeNotFound) {
		t.Errorf("err = %v, want ErrEdgeNotFound", err)
	}
}

func TestExtractPersists(t *testing.T) {
	e := newTestEngine(&fakeSource{}, &fixedBackend{})
	id := seedGraph(t, e)

	var buf strings.Builder
	if err := e.Extract(context.Background(), id, []string{"keywords"}, false, &buf); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	stored, _ := e.Get(context.Background(), id)
	if _, ok := stored.Nodes[0].Attributes["keywords"]; !ok {
		t.Error("keywords attribute not persisted")
	}
	if !stored.HasExtractor("keywords") {
		t.Error("extractor not marked applied")
	}

	if err := e.Extract(context.Background(), id, []string{"sentiment"}, false, &buf); err == nil {
		t.Error("unknown extractor accepted")
	}
}

func TestListAndDelete(t *testing.T) {
	e := newTestEngine(&fakeSource{}, &fixedBackend{})
	id := seedGraph(t, e)

	summaries, err := e.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 || summaries[0].ID != id || summaries[0].NodeCount != 4 {
		t.Errorf("summaries = %+v", summaries)
	}

	if err := e.Delete(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Get(context.Background(), id); !errors.Is(err, graphstore.ErrNotFound) {
		t.Errorf("err after delete = %v, want ErrNotFound", err)
	}
}

func TestOperationsOnUnknownGraph(t *testing.T) {
	e := newTestEngine(&fakeSource{}, &fixedBackend{})
	ctx := context.Background()

	checks := map[string]error{}
	_, err := e.Cluster(ctx, "missing", cluster.Options{Method: cluster.MethodContent})
	checks["cluster"] = err
	_, err = e.Filter(ctx, "missing", nil, filter.LogicAnd)
	checks["filter"] = err
	_, err = e.Path(ctx, "missing", "a", "b")
	checks["path"] = err
	_, err = e.CompareEdges(ctx, "missing", &strings.Builder{})
	checks["compare"] = err
	checks["delete"] = e.Delete(ctx, "missing")

	for op, err := range checks {
		if !errors.Is(err, graphstore.ErrNotFound) {
			t.Errorf("%s on unknown graph: err = %v, want ErrNotFound", op, err)
		}
	}
}

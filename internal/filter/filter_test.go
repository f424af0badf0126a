// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/pdiddy/citegraph/pkg/types"
)

func testGraph(t *testing.T) *types.ResearchGraph {
	t.Helper()
	g := types.NewResearchGraph("mixed")

	nodes := []types.PaperNode{
		{
			ID: "p1", Title: "Attention Is All You Need",
			Venue: "NeurIPS", CitationCount: 90000,
			PublicationDate: time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
			Source:          types.SourceInput,
			Attributes: types.Attributes{
				"cluster_id": types.NumberAttr(0),
				"open_source": types.BoolAttr(true),
			},
		},
		{
			ID: "p2", Title: "BERT: Pre-training of Deep Bidirectional Transformers",
			Venue: "NAACL", CitationCount: 70000,
			PublicationDate: time.Date(2019, 5, 24, 0, 0, 0, 0, time.UTC),
			Source:          types.SourceInput,
			Attributes: types.Attributes{
				"cluster_id": types.NumberAttr(0),
			},
		},
		{
			ID: "p3", Title: "Deep Residual Learning for Image Recognition",
			Venue: "CVPR", CitationCount: 150000,
			PublicationDate: time.Date(2016, 6, 27, 0, 0, 0, 0, time.UTC),
			Source:          types.SourceIntermediate,
			Attributes: types.Attributes{
				"cluster_id": types.NumberAttr(1),
			},
		},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range [][2]string{{"p2", "p1"}, {"p2", "p3"}} {
		if err := g.AddEdge(types.CitationEdge{
			FromPaper: e[0], ToPaper: e[1],
			ContributionType: "reference", Strength: 1.0,
		}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func ids(g *types.ResearchGraph) []string {
	out := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.ID
	}
	return out
}

func TestApplyOperators(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		want []string
	}{
		{
			name: "eq on top-level string",
			cond: Condition{Field: "venue", Operator: OpEq, Value: types.StringAttr("NeurIPS")},
			want: []string{"p1"},
		},
		{
			name: "ne on top-level string",
			cond: Condition{Field: "venue", Operator: OpNe, Value: types.StringAttr("NeurIPS")},
			want: []string{"p2", "p3"},
		},
		{
			name: "gt on citation count",
			cond: Condition{Field: "citation_count", Operator: OpGt, Value: types.NumberAttr(80000)},
			want: []string{"p1", "p3"},
		},
		{
			name: "gte boundary",
			cond: Condition{Field: "citation_count", Operator: OpGte, Value: types.NumberAttr(90000)},
			want: []string{"p1", "p3"},
		},
		{
			name: "lt on year",
			cond: Condition{Field: "year", Operator: OpLt, Value: types.NumberAttr(2018)},
			want: []string{"p1", "p3"},
		},
		{
			name: "lte boundary",
			cond: Condition{Field: "year", Operator: OpLte, Value: types.NumberAttr(2017)},
			want: []string{"p1", "p3"},
		},
		{
			name: "contains is case-insensitive",
			cond: Condition{Field: "title", Operator: OpContains, Value: types.StringAttr("transformers")},
			want: []string{"p2"},
		},
		{
			name: "eq on attribute",
			cond: Condition{Field: "cluster_id", Operator: OpEq, Value: types.NumberAttr(0)},
			want: []string{"p1", "p2"},
		},
		{
			name: "eq on bool attribute",
			cond: Condition{Field: "open_source", Operator: OpEq, Value: types.BoolAttr(true)},
			want: []string{"p1"},
		},
		{
			name: "eq on paper_source",
			cond: Condition{Field: "paper_source", Operator: OpEq, Value: types.StringAttr("intermediate")},
			want: []string{"p3"},
		},
		{
			name: "numeric string coerces",
			cond: Condition{Field: "citation_count", Operator: OpGt, Value: types.StringAttr("100000")},
			want: []string{"p3"},
		},
		{
			name: "missing attribute matches nothing",
			cond: Condition{Field: "nonexistent", Operator: OpEq, Value: types.StringAttr("x")},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGraph(t)
			result, err := Apply(g, []Condition{tt.cond}, LogicAnd)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			got := ids(result.Graph)
			if len(got) != len(tt.want) {
				t.Fatalf("matched %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("matched %v, want %v", got, tt.want)
				}
			}
			if result.MatchCount != len(tt.want) {
				t.Errorf("MatchCount = %d, want %d", result.MatchCount, len(tt.want))
			}
		})
	}
}

func TestApplyLogic(t *testing.T) {
	conds := []Condition{
		{Field: "venue", Operator: OpEq, Value: types.StringAttr("NeurIPS")},
		{Field: "citation_count", Operator: OpGt, Value: types.NumberAttr(100000)},
	}

	g := testGraph(t)
	and, err := Apply(g, conds, LogicAnd)
	if err != nil {
		t.Fatal(err)
	}
	if and.MatchCount != 0 {
		t.Errorf("AND matched %v, want none", ids(and.Graph))
	}

	or, err := Apply(g, conds, LogicOr)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(or.Graph); len(got) != 2 || got[0] != "p1" || got[1] != "p3" {
		t.Errorf("OR matched %v, want [p1 p3]", got)
	}
}

func TestApplyLowercaseLogic(t *testing.T) {
	g := testGraph(t)
	if _, err := Apply(g, nil, "or"); err != nil {
		t.Errorf("lowercase logic rejected: %v", err)
	}
}

func TestApplyEmptyConditionsMatchAll(t *testing.T) {
	g := testGraph(t)
	result, err := Apply(g, nil, LogicAnd)
	if err != nil {
		t.Fatal(err)
	}
	if result.MatchCount != 3 {
		t.Errorf("MatchCount = %d, want 3", result.MatchCount)
	}
	if len(result.Graph.Edges) != 2 {
		t.Errorf("got %d edges, want 2", len(result.Graph.Edges))
	}
}

func TestApplyDropsEdgesWithMissingEndpoint(t *testing.T) {
	g := testGraph(t)
	result, err := Apply(g, []Condition{
		{Field: "cluster_id", Operator: OpEq, Value: types.NumberAttr(0)},
	}, LogicAnd)
	if err != nil {
		t.Fatal(err)
	}

	// p2 -> p3 crosses the cut and must disappear; p2 -> p1 stays.
	if len(result.Graph.Edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(result.Graph.Edges))
	}
	e := result.Graph.Edges[0]
	if e.FromPaper != "p2" || e.ToPaper != "p1" {
		t.Errorf("kept edge %s->%s, want p2->p1", e.FromPaper, e.ToPaper)
	}
}

func TestApplyIdempotent(t *testing.T) {
	conds := []Condition{
		{Field: "citation_count", Operator: OpGte, Value: types.NumberAttr(90000)},
	}

	first, err := Apply(testGraph(t), conds, LogicAnd)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Apply(first.Graph, conds, LogicAnd)
	if err != nil {
		t.Fatal(err)
	}

	if second.MatchCount != first.MatchCount {
		t.Errorf("second pass matched %d, first %d", second.MatchCount, first.MatchCount)
	}
	got, want := ids(second.Graph), ids(first.Graph)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("second pass nodes %v, first %v", got, want)
		}
	}
	if len(second.Graph.Edges) != len(first.Graph.Edges) {
		t.Errorf("second pass edges %d, first %d", len(second.Graph.Edges), len(first.Graph.Edges))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	g := testGraph(t)
	result, err := Apply(g, []Condition{
		{Field: "venue", Operator: OpEq, Value: types.StringAttr("NeurIPS")},
	}, LogicAnd)
	if err != nil {
		t.Fatal(err)
	}

	result.Graph.Nodes[0].Title = "mutated"
	result.Graph.Nodes[0].Attributes["cluster_id"] = types.NumberAttr(99)

	if g.NodeByID("p1").Title != "Attention Is All You Need" {
		t.Error("filtering leaked a mutable reference to the input graph")
	}
	if v, _ := g.NodeByID("p1").Attributes["cluster_id"].AsNumber(); v != 0 {
		t.Error("attribute map shared between input and filtered graph")
	}
	if len(g.Nodes) != 3 {
		t.Errorf("input graph has %d nodes, want 3", len(g.Nodes))
	}
}

func TestApplyInvalidFilter(t *testing.T) {
	tests := []struct {
		name  string
		conds []Condition
		logic Logic
	}{
		{
			name:  "unknown operator",
			conds: []Condition{{Field: "title", Operator: "regex", Value: types.StringAttr("x")}},
			logic: LogicAnd,
		},
		{
			name:  "empty field",
			conds: []Condition{{Field: "", Operator: OpEq, Value: types.StringAttr("x")}},
			logic: LogicAnd,
		},
		{
			name:  "unknown logic",
			conds: nil,
			logic: "XOR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(testGraph(t), tt.conds, tt.logic)
			if !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("err = %v, want ErrInvalidFilter", err)
			}
		})
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graphstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/citegraph/pkg/types"
)

// eachStore runs a subtest against both store implementations.
func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore()
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "graphs.db"))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func sampleGraph(id, name string) *types.ResearchGraph {
	g := types.NewResearchGraph(name)
	g.ID = id
	g.AddNode(types.PaperNode{ID: "p1", Title: "Attention Is All You Need", Source: types.SourceInput})
	g.AddNode(types.PaperNode{ID: "p2", Title: "BERT", Source: types.SourceInput})
	g.AddEdge(types.CitationEdge{FromPaper: "p2", ToPaper: "p1", ContributionType: "reference", Strength: 1.0})
	return g
}

func TestPutAndGet(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		g := sampleGraph("g-1", "transformers")

		if err := s.Put(ctx, g); err != nil {
			t.Fatalf("Put: %v", err)
		}

		got, err := s.Get(ctx, "g-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Name != "transformers" {
			t.Errorf("Name = %q, want %q", got.Name, "transformers")
		}
		if len(got.Nodes) != 2 || len(got.Edges) != 1 {
			t.Errorf("got %d nodes, %d edges; want 2, 1", len(got.Nodes), len(got.Edges))
		}
		if got.Nodes[0].Title != "Attention Is All You Need" {
			t.Errorf("node title = %q", got.Nodes[0].Title)
		}
	})
}

func TestPutRequiresID(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		g := &types.ResearchGraph{Name: "no-id"}
		if err := s.Put(context.Background(), g); err == nil {
			t.Fatal("expected error for graph without ID")
		}
	})
}

func TestGetNotFound(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		_, err := s.Get(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestGetReturnsCopy(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Put(ctx, sampleGraph("g-copy", "orig")); err != nil {
			t.Fatal(err)
		}

		first, err := s.Get(ctx, "g-copy")
		if err != nil {
			t.Fatal(err)
		}
		first.Nodes[0].Title = "mutated"
		first.Name = "mutated"

		second, err := s.Get(ctx, "g-copy")
		if err != nil {
			t.Fatal(err)
		}
		if second.Name != "orig" {
			t.Errorf("Name = %q, caller mutation leaked into the store", second.Name)
		}
		if second.Nodes[0].Title != "Attention Is All You Need" {
			t.Errorf("node title = %q, caller mutation leaked into the store", second.Nodes[0].Title)
		}
	})
}

func TestPutReplaces(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Put(ctx, sampleGraph("g-rep", "first")); err != nil {
			t.Fatal(err)
		}

		replacement := types.NewResearchGraph("second")
		replacement.ID = "g-rep"
		if err := s.Put(ctx, replacement); err != nil {
			t.Fatal(err)
		}

		got, err := s.Get(ctx, "g-rep")
		if err != nil {
			t.Fatal(err)
		}
		if got.Name != "second" {
			t.Errorf("Name = %q, want %q", got.Name, "second")
		}
		if len(got.Nodes) != 0 {
			t.Errorf("got %d nodes, want 0 after replacement", len(got.Nodes))
		}
	})
}

func TestUpdate(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Put(ctx, sampleGraph("g-upd", "updatable")); err != nil {
			t.Fatal(err)
		}

		updated, err := s.Update(ctx, "g-upd", func(g *types.ResearchGraph) error {
			g.AddNode(types.PaperNode{ID: "p3", Title: "GPT", Source: types.SourceIntermediate})
			g.UpdatedAt = time.Now().UTC()
			return nil
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if len(updated.Nodes) != 3 {
			t.Errorf("returned graph has %d nodes, want 3", len(updated.Nodes))
		}

		got, err := s.Get(ctx, "g-upd")
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Nodes) != 3 {
			t.Errorf("stored graph has %d nodes, want 3", len(got.Nodes))
		}
	})
}

func TestUpdateFailureLeavesSnapshot(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Put(ctx, sampleGraph("g-fail", "stable")); err != nil {
			t.Fatal(err)
		}

		wantErr := errors.New("mutation failed")
		_, err := s.Update(ctx, "g-fail", func(g *types.ResearchGraph) error {
			g.AddNode(types.PaperNode{ID: "p3", Title: "Should Not Persist"})
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("err = %v, want %v", err, wantErr)
		}

		got, err := s.Get(ctx, "g-fail")
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Nodes) != 2 {
			t.Errorf("got %d nodes, want 2; failed update mutated the snapshot", len(got.Nodes))
		}
	})
}

func TestUpdateNotFound(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		_, err := s.Update(context.Background(), "missing", func(*types.ResearchGraph) error { return nil })
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestDelete(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Put(ctx, sampleGraph("g-del", "doomed")); err != nil {
			t.Fatal(err)
		}

		if err := s.Delete(ctx, "g-del"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, "g-del"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
		}
		if err := s.Delete(ctx, "g-del"); !errors.Is(err, ErrNotFound) {
			t.Errorf("second Delete: err = %v, want ErrNotFound", err)
		}
	})
}

func TestListOrdering(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		for i, id := range []string{"g-c", "g-a", "g-b"} {
			g := types.NewResearchGraph("graph " + id)
			g.ID = id
			g.CreatedAt = base.Add(time.Duration(2-i) * time.Hour)
			if err := s.Put(ctx, g); err != nil {
				t.Fatal(err)
			}
		}

		summaries, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(summaries) != 3 {
			t.Fatalf("got %d summaries, want 3", len(summaries))
		}
		// g-b has the earliest creation time, then g-a, then g-c.
		want := []string{"g-b", "g-a", "g-c"}
		for i, w := range want {
			if summaries[i].ID != w {
				t.Errorf("summaries[%d].ID = %q, want %q", i, summaries[i].ID, w)
			}
		}
	})
}

func TestListCounts(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Put(ctx, sampleGraph("g-counts", "counted")); err != nil {
			t.Fatal(err)
		}

		summaries, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(summaries) != 1 {
			t.Fatalf("got %d summaries, want 1", len(summaries))
		}
		if summaries[0].NodeCount != 2 || summaries[0].EdgeCount != 1 {
			t.Errorf("counts = (%d, %d), want (2, 1)",
				summaries[0].NodeCount, summaries[0].EdgeCount)
		}
	})
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		g := types.NewResearchGraph("counter")
		g.ID = "g-conc"
		if err := s.Put(ctx, g); err != nil {
			t.Fatal(err)
		}

		const workers = 8
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.Update(ctx, "g-conc", func(g *types.ResearchGraph) error {
					return g.AddNode(types.PaperNode{
						ID:    fmt.Sprintf("p-%d", i),
						Title: fmt.Sprintf("Paper %d", i),
					})
				})
				if err != nil {
					t.Errorf("Update %d: %v", i, err)
				}
			}(i)
		}
		wg.Wait()

		got, err := s.Get(ctx, "g-conc")
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Nodes) != workers {
			t.Errorf("got %d nodes, want %d; concurrent updates lost writes", len(got.Nodes), workers)
		}
	})
}

func TestNewSelectsBackend(t *testing.T) {
	mem, err := New(types.StoreConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer mem.Close()
	if _, ok := mem.(*MemoryStore); !ok {
		t.Errorf("empty path: got %T, want *MemoryStore", mem)
	}

	sq, err := New(types.StoreConfig{Path: filepath.Join(t.TempDir(), "g.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer sq.Close()
	if _, ok := sq.(*SQLiteStore); !ok {
		t.Errorf("path set: got %T, want *SQLiteStore", sq)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble expands a set of seed papers into a bounded citation
// graph. It resolves seeds through the metadata source, fans out over
// their reference and citer lists with bounded parallelism, scores
// candidate connector papers, and materializes the top candidates as
// intermediate nodes.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/citegraph/internal/source"
	"github.com/pdiddy/citegraph/pkg/types"
)

// ErrNoPapersResolved reports that none of the supplied seeds resolved to
// a paper; the assembly has nothing to build on.
var ErrNoPapersResolved = errors.New("no seed papers resolved")

// Options controls one assembly run.
type Options struct {
	// Name names the resulting graph.
	Name string

	// IncludeIntermediate enables connector-paper discovery. When false
	// the graph holds only the resolvable seeds and direct seed-to-seed
	// citations.
	IncludeIntermediate bool

	// MaxIntermediate caps the number of intermediate papers (default 100).
	MaxIntermediate int

	// MaxParallel bounds concurrent metadata fetches (default 4).
	MaxParallel int
}

// Stats summarizes an assembly run. Per-seed failures are aggregated here
// rather than aborting the run.
type Stats struct {
	TotalPapers        int      `json:"total_papers"`
	InputPapers        int      `json:"input_papers"`
	IntermediatePapers int      `json:"intermediate_papers"`
	TotalEdges         int      `json:"total_edges"`
	UnresolvedSeeds    int      `json:"unresolved_seeds"`
	Warnings           []string `json:"warnings,omitempty"`
}

// neighborhood holds the fetched reference and citer lists for one seed.
// A fetch failure leaves the list empty and records the error; it never
// aborts the assembly.
type neighborhood struct {
	refs     []types.PaperRecord
	citers   []types.PaperRecord
	refErr   error
	citerErr error
}

// Assemble builds a ResearchGraph from seed identifiers. Unresolvable
// seeds are dropped with a recorded warning; the run fails only when zero
// seeds resolve. Progress lines are written to w.
func Assemble(ctx context.Context, src source.Source, seeds []string, opts Options, w io.Writer) (*types.ResearchGraph, Stats, error) {
	if opts.MaxIntermediate <= 0 {
		opts.MaxIntermediate = 100
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 4
	}
	if opts.Name == "" {
		opts.Name = "Untitled Graph"
	}

	var stats Stats

	// Resolve every seed; aggregation is by input index so the node order
	// never depends on response arrival order.
	resolved := make([]types.PaperRecord, len(seeds))
	resolveErrs := make([]error, len(seeds))
	forEachBounded(ctx, len(seeds), opts.MaxParallel, func(i int) {
		resolved[i], resolveErrs[i] = src.Resolve(ctx, seeds[i])
	})

	seen := make(map[string]bool)
	var seedRecords []types.PaperRecord
	for i, rec := range resolved {
		if err := resolveErrs[i]; err != nil {
			stats.UnresolvedSeeds++
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("seed %q: %v", seeds[i], err))
			fmt.Fprintf(w, "warning: seed %q unresolved: %v\n", seeds[i], err)
			continue
		}
		id := source.Normalize(rec.ID)
		rec.ID = id
		if seen[id] {
			continue
		}
		seen[id] = true
		seedRecords = append(seedRecords, rec)
	}

	if len(seedRecords) == 0 {
		return nil, stats, ErrNoPapersResolved
	}

	graph := types.NewResearchGraph(opts.Name)
	for _, rec := range seedRecords {
		if err := graph.AddNode(rec.Node(types.SourceInput)); err != nil {
			return nil, stats, err
		}
	}
	stats.InputPapers = len(seedRecords)
	fmt.Fprintf(w, "resolved %d of %d seeds\n", len(seedRecords), len(seeds))

	// Fetch references and citers for every seed, again keyed by index.
	hoods := make([]neighborhood, len(seedRecords))
	forEachBounded(ctx, len(seedRecords), opts.MaxParallel, func(i int) {
		id := seedRecords[i].ID
		hoods[i].refs, hoods[i].refErr = src.References(ctx, id)
		hoods[i].citers, hoods[i].citerErr = src.Citers(ctx, id)
	})
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	for i := range hoods {
		if err := hoods[i].refErr; err != nil {
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("references of %q: %v", seedRecords[i].ID, err))
			fmt.Fprintf(w, "warning: references of %q failed: %v\n", seedRecords[i].ID, err)
		}
		if err := hoods[i].citerErr; err != nil {
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("citers of %q: %v", seedRecords[i].ID, err))
			fmt.Fprintf(w, "warning: citers of %q failed: %v\n", seedRecords[i].ID, err)
		}
		fmt.Fprintf(w, "%s: %d references, %d citers\n",
			truncate(seedRecords[i].Title, 50), len(hoods[i].refs), len(hoods[i].citers))
	}

	if opts.IncludeIntermediate {
		candidates := scoreCandidates(hoods, seen)
		selected := selectTop(candidates, opts.MaxIntermediate)
		for _, c := range selected {
			if err := graph.AddNode(c.record.Node(types.SourceIntermediate)); err != nil {
				return nil, stats, err
			}
		}
		stats.IntermediatePapers = len(selected)
		fmt.Fprintf(w, "materialized %d intermediate papers\n", len(selected))
	}

	if err := addObservedEdges(graph, seedRecords, hoods); err != nil {
		return nil, stats, err
	}

	stats.TotalPapers = len(graph.Nodes)
	stats.TotalEdges = len(graph.Edges)

	graph.Metadata["source"] = src.Name()
	graph.Metadata["total_papers"] = fmt.Sprintf("%d", stats.TotalPapers)
	graph.Metadata["input_papers"] = fmt.Sprintf("%d", stats.InputPapers)
	graph.Metadata["intermediate_papers"] = fmt.Sprintf("%d", stats.IntermediatePapers)
	graph.Metadata["total_edges"] = fmt.Sprintf("%d", stats.TotalEdges)
	graph.Metadata["unresolved_seeds"] = fmt.Sprintf("%d", stats.UnresolvedSeeds)
	if start, end, ok := dateRange(graph.Nodes); ok {
		graph.Metadata["date_range_start"] = start
		graph.Metadata["date_range_end"] = end
	}

	return graph, stats, nil
}

// candidate is a non-seed paper observed in seed neighborhoods, with its
// connector score.
type candidate struct {
	id     string
	score  int
	record types.PaperRecord
}

// scoreCandidates builds the connector-score frequency table: each
// appearance of a paper as a reference or citer of a seed adds one. A
// paper seen in both directions accumulates a combined score under a
// single normalized identifier.
func scoreCandidates(hoods []neighborhood, seedIDs map[string]bool) map[string]*candidate {
	candidates := make(map[string]*candidate)

	tally := func(rec types.PaperRecord) {
		id := source.Normalize(rec.ID)
		if id == "" || seedIDs[id] {
			return
		}
		rec.ID = id
		c, ok := candidates[id]
		if !ok {
			candidates[id] = &candidate{id: id, score: 1, record: rec}
			return
		}
		c.score++
		mergeRecord(&c.record, rec)
	}

	for _, h := range hoods {
		// De-duplicate within a single seed's list so a provider glitch
		// repeating an entry does not inflate the score.
		perSeed := make(map[string]bool)
		for _, rec := range h.refs {
			id := source.Normalize(rec.ID)
			if perSeed["ref:"+id] {
				continue
			}
			perSeed["ref:"+id] = true
			tally(rec)
		}
		for _, rec := range h.citers {
			id := source.Normalize(rec.ID)
			if perSeed["cite:"+id] {
				continue
			}
			perSeed["cite:"+id] = true
			tally(rec)
		}
	}
	return candidates
}

// selectTop picks up to max candidates by descending score, then ascending
// normalized identifier, so repeated runs against identical upstream data
// produce identical graphs.
func selectTop(candidates map[string]*candidate, max int) []*candidate {
	ordered := make([]*candidate, 0, len(candidates))
	for _, c := range candidates {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].score != ordered[j].score {
			return ordered[i].score > ordered[j].score
		}
		return ordered[i].id < ordered[j].id
	})
	if len(ordered) > max {
		ordered = ordered[:max]
	}
	return ordered
}

// addObservedEdges emits a citation edge for every observed relationship
// between two materialized nodes: the seed cites each materialized
// reference, and each materialized citer cites the seed. Edge insertion
// follows seed input order, references before citers, so ordering is
// deterministic.
func addObservedEdges(graph *types.ResearchGraph, seedRecords []types.PaperRecord, hoods []neighborhood) error {
	for i, h := range hoods {
		seedID := seedRecords[i].ID
		for _, rec := range h.refs {
			toID := source.Normalize(rec.ID)
			if toID == seedID || graph.NodeByID(toID) == nil {
				continue
			}
			err := graph.AddEdge(types.CitationEdge{
				FromPaper:        seedID,
				ToPaper:          toID,
				ContributionType: "reference",
				Strength:         1.0,
			})
			if err != nil {
				return err
			}
		}
		for _, rec := range h.citers {
			fromID := source.Normalize(rec.ID)
			if fromID == seedID || graph.NodeByID(fromID) == nil {
				continue
			}
			err := graph.AddEdge(types.CitationEdge{
				FromPaper:        fromID,
				ToPaper:          seedID,
				ContributionType: "reference",
				Strength:         1.0,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeRecord fills empty fields of dst from src and keeps the higher
// citation count.
func mergeRecord(dst *types.PaperRecord, src types.PaperRecord) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if dst.Date.IsZero() {
		dst.Date = src.Date
	}
	if src.CitationCount > dst.CitationCount {
		dst.CitationCount = src.CitationCount
	}
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if dst.ArXivID == "" {
		dst.ArXivID = src.ArXivID
	}
}

// dateRange returns the earliest and latest known publication years.
func dateRange(nodes []types.PaperNode) (string, string, bool) {
	var years []int
	for i := range nodes {
		if y := nodes[i].Year(); y > 0 {
			years = append(years, y)
		}
	}
	if len(years) == 0 {
		return "", "", false
	}
	sort.Ints(years)
	return fmt.Sprintf("%d", years[0]), fmt.Sprintf("%d", years[len(years)-1]), true
}

// forEachBounded runs fn for each index with at most parallel concurrent
// invocations, stopping new launches once ctx is cancelled.
func forEachBounded(ctx context.Context, n, parallel int, fn func(i int)) {
	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// BuildFromRecords constructs a seed-only graph from pre-extracted paper
// records, as produced by an external document extraction service. Records
// without an identifier receive a minted UUID via AddNode. No metadata
// fetches happen; edges can be added later by re-running assembly or the
// engine's extract operation.
func BuildFromRecords(name string, records []types.PaperRecord) (*types.ResearchGraph, Stats, error) {
	if len(records) == 0 {
		return nil, Stats{}, ErrNoPapersResolved
	}
	if name == "" {
		name = "Untitled Graph"
	}

	graph := types.NewResearchGraph(name)
	var stats Stats
	seen := make(map[string]bool)
	for _, rec := range records {
		if strings.TrimSpace(rec.Title) == "" {
			stats.Warnings = append(stats.Warnings, "record without title skipped")
			continue
		}
		rec.ID = source.Normalize(rec.ID)
		if rec.ID != "" && seen[rec.ID] {
			continue
		}
		if rec.ID != "" {
			seen[rec.ID] = true
		}
		if err := graph.AddNode(rec.Node(types.SourceInput)); err != nil {
			return nil, stats, err
		}
	}
	if len(graph.Nodes) == 0 {
		return nil, stats, ErrNoPapersResolved
	}

	stats.InputPapers = len(graph.Nodes)
	stats.TotalPapers = len(graph.Nodes)
	graph.Metadata["total_papers"] = fmt.Sprintf("%d", stats.TotalPapers)
	graph.Metadata["input_papers"] = fmt.Sprintf("%d", stats.InputPapers)
	return graph, stats, nil
}

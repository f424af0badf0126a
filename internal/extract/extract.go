// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract derives node attributes from paper text. Extractors
// implement a common interface and run from an explicit registry; each
// run is recorded on the graph so re-running an extractor is a no-op
// unless forced.
package extract

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/citegraph/pkg/types"
)

// Extractor computes attributes for a single paper node.
type Extractor interface {
	// Name identifies the extractor in the registry and in the graph's
	// extractors_applied list.
	Name() string

	// Extract returns the attributes to merge into the node's map.
	Extract(n *types.PaperNode) types.Attributes
}

// Registry holds the available extractors in registration order.
type Registry struct {
	extractors []Extractor
	byName     map[string]Extractor
}

// NewRegistry creates a registry with the built-in extractors.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Extractor)}
	r.Register(&CitationContextExtractor{})
	r.Register(&KeywordExtractor{})
	return r
}

// Register adds an extractor. A duplicate name replaces the previous
// registration.
func (r *Registry) Register(e Extractor) {
	if _, exists := r.byName[e.Name()]; !exists {
		r.extractors = append(r.extractors, e)
	} else {
		for i, old := range r.extractors {
			if old.Name() == e.Name() {
				r.extractors[i] = e
				break
			}
		}
	}
	r.byName[e.Name()] = e
}

// Names lists the registered extractor names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.extractors))
	for i, e := range r.extractors {
		names[i] = e.Name()
	}
	return names
}

// Lookup returns the named extractor.
func (r *Registry) Lookup(name string) (Extractor, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown extractor %q (have %s)", name, strings.Join(r.Names(), ", "))
	}
	return e, nil
}

// Apply runs the named extractors over every node of g, merging the
// returned attributes and marking each extractor as applied. Extractors
// already applied to the graph are skipped unless force is set. An empty
// name list runs all registered extractors.
func (r *Registry) Apply(g *types.ResearchGraph, names []string, force bool, w io.Writer) error {
	var run []Extractor
	if len(names) == 0 {
		run = r.extractors
	} else {
		for _, name := range names {
			e, err := r.Lookup(name)
			if err != nil {
				return err
			}
			run = append(run, e)
		}
	}

	for _, e := range run {
		if !force && g.HasExtractor(e.Name()) {
			fmt.Fprintf(w, "skipped %s (already applied)\n", e.Name())
			continue
		}

		for i := range g.Nodes {
			for k, v := range e.Extract(&g.Nodes[i]) {
				g.Nodes[i].SetAttr(k, v)
			}
		}
		g.MarkExtractor(e.Name())
		fmt.Fprintf(w, "applied %s to %d papers\n", e.Name(), len(g.Nodes))
	}
	return nil
}

// CitationContextExtractor classifies each node's dominant citation role
// from its available text. Plain keyword matching; no external calls.
type CitationContextExtractor struct{}

func (e *CitationContextExtractor) Name() string { return "citation_context" }

// contributionKeywords classifies a citation context string. Probed in
// order; the first class with a hit wins.
var contributionKeywords = []struct {
	class    string
	keywords []string
}{
	{"baseline", []string{"baseline", "compared to", "versus"}},
	{"foundation", []string{"builds on", "extends", "based on"}},
	{"extension", []string{"improve", "enhance", "better than"}},
	{"dataset", []string{"dataset", "benchmark", "evaluation"}},
	{"critique", []string{"however", "limitation", "problem"}},
}

// ClassifyContext maps a citation context onto a contribution class,
// defaulting to "related".
func ClassifyContext(context string) string {
	lower := strings.ToLower(context)
	for _, c := range contributionKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.class
			}
		}
	}
	return "related"
}

// Extract classifies how the paper frames its citations. The abstract
// stands in for citation contexts when no full text exists.
func (e *CitationContextExtractor) Extract(n *types.PaperNode) types.Attributes {
	text := n.Abstract
	if n.FullText != "" {
		text = n.FullText
	}
	if text == "" {
		return nil
	}
	return types.Attributes{
		"citation_role": types.StringAttr(ClassifyContext(text)),
	}
}

// KeywordExtractor tags each paper with its most frequent informative
// terms.
type KeywordExtractor struct {
	// MaxKeywords caps the tag list; zero means the default of 5.
	MaxKeywords int
}

func (e *KeywordExtractor) Name() string { return "keywords" }

// keywordStopWords excludes function words from the tag list.
var keywordStopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an and are as at be by for from has have in is it its of on or
		our that the this to was we were which with using use based new novel approach method results
		paper propose proposed show`) {
		keywordStopWords[w] = struct{}{}
	}
}

// Extract counts word frequency over title and abstract and returns the
// top terms as a keywords attribute. Ties break alphabetically so the
// tags are stable across runs.
func (e *KeywordExtractor) Extract(n *types.PaperNode) types.Attributes {
	limit := e.MaxKeywords
	if limit <= 0 {
		limit = 5
	}

	counts := make(map[string]int)
	for _, raw := range strings.Fields(strings.ToLower(n.Title + " " + n.Abstract)) {
		word := strings.Trim(raw, ".,;:()[]{}\"'!?")
		if len(word) < 4 {
			continue
		}
		if _, stop := keywordStopWords[word]; stop {
			continue
		}
		counts[word]++
	}
	if len(counts) == 0 {
		return nil
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > limit {
		words = words[:limit]
	}

	return types.Attributes{
		"keywords": types.ListAttr(words...),
	}
}

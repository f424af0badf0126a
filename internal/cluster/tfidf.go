// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// stopWords are dropped before vectorization. The list covers common
// English function words; domain terms always survive.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a about above after again all also am an and any are as at be because
		been before being below between both but by can could did do does doing down during each few for from
		further had has have having he her here hers him his how i if in into is it its itself just me more
		most my no nor not of off on once only or other our ours out over own same she should so some such
		than that the their theirs them then there these they this those through to too under until up very
		was we were what when where which while who whom why will with would you your yours`) {
		stopWords[w] = struct{}{}
	}
}

// tokenize lowercases text, splits on non-alphanumeric runs, drops stop
// words and single-character tokens, and appends bigrams over the
// surviving token sequence.
func tokenize(text string) []string {
	raw := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, t := range raw {
		if len(t) < 2 {
			continue
		}
		if _, stop := stopWords[t]; stop {
			continue
		}
		tokens = append(tokens, t)
	}

	n := len(tokens)
	for i := 0; i+1 < n; i++ {
		tokens = append(tokens, tokens[i]+" "+tokens[i+1])
	}
	return tokens
}

// vocabulary maps terms to vector dimensions with their IDF weights.
type vocabulary struct {
	terms []string
	index map[string]int
	idf   []float64
}

// buildVocabulary selects the maxFeatures most frequent terms across the
// corpus. Ties break alphabetically so the vocabulary is deterministic.
func buildVocabulary(docs [][]string, maxFeatures int) *vocabulary {
	counts := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, t := range doc {
			counts[t]++
			seen[t] = struct{}{}
		}
		for t := range seen {
			docFreq[t]++
		}
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	v := &vocabulary{
		terms: terms,
		index: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
	}
	n := float64(len(docs))
	for i, t := range terms {
		v.index[t] = i
		// Smoothed IDF: every term behaves as if seen in one extra
		// document, so no weight is ever zero or infinite.
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}
	return v
}

// vector computes the L2-normalized TF-IDF vector for one document.
func (v *vocabulary) vector(doc []string) []float64 {
	vec := make([]float64, len(v.terms))
	for _, t := range doc {
		if i, ok := v.index[t]; ok {
			vec[i]++
		}
	}
	var norm float64
	for i := range vec {
		vec[i] *= v.idf[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// topTerms returns the k highest-weighted terms of a vector, ties broken
// alphabetically.
func (v *vocabulary) topTerms(vec []float64, k int) []string {
	type weighted struct {
		term   string
		weight float64
	}
	var ws []weighted
	for i, w := range vec {
		if w > 0 {
			ws = append(ws, weighted{term: v.terms[i], weight: w})
		}
	}
	sort.Slice(ws, func(i, j int) bool {
		if ws[i].weight != ws[j].weight {
			return ws[i].weight > ws[j].weight
		}
		return ws[i].term < ws[j].term
	})
	if len(ws) > k {
		ws = ws[:k]
	}
	terms := make([]string, len(ws))
	for i, w := range ws {
		terms[i] = w.term
	}
	return terms
}

// cosine computes the cosine similarity of two vectors. Vectors from
// vector() are unit length, so this is a plain dot product with a norm
// guard for all-zero documents.
func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

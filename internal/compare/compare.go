// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compare classifies the relationship between pairs of papers
// with an LLM-backed text collaborator. The collaborator returns
// free-form structured output; this package owns the post-processing
// contract, normalizing the relationship into the fixed vocabulary and
// turning malformed responses into recoverable per-pair failures.
package compare

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/citegraph/pkg/types"
)

// ErrExtraction reports an unusable collaborator response. It is
// recoverable: batch callers record the failure and continue with the
// remaining pairs.
var ErrExtraction = errors.New("text collaborator produced unusable output")

// TextBackend is the LLM collaborator. Implementations send both papers'
// available text and decode the structured reply; they do not interpret
// it. Tests supply a mock.
type TextBackend interface {
	Compare(ctx context.Context, a, b *types.PaperNode) (RawComparison, error)
}

// RawComparison is the collaborator's reply before normalization.
type RawComparison struct {
	Similarities     []string `json:"similarities"`
	Differences      []string `json:"differences"`
	RelationshipType string   `json:"relationship_type"`
	ShortLabel       string   `json:"short_label"`
	Insight          string   `json:"insight"`
	ArchitectureDiff string   `json:"architecture_diff"`
	ContributionDiff string   `json:"contribution_diff"`
	MethodDiff       string   `json:"method_diff"`
}

// Comparator compares paper pairs and annotates citation edges.
type Comparator struct {
	Backend TextBackend
	Config  types.CompareConfig
}

// New creates a Comparator, applying config defaults.
func New(backend TextBackend, cfg types.CompareConfig) *Comparator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}
	return &Comparator{Backend: backend, Config: cfg}
}

// ComparePair compares two papers and returns the normalized result.
// Backend failures retry with exponential backoff; a response whose
// relationship cannot be mapped into the fixed vocabulary fails with
// ErrExtraction.
func (c *Comparator) ComparePair(ctx context.Context, a, b *types.PaperNode) (types.Comparison, error) {
	raw, err := c.callWithRetry(ctx, a, b)
	if err != nil {
		return types.Comparison{}, err
	}

	rel, err := normalizeRelationship(raw.RelationshipType)
	if err != nil {
		return types.Comparison{}, err
	}

	return types.Comparison{
		PaperAID:         a.ID,
		PaperBID:         b.ID,
		PaperATitle:      a.Title,
		PaperBTitle:      b.Title,
		RelationshipType: rel,
		Similarities:     raw.Similarities,
		Differences:      raw.Differences,
		ShortLabel:       clampLabel(raw.ShortLabel),
		Insight:          raw.Insight,
		ArchitectureDiff: raw.ArchitectureDiff,
		ContributionDiff: raw.ContributionDiff,
		MethodDiff:       raw.MethodDiff,
	}, nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

func (c *Comparator) callWithRetry(ctx context.Context, a, b *types.PaperNode) (RawComparison, error) {
	var lastErr error
	for attempt := 0; attempt <= c.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return RawComparison{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := c.Backend.Compare(ctx, a, b)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			return RawComparison{}, ctx.Err()
		}
		lastErr = err
	}
	return RawComparison{}, fmt.Errorf("after %d retries: %w", c.Config.MaxRetries, lastErr)
}

// relationshipSynonyms maps collaborator phrasings onto the vocabulary.
var relationshipSynonyms = map[string]types.RelationshipType{
	"extends":                   types.RelExtends,
	"extension":                 types.RelExtends,
	"compares":                  types.RelCompares,
	"comparison":                types.RelCompares,
	"builds_on":                 types.RelBuildsOn,
	"builds on":                 types.RelBuildsOn,
	"built_on":                  types.RelBuildsOn,
	"similar":                   types.RelSimilar,
	"addresses_similar_problem": types.RelSimilar,
	"addresses similar problem": types.RelSimilar,
	"related":                   types.RelSimilar,
	"unrelated":                 types.RelUnrelated,
	"none":                      types.RelUnrelated,
}

// normalizeRelationship maps free-form collaborator output onto the
// fixed vocabulary. An empty value means the collaborator saw no
// relation and maps to unrelated; anything unrecognized is ErrExtraction.
func normalizeRelationship(s string) (types.RelationshipType, error) {
	cleaned := strings.ToLower(strings.TrimSpace(s))
	cleaned = strings.Trim(cleaned, `"'.`)
	if cleaned == "" {
		return types.RelUnrelated, nil
	}
	if rel, ok := relationshipSynonyms[cleaned]; ok {
		return rel, nil
	}
	// Free-form answers like "paper A extends paper B" still carry a
	// vocabulary word. Fixed probe order keeps the mapping deterministic
	// when several phrases appear.
	for _, phrase := range []string{
		"builds_on", "builds on", "built_on", "extends", "extension",
		"compares", "comparison", "addresses_similar_problem",
		"addresses similar problem", "similar", "unrelated", "none", "related",
	} {
		if strings.Contains(cleaned, phrase) {
			return relationshipSynonyms[phrase], nil
		}
	}
	return "", fmt.Errorf("relationship %q: %w", s, ErrExtraction)
}

// clampLabel truncates an over-long short label to ten words.
func clampLabel(label string) string {
	words := strings.Fields(label)
	if len(words) <= 10 {
		return label
	}
	return strings.Join(words[:10], " ") + "..."
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RelationshipType is the fixed vocabulary for pairwise paper relations.
type RelationshipType string

const (
	RelExtends   RelationshipType = "extends"
	RelCompares  RelationshipType = "compares"
	RelBuildsOn  RelationshipType = "builds_on"
	RelSimilar   RelationshipType = "similar"
	RelUnrelated RelationshipType = "unrelated"
)

// ValidRelationship reports whether t is one of the fixed vocabulary values.
func ValidRelationship(t RelationshipType) bool {
	switch t {
	case RelExtends, RelCompares, RelBuildsOn, RelSimilar, RelUnrelated:
		return true
	}
	return false
}

// Comparison is the structured result of comparing two papers. It is
// transient: not stored on a graph unless explicitly merged into an
// edge's delta description and contribution type.
type Comparison struct {
	PaperAID    string `json:"paper_a_id" yaml:"paper_a_id"`
	PaperBID    string `json:"paper_b_id" yaml:"paper_b_id"`
	PaperATitle string `json:"paper_a_title" yaml:"paper_a_title"`
	PaperBTitle string `json:"paper_b_title" yaml:"paper_b_title"`

	RelationshipType RelationshipType `json:"relationship_type" yaml:"relationship_type"`
	Similarities     []string         `json:"similarities" yaml:"similarities"`
	Differences      []string         `json:"differences" yaml:"differences"`

	// ShortLabel is a compact summary of the adopted innovation, suitable
	// as an edge context label.
	ShortLabel string `json:"short_label,omitempty" yaml:"short_label,omitempty"`

	// Insight explains what paper A took from paper B and how it changed.
	Insight string `json:"insight,omitempty" yaml:"insight,omitempty"`

	ArchitectureDiff string `json:"architecture_diff,omitempty" yaml:"architecture_diff,omitempty"`
	ContributionDiff string `json:"contribution_diff,omitempty" yaml:"contribution_diff,omitempty"`
	MethodDiff       string `json:"method_diff,omitempty" yaml:"method_diff,omitempty"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter selects sub-graphs by attribute predicates. Conditions
// address either a top-level node field or an entry of the node's open
// attribute map; the filtered graph keeps only matching nodes and only
// edges whose endpoints both match.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/citegraph/pkg/types"
)

// ErrInvalidFilter reports a malformed condition set: an unknown
// operator, an empty field name, or an unusable logic value.
var ErrInvalidFilter = errors.New("invalid filter")

// Operator is a condition comparison operator.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpContains Operator = "contains"
)

// Logic combines the results of all conditions.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Condition matches one field against one value. Field names resolve to
// the node's top-level fields first (id, title, venue, abstract,
// citation_count, year, paper_source), then to the attributes map. A node
// missing the field does not match.
type Condition struct {
	Field    string          `json:"field" yaml:"field"`
	Operator Operator        `json:"operator" yaml:"operator"`
	Value    types.AttrValue `json:"value" yaml:"value"`
}

// Result is a filtered sub-graph. The graph is derived and transient; it
// is not written back to the store.
type Result struct {
	Graph      *types.ResearchGraph `json:"filtered_graph" yaml:"filtered_graph"`
	MatchCount int                  `json:"match_count" yaml:"match_count"`
}

// Apply filters g by the condition set. An empty condition set matches
// every node. The input graph is not modified.
func Apply(g *types.ResearchGraph, conditions []Condition, logic Logic) (*Result, error) {
	if err := validate(conditions, &logic); err != nil {
		return nil, err
	}

	out := types.NewResearchGraph(g.Name + " (filtered)")

	matched := make(map[string]struct{})
	for i := range g.Nodes {
		if matches(&g.Nodes[i], conditions, logic) {
			node := g.Nodes[i]
			node.Authors = append([]string(nil), node.Authors...)
			node.Attributes = node.Attributes.Clone()
			if err := out.AddNode(node); err != nil {
				return nil, err
			}
			matched[node.ID] = struct{}{}
		}
	}

	for _, e := range g.Edges {
		_, okFrom := matched[e.FromPaper]
		_, okTo := matched[e.ToPaper]
		if okFrom && okTo {
			if err := out.AddEdge(e); err != nil {
				return nil, err
			}
		}
	}

	return &Result{Graph: out, MatchCount: len(out.Nodes)}, nil
}

func validate(conditions []Condition, logic *Logic) error {
	switch strings.ToUpper(string(*logic)) {
	case "", string(LogicAnd):
		*logic = LogicAnd
	case string(LogicOr):
		*logic = LogicOr
	default:
		return fmt.Errorf("logic %q: %w", *logic, ErrInvalidFilter)
	}

	for _, c := range conditions {
		if c.Field == "" {
			return fmt.Errorf("empty field: %w", ErrInvalidFilter)
		}
		switch c.Operator {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpContains:
		default:
			return fmt.Errorf("operator %q: %w", c.Operator, ErrInvalidFilter)
		}
	}
	return nil
}

func matches(n *types.PaperNode, conditions []Condition, logic Logic) bool {
	if len(conditions) == 0 {
		return true
	}
	for _, c := range conditions {
		ok := evaluate(n, c)
		if logic == LogicAnd && !ok {
			return false
		}
		if logic == LogicOr && ok {
			return true
		}
	}
	return logic == LogicAnd
}

// evaluate applies one condition to one node. A field absent from both
// the top-level fields and the attribute map never matches.
func evaluate(n *types.PaperNode, c Condition) bool {
	val, ok := fieldValue(n, c.Field)
	if !ok {
		return false
	}

	switch c.Operator {
	case OpEq:
		return equal(val, c.Value)
	case OpNe:
		return !equal(val, c.Value)
	case OpContains:
		return strings.Contains(
			strings.ToLower(val.String()),
			strings.ToLower(c.Value.String()),
		)
	default:
		return ordered(val, c.Value, c.Operator)
	}
}

// fieldValue resolves a condition field on a node: known top-level
// fields first, then the attributes map.
func fieldValue(n *types.PaperNode, field string) (types.AttrValue, bool) {
	switch field {
	case "id":
		return types.StringAttr(n.ID), true
	case "title":
		return types.StringAttr(n.Title), true
	case "venue":
		return types.StringAttr(n.Venue), true
	case "abstract":
		return types.StringAttr(n.Abstract), true
	case "citation_count":
		return types.NumberAttr(float64(n.CitationCount)), true
	case "year":
		return types.NumberAttr(float64(n.Year())), true
	case "paper_source":
		return types.StringAttr(string(n.Source)), true
	case "authors":
		return types.ListAttr(n.Authors...), true
	}
	v, ok := n.Attributes[field]
	return v, ok
}

// equal compares two attribute values, coercing a numeric string against
// a number so CLI-supplied values compare naturally.
func equal(a, b types.AttrValue) bool {
	if a.Equal(b) {
		return true
	}
	an, aok := asNumber(a)
	bn, bok := asNumber(b)
	if aok && bok {
		return an == bn
	}
	return false
}

// ordered applies a numeric comparison; two strings fall back to
// lexicographic order. Mixed kinds that cannot be coerced never match.
func ordered(a, b types.AttrValue, op Operator) bool {
	an, aok := asNumber(a)
	bn, bok := asNumber(b)
	if aok && bok {
		switch op {
		case OpGt:
			return an > bn
		case OpGte:
			return an >= bn
		case OpLt:
			return an < bn
		case OpLte:
			return an <= bn
		}
		return false
	}

	as, aok := a.AsString()
	bs, bok := b.AsString()
	if !aok || !bok {
		return false
	}
	switch op {
	case OpGt:
		return as > bs
	case OpGte:
		return as >= bs
	case OpLt:
		return as < bs
	case OpLte:
		return as <= bs
	}
	return false
}

// asNumber widens a value to float64, accepting numeric strings.
func asNumber(v types.AttrValue) (float64, bool) {
	if n, ok := v.AsNumber(); ok {
		return n, true
	}
	if s, ok := v.AsString(); ok {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

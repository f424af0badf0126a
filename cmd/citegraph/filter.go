// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citegraph/internal/filter"
	"github.com/pdiddy/citegraph/pkg/types"
)

var filterCmd = &cobra.Command{
	Use:   "filter <graph-id>",
	Short: "Select the sub-graph matching attribute conditions",
	Long: `Filter evaluates a condition set against every paper of a stored graph
and prints the matching sub-graph. Edges survive only when both endpoint
papers match. The stored graph is not modified.

Each --where condition is "field operator value", for example:

  citegraph filter <id> --where "year gte 2020" --where "venue contains NeurIPS"

Operators: eq, ne, gt, gte, lt, lte, contains. Fields resolve to the
paper's top-level fields (id, title, venue, abstract, citation_count,
year, paper_source, authors) first, then to its attribute map (for
example cluster_id).`,
	Args: cobra.ExactArgs(1),
	RunE: runFilter,
}

func runFilter(cmd *cobra.Command, args []string) error {
	wheres, _ := cmd.Flags().GetStringArray("where")
	logic, _ := cmd.Flags().GetString("logic")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	conditions := make([]filter.Condition, 0, len(wheres))
	for _, w := range wheres {
		cond, err := parseCondition(w)
		if err != nil {
			return err
		}
		conditions = append(conditions, cond)
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	result, err := eng.Filter(context.Background(), args[0], conditions, filter.Logic(logic))
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("%d papers match (%d edges kept)\n\n", result.MatchCount, len(result.Graph.Edges))
	for i := range result.Graph.Nodes {
		n := &result.Graph.Nodes[i]
		fmt.Printf("  %s  %s", n.ID, n.Title)
		if y := n.Year(); y > 0 {
			fmt.Printf(" (%d)", y)
		}
		fmt.Println()
	}
	return nil
}

// parseCondition splits a "field operator value" expression. The value
// keeps any embedded spaces; "true"/"false" become bools and numeric
// strings become numbers.
func parseCondition(expr string) (filter.Condition, error) {
	parts := strings.SplitN(strings.TrimSpace(expr), " ", 3)
	if len(parts) != 3 {
		return filter.Condition{}, fmt.Errorf("condition %q: want \"field operator value\"", expr)
	}

	return filter.Condition{
		Field:    parts[0],
		Operator: filter.Operator(parts[1]),
		Value:    parseValue(parts[2]),
	}, nil
}

func parseValue(s string) types.AttrValue {
	switch s {
	case "true":
		return types.BoolAttr(true)
	case "false":
		return types.BoolAttr(false)
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return types.NumberAttr(n)
	}
	return types.StringAttr(s)
}

func init() {
	filterCmd.Flags().StringArray("where", nil, `condition "field operator value" (repeatable)`)
	filterCmd.Flags().String("logic", "AND", "combine conditions with AND or OR")
	filterCmd.Flags().Bool("json", false, "output the filtered graph as JSON")

	rootCmd.AddCommand(filterCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <graph-id>",
	Short: "Annotate citation edges with AI relationship analysis",
	Long: `Compare sends each edge's endpoint papers to the configured AI model and
writes the analyzed relationship back onto the edge: a short label as the
edge context, the relationship type as the contribution type, and a
one-sentence insight as the delta description.

Edges whose papers carry no abstract or full text are labeled plain
"citation" without an API call. Per-edge failures are reported and do not
abort the batch; re-run a single failed edge with --edge.

Requires an Anthropic API key (.secrets/anthropic-api-key or
CITEGRAPH_COMPARE_API_KEY).`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	edgeID, _ := cmd.Flags().GetString("edge")

	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if edgeID != "" {
		edge, err := eng.CompareSingleEdge(context.Background(), args[0], edgeID)
		if err != nil {
			return err
		}
		fmt.Printf("%s -> %s: %s (%s)\n", edge.FromPaper, edge.ToPaper, edge.Context, edge.ContributionType)
		return nil
	}

	stats, err := eng.CompareEdges(context.Background(), args[0], os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("\n%d edges: %d annotated, %d skipped, %d failed\n",
		stats.Total, stats.Annotated, stats.Skipped, stats.Failed)
	for _, w := range stats.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d edge(s) failed comparison", stats.Failed)
	}
	return nil
}

func init() {
	compareCmd.Flags().String("edge", "", "re-run the comparison for one edge ID")

	rootCmd.AddCommand(compareCmd)
}

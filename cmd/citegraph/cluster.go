// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citegraph/internal/cluster"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster <graph-id>",
	Short: "Group a graph's papers into thematic clusters",
	Long: `Cluster partitions the papers of a stored graph and writes each paper's
cluster_id into its attributes.

Methods:
  content   TF-IDF vectors over title and abstract, k-means
  citation  label propagation communities over the citation links
  hybrid    weighted mix of content and citation similarity

The citation method finds its own community count; content and hybrid
honor --clusters exactly.`,
	Args: cobra.ExactArgs(1),
	RunE: runCluster,
}

func runCluster(cmd *cobra.Command, args []string) error {
	method, _ := cmd.Flags().GetString("method")
	clusters, _ := cmd.Flags().GetInt("clusters")
	contentWeight, _ := cmd.Flags().GetFloat64("content-weight")
	citationWeight, _ := cmd.Flags().GetFloat64("citation-weight")

	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	result, err := eng.Cluster(context.Background(), args[0], cluster.Options{
		Method:         cluster.Method(method),
		Clusters:       clusters,
		ContentWeight:  contentWeight,
		CitationWeight: citationWeight,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%d clusters (%s)\n\n", result.Clusters, result.Method)
	for _, s := range result.Summaries {
		fmt.Printf("cluster %d: %d papers", s.ClusterID, s.Size)
		if s.MeanYear > 0 {
			fmt.Printf(", mean year %.0f", s.MeanYear)
		}
		if s.InternalEdges > 0 {
			fmt.Printf(", %d internal edges", s.InternalEdges)
		}
		fmt.Println()
		if len(s.TopTerms) > 0 {
			fmt.Printf("  terms: %s\n", strings.Join(s.TopTerms, ", "))
		}
		for _, title := range s.SamplePapers {
			fmt.Printf("  - %s\n", title)
		}
		fmt.Println()
	}
	return nil
}

func init() {
	clusterCmd.Flags().String("method", "content", "clustering method: content, citation, or hybrid")
	clusterCmd.Flags().Int("clusters", 5, "cluster count for content and hybrid methods")
	clusterCmd.Flags().Float64("content-weight", 0.7, "hybrid weight for content similarity")
	clusterCmd.Flags().Float64("citation-weight", 0.3, "hybrid weight for citation similarity")

	rootCmd.AddCommand(clusterCmd)
}

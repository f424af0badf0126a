// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var pathCmd = &cobra.Command{
	Use:   "path <graph-id> <from-paper> <to-paper>",
	Short: "Find the shortest citation path between two papers",
	Long: `Path walks citation edges in their cited direction (a paper reaches the
papers it cites) and prints the shortest path with the relationship
carried by each traversed edge.`,
	Args: cobra.ExactArgs(3),
	RunE: runPath,
}

func runPath(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	p, err := eng.Path(context.Background(), args[0], args[1], args[2])
	if err != nil {
		return err
	}

	fmt.Printf("path of %d citation(s):\n\n", p.Length())
	for i := range p.Nodes {
		n := &p.Nodes[i]
		fmt.Printf("  %s  %s\n", n.ID, n.Title)
		if i < len(p.Edges) {
			label := p.Edges[i].ContributionType
			if p.Edges[i].Context != "" {
				label = p.Edges[i].Context
			}
			fmt.Printf("      | cites (%s)\n", label)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(pathCmd)
}

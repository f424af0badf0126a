// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <graph-id> [extractors...]",
	Short: "Derive paper attributes with registered extractors",
	Long: `Extract runs attribute extractors over every paper of a stored graph and
merges the derived attributes into each paper's attribute map. With no
extractor names, all registered extractors run.

Built-in extractors:
  citation_context  classifies each paper's citation framing (baseline,
                    foundation, extension, dataset, critique, related)
  keywords          tags each paper with its most frequent informative terms

Extractors already applied to a graph are skipped unless --force is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	return eng.Extract(context.Background(), args[0], args[1:], force, os.Stdout)
}

func init() {
	extractCmd.Flags().Bool("force", false, "re-run extractors already applied to the graph")

	rootCmd.AddCommand(extractCmd)
}

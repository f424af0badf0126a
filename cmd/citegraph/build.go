// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citegraph/internal/assemble"
	"github.com/pdiddy/citegraph/internal/engine"
	"github.com/pdiddy/citegraph/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build [identifiers...]",
	Short: "Assemble a citation network from seed papers",
	Long: `Build resolves each seed identifier (arXiv ID, DOI, OpenAlex work ID,
Semantic Scholar hash, or a paper title), fans out over reference and
citer lists, and materializes the best-connected intermediate papers as
nodes. The assembled graph is stored and its ID printed.

Seeds can also come from a YAML file of paper records with --from-file,
for papers arriving from a document extraction service rather than a
metadata provider. Records built this way skip network assembly.`,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	fromFile, _ := cmd.Flags().GetString("from-file")
	seedOnly, _ := cmd.Flags().GetBool("seed-only")
	maxIntermediate, _ := cmd.Flags().GetInt("max-intermediate")

	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if fromFile != "" {
		if len(args) > 0 {
			return fmt.Errorf("--from-file and seed identifiers are mutually exclusive")
		}
		return buildFromFile(eng, name, fromFile)
	}

	if len(args) == 0 {
		return fmt.Errorf("at least one seed identifier required")
	}

	g, stats, err := eng.Build(context.Background(), args, assemble.Options{
		Name:                name,
		IncludeIntermediate: !seedOnly,
		MaxIntermediate:     maxIntermediate,
	}, os.Stdout)
	if err != nil {
		return err
	}

	printBuildSummary(g, stats)
	return nil
}

func buildFromFile(eng *engine.Engine, name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading records file: %w", err)
	}

	var records []types.PaperRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parsing records file %s: %w", path, err)
	}

	g, stats, err := eng.BuildFromRecords(context.Background(), name, records)
	if err != nil {
		return err
	}

	printBuildSummary(g, stats)
	return nil
}

func printBuildSummary(g *types.ResearchGraph, stats assemble.Stats) {
	fmt.Printf("\ngraph %s (%s)\n", g.ID, g.Name)
	fmt.Printf("  papers: %d (%d input, %d intermediate)\n",
		stats.TotalPapers, stats.InputPapers, stats.IntermediatePapers)
	fmt.Printf("  edges:  %d\n", stats.TotalEdges)
	if stats.UnresolvedSeeds > 0 {
		fmt.Printf("  unresolved seeds: %d\n", stats.UnresolvedSeeds)
	}
}

func init() {
	buildCmd.Flags().String("name", "", "graph name (default: Untitled Graph)")
	buildCmd.Flags().String("from-file", "", "YAML file of paper records to ingest instead of seed identifiers")
	buildCmd.Flags().Bool("seed-only", false, "skip connector discovery; keep only the resolvable seeds")
	buildCmd.Flags().Int("max-intermediate", 0, "cap on intermediate papers (0 = config default)")

	rootCmd.AddCommand(buildCmd)
}

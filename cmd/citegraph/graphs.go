// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var graphsCmd = &cobra.Command{
	Use:   "graphs",
	Short: "Manage stored graphs (list, get, delete)",
}

var graphsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored graphs",
	RunE:  runGraphsList,
}

func runGraphsList(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	summaries, err := eng.List(context.Background())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No stored graphs.")
		return nil
	}

	fmt.Printf("%-36s  %-30s  %-10s  %6s  %6s\n", "ID", "Name", "Created", "Papers", "Edges")
	fmt.Println(strings.Repeat("-", 96))
	for _, s := range summaries {
		name := s.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Printf("%-36s  %-30s  %-10s  %6d  %6d\n",
			s.ID, name, s.CreatedAt.Format("2006-01-02"), s.NodeCount, s.EdgeCount)
	}
	return nil
}

var graphsGetCmd = &cobra.Command{
	Use:   "get <graph-id>",
	Short: "Export a stored graph as YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphsGet,
}

func runGraphsGet(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	g, err := eng.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	switch format {
	case "yaml", "":
		return yaml.NewEncoder(os.Stdout).Encode(g)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

var graphsDeleteCmd = &cobra.Command{
	Use:   "delete <graph-id>",
	Short: "Delete a stored graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func init() {
	graphsGetCmd.Flags().String("format", "yaml", "output format: yaml or json")

	graphsCmd.AddCommand(graphsListCmd)
	graphsCmd.AddCommand(graphsGetCmd)
	graphsCmd.AddCommand(graphsDeleteCmd)

	rootCmd.AddCommand(graphsCmd)
}

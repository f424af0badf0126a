// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citegraph CLI. Each engine
// operation is a subcommand: build, cluster, filter, path, compare,
// extract, and graphs for store management.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citegraph/internal/engine"
	"github.com/pdiddy/citegraph/internal/secrets"
	"github.com/pdiddy/citegraph/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value
// for key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the citegraph CLI.
var rootCmd = &cobra.Command{
	Use:   "citegraph",
	Short: "Citation network assembly and analysis",
	Long: `citegraph assembles citation networks from seed papers and analyzes
them: thematic clustering, attribute filtering, shortest citation paths,
and AI-assisted pairwise paper comparison.

Graphs persist in a local SQLite store between invocations; every
analysis subcommand addresses a stored graph by its ID.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citegraph.yaml or ~/.config/citegraph/config.yaml)")
	rootCmd.PersistentFlags().String("store", "", "SQLite database file for stored graphs (default: citegraph.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citegraph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citegraph"))
		}
	}

	viper.SetEnvPrefix("CITEGRAPH")
	viper.AutomaticEnv()

	viper.SetDefault("store.path", "citegraph.db")
	viper.SetDefault("source.provider", "semantic_scholar")
	viper.SetDefault("assembly.max_intermediate", 100)
	viper.SetDefault("assembly.max_parallel", 4)
	viper.SetDefault("compare.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("compare.max_parallel", 4)
	viper.SetDefault("compare.timeout", "60s")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the engine configuration from the config file,
// environment, and loaded secrets.
func engineConfig() types.EngineConfig {
	storePath, _ := rootCmd.PersistentFlags().GetString("store")
	if storePath == "" {
		storePath = viper.GetString("store.path")
	}

	timeout := viper.GetDuration("compare.timeout")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return types.EngineConfig{
		Source: types.SourceConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("source.timeout"),
				UserAgent: "citegraph/" + version,
			},
			Provider:   viper.GetString("source.provider"),
			APIKey:     secretDefault("semantic-scholar-api-key", viper.GetString("source.api_key")),
			Email:      secretDefault("openalex-email", viper.GetString("source.email")),
			FetchLimit: viper.GetInt("source.fetch_limit"),
		},
		Assembly: types.AssemblyConfig{
			MaxIntermediate: viper.GetInt("assembly.max_intermediate"),
			MaxParallel:     viper.GetInt("assembly.max_parallel"),
		},
		Cluster: types.ClusterConfig{
			MaxFeatures: viper.GetInt("cluster.max_features"),
			Seed:        viper.GetInt64("cluster.seed"),
			TopTerms:    viper.GetInt("cluster.top_terms"),
		},
		Compare: types.CompareConfig{
			Model:       viper.GetString("compare.model"),
			APIKey:      secretDefault("anthropic-api-key", viper.GetString("compare.api_key")),
			MaxRetries:  viper.GetInt("compare.max_retries"),
			MaxParallel: viper.GetInt("compare.max_parallel"),
			Timeout:     timeout,
		},
		Store: types.StoreConfig{Path: storePath},
	}
}

// newEngine builds the production engine. Callers own Close.
func newEngine() (*engine.Engine, error) {
	return engine.New(engineConfig())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

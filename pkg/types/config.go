// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citegraph/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds settings for the metadata source adapter.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the metadata backend: "semantic_scholar" (default)
	// or "openalex".
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is an optional Semantic Scholar API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Email is sent as the OpenAlex mailto parameter for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// FetchLimit caps the number of references or citers fetched per paper
	// (default 500).
	FetchLimit int `json:"fetch_limit" yaml:"fetch_limit"`
}

// AssemblyConfig holds settings for network assembly.
type AssemblyConfig struct {
	// MaxIntermediate caps the number of intermediate papers materialized
	// as nodes (default 100).
	MaxIntermediate int `json:"max_intermediate" yaml:"max_intermediate"`

	// MaxParallel bounds concurrent metadata fetches (default 4). Keep it
	// below the provider's burst limit.
	MaxParallel int `json:"max_parallel" yaml:"max_parallel"`
}

// ClusterConfig holds settings for the clustering engine.
type ClusterConfig struct {
	// MaxFeatures caps the term-frequency vocabulary size (default 500).
	MaxFeatures int `json:"max_features" yaml:"max_features"`

	// Seed fixes the random seed for partitional clustering so repeated
	// runs are reproducible (default 42).
	Seed int64 `json:"seed" yaml:"seed"`

	// TopTerms is the number of representative terms per cluster summary
	// (default 10).
	TopTerms int `json:"top_terms" yaml:"top_terms"`
}

// CompareConfig holds settings for the comparator's text-understanding
// backend.
type CompareConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxParallel bounds concurrent comparison calls in batch runs
	// (default 4).
	MaxParallel int `json:"max_parallel" yaml:"max_parallel"`

	// Timeout bounds a single text-understanding call (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// StoreConfig holds settings for the graph store.
type StoreConfig struct {
	// Path is the SQLite database file for the durable store. Empty means
	// in-memory only (graphs live for the process lifetime).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// EngineConfig groups all component configurations.
type EngineConfig struct {
	Source   SourceConfig   `json:"source" yaml:"source"`
	Assembly AssemblyConfig `json:"assembly" yaml:"assembly"`
	Cluster  ClusterConfig  `json:"cluster" yaml:"cluster"`
	Compare  CompareConfig  `json:"compare" yaml:"compare"`
	Store    StoreConfig    `json:"store" yaml:"store"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source adapts external paper-metadata providers behind a uniform
// interface: resolve a paper by identifier, list its references, and list
// the papers citing it. Providers are rate limited; all requests go through
// httputil.DoWithRetry and a provider-reported cooldown is honored.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/citegraph/pkg/types"
)

// ErrNotFound reports that an identifier did not resolve to a paper. It is
// a valid empty result at the seed or candidate level, not a failure of the
// surrounding operation.
var ErrNotFound = errors.New("paper not found")

// ErrUnavailable reports that the provider stayed unreachable or rate
// limited after retries.
var ErrUnavailable = errors.New("metadata source unavailable")

// Source is a paper-metadata provider. All three operations are idempotent
// and side-effect-free on the caller's state.
type Source interface {
	// Name returns the provider identifier.
	Name() string

	// Resolve looks up a single paper. Unresolvable identifiers return
	// ErrNotFound.
	Resolve(ctx context.Context, identifier string) (types.PaperRecord, error)

	// References lists the papers the identified paper cites.
	References(ctx context.Context, identifier string) ([]types.PaperRecord, error)

	// Citers lists the papers citing the identified paper.
	Citers(ctx context.Context, identifier string) ([]types.PaperRecord, error)
}

// New constructs the configured provider. Unknown provider names are an
// error; an empty name selects Semantic Scholar.
func New(cfg types.SourceConfig) (Source, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Timeout <= 0 {
		client.Timeout = 30 * time.Second
	}

	switch cfg.Provider {
	case "", "semantic_scholar":
		return &SemanticScholarSource{Client: client, Config: cfg}, nil
	case "openalex":
		return &OpenAlexSource{Client: client, Config: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown metadata provider %q", cfg.Provider)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/citegraph/internal/httputil"
	"github.com/pdiddy/citegraph/pkg/types"
)

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

// OpenAlexSource queries the OpenAlex API. OpenAlex exposes reference and
// citer lists as filtered works queries: filter=cited_by:W lists the works
// W cites, filter=cites:W lists the works citing W.
type OpenAlexSource struct {
	Client *http.Client
	Config types.SourceConfig
}

// Name returns the provider identifier.
func (o *OpenAlexSource) Name() string { return "openalex" }

// Resolve looks up one paper by identifier. DOIs resolve through the
// /works/https://doi.org/ path; unrecognized shapes fall back to a title
// search.
func (o *OpenAlexSource) Resolve(ctx context.Context, identifier string) (types.PaperRecord, error) {
	t, norm := Classify(identifier)

	params := url.Values{}
	if o.Config.Email != "" {
		params.Set("mailto", o.Config.Email)
	}

	var reqURL string
	switch t {
	case TypeDOI:
		reqURL = openAlexAPIBase + "/https://doi.org/" + norm + "?" + params.Encode()
	case TypeOpenAlex:
		reqURL = openAlexAPIBase + "/" + norm + "?" + params.Encode()
	default:
		// Title (or an identifier OpenAlex cannot address directly):
		// search and take the best match.
		params.Set("search", strings.ReplaceAll(norm, "\n", " "))
		params.Set("per_page", "1")
		reqURL = openAlexAPIBase + "?" + params.Encode()
	}

	body, err := o.get(ctx, reqURL)
	if err != nil {
		return types.PaperRecord{}, err
	}

	if t == TypeDOI || t == TypeOpenAlex {
		var work openAlexWork
		if err := json.Unmarshal(body, &work); err != nil {
			return types.PaperRecord{}, fmt.Errorf("parsing OpenAlex response: %w", err)
		}
		return openAlexRecord(work), nil
	}

	var lr openAlexListResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return types.PaperRecord{}, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	if len(lr.Results) == 0 {
		return types.PaperRecord{}, fmt.Errorf("title %q: %w", norm, ErrNotFound)
	}
	return openAlexRecord(lr.Results[0]), nil
}

// References lists the papers the identified paper cites.
func (o *OpenAlexSource) References(ctx context.Context, identifier string) ([]types.PaperRecord, error) {
	return o.filtered(ctx, identifier, "cited_by")
}

// Citers lists the papers citing the identified paper.
func (o *OpenAlexSource) Citers(ctx context.Context, identifier string) ([]types.PaperRecord, error) {
	return o.filtered(ctx, identifier, "cites")
}

// filtered runs a works query with a citation filter keyed on the paper's
// OpenAlex work ID. Identifiers that are not already work IDs are resolved
// first.
func (o *OpenAlexSource) filtered(ctx context.Context, identifier, relation string) ([]types.PaperRecord, error) {
	workID, err := o.workID(ctx, identifier)
	if err != nil {
		return nil, err
	}

	limit := o.Config.FetchLimit
	if limit <= 0 {
		limit = 500
	}
	perPage := limit
	if perPage > 200 {
		perPage = 200
	}

	var records []types.PaperRecord
	for page := 1; len(records) < limit; page++ {
		params := url.Values{
			"filter":   {relation + ":" + workID},
			"per_page": {fmt.Sprintf("%d", perPage)},
			"page":     {fmt.Sprintf("%d", page)},
		}
		if o.Config.Email != "" {
			params.Set("mailto", o.Config.Email)
		}

		body, err := o.get(ctx, openAlexAPIBase+"?"+params.Encode())
		if err != nil {
			return nil, err
		}

		var lr openAlexListResponse
		if err := json.Unmarshal(body, &lr); err != nil {
			return nil, fmt.Errorf("parsing OpenAlex list response: %w", err)
		}
		for _, work := range lr.Results {
			records = append(records, openAlexRecord(work))
		}
		if len(lr.Results) < perPage {
			break
		}
	}

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// workID resolves an identifier to a bare OpenAlex work ID ("W...").
func (o *OpenAlexSource) workID(ctx context.Context, identifier string) (string, error) {
	if t, norm := Classify(identifier); t == TypeOpenAlex {
		return norm, nil
	}
	rec, err := o.Resolve(ctx, identifier)
	if err != nil {
		return "", err
	}
	if rec.ID == "" {
		return "", fmt.Errorf("identifier %q: %w", identifier, ErrNotFound)
	}
	return rec.ID, nil
}

// get performs a GET with retry/backoff and maps provider failures onto
// the package error taxonomy.
func (o *OpenAlexSource) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", o.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, o.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: OpenAlex returned HTTP %d after retries", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("OpenAlex returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading OpenAlex response: %w", err)
	}
	return data, nil
}

// openAlexRecord converts an OpenAlex work into a provider-neutral record.
// The record ID is the bare work ID; the DOI keeps only the suffix after
// the resolver prefix.
func openAlexRecord(w openAlexWork) types.PaperRecord {
	r := types.PaperRecord{
		ID:            strings.TrimPrefix(w.ID, "https://openalex.org/"),
		Title:         w.Title,
		Abstract:      reconstructAbstract(w.AbstractInvertedIndex),
		CitationCount: w.CitedByCount,
		DOI:           strings.ToLower(strings.TrimPrefix(w.DOI, "https://doi.org/")),
	}

	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		r.Venue = w.PrimaryLocation.Source.DisplayName
	}

	for _, authorship := range w.Authorships {
		if authorship.Author.DisplayName != "" {
			r.Authors = append(r.Authors, authorship.Author.DisplayName)
		}
	}

	if w.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", w.PublicationDate); err == nil {
			r.Date = t
		}
	}
	if r.Date.IsZero() && w.PublicationYear > 0 {
		r.Date = time.Date(w.PublicationYear, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return r
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexListResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source *openAlexVenue `json:"source"`
}

type openAlexVenue struct {
	DisplayName string `json:"display_name"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/citegraph/internal/httputil"
	"github.com/pdiddy/citegraph/pkg/types"
)

// semanticAPIBase is the Semantic Scholar academic graph endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

const semanticFields = "paperId,title,abstract,authors,year,publicationDate,venue,citationCount,externalIds"

// SemanticScholarSource queries the Semantic Scholar Academic Graph API.
type SemanticScholarSource struct {
	Client *http.Client
	Config types.SourceConfig
}

// Name returns the provider identifier.
func (s *SemanticScholarSource) Name() string { return "semantic_scholar" }

// apiID converts a classified identifier into the form the paper endpoint
// expects: arXiv and DOI identifiers carry a scheme prefix, raw Semantic
// Scholar hashes pass through.
func apiID(t IdentifierType, norm string) string {
	switch t {
	case TypeArxiv:
		return "arXiv:" + norm
	case TypeDOI:
		return "DOI:" + norm
	default:
		return norm
	}
}

// Resolve looks up one paper by identifier. Unrecognized identifier shapes
// are treated as a title query against the search endpoint, mirroring how
// seeds arrive from uploaded documents where only the title is known.
func (s *SemanticScholarSource) Resolve(ctx context.Context, identifier string) (types.PaperRecord, error) {
	t, norm := Classify(identifier)

	var reqURL string
	if t == TypeTitle {
		params := url.Values{
			"query":  {strings.ReplaceAll(norm, "\n", " ")},
			"limit":  {"1"},
			"fields": {semanticFields},
		}
		reqURL = semanticAPIBase + "/paper/search?" + params.Encode()
	} else {
		params := url.Values{"fields": {semanticFields}}
		reqURL = semanticAPIBase + "/paper/" + url.PathEscape(apiID(t, norm)) + "?" + params.Encode()
	}

	body, err := s.get(ctx, reqURL)
	if err != nil {
		return types.PaperRecord{}, err
	}

	if t == TypeTitle {
		var sr semanticSearchResponse
		if err := json.Unmarshal(body, &sr); err != nil {
			return types.PaperRecord{}, fmt.Errorf("parsing Semantic Scholar response: %w", err)
		}
		if len(sr.Data) == 0 {
			return types.PaperRecord{}, fmt.Errorf("title %q: %w", norm, ErrNotFound)
		}
		return semanticRecord(sr.Data[0]), nil
	}

	var sp semanticPaper
	if err := json.Unmarshal(body, &sp); err != nil {
		return types.PaperRecord{}, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return semanticRecord(sp), nil
}

// References lists the papers the identified paper cites.
func (s *SemanticScholarSource) References(ctx context.Context, identifier string) ([]types.PaperRecord, error) {
	return s.related(ctx, identifier, "references")
}

// Citers lists the papers that cite the identified paper.
func (s *SemanticScholarSource) Citers(ctx context.Context, identifier string) ([]types.PaperRecord, error) {
	return s.related(ctx, identifier, "citations")
}

// related fetches the references or citations list for a paper. The two
// endpoints share a response shape; each entry wraps the far-side paper in
// citedPaper or citingPaper respectively.
func (s *SemanticScholarSource) related(ctx context.Context, identifier, kind string) ([]types.PaperRecord, error) {
	t, norm := Classify(identifier)

	limit := s.Config.FetchLimit
	if limit <= 0 {
		limit = 500
	}

	params := url.Values{
		"fields": {semanticFields},
		"limit":  {fmt.Sprintf("%d", limit)},
	}
	reqURL := semanticAPIBase + "/paper/" + url.PathEscape(apiID(t, norm)) + "/" + kind + "?" + params.Encode()

	body, err := s.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var lr semanticLinkResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar %s response: %w", kind, err)
	}

	var records []types.PaperRecord
	for _, entry := range lr.Data {
		var p *semanticPaper
		switch kind {
		case "references":
			p = entry.CitedPaper
		default:
			p = entry.CitingPaper
		}
		// Entries without a paper ID are unresolvable stubs; skip them.
		if p == nil || p.PaperID == "" {
			continue
		}
		records = append(records, semanticRecord(*p))
	}
	return records, nil
}

// get performs a GET with retry/backoff and maps provider failures onto
// the package error taxonomy.
func (s *SemanticScholarSource) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.Config.UserAgent)
	if s.Config.APIKey != "" {
		req.Header.Set("x-api-key", s.Config.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: Semantic Scholar returned HTTP %d after retries", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("Semantic Scholar returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading Semantic Scholar response: %w", err)
	}
	return data, nil
}

// semanticRecord converts an API paper into a provider-neutral record.
// The record ID prefers the arXiv ID, then the DOI, then the raw paper
// hash, so the same paper seen through different seeds de-duplicates.
func semanticRecord(p semanticPaper) types.PaperRecord {
	r := types.PaperRecord{
		Title:         p.Title,
		Abstract:      p.Abstract,
		Venue:         p.Venue,
		CitationCount: p.CitationCount,
		DOI:           strings.ToLower(p.ExternalIDs.DOI),
		ArXivID:       p.ExternalIDs.ArXiv,
	}

	for _, a := range p.Authors {
		r.Authors = append(r.Authors, a.Name)
	}

	if p.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", p.PublicationDate); err == nil {
			r.Date = t
		}
	}
	if r.Date.IsZero() && p.Year > 0 {
		r.Date = time.Date(p.Year, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	switch {
	case r.ArXivID != "":
		r.ID = r.ArXivID
	case r.DOI != "":
		r.ID = r.DOI
	default:
		r.ID = p.PaperID
	}
	return r
}

// Semantic Scholar API JSON structures.
type semanticSearchResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticLinkResponse struct {
	Offset int                 `json:"offset"`
	Data   []semanticLinkEntry `json:"data"`
}

type semanticLinkEntry struct {
	CitedPaper  *semanticPaper `json:"citedPaper"`
	CitingPaper *semanticPaper `json:"citingPaper"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Venue           string              `json:"venue"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	CitationCount   int                 `json:"citationCount"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}

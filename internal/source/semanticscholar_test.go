// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/citegraph/internal/httputil"
	"github.com/pdiddy/citegraph/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

// withSemanticServer points the package at an httptest server for the
// duration of the test.
func withSemanticServer(t *testing.T, handler http.HandlerFunc) *SemanticScholarSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	prev := semanticAPIBase
	semanticAPIBase = srv.URL
	t.Cleanup(func() {
		semanticAPIBase = prev
		srv.Close()
	})
	return &SemanticScholarSource{
		Client: srv.Client(),
		Config: types.SourceConfig{APIKey: "test-key"},
	}
}

const attentionPaper = `{
	"paperId": "204e3073870fae3d05bcbc2f6a8e263d9b72e776",
	"title": "Attention Is All You Need",
	"abstract": "The dominant sequence transduction models...",
	"venue": "NeurIPS",
	"year": 2017,
	"publicationDate": "2017-06-12",
	"citationCount": 100000,
	"authors": [{"authorId": "1", "name": "Ashish Vaswani"}, {"authorId": "2", "name": "Noam Shazeer"}],
	"externalIds": {"DOI": "10.48550/ARXIV.1706.03762", "ArXiv": "1706.03762"}
}`

func TestSemanticResolveArxiv(t *testing.T) {
	var gotPath, gotKey string
	s := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte(attentionPaper))
	})

	rec, err := s.Resolve(context.Background(), "arXiv:1706.03762")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if gotPath != "/paper/arXiv:1706.03762" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}

	if rec.ID != "1706.03762" {
		t.Errorf("record ID = %q, want arXiv ID preferred", rec.ID)
	}
	if rec.Title != "Attention Is All You Need" || rec.Venue != "NeurIPS" {
		t.Errorf("record = %+v", rec)
	}
	if rec.DOI != "10.48550/arxiv.1706.03762" {
		t.Errorf("DOI not lowercased: %q", rec.DOI)
	}
	if len(rec.Authors) != 2 || rec.Authors[0] != "Ashish Vaswani" {
		t.Errorf("authors = %v", rec.Authors)
	}
	if rec.Date.Format("2006-01-02") != "2017-06-12" {
		t.Errorf("date = %v", rec.Date)
	}
}

func TestSemanticResolveTitleSearch(t *testing.T) {
	s := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paper/search" {
			t.Errorf("path = %q, want /paper/search", r.URL.Path)
		}
		if q := r.URL.Query().Get("query"); q != "Attention Is All You Need" {
			t.Errorf("query = %q", q)
		}
		if l := r.URL.Query().Get("limit"); l != "1" {
			t.Errorf("limit = %q", l)
		}
		w.Write([]byte(`{"total": 1, "offset": 0, "data": [` + attentionPaper + `]}`))
	})

	rec, err := s.Resolve(context.Background(), "Attention Is All You Need")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec.ID != "1706.03762" {
		t.Errorf("record ID = %q", rec.ID)
	}
}

func TestSemanticResolveTitleNoResults(t *testing.T) {
	s := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 0, "offset": 0, "data": []}`))
	})

	_, err := s.Resolve(context.Background(), "No Such Paper Anywhere")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSemanticReferences(t *testing.T) {
	s := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paper/arXiv:1706.03762/references" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"offset": 0, "data": [
			{"citedPaper": {"paperId": "abc", "title": "Cited One", "externalIds": {}}},
			{"citedPaper": {"paperId": "", "title": "Unresolvable Stub", "externalIds": {}}},
			{"citedPaper": null},
			{"citedPaper": {"paperId": "def", "title": "Cited Two", "externalIds": {"ArXiv": "1409.0473"}}}
		]}`))
	})

	recs, err := s.References(context.Background(), "1706.03762")
	if err != nil {
		t.Fatalf("References: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2 (stubs skipped): %+v", len(recs), recs)
	}
	if recs[0].ID != "abc" || recs[1].ID != "1409.0473" {
		t.Errorf("record IDs = %q, %q", recs[0].ID, recs[1].ID)
	}
}

func TestSemanticCiters(t *testing.T) {
	hash := "649def34f8be52c8b66281af98ae884c09aef38b"
	s := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paper/"+hash+"/citations" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"offset": 0, "data": [
			{"citingPaper": {"paperId": "xyz", "title": "Citing One", "externalIds": {}}}
		]}`))
	})

	recs, err := s.Citers(context.Background(), hash)
	if err != nil {
		t.Fatalf("Citers: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "xyz" {
		t.Errorf("records = %+v", recs)
	}
}

func TestSemanticNotFound(t *testing.T) {
	s := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := s.Resolve(context.Background(), "arXiv:0000.00000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSemanticServerErrorIsUnavailable(t *testing.T) {
	s := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := s.Resolve(context.Background(), "arXiv:1706.03762")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestSemanticYearFallbackDate(t *testing.T) {
	s := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"paperId": "p", "title": "Year Only", "year": 2015, "externalIds": {}}`))
	})

	rec, err := s.Resolve(context.Background(), "arXiv:1502.03167")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Date.Year() != 2015 {
		t.Errorf("date = %v, want year 2015", rec.Date)
	}
}

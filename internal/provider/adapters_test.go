// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// --- OpenAlex ---

func TestOpenAlexSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"results":[
			{"id":"https://openalex.org/W1","title":"Carbon Tax Effectiveness","doi":"https://doi.org/10.1000/ABC",
			 "publication_year":2021,"cited_by_count":42,
			 "authorships":[{"author":{"display_name":"A. Author"},"institutions":[{"display_name":"MIT"},{"display_name":"MIT"}]}],
			 "abstract_inverted_index":{"Taxes":[0],"work":[1]},
			 "open_access":{"is_oa":true,"oa_status":"gold","oa_url":"https://example.org/pdf"},
			 "topics":[{"display_name":"Carbon Pricing","field":{"display_name":"Economics"}}]},
			{"id":"https://openalex.org/W2","title":"","publication_year":2020}
		]}`)
	}))
	defer srv.Close()
	defer func(old string) { openAlexSearchBase = old }(openAlexSearchBase)
	openAlexSearchBase = srv.URL

	o := &OpenAlex{Client: srv.Client(), Email: "me@example.org"}
	got, err := o.Search(context.Background(), "carbon tax", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (untitled work dropped)", len(got))
	}
	d := got[0]
	if d.ID != "openalex:W1" || d.Provider != "openalex" {
		t.Errorf("id/provider = %s/%s", d.ID, d.Provider)
	}
	if d.DOI != "10.1000/abc" {
		t.Errorf("DOI = %q, want normalized 10.1000/abc", d.DOI)
	}
	if d.Abstract != "Taxes work" {
		t.Errorf("Abstract = %q", d.Abstract)
	}
	if d.CitationCount == nil || *d.CitationCount != 42 {
		t.Errorf("CitationCount = %v, want 42", d.CitationCount)
	}
	if len(d.Institutions) != 1 || d.Institutions[0] != "MIT" {
		t.Errorf("Institutions = %v, want [MIT]", d.Institutions)
	}
	if len(d.Topics) != 2 || d.OAStatus != "gold" || d.URL != "https://example.org/pdf" {
		t.Errorf("topics/oa/url = %v/%s/%s", d.Topics, d.OAStatus, d.URL)
	}
	if !strings.Contains(gotQuery, "mailto=me%40example.org") || !strings.Contains(gotQuery, "per_page=5") {
		t.Errorf("query string = %s", gotQuery)
	}
}

func TestOpenAlexHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	defer func(old string) { openAlexSearchBase = old }(openAlexSearchBase)
	openAlexSearchBase = srv.URL

	_, err := (&OpenAlex{Client: srv.Client()}).Search(context.Background(), "q", 5)
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("expected HTTP 500 error, got %v", err)
	}
}

func TestReconstructAbstract(t *testing.T) {
	got := reconstructAbstract(map[string][]int{"the": {0, 4}, "cat": {1}, "sat": {2}, "on": {3}, "mat": {5}})
	if got != "the cat sat on the mat" {
		t.Errorf("reconstructAbstract() = %q", got)
	}
	if reconstructAbstract(nil) != "" {
		t.Error("nil index should give empty abstract")
	}
}

// --- Semantic Scholar ---

func TestSemanticScholarSearch(t *testing.T) {
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("x-api-key")
		fmt.Fprint(w, `{"total":2,"data":[
			{"paperId":"abc","title":"Carbon taxes","abstract":"x","year":2019,"citationCount":7,
			 "fieldsOfStudy":["Economics"],"isOpenAccess":true,
			 "authors":[{"name":"B. Writer"}],"externalIds":{"DOI":"10.1/X","ArXiv":"1901.00001"}},
			{"paperId":"","title":"No id"}
		]}`)
	}))
	defer srv.Close()
	defer func(old string) { semanticAPIBase = old }(semanticAPIBase)
	semanticAPIBase = srv.URL

	got, err := (&SemanticScholar{Client: srv.Client(), APIKey: "k"}).Search(context.Background(), "carbon", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if apiKey != "k" {
		t.Errorf("x-api-key = %q", apiKey)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	d := got[0]
	if d.ID != "semantic_scholar:abc" || d.DOI != "10.1/x" || d.Year != 2019 || d.OAStatus != "open" {
		t.Errorf("unexpected document %+v", d)
	}
	if d.Payload["arxiv_id"] != "1901.00001" {
		t.Errorf("payload = %v", d.Payload)
	}
}

// --- arXiv ---

const arxivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <title>Carbon
      Pricing Under Uncertainty</title>
    <summary>We study carbon pricing.</summary>
    <published>2023-01-17T00:00:00Z</published>
    <arxiv:doi>10.48550/ARXIV.2301.07041</arxiv:doi>
    <author><name>C. Researcher</name></author>
    <category term="econ.GN"/>
  </entry>
  <entry>
    <id>not-an-arxiv-url</id>
    <title>Dropped</title>
  </entry>
</feed>`

func TestArxivSearch(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		fmt.Fprint(w, arxivFixture)
	}))
	defer srv.Close()
	defer func(old string) { arxivAPIBase = old }(arxivAPIBase)
	arxivAPIBase = srv.URL

	got, err := (&Arxiv{Client: srv.Client()}).Search(context.Background(), "carbon pricing", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	d := got[0]
	if d.ID != "arxiv:2301.07041" || d.Title != "Carbon Pricing Under Uncertainty" || d.Year != 2023 {
		t.Errorf("unexpected document %+v", d)
	}
	if d.DOI != "10.48550/arxiv.2301.07041" {
		t.Errorf("DOI = %q", d.DOI)
	}
	if len(d.Topics) != 1 || d.Topics[0] != "econ.GN" {
		t.Errorf("Topics = %v", d.Topics)
	}
	if !strings.Contains(rawQuery, "search_query=all:carbon+pricing") || !strings.Contains(rawQuery, "max_results=5") {
		t.Errorf("query = %s", rawQuery)
	}
}

func TestExtractArxivID(t *testing.T) {
	tests := map[string]string{
		"http://arxiv.org/abs/2301.07041v1":     "2301.07041",
		"http://arxiv.org/abs/2301.07041":       "2301.07041",
		"http://arxiv.org/abs/hep-th/9901001v3": "hep-th/9901001",
		"https://example.org/x":                 "",
	}
	for in, want := range tests {
		if got := extractArxivID(in); got != want {
			t.Errorf("extractArxivID(%q) = %q, want %q", in, got, want)
		}
	}
}

// --- PatentsView ---

func TestPatentsViewSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "pk" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"patents":[{"patent_id":"11000000","patent_title":"Carbon capture","patent_date":"2021-05-04",
			"inventors":[{"inventor_name_last":"Doe"}],"assignees":[{"assignee_organization":"Acme"}],
			"cpc_current":[{"cpc_group_id":"B01D53/62"}]}],"count":1,"total_hits":1}`)
	}))
	defer srv.Close()
	defer func(old string) { patentsViewSearchBase = old }(patentsViewSearchBase)
	patentsViewSearchBase = srv.URL

	got, err := (&PatentsView{Client: srv.Client(), APIKey: "pk"}).Search(context.Background(), "carbon capture", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "patentsview:US11000000" || got[0].Year != 2021 {
		t.Fatalf("unexpected results %+v", got)
	}
	if got[0].Institutions[0] != "Acme" || got[0].Topics[0] != "B01D53/62" {
		t.Errorf("metadata = %+v", got[0])
	}
}

func TestPatentsViewRequiresKey(t *testing.T) {
	_, err := (&PatentsView{}).Search(context.Background(), "carbon", 5)
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("expected missing key error, got %v", err)
	}
}

func TestPatentsViewRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	defer func(old string) { patentsViewSearchBase = old }(patentsViewSearchBase)
	patentsViewSearchBase = srv.URL

	_, err := (&PatentsView{Client: srv.Client(), APIKey: "pk"}).Search(context.Background(), "carbon", 5)
	if err == nil || !strings.Contains(err.Error(), "retry after 30") {
		t.Errorf("expected rate limit error, got %v", err)
	}
}

func TestBuildPatentsViewQuery(t *testing.T) {
	got := buildPatentsViewQuery(`solar "cell"`)
	want := `{"_or":[{"_text_any":{"patent_title":"solar \"cell\""}},{"_text_any":{"patent_abstract":"solar \"cell\""}}]}`
	if got != want {
		t.Errorf("buildPatentsViewQuery() = %s, want %s", got, want)
	}
	if buildPatentsViewQuery("   ") != "" {
		t.Error("blank query should build nothing")
	}
}

// --- Feed ---

const rssFixture = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Journal TOC</title>
<item><title>Carbon tax pass-through</title><link>https://j.example/1</link><guid>g1</guid>
<description>Evidence on carbon taxes.</description><pubDate>Mon, 02 Jan 2023 10:00:00 GMT</pubDate></item>
<item><title>Deep sea biology</title><link>https://j.example/2</link><guid>g2</guid></item>
</channel></rss>`

func TestFeedSearch(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, rssFixture)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	f := &Feed{Client: good.Client(), URLs: []string{bad.URL, good.URL}}
	got, err := f.Search(context.Background(), "carbon tax", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Title != "Carbon tax pass-through" || got[0].Year != 2023 || !strings.HasPrefix(got[0].ID, "feed:") {
		t.Errorf("unexpected document %+v", got[0])
	}
}

func TestFeedAllFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	_, err := (&Feed{Client: bad.Client(), URLs: []string{bad.URL}}).Search(context.Background(), "carbon", 10)
	if err == nil || !strings.Contains(err.Error(), "all feeds failed") {
		t.Errorf("expected all feeds failed, got %v", err)
	}
}

// --- Web ---

const webFixture = `<html><body>
<div class="hit" data-doi="https://doi.org/10.5555/XYZ">
  <h3 class="t">Carbon   tax effectiveness</h3><a class="l" href="/paper/1">link</a>
  <p class="s">A rich snippet.</p><span class="y">Published 2022</span>
</div>
<div class="hit"><h3 class="t"></h3></div>
<div class="hit"><h3 class="t">Second result</h3></div>
</body></html>`

func TestWebSearch(t *testing.T) {
	var gotQ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		fmt.Fprint(w, webFixture)
	}))
	defer srv.Close()

	w := &Web{Client: srv.Client(), Config: types.WebConfig{
		SearchURL:     srv.URL + "/search?q=%s",
		ItemSelector:  "div.hit",
		TitleSelector: "h3.t",
		LinkSelector:  "a.l",
		TextSelector:  "p.s",
		YearSelector:  "span.y",
	}}
	got, err := w.Search(context.Background(), "carbon tax", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQ != "carbon tax" {
		t.Errorf("q = %q", gotQ)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	d := got[0]
	if d.Title != "Carbon tax effectiveness" || d.Year != 2022 || d.DOI != "10.5555/xyz" || d.Abstract != "A rich snippet." {
		t.Errorf("unexpected document %+v", d)
	}
	if d.URL != srv.URL+"/paper/1" {
		t.Errorf("URL = %q", d.URL)
	}
	if got[0].ID == got[1].ID {
		t.Error("ids must differ")
	}

	limited, err := w.Search(context.Background(), "carbon tax", 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("limit 1: len = %d, err = %v", len(limited), err)
	}
}

func TestWebNotConfigured(t *testing.T) {
	_, err := (&Web{}).Search(context.Background(), "q", 5)
	if err == nil {
		t.Error("expected error for unconfigured web provider")
	}
}

// --- Curated ---

func TestLoadCurated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.yaml")
	content := `seeds:
  - id: stern
    title: The Economics of Climate Change
    year: 2007
    topics: [climate economics]
  - id: untitled
    title: ""
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCurated(path)
	if err != nil {
		t.Fatalf("LoadCurated: %v", err)
	}
	if len(c.Seeds) != 1 || c.Seeds[0].ID != "curated:stern" || c.Seeds[0].Year != 2007 {
		t.Fatalf("seeds = %+v", c.Seeds)
	}

	got, _ := c.Search(context.Background(), "unrelated query words", 5)
	if len(got) != 1 || !got[0].Fallback {
		t.Errorf("no match should return flagged defaults, got %+v", got)
	}
	if c.Seeds[0].Fallback {
		t.Error("flagging defaults must not mutate the seed list")
	}
}

// --- Registry ---

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry(&stubAdapter{name: "a"}, &stubAdapter{name: "b"})

	got, err := r.Resolve([]string{"b", "a", "b"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 2 || got[0].Name() != "b" {
		t.Errorf("Resolve order/dedup wrong: %v", got)
	}

	_, err = r.Resolve([]string{"a", "nope", "zzz"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if !strings.Contains(err.Error(), "nope, zzz") {
		t.Errorf("error should list unknown names: %v", err)
	}

	if names := r.Names(); strings.Join(names, ",") != "a,b" {
		t.Errorf("Names() = %v", names)
	}
}

// --- Pacing ---

func TestWithPacingZeroIntervalIsIdentity(t *testing.T) {
	a := &stubAdapter{name: "a"}
	if WithPacing(a, 0) != Adapter(a) {
		t.Error("zero interval should return the adapter unchanged")
	}
}

func TestPacedSpacesCalls(t *testing.T) {
	a := &stubAdapter{name: "a"}
	p := WithPacing(a, 30*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := p.Search(context.Background(), "q", 1); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("3 paced calls took %v, want >= ~60ms", elapsed)
	}
	if p.Name() != "a" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestPacedHonoursCancellation(t *testing.T) {
	p := WithPacing(&stubAdapter{name: "a"}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := p.Search(ctx, "q", 1); err != nil {
		t.Fatalf("first call should pass the burst: %v", err)
	}
	cancel()
	if _, err := p.Search(ctx, "q", 1); err == nil {
		t.Error("expected cancellation error while waiting for the limiter")
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/unified-scout/internal/httputil"
	"github.com/pdiddy/unified-scout/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,url,citationCount,fieldsOfStudy,isOpenAccess"

// SemanticScholar queries the Semantic Scholar Graph API.
type SemanticScholar struct {
	Client    *http.Client
	UserAgent string
	APIKey    string
}

// Name returns the provider identifier.
func (s *SemanticScholar) Name() string { return "semantic_scholar" }

// Search queries Semantic Scholar and maps papers to documents.
func (s *SemanticScholar) Search(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	limit = effectiveLimit(limit, 100)

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, clientOrDefault(s.Client), req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	docs := make([]types.RawDocument, 0, len(sr.Data))
	for _, paper := range sr.Data {
		title := strings.TrimSpace(paper.Title)
		if title == "" || paper.PaperID == "" {
			continue
		}
		d := types.RawDocument{
			ID:       prefixID("semantic_scholar", paper.PaperID),
			Provider: "semantic_scholar",
			Title:    title,
			Abstract: paper.Abstract,
			Year:     paper.Year,
			DOI:      types.NormalizeDOI(paper.ExternalIDs.DOI),
			URL:      paper.URL,
			Topics:   paper.FieldsOfStudy,
		}
		if paper.IsOpenAccess {
			d.OAStatus = "open"
		}
		if paper.CitationCount != nil {
			n := *paper.CitationCount
			d.CitationCount = &n
		}
		for _, a := range paper.Authors {
			d.Authors = append(d.Authors, a.Name)
		}
		if paper.ExternalIDs.ArXiv != "" {
			d.Payload = map[string]any{"arxiv_id": paper.ExternalIDs.ArXiv}
		}
		docs = append(docs, d)
	}
	return truncate(docs, limit), nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Year          int                 `json:"year"`
	URL           string              `json:"url"`
	CitationCount *int                `json:"citationCount"`
	IsOpenAccess  bool                `json:"isOpenAccess"`
	FieldsOfStudy []string            `json:"fieldsOfStudy"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

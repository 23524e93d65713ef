// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/unified-scout/internal/httputil"
	"github.com/pdiddy/unified-scout/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlex queries the OpenAlex Works API. It is the richest structured
// source: topics, institutions, OA status, and citation counts.
type OpenAlex struct {
	Client    *http.Client
	UserAgent string
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the provider identifier.
func (o *OpenAlex) Name() string { return "openalex" }

// Search queries OpenAlex and maps works to documents.
func (o *OpenAlex) Search(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	limit = effectiveLimit(limit, 200)

	params := url.Values{
		"search":   {query},
		"per_page": {strconv.Itoa(limit)},
		"page":     {"1"},
	}
	if o.Email != "" {
		params.Set("mailto", o.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", o.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, clientOrDefault(o.Client), req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	docs := make([]types.RawDocument, 0, len(oar.Results))
	for _, work := range oar.Results {
		title := strings.TrimSpace(work.Title)
		if title == "" {
			continue
		}
		d := types.RawDocument{
			ID:       prefixID("openalex", strings.TrimPrefix(work.ID, "https://openalex.org/")),
			Provider: "openalex",
			Title:    title,
			Abstract: reconstructAbstract(work.AbstractInvertedIndex),
			Year:     work.PublicationYear,
			DOI:      types.NormalizeDOI(work.DOI),
			URL:      work.ID,
			OAStatus: work.OpenAccess.OAStatus,
		}
		if work.OpenAccess.OAURL != "" {
			d.URL = work.OpenAccess.OAURL
		}
		if work.CitedByCount != nil {
			n := *work.CitedByCount
			d.CitationCount = &n
		}

		instSeen := make(map[string]bool)
		for _, a := range work.Authorships {
			if a.Author.DisplayName != "" {
				d.Authors = append(d.Authors, a.Author.DisplayName)
			}
			for _, inst := range a.Institutions {
				if inst.DisplayName != "" && !instSeen[inst.DisplayName] {
					instSeen[inst.DisplayName] = true
					d.Institutions = append(d.Institutions, inst.DisplayName)
				}
			}
		}
		for _, t := range work.Topics {
			if t.DisplayName != "" {
				d.Topics = append(d.Topics, t.DisplayName)
			}
			if t.Field.DisplayName != "" {
				d.Topics = append(d.Topics, t.Field.DisplayName)
			}
		}
		docs = append(docs, d)
	}
	return truncate(docs, limit), nil
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

func clientOrDefault(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          *int                 `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
	Topics                []openAlexTopic      `json:"topics"`
}

type openAlexAuthorship struct {
	Author       openAlexNamed   `json:"author"`
	Institutions []openAlexNamed `json:"institutions"`
}

type openAlexNamed struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexTopic struct {
	DisplayName string        `json:"display_name"`
	Field       openAlexNamed `json:"field"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

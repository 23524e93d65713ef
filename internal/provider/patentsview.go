// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// patentsViewSearchBase is the PatentsView patent search endpoint. Declared
// as a var so tests can substitute an httptest server.
var patentsViewSearchBase = "https://search.patentsview.org/api/v1/patent/"

const patentsViewFields = `["patent_id","patent_title","patent_abstract","patent_date","patent_type","inventors.inventor_name_last","assignees.assignee_organization","cpc_current.cpc_group_id"]`

// PatentsView queries the PatentsView patent search API. An API key is
// required by the upstream.
type PatentsView struct {
	Client    *http.Client
	UserAgent string
	APIKey    string
}

// Name returns the provider identifier.
func (p *PatentsView) Name() string { return "patentsview" }

// Search queries PatentsView and maps patents to documents.
func (p *PatentsView) Search(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	q := buildPatentsViewQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty PatentsView query")
	}
	if p.APIKey == "" {
		return nil, fmt.Errorf("PatentsView API key not configured")
	}
	limit = effectiveLimit(limit, 1000)

	params := url.Values{
		"q": {q},
		"f": {patentsViewFields},
		"o": {fmt.Sprintf(`{"size":%d}`, limit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, patentsViewSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("X-Api-Key", p.APIKey)

	resp, err := clientOrDefault(p.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("PatentsView API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			return nil, fmt.Errorf("PatentsView rate limit exceeded, retry after %s seconds", retryAfter)
		}
		return nil, fmt.Errorf("PatentsView rate limit exceeded (HTTP 429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PatentsView API returned HTTP %d", resp.StatusCode)
	}

	var pvr patentsViewResponse
	if err := json.NewDecoder(resp.Body).Decode(&pvr); err != nil {
		return nil, fmt.Errorf("parsing PatentsView response: %w", err)
	}

	docs := make([]types.RawDocument, 0, len(pvr.Patents))
	for _, patent := range pvr.Patents {
		title := strings.TrimSpace(patent.PatentTitle)
		if title == "" || patent.PatentID == "" {
			continue
		}
		patentID := "US" + patent.PatentID
		d := types.RawDocument{
			ID:       prefixID("patentsview", patentID),
			Provider: "patentsview",
			Title:    title,
			Abstract: patent.PatentAbstract,
			URL:      "https://patents.google.com/patent/" + patentID,
			Payload:  map[string]any{"patent_type": patent.PatentType},
		}
		for _, inv := range patent.Inventors {
			if inv.InventorNameLast != "" {
				d.Authors = append(d.Authors, inv.InventorNameLast)
			}
		}
		for _, as := range patent.Assignees {
			if as.Organization != "" {
				d.Institutions = append(d.Institutions, as.Organization)
			}
		}
		for _, c := range patent.CPC {
			if c.GroupID != "" {
				d.Topics = append(d.Topics, c.GroupID)
			}
		}
		if t, parseErr := time.Parse("2006-01-02", patent.PatentDate); parseErr == nil {
			d.Year = t.Year()
		}
		docs = append(docs, d)
	}
	return truncate(docs, limit), nil
}

// buildPatentsViewQuery matches any query term in the title or abstract.
func buildPatentsViewQuery(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return ""
	}
	e := escapeJSON(query)
	return fmt.Sprintf(`{"_or":[{"_text_any":{"patent_title":"%s"}},{"_text_any":{"patent_abstract":"%s"}}]}`, e, e)
}

// escapeJSON escapes a string for safe inclusion in a JSON string value.
func escapeJSON(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// PatentsView API JSON structures.
type patentsViewResponse struct {
	Patents []patentsViewPatent `json:"patents"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total_hits"`
}

type patentsViewPatent struct {
	PatentID       string                `json:"patent_id"`
	PatentTitle    string                `json:"patent_title"`
	PatentAbstract string                `json:"patent_abstract"`
	PatentDate     string                `json:"patent_date"`
	PatentType     string                `json:"patent_type"`
	Inventors      []patentsViewInventor `json:"inventors"`
	Assignees      []patentsViewAssignee `json:"assignees"`
	CPC            []patentsViewCPC      `json:"cpc_current"`
}

type patentsViewInventor struct {
	InventorNameLast string `json:"inventor_name_last"`
}

type patentsViewAssignee struct {
	Organization string `json:"assignee_organization"`
}

type patentsViewCPC struct {
	GroupID string `json:"cpc_group_id"`
}

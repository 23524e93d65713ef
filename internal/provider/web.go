// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/unified-scout/pkg/types"
)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Web scrapes an HTML search results page with CSS selectors. It is the
// slow, brittle, metadata-rich kind of source that sits behind a faster
// structured provider in a chain.
type Web struct {
	Client    *http.Client
	UserAgent string
	Config    types.WebConfig
}

// Name returns the provider identifier.
func (w *Web) Name() string { return "web" }

// Search fetches the results page for query and extracts one document per
// item selector match.
func (w *Web) Search(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty web query")
	}
	if w.Config.SearchURL == "" || w.Config.ItemSelector == "" || w.Config.TitleSelector == "" {
		return nil, fmt.Errorf("web provider not configured")
	}
	limit = effectiveLimit(limit, 0)

	reqURL := fmt.Sprintf(w.Config.SearchURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", w.UserAgent)

	resp, err := clientOrDefault(w.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("web request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search returned HTTP %d", resp.StatusCode)
	}

	page, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}
	base := resp.Request.URL

	var docs []types.RawDocument
	page.Find(w.Config.ItemSelector).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		title := collapseSpace(item.Find(w.Config.TitleSelector).First().Text())
		if title == "" {
			return true
		}

		d := types.RawDocument{
			Provider: "web",
			Title:    title,
		}
		if w.Config.LinkSelector != "" {
			if href, ok := item.Find(w.Config.LinkSelector).First().Attr("href"); ok {
				d.URL = resolveLink(base, href)
			}
		}
		if w.Config.TextSelector != "" {
			d.Abstract = collapseSpace(item.Find(w.Config.TextSelector).First().Text())
		}
		if w.Config.YearSelector != "" {
			if m := yearPattern.FindString(item.Find(w.Config.YearSelector).First().Text()); m != "" {
				d.Year, _ = strconv.Atoi(m)
			}
		}
		if doi, ok := item.Attr("data-doi"); ok {
			d.DOI = types.NormalizeDOI(doi)
		}

		key := d.URL
		if key == "" {
			key = types.NormalizeTitle(title)
		}
		sum := sha256.Sum256([]byte(key))
		d.ID = prefixID("web", hex.EncodeToString(sum[:8]))

		docs = append(docs, d)
		return len(docs) < limit
	})
	return docs, nil
}

func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

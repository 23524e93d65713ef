// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// Feed searches RSS/Atom feeds (journal tables of contents, preprint
// listings). Feeds are not queryable, so items are pulled and matched
// locally: an item matches when its title or description contains any
// query term longer than two characters.
type Feed struct {
	Client    *http.Client
	UserAgent string
	URLs      []string
}

// Name returns the provider identifier.
func (f *Feed) Name() string { return "feed" }

// Search fetches every configured feed and returns matching items. A feed
// that fails to load is skipped; Search fails only if every feed failed.
func (f *Feed) Search(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	terms := feedTerms(query)
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty feed query")
	}
	if len(f.URLs) == 0 {
		return nil, fmt.Errorf("no feeds configured")
	}
	limit = effectiveLimit(limit, 0)

	parser := gofeed.NewParser()
	var docs []types.RawDocument
	var failures []string
	seen := make(map[string]bool)

	for _, feedURL := range f.URLs {
		if len(docs) >= limit {
			break
		}
		feed, err := f.fetch(ctx, parser, feedURL)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", feedURL, err))
			continue
		}
		for _, it := range feed.Items {
			if len(docs) >= limit {
				break
			}
			title := strings.TrimSpace(it.Title)
			if title == "" || !matchesAnyTerm(strings.ToLower(title+" "+it.Description), terms) {
				continue
			}
			id := itemID(it)
			if seen[id] {
				continue
			}
			seen[id] = true

			d := types.RawDocument{
				ID:       prefixID("feed", id),
				Provider: "feed",
				Title:    title,
				Abstract: strings.TrimSpace(it.Description),
				URL:      strings.TrimSpace(it.Link),
				Topics:   it.Categories,
				Payload:  map[string]any{"feed": strings.TrimSpace(feed.Title)},
			}
			for _, a := range it.Authors {
				if a != nil && a.Name != "" {
					d.Authors = append(d.Authors, a.Name)
				}
			}
			if it.PublishedParsed != nil {
				d.Year = it.PublishedParsed.Year()
			} else if it.UpdatedParsed != nil {
				d.Year = it.UpdatedParsed.Year()
			}
			if doi, ok := it.Custom["doi"]; ok {
				d.DOI = types.NormalizeDOI(doi)
			}
			docs = append(docs, d)
		}
	}

	if len(failures) == len(f.URLs) {
		return nil, fmt.Errorf("all feeds failed: %s", strings.Join(failures, "; "))
	}
	return docs, nil
}

func (f *Feed) fetch(ctx context.Context, parser *gofeed.Parser, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := clientOrDefault(f.Client).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return parser.Parse(resp.Body)
}

func feedTerms(query string) []string {
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		t = strings.Trim(t, `"'.,;:()`)
		if len(t) > 2 {
			terms = append(terms, t)
		}
	}
	return terms
}

func matchesAnyTerm(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// itemID prefers the feed's GUID, then the link, hashed to a stable token.
func itemID(it *gofeed.Item) string {
	key := it.GUID
	if key == "" {
		key = it.Link
	}
	if key == "" {
		key = it.Title
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

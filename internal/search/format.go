// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// FormatTable writes a result set as a human-readable table to w.
func FormatTable(res types.Result, w io.Writer) {
	if len(res.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		writeSummary(res, w)
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Score", "Provider")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for i, r := range res.Results {
		year := ""
		if r.Document.Year > 0 {
			year = fmt.Sprintf("%d", r.Document.Year)
		}
		provider := r.Document.Provider
		if r.Document.Fallback {
			provider += "*"
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-6.2f  %s\n",
			i+1, clip(r.Document.Title, 60), formatAuthors(r.Document.Authors), year, r.Relevance, provider)
	}
	fmt.Fprintln(w)
	writeSummary(res, w)
}

func writeSummary(res types.Result, w io.Writer) {
	m := res.Metrics
	fmt.Fprintf(w, "%d results", res.Found)
	if res.Cached {
		fmt.Fprint(w, " (cached)")
	} else {
		fmt.Fprintf(w, " from %d raw, %d after dedup, %d above threshold", m.RawCount, m.AfterDedup, m.AfterRelevance)
		if m.RerankPath != "" {
			fmt.Fprintf(w, ", %s rerank", m.RerankPath)
		}
	}
	fmt.Fprintln(w)

	if len(m.PerProvider) > 0 {
		names := make([]string, 0, len(m.PerProvider))
		for n := range m.PerProvider {
			names = append(names, n)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = fmt.Sprintf("%s=%d", n, m.PerProvider[n])
		}
		fmt.Fprintf(w, "providers: %s\n", strings.Join(parts, " "))
	}
	if m.ProviderErrors > 0 || m.PersistFailures > 0 {
		fmt.Fprintf(w, "provider errors: %d, persist failures: %d\n", m.ProviderErrors, m.PersistFailures)
	}
	if res.EnhancedQuery.Degraded {
		fmt.Fprintln(w, "query enhancement unavailable; searched the original text")
	}
}

// FormatJSON writes the full result as indented JSON to w.
func FormatJSON(res types.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return clip(authors[0], 20)
	default:
		return clip(authors[0], 14) + " et al."
	}
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

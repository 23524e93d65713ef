// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import "github.com/pdiddy/unified-scout/pkg/types"

// Dedup collapses documents that share a normalized DOI or, for documents
// without a DOI, a normalized title. The first-seen document survives and
// inherits any metadata it lacks from the duplicates it absorbs. Documents
// with neither key are kept unconditionally. Dedup is idempotent.
//
// It returns the surviving documents and the number removed.
func Dedup(docs []types.RawDocument) ([]types.RawDocument, int) {
	byDOI := make(map[string]int)
	byTitle := make(map[string]int)
	out := make([]types.RawDocument, 0, len(docs))
	removed := 0

	for _, d := range docs {
		doi := types.NormalizeDOI(d.DOI)
		title := types.NormalizeTitle(d.Title)

		if doi != "" {
			if idx, ok := byDOI[doi]; ok {
				mergeInto(&out[idx], d)
				removed++
				continue
			}
		} else if title != "" {
			if idx, ok := byTitle[title]; ok {
				mergeInto(&out[idx], d)
				removed++
				continue
			}
		}

		idx := len(out)
		out = append(out, d)
		if doi != "" {
			byDOI[doi] = idx
		}
		if title != "" {
			if _, ok := byTitle[title]; !ok {
				byTitle[title] = idx
			}
		}
	}
	return out, removed
}

// mergeInto fills empty fields of dst from src. Identity fields (ID, DOI,
// Provider, Title) are never changed.
func mergeInto(dst *types.RawDocument, src types.RawDocument) {
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
	if dst.OAStatus == "" {
		dst.OAStatus = src.OAStatus
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if len(dst.Institutions) == 0 {
		dst.Institutions = src.Institutions
	}
	if len(dst.Topics) == 0 {
		dst.Topics = src.Topics
	}
	if dst.CitationCount == nil && src.CitationCount != nil {
		n := *src.CitationCount
		dst.CitationCount = &n
	}
	if dst.Fallback && !src.Fallback {
		dst.Fallback = false
	}
}

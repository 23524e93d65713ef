// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"strings"
)

// ErrMalformedQuery is returned when an enhanced query cannot be used even
// after degradation (no original text).
var ErrMalformedQuery = errors.New("malformed enhanced query")

// EnhancedQuery is the output of the query enhancer: the original research
// question plus an optimized form, ordered variations, and keyword/topic sets.
type EnhancedQuery struct {
	Original   string `json:"original" yaml:"original"`
	Language   string `json:"language" yaml:"language"`
	Translated string `json:"translated" yaml:"translated"`

	// Enhanced is the primary optimized query. Never empty after Normalize.
	Enhanced string `json:"enhanced" yaml:"enhanced"`

	// Variations are ordered most relevant first.
	Variations []string `json:"variations" yaml:"variations"`

	// Keywords and Topics are case-insensitive sets.
	Keywords []string `json:"keywords" yaml:"keywords"`
	Topics   []string `json:"topics" yaml:"topics"`

	// Degraded is set when the enhancer failed and this query was built
	// from the original text alone.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// DegradedQuery builds the fallback form used when enhancement fails:
// translated and enhanced equal the original, everything else is empty.
func DegradedQuery(original string) EnhancedQuery {
	original = collapse(original)
	return EnhancedQuery{
		Original:   original,
		Language:   "und",
		Translated: original,
		Enhanced:   original,
		Variations: []string{},
		Keywords:   []string{},
		Topics:     []string{},
		Degraded:   true,
	}
}

// Normalize enforces the EnhancedQuery invariants in place: Enhanced falls
// back to Translated then Original, keywords and topics are deduplicated
// case-insensitively, and variations are trimmed, unique, and distinct
// from Enhanced.
func (q *EnhancedQuery) Normalize() {
	q.Original = collapse(q.Original)
	q.Translated = collapse(q.Translated)
	q.Enhanced = collapse(q.Enhanced)
	if q.Translated == "" {
		q.Translated = q.Original
	}
	if q.Enhanced == "" {
		q.Enhanced = q.Translated
	}
	if q.Language == "" {
		q.Language = "und"
	}
	q.Keywords = foldSet(q.Keywords)
	q.Topics = foldSet(q.Topics)

	seen := map[string]bool{strings.ToLower(q.Enhanced): true}
	variations := make([]string, 0, len(q.Variations))
	for _, v := range q.Variations {
		v = collapse(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		variations = append(variations, v)
	}
	q.Variations = variations
}

// Validate reports whether the query can drive a pipeline run.
func (q EnhancedQuery) Validate() error {
	if strings.TrimSpace(q.Original) == "" || strings.TrimSpace(q.Enhanced) == "" {
		return ErrMalformedQuery
	}
	return nil
}

// foldSet lowercases, trims, and deduplicates while keeping first-seen order.
func foldSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.ToLower(collapse(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

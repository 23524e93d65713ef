// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enhance

import (
	"context"
	"strings"
	"unicode"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// stopwords are dropped from keywords and the optimized query.
var stopwords = map[string]bool{
	"a": true, "about": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "between": true, "by": true, "can": true, "do": true,
	"does": true, "for": true, "from": true, "has": true, "have": true, "how": true,
	"in": true, "into": true, "is": true, "it": true, "its": true, "of": true,
	"on": true, "or": true, "over": true, "than": true, "that": true, "the": true,
	"their": true, "there": true, "these": true, "this": true, "to": true,
	"under": true, "versus": true, "vs": true, "was": true, "were": true,
	"what": true, "when": true, "where": true, "which": true, "who": true,
	"why": true, "will": true, "with": true, "would": true,
}

// Heuristic enhances queries without any remote call: stopwords are
// removed, adjacent keyword pairs become topics, and the variations are
// the quoted phrase and the individual keyword pairs.
type Heuristic struct{}

// Enhance implements Enhancer.
func (Heuristic) Enhance(_ context.Context, query string) (types.EnhancedQuery, error) {
	words := splitWords(query)
	var keywords []string
	// runs holds maximal sequences of adjacent keywords.
	var runs [][]string
	var cur []string
	for _, w := range words {
		if stopwords[w] || len([]rune(w)) < 3 {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		keywords = append(keywords, w)
		cur = append(cur, w)
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}

	var topics []string
	for _, run := range runs {
		for i := 0; i+1 < len(run); i++ {
			topics = append(topics, run[i]+" "+run[i+1])
		}
	}

	enhanced := strings.Join(keywords, " ")
	if enhanced == "" {
		enhanced = query
	}

	var variations []string
	if phrase := strings.Join(words, " "); phrase != "" && len(words) > 1 {
		variations = append(variations, `"`+phrase+`"`)
	}
	variations = append(variations, topics...)

	return types.EnhancedQuery{
		Original:   query,
		Language:   detectLanguage(query),
		Translated: query,
		Enhanced:   enhanced,
		Variations: variations,
		Keywords:   keywords,
		Topics:     topics,
	}, nil
}

// splitWords lowercases text and splits it on anything that is not a
// letter, digit, or hyphen.
func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

// detectLanguage only distinguishes Latin-script text, reported as "en",
// from everything else, reported as undetermined.
func detectLanguage(text string) string {
	var latin, other int
	for _, r := range text {
		switch {
		case !unicode.IsLetter(r):
		case unicode.Is(unicode.Latin, r):
			latin++
		default:
			other++
		}
	}
	if latin > 0 && latin >= other {
		return "en"
	}
	return "und"
}

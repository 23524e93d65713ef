// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance scores documents against an enhanced query.
// Scoring is a pure, deterministic function of the document, the query,
// and the reference year: no network calls, no learned weights.
//
// See docs/ARCHITECTURE § Relevance.
package relevance

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// neutralScore is used when metadata needed by a factor is missing, so
// that absent data is not read as irrelevance.
const neutralScore = 0.5

// Scorer computes RelevanceScores. The zero value uses the default weights
// and the current calendar year.
type Scorer struct {
	// Weights for the overall score; a zero value means types.DefaultWeights.
	Weights types.ScoringWeights

	// Year is the reference year for temporal relevance. Zero means the
	// current year. Tests pin it for reproducible scores.
	Year int
}

// NewScorer returns a Scorer with the given weights.
func NewScorer(w types.ScoringWeights) *Scorer {
	return &Scorer{Weights: w}
}

func (s *Scorer) weights() types.ScoringWeights {
	if s == nil || s.Weights == (types.ScoringWeights{}) {
		return types.DefaultWeights()
	}
	return s.Weights
}

func (s *Scorer) year() int {
	if s != nil && s.Year > 0 {
		return s.Year
	}
	return time.Now().Year()
}

// Score computes all four factors and the weighted overall score.
func (s *Scorer) Score(doc types.RawDocument, q types.EnhancedQuery) types.RelevanceScore {
	w := s.weights()
	rs := types.RelevanceScore{
		TopicOverlap:       TopicOverlap(doc, queryKeywords(q)),
		FieldMatch:         FieldMatch(doc.Topics, q.Topics),
		TemporalRelevance:  TemporalRelevance(doc.Year, s.year(), q.Original),
		SemanticSimilarity: SemanticSimilarity(q.Enhanced, doc.Title),
	}
	rs.Overall = clamp(w.TopicOverlap*rs.TopicOverlap +
		w.FieldMatch*rs.FieldMatch +
		w.SemanticSimilarity*rs.SemanticSimilarity +
		w.TemporalRelevance*rs.TemporalRelevance)
	return rs
}

// FilterByRelevance scores every document, keeps those with overall >=
// threshold, and returns them sorted by overall score descending. Ties
// keep their input order.
func (s *Scorer) FilterByRelevance(docs []types.RawDocument, q types.EnhancedQuery, threshold float64) []types.ScoredDocument {
	kept := make([]types.ScoredDocument, 0, len(docs))
	for _, d := range docs {
		score := s.Score(d, q)
		if score.Overall >= threshold {
			kept = append(kept, types.ScoredDocument{Document: d, Score: score})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score.Overall > kept[j].Score.Overall
	})
	return kept
}

// queryKeywords returns the enhanced keywords, or the significant words of
// the enhanced query when the enhancer produced none (degraded queries).
func queryKeywords(q types.EnhancedQuery) []string {
	if len(q.Keywords) > 0 {
		return q.Keywords
	}
	seen := make(map[string]bool)
	var out []string
	for _, w := range tokenize(q.Enhanced) {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// TopicOverlap is the weighted fraction of keywords found in the title and
// abstract. The title carries weight 0.6 and the abstract 0.4 when an
// abstract exists; otherwise the title carries the full weight.
func TopicOverlap(doc types.RawDocument, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	title := strings.ToLower(doc.Title)
	abstract := strings.ToLower(doc.Abstract)

	titleWeight, abstractWeight := 1.0, 0.0
	if strings.TrimSpace(abstract) != "" {
		titleWeight, abstractWeight = 0.6, 0.4
	}

	var total float64
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(title, kw) {
			total += titleWeight
		}
		if abstractWeight > 0 && strings.Contains(abstract, kw) {
			total += abstractWeight
		}
	}
	return clamp(total / float64(len(keywords)))
}

// FieldMatch is the fraction of document topics that substring-match any
// query topic in either direction. Documents without topics score neutral.
func FieldMatch(docTopics, queryTopics []string) float64 {
	if len(docTopics) == 0 {
		return neutralScore
	}
	matched := 0
	for _, dt := range docTopics {
		dt = strings.ToLower(strings.TrimSpace(dt))
		if dt == "" {
			continue
		}
		for _, qt := range queryTopics {
			qt = strings.ToLower(strings.TrimSpace(qt))
			if qt == "" {
				continue
			}
			if strings.Contains(dt, qt) || strings.Contains(qt, dt) {
				matched++
				break
			}
		}
	}
	return clamp(float64(matched) / float64(len(docTopics)))
}

// SemanticSimilarity is the Jaccard overlap of word bigrams and trigrams
// (words longer than two characters) between the query and the title.
func SemanticSimilarity(query, title string) float64 {
	a := ngrams(tokenize(query))
	b := ngrams(tokenize(title))
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for g := range a {
		if b[g] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return clamp(float64(inter) / float64(union))
}

// tokenize lowercases text, splits on anything that is not a letter or
// digit, and drops words of two characters or fewer.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 2 {
			out = append(out, f)
		}
	}
	return out
}

func ngrams(words []string) map[string]bool {
	set := make(map[string]bool)
	for n := 2; n <= 3; n++ {
		for i := 0; i+n <= len(words); i++ {
			set[strings.Join(words[i:i+n], " ")] = true
		}
	}
	return set
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

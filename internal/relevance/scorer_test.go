// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"math"
	"testing"

	"github.com/pdiddy/unified-scout/pkg/types"
)

func carbonQuery() types.EnhancedQuery {
	return types.EnhancedQuery{
		Original:   "carbon tax effectiveness",
		Language:   "en",
		Translated: "carbon tax effectiveness",
		Enhanced:   "carbon tax effectiveness",
		Keywords:   []string{"carbon", "tax", "effectiveness"},
		Topics:     []string{"climate policy", "environmental economics"},
	}
}

func pinned() *Scorer {
	return &Scorer{Year: 2026}
}

// --- TopicOverlap ---

func TestTopicOverlap(t *testing.T) {
	kws := []string{"carbon", "tax", "effectiveness"}
	tests := []struct {
		name string
		doc  types.RawDocument
		want float64
	}{
		{"all in title, no abstract", types.RawDocument{Title: "Carbon tax effectiveness"}, 1.0},
		{"all in title and abstract", types.RawDocument{Title: "Carbon tax effectiveness", Abstract: "carbon tax effectiveness study"}, 1.0},
		{"title only with abstract present", types.RawDocument{Title: "Carbon tax effectiveness", Abstract: "unrelated"}, 0.6},
		{"abstract only", types.RawDocument{Title: "Unrelated", Abstract: "carbon tax effectiveness"}, 0.4},
		{"one of three in title", types.RawDocument{Title: "Carbon markets"}, 1.0 / 3.0},
		{"no match", types.RawDocument{Title: "Protein folding"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopicOverlap(tt.doc, kws)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TopicOverlap() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestTopicOverlapNoKeywords(t *testing.T) {
	if got := TopicOverlap(types.RawDocument{Title: "anything"}, nil); got != 0 {
		t.Errorf("TopicOverlap(no keywords) = %f, want 0", got)
	}
}

func TestTopicOverlapMonotonic(t *testing.T) {
	kws := []string{"carbon", "tax", "effectiveness"}
	base := types.RawDocument{Title: "Carbon pricing", Abstract: "a study of tax design"}
	more := base
	more.Title = "Carbon pricing and tax"

	if TopicOverlap(more, kws) < TopicOverlap(base, kws) {
		t.Errorf("adding a matching keyword to the title decreased topicOverlap: %f < %f",
			TopicOverlap(more, kws), TopicOverlap(base, kws))
	}
}

// --- FieldMatch ---

func TestFieldMatch(t *testing.T) {
	tests := []struct {
		name        string
		docTopics   []string
		queryTopics []string
		want        float64
	}{
		{"no document topics is neutral", nil, []string{"climate policy"}, 0.5},
		{"exact match", []string{"Climate Policy"}, []string{"climate policy"}, 1.0},
		{"doc topic contains query topic", []string{"international climate policy"}, []string{"climate policy"}, 1.0},
		{"query topic contains doc topic", []string{"economics"}, []string{"environmental economics"}, 1.0},
		{"half match", []string{"climate policy", "genomics"}, []string{"climate policy"}, 0.5},
		{"no query topics", []string{"genomics"}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FieldMatch(tt.docTopics, tt.queryTopics)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("FieldMatch() = %f, want %f", got, tt.want)
			}
		})
	}
}

// --- SemanticSimilarity ---

func TestSemanticSimilarity(t *testing.T) {
	tests := []struct {
		name  string
		query string
		title string
		want  float64
	}{
		{"identical", "carbon tax effectiveness", "Carbon Tax Effectiveness", 1.0},
		// query: {carbon tax, tax effectiveness, carbon tax effectiveness}
		// title: 4 bigrams + 3 trigrams, 3 shared.
		{"superset title", "carbon tax effectiveness", "Carbon tax effectiveness in reducing emissions", 3.0 / 7.0},
		{"single word query has no ngrams", "carbon", "carbon tax", 0},
		{"short words dropped", "a b c", "a b c", 0},
		{"disjoint", "carbon tax effectiveness", "protein folding dynamics", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SemanticSimilarity(tt.query, tt.title)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SemanticSimilarity() = %f, want %f", got, tt.want)
			}
		})
	}
}

// --- TemporalRelevance ---

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		query string
		want  Intent
	}{
		{"future of carbon pricing", IntentFuture},
		{"latest advances in battery chemistry", IntentRecent},
		{"history of the carbon tax", IntentHistorical},
		{"carbon tax effectiveness", IntentNone},
		{"What comes next? A forecast", IntentFuture},
		{"state of the art retrieval", IntentRecent},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := DetectIntent(tt.query); got != tt.want {
				t.Errorf("DetectIntent(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestTemporalRelevance(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		query string
		want  float64
	}{
		{"missing year is neutral", 0, "anything", 0.5},
		{"default recent", 2025, "carbon tax", 1.0},
		{"default old", 1990, "carbon tax", 0.4},
		{"future very recent", 2026, "future of carbon tax", 1.0},
		{"future old", 2010, "future of carbon tax", 0.1},
		{"recent strict", 2022, "latest carbon tax studies", 0.2},
		{"historical old", 1990, "history of carbon tax", 1.0},
		{"historical new", 2025, "history of carbon tax", 0.4},
		{"year in the future counts as new", 2030, "carbon tax", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TemporalRelevance(tt.year, 2026, tt.query)
			if got != tt.want {
				t.Errorf("TemporalRelevance(%d) = %f, want %f", tt.year, got, tt.want)
			}
		})
	}
}

// --- Score ---

func TestScoreWeightContract(t *testing.T) {
	doc := types.RawDocument{
		Title:    "Carbon tax effectiveness in reducing emissions",
		Abstract: "We estimate carbon tax effects on emissions.",
		Year:     2019,
		Topics:   []string{"climate policy", "public finance"},
	}
	s := pinned().Score(doc, carbonQuery())

	want := 0.35*s.TopicOverlap + 0.20*s.FieldMatch + 0.35*s.SemanticSimilarity + 0.10*s.TemporalRelevance
	if math.Abs(s.Overall-want) > 1e-9 {
		t.Errorf("Overall = %f, want weighted sum %f", s.Overall, want)
	}
	if s.FieldMatch != 0.5 {
		t.Errorf("FieldMatch = %f, want 0.5 (one of two topics)", s.FieldMatch)
	}
	if s.TemporalRelevance != 0.6 {
		t.Errorf("TemporalRelevance = %f, want 0.6 (7 years, no intent)", s.TemporalRelevance)
	}
}

func TestScoreBounded(t *testing.T) {
	docs := []types.RawDocument{
		{},
		{Title: "Carbon carbon carbon tax tax effectiveness", Abstract: "carbon tax effectiveness carbon tax", Year: 2026, Topics: []string{"climate policy"}},
		{Title: "???", Year: -5},
		{Title: "x", Year: 9999, Topics: []string{""}},
	}
	queries := []types.EnhancedQuery{
		carbonQuery(),
		{},
		types.DegradedQuery("carbon tax effectiveness"),
		{Enhanced: "a b", Keywords: []string{"", "carbon", "carbon"}},
	}
	for _, d := range docs {
		for _, q := range queries {
			s := pinned().Score(d, q)
			for name, v := range map[string]float64{
				"overall":  s.Overall,
				"topic":    s.TopicOverlap,
				"field":    s.FieldMatch,
				"temporal": s.TemporalRelevance,
				"semantic": s.SemanticSimilarity,
			} {
				if v < 0 || v > 1 || math.IsNaN(v) {
					t.Errorf("%s score %f out of [0,1] for doc %q query %q", name, v, d.Title, q.Enhanced)
				}
			}
		}
	}
}

func TestScoreDegradedQueryUsesEnhancedWords(t *testing.T) {
	q := types.DegradedQuery("carbon tax effectiveness")
	s := pinned().Score(types.RawDocument{Title: "Carbon tax effectiveness"}, q)
	if s.TopicOverlap != 1.0 {
		t.Errorf("TopicOverlap = %f, want 1.0 from query words", s.TopicOverlap)
	}
}

func TestScoreCustomWeights(t *testing.T) {
	sc := &Scorer{Year: 2026, Weights: types.ScoringWeights{SemanticSimilarity: 1}}
	s := sc.Score(types.RawDocument{Title: "carbon tax effectiveness"}, carbonQuery())
	if s.Overall != 1.0 {
		t.Errorf("Overall = %f, want 1.0 with semantic-only weights", s.Overall)
	}
}

// --- FilterByRelevance ---

func TestFilterByRelevance(t *testing.T) {
	docs := []types.RawDocument{
		{ID: "weak", Title: "Protein folding", Year: 2025},
		{ID: "strong", Title: "Carbon tax effectiveness", Abstract: "carbon tax effectiveness", Year: 2025, Topics: []string{"climate policy"}},
		{ID: "medium", Title: "Carbon tax design", Year: 2025},
	}
	kept := pinned().FilterByRelevance(docs, carbonQuery(), 0.4)

	if len(kept) != 2 {
		t.Fatalf("len(kept) = %d, want 2", len(kept))
	}
	if kept[0].Document.ID != "strong" {
		t.Errorf("kept[0] = %s, want strong", kept[0].Document.ID)
	}
	for i := 1; i < len(kept); i++ {
		if kept[i].Score.Overall > kept[i-1].Score.Overall {
			t.Errorf("not sorted at %d: %f > %f", i, kept[i].Score.Overall, kept[i-1].Score.Overall)
		}
	}
	for _, k := range kept {
		if k.Score.Overall < 0.4 {
			t.Errorf("%s kept with score %f below threshold", k.Document.ID, k.Score.Overall)
		}
	}
}

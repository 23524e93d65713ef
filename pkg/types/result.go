// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RelevanceScore is the deterministic multi-factor score of a document
// against an enhanced query. All fields are in [0, 1].
type RelevanceScore struct {
	Overall            float64 `json:"overall" yaml:"overall"`
	TopicOverlap       float64 `json:"topic_overlap" yaml:"topic_overlap"`
	FieldMatch         float64 `json:"field_match" yaml:"field_match"`
	TemporalRelevance  float64 `json:"temporal_relevance" yaml:"temporal_relevance"`
	SemanticSimilarity float64 `json:"semantic_similarity" yaml:"semantic_similarity"`
}

// ScoredDocument pairs a document with its relevance score.
type ScoredDocument struct {
	Document RawDocument    `json:"document" yaml:"document"`
	Score    RelevanceScore `json:"score" yaml:"score"`
}

// RankedDocument is one entry of the final result set.
type RankedDocument struct {
	// RecordID is the canonical id the document was persisted under.
	RecordID string      `json:"record_id" yaml:"record_id"`
	Document RawDocument `json:"document" yaml:"document"`

	// Relevance is the rerank score (external or local).
	Relevance float64 `json:"relevance" yaml:"relevance"`
}

// Stage names used as keys in Metrics.Timings.
const (
	StageCache   = "cache"
	StageEnhance = "enhance"
	StageFanOut  = "fanout"
	StageDedup   = "dedup"
	StageScore   = "score"
	StageRerank  = "rerank"
	StagePersist = "persist"
	StageTotal   = "total"
)

// Rerank paths reported in Metrics.RerankPath.
const (
	RerankExternal = "external"
	RerankLocal    = "local"
)

// Metrics summarizes one pipeline run.
type Metrics struct {
	RawCount        int                      `json:"raw_count" yaml:"raw_count"`
	AfterDedup      int                      `json:"after_dedup" yaml:"after_dedup"`
	AfterRelevance  int                      `json:"after_relevance" yaml:"after_relevance"`
	AfterRerank     int                      `json:"after_rerank" yaml:"after_rerank"`
	AvgRelevance    float64                  `json:"avg_relevance" yaml:"avg_relevance"`
	PerProvider     map[string]int           `json:"per_provider" yaml:"per_provider"`
	ProviderErrors  int                      `json:"provider_errors" yaml:"provider_errors"`
	PersistFailures int                      `json:"persist_failures" yaml:"persist_failures"`
	RerankPath      string                   `json:"rerank_path,omitempty" yaml:"rerank_path,omitempty"`
	Timings         map[string]time.Duration `json:"timings" yaml:"timings"`
}

// RunParams are the effective knobs that shaped a result. A cached result
// only answers a request with equal params.
type RunParams struct {
	Limit          int     `json:"limit" yaml:"limit"`
	TopK           int     `json:"top_k" yaml:"top_k"`
	Threshold      float64 `json:"threshold" yaml:"threshold"`
	MinScore       float64 `json:"min_score" yaml:"min_score"`
	ExternalRerank bool    `json:"external_rerank" yaml:"external_rerank"`
}

// Result is the structured output of a pipeline run.
type Result struct {
	RunID         string           `json:"run_id" yaml:"run_id"`
	Found         int              `json:"found" yaml:"found"`
	Upserted      int              `json:"upserted" yaml:"upserted"`
	SourceIDs     []string         `json:"source_ids" yaml:"source_ids"`
	Results       []RankedDocument `json:"results" yaml:"results"`
	Metrics       Metrics          `json:"metrics" yaml:"metrics"`
	EnhancedQuery EnhancedQuery    `json:"enhanced_query" yaml:"enhanced_query"`
	Cached        bool             `json:"cached" yaml:"cached"`
	Params        RunParams        `json:"params" yaml:"params"`
}

// EmptyResult returns a result with every collection non-nil, used when a
// run aborts or finds nothing.
func EmptyResult(eq EnhancedQuery) Result {
	return Result{
		SourceIDs: []string{},
		Results:   []RankedDocument{},
		Metrics: Metrics{
			PerProvider: map[string]int{},
			Timings:     map[string]time.Duration{},
		},
		EnhancedQuery: eq,
	}
}

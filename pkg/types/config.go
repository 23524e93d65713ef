// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP client timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "unified-scout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ProviderConfig holds settings for the source integrations and fan-out.
type ProviderConfig struct {
	// Enabled lists the provider names queried when a request names none.
	Enabled []string `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Limit is the per-provider, per-query result limit (default 10).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// Timeout bounds every single provider call (default 20s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Interval is the minimum spacing between calls to the same provider.
	// Zero disables pacing.
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// MaxVariations caps how many query variations are fanned out in
	// addition to the enhanced query (default 2).
	MaxVariations int `json:"max_variations" yaml:"max_variations" mapstructure:"max_variations"`

	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`
	PatentsViewAPIKey     string `json:"patentsview_api_key,omitempty" yaml:"patentsview_api_key,omitempty" mapstructure:"patentsview_api_key"`
	OpenAlexEmail         string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`

	// Feeds lists RSS/Atom feed URLs for the feed provider.
	Feeds []string `json:"feeds,omitempty" yaml:"feeds,omitempty" mapstructure:"feeds"`

	// Web configures the HTML scraping provider.
	Web WebConfig `json:"web" yaml:"web" mapstructure:"web"`

	// CuratedFile is a YAML file of seed documents for the curated provider.
	CuratedFile string `json:"curated_file,omitempty" yaml:"curated_file,omitempty" mapstructure:"curated_file"`

	// Chains composes primary/secondary provider pairs under a new name.
	Chains []ChainConfig `json:"chains,omitempty" yaml:"chains,omitempty" mapstructure:"chains"`
}

// WebConfig describes a search results page and the CSS selectors used to
// scrape it.
type WebConfig struct {
	// SearchURL contains a single %s placeholder for the escaped query.
	SearchURL     string `json:"search_url,omitempty" yaml:"search_url,omitempty" mapstructure:"search_url"`
	ItemSelector  string `json:"item_selector,omitempty" yaml:"item_selector,omitempty" mapstructure:"item_selector"`
	TitleSelector string `json:"title_selector,omitempty" yaml:"title_selector,omitempty" mapstructure:"title_selector"`
	LinkSelector  string `json:"link_selector,omitempty" yaml:"link_selector,omitempty" mapstructure:"link_selector"`
	TextSelector  string `json:"text_selector,omitempty" yaml:"text_selector,omitempty" mapstructure:"text_selector"`
	YearSelector  string `json:"year_selector,omitempty" yaml:"year_selector,omitempty" mapstructure:"year_selector"`
}

// ChainConfig names a chained provider built from two registered providers.
type ChainConfig struct {
	Name      string `json:"name" yaml:"name" mapstructure:"name"`
	Primary   string `json:"primary" yaml:"primary" mapstructure:"primary"`
	Secondary string `json:"secondary" yaml:"secondary" mapstructure:"secondary"`
}

// ScoringWeights are the fixed coefficients of RelevanceScore.Overall.
// They are product-tuning defaults, not learned.
type ScoringWeights struct {
	TopicOverlap       float64 `json:"topic_overlap" yaml:"topic_overlap" mapstructure:"topic_overlap"`
	FieldMatch         float64 `json:"field_match" yaml:"field_match" mapstructure:"field_match"`
	SemanticSimilarity float64 `json:"semantic_similarity" yaml:"semantic_similarity" mapstructure:"semantic_similarity"`
	TemporalRelevance  float64 `json:"temporal_relevance" yaml:"temporal_relevance" mapstructure:"temporal_relevance"`
}

// DefaultWeights returns 0.35/0.20/0.35/0.10.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		TopicOverlap:       0.35,
		FieldMatch:         0.20,
		SemanticSimilarity: 0.35,
		TemporalRelevance:  0.10,
	}
}

// ScoringConfig holds settings for the relevance filter.
type ScoringConfig struct {
	Weights ScoringWeights `json:"weights" yaml:"weights" mapstructure:"weights"`

	// Threshold is the minimum overall score kept by the relevance filter.
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// RerankConfig holds settings for the reranking stage.
type RerankConfig struct {
	// Enabled allows the external oracle; the local scorer is always available.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
	Model   string `json:"model" yaml:"model" mapstructure:"model"`

	TopK     int     `json:"top_k" yaml:"top_k" mapstructure:"top_k"`
	MinScore float64 `json:"min_score" yaml:"min_score" mapstructure:"min_score"`

	// ChunkSize bounds the documents sent to the oracle per request.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`

	// Timeout bounds each oracle request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// CacheBackend selects the result cache implementation.
type CacheBackend string

const (
	CacheRedis  CacheBackend = "redis"
	CacheMemory CacheBackend = "memory"
	CacheNone   CacheBackend = "none"
)

// CacheConfig holds settings for the result cache.
type CacheConfig struct {
	// Backend selects the store. memory is private to one process; redis
	// is shared by every scout invocation pointed at it.
	Backend CacheBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// RedisURL is a redis:// URL used by the redis backend.
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty" mapstructure:"redis_url"`

	TTL       time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
	Namespace string        `json:"namespace" yaml:"namespace" mapstructure:"namespace"`

	// MaxEntries bounds the memory backend.
	MaxEntries int `json:"max_entries" yaml:"max_entries" mapstructure:"max_entries"`
}

// StoreConfig holds settings for the persistence gateway.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// AIConfig holds settings for components that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// EnhancerBackend selects the query enhancer.
type EnhancerBackend string

const (
	EnhancerHeuristic EnhancerBackend = "heuristic"
	EnhancerClaude    EnhancerBackend = "claude"
)

// EnhanceConfig holds settings for the query enhancement stage.
type EnhanceConfig struct {
	AIConfig `yaml:",inline" mapstructure:",squash"`

	Backend EnhancerBackend `json:"backend" yaml:"backend" mapstructure:"backend"`
	Timeout time.Duration   `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// ScoutConfig groups all component configurations.
type ScoutConfig struct {
	HTTP      HTTPConfig     `json:"http" yaml:"http" mapstructure:"http"`
	Providers ProviderConfig `json:"providers" yaml:"providers" mapstructure:"providers"`
	Scoring   ScoringConfig  `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Rerank    RerankConfig   `json:"rerank" yaml:"rerank" mapstructure:"rerank"`
	Cache     CacheConfig    `json:"cache" yaml:"cache" mapstructure:"cache"`
	Store     StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Enhance   EnhanceConfig  `json:"enhance" yaml:"enhance" mapstructure:"enhance"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() ScoutConfig {
	return ScoutConfig{
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "unified-scout/0.1",
		},
		Providers: ProviderConfig{
			Enabled:       []string{"openalex", "semantic_scholar", "arxiv"},
			Limit:         10,
			Timeout:       20 * time.Second,
			Interval:      time.Second,
			MaxVariations: 2,
		},
		Scoring: ScoringConfig{
			Weights:   DefaultWeights(),
			Threshold: 0.3,
		},
		Rerank: RerankConfig{
			BaseURL:   "https://api.cohere.com",
			Model:     "rerank-v3.5",
			TopK:      20,
			ChunkSize: 100,
			Timeout:   15 * time.Second,
		},
		Cache: CacheConfig{
			Backend:    CacheMemory,
			TTL:        6 * time.Hour,
			Namespace:  "scout:result:",
			MaxEntries: 512,
		},
		Store: StoreConfig{
			Path: "data/scout.db",
		},
		Enhance: EnhanceConfig{
			Backend: EnhancerHeuristic,
			Timeout: 30 * time.Second,
		},
	}
}

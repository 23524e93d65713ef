// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scout runs the retrieval pipeline: query enhancement, provider
// fan-out, deduplication, relevance filtering, reranking, persistence,
// and result caching. Every stage failure short of invalid input is
// recovered inside the stage and counted in the result's Metrics.
//
// See docs/ARCHITECTURE § Pipeline.
package scout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/unified-scout/internal/cache"
	"github.com/pdiddy/unified-scout/internal/enhance"
	"github.com/pdiddy/unified-scout/internal/provider"
	"github.com/pdiddy/unified-scout/internal/relevance"
	"github.com/pdiddy/unified-scout/internal/rerank"
	"github.com/pdiddy/unified-scout/internal/search"
	"github.com/pdiddy/unified-scout/pkg/types"
)

// ErrEmptyQuery is returned when the request carries no query text.
var ErrEmptyQuery = errors.New("empty query")

// Persister stores canonical records. *store.Store satisfies it.
type Persister interface {
	Upsert(ctx context.Context, id string, f types.RecordFields) (types.CanonicalRecord, error)
}

// Request is one pipeline run.
type Request struct {
	Query string

	// Providers names the adapters to query. Empty means the configured
	// enabled set.
	Providers []string

	// Limit is the per-provider, per-query result limit; zero means the
	// configured default. TopK likewise.
	Limit int
	TopK  int

	// Threshold and MinScore override the configured relevance threshold
	// and rerank floor; nil means the configured value. Use Float64(0) to
	// disable a filter.
	Threshold         *float64
	MinScore          *float64
	UseExternalRerank bool

	// SkipCache bypasses the cache lookup. A fresh non-empty result still
	// replaces the cached entry. A cached entry produced with different
	// RunParams is treated as a miss.
	SkipCache bool

	// Deadline bounds the whole run when positive.
	Deadline time.Duration
}

// Float64 returns a pointer to v, for Request.Threshold and MinScore.
func Float64(v float64) *float64 { return &v }

// Pipeline wires the stages together. Registry is required; every other
// dependency may be nil: no enhancer degrades every query, no store skips
// persistence, and a nil cache runs always-live.
type Pipeline struct {
	Registry *provider.Registry
	Enhancer enhance.Enhancer
	Scorer   *relevance.Scorer
	Reranker *rerank.Reranker
	Store    Persister
	Cache    *cache.ResultCache
	Recorder Recorder
	Config   types.ScoutConfig
	Logger   *zap.Logger
}

// New returns a pipeline with the heuristic enhancer and a local-only
// reranker. Callers replace fields to add a store, cache, or oracle.
func New(cfg types.ScoutConfig, registry *provider.Registry, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	scorer := relevance.NewScorer(cfg.Scoring.Weights)
	return &Pipeline{
		Registry: registry,
		Enhancer: enhance.Heuristic{},
		Scorer:   scorer,
		Reranker: rerank.New(nil, scorer, cfg.Rerank, logger),
		Config:   cfg,
		Logger:   logger,
	}
}

// Run executes req. The error is non-nil only for invalid input (an empty
// query or an unknown provider); the result is then empty-shaped. Provider,
// enhancer, reranker, cache, and store failures are absorbed.
func (p *Pipeline) Run(ctx context.Context, req Request) (types.Result, error) {
	runID := uuid.NewString()
	logger := p.logger().With(zap.String("run_id", runID))
	acc := newAccumulator()

	query := strings.Join(strings.Fields(req.Query), " ")
	if query == "" {
		return p.invalid(runID, types.DegradedQuery(""), ErrEmptyQuery)
	}

	names := req.Providers
	if len(names) == 0 {
		names = p.Config.Providers.Enabled
	}
	adapters, err := p.Registry.Resolve(names)
	if err != nil {
		return p.invalid(runID, types.DegradedQuery(query), err)
	}

	if req.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Deadline)
		defer cancel()
	}

	params := p.params(req)
	key := p.Cache.Key(query, names)
	if !req.SkipCache {
		t := time.Now()
		if res, ok := p.Cache.Lookup(ctx, key); ok {
			if res.Params == params {
				res.Cached = true
				logger.Info("cache_hit", zap.String("key", key), zap.Int("found", res.Found))
				p.record(res, nil)
				return res, nil
			}
			logger.Debug("cache_params_mismatch", zap.String("key", key))
		}
		acc.stage(types.StageCache, t)
	}

	t := time.Now()
	eq := p.enhance(ctx, query, logger)
	acc.stage(types.StageEnhance, t)

	t = time.Now()
	fan := search.FanOut(ctx, eq, adapters, search.FanOutOptions{
		Limit:         params.Limit,
		Timeout:       p.Config.Providers.Timeout,
		MaxVariations: p.Config.Providers.MaxVariations,
	}, logger)
	acc.fanOut(fan)
	acc.stage(types.StageFanOut, t)

	t = time.Now()
	docs, _ := search.Dedup(fan.Documents)
	acc.m.AfterDedup = len(docs)
	acc.stage(types.StageDedup, t)

	t = time.Now()
	scored := p.scorer().FilterByRelevance(docs, eq, params.Threshold)
	candidates := make([]types.RawDocument, len(scored))
	for i, s := range scored {
		candidates[i] = s.Document
	}
	acc.m.AfterRelevance = len(candidates)
	acc.stage(types.StageScore, t)

	t = time.Now()
	reranked, path := p.reranker(logger).RerankBatch(ctx, candidates, eq, rerank.Options{
		TopK:        params.TopK,
		MinScore:    params.MinScore,
		UseExternal: params.ExternalRerank,
	})
	acc.rerank(reranked, path)
	acc.stage(types.StageRerank, t)

	res := types.EmptyResult(eq)
	res.RunID = runID
	res.Params = params

	t = time.Now()
	for _, r := range reranked {
		id := r.Document.CanonicalID()
		res.Results = append(res.Results, types.RankedDocument{
			RecordID:  id,
			Document:  r.Document,
			Relevance: r.RelevanceScore,
		})
		if p.Store == nil {
			continue
		}
		if _, err := p.Store.Upsert(ctx, id, types.FieldsFromDocument(r.Document, r.RelevanceScore)); err != nil {
			acc.m.PersistFailures++
			logger.Warn("persist_failed", zap.String("id", id), zap.Error(err))
			continue
		}
		res.Upserted++
		res.SourceIDs = append(res.SourceIDs, id)
	}
	res.Found = len(res.Results)
	acc.stage(types.StagePersist, t)

	t = time.Now()
	acc.stage(types.StageTotal, acc.start)
	res.Metrics = acc.m
	if p.Cache.Store(ctx, key, res) {
		logger.Debug("cache_stored", zap.String("key", key))
	}
	res.Metrics.Timings[types.StageCache] += time.Since(t)

	logger.Info("scout_run_done",
		zap.String("query", query),
		zap.Int("raw", res.Metrics.RawCount),
		zap.Int("after_dedup", res.Metrics.AfterDedup),
		zap.Int("after_relevance", res.Metrics.AfterRelevance),
		zap.Int("found", res.Found),
		zap.Int("upserted", res.Upserted),
		zap.String("rerank_path", res.Metrics.RerankPath),
		zap.Bool("degraded_query", eq.Degraded),
		zap.Duration("elapsed", res.Metrics.Timings[types.StageTotal]))
	p.record(res, nil)
	return res, nil
}

func (p *Pipeline) enhance(ctx context.Context, query string, logger *zap.Logger) types.EnhancedQuery {
	if d := p.Config.Enhance.Timeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return enhance.Enhance(ctx, p.Enhancer, query, logger)
}

func (p *Pipeline) invalid(runID string, eq types.EnhancedQuery, err error) (types.Result, error) {
	res := types.EmptyResult(eq)
	res.RunID = runID
	p.logger().Warn("scout_run_rejected", zap.String("run_id", runID), zap.Error(err))
	p.record(res, err)
	return res, err
}

func (p *Pipeline) record(res types.Result, err error) {
	if p.Recorder != nil {
		p.Recorder.Observe(res, err)
	}
}

// params resolves the request against the configuration.
func (p *Pipeline) params(req Request) types.RunParams {
	rp := types.RunParams{
		Limit:          p.limit(req),
		TopK:           p.topK(req),
		Threshold:      p.Config.Scoring.Threshold,
		MinScore:       p.Config.Rerank.MinScore,
		ExternalRerank: req.UseExternalRerank,
	}
	if req.Threshold != nil {
		rp.Threshold = *req.Threshold
	}
	if req.MinScore != nil {
		rp.MinScore = *req.MinScore
	}
	return rp
}

func (p *Pipeline) limit(req Request) int {
	if req.Limit > 0 {
		return req.Limit
	}
	if p.Config.Providers.Limit > 0 {
		return p.Config.Providers.Limit
	}
	return 10
}

func (p *Pipeline) topK(req Request) int {
	if req.TopK > 0 {
		return req.TopK
	}
	return p.Config.Rerank.TopK
}

func (p *Pipeline) scorer() *relevance.Scorer {
	if p.Scorer == nil {
		return relevance.NewScorer(p.Config.Scoring.Weights)
	}
	return p.Scorer
}

// reranker returns the configured reranker, or a local-only one bound to
// the run logger.
func (p *Pipeline) reranker(logger *zap.Logger) *rerank.Reranker {
	if p.Reranker != nil {
		return p.Reranker
	}
	return rerank.New(nil, p.scorer(), p.Config.Rerank, logger)
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rerank reorders a relevance-filtered candidate set. An external
// reranking oracle is preferred when requested and configured; the local
// deterministic scorer is always available and used whenever the oracle
// is disabled or fails.
//
// See docs/ARCHITECTURE § Rerank.
package rerank

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/unified-scout/internal/relevance"
	"github.com/pdiddy/unified-scout/pkg/types"
)

// Oracle is an external reranking model.
type Oracle interface {
	// Configured reports whether the oracle may be called at all.
	Configured() bool

	// Rerank scores documents against query. Scores are in [0, 1] and
	// indices refer to positions in documents.
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]Score, error)
}

// Score is one oracle result.
type Score struct {
	Index          int
	RelevanceScore float64
}

// Options controls one rerank.
type Options struct {
	TopK        int
	MinScore    float64
	UseExternal bool
}

// Result is a reranked document. Index is its position in the input.
type Result struct {
	Document       types.RawDocument
	RelevanceScore float64
	Index          int
}

// DefaultChunkSize bounds the documents sent in one oracle request.
const DefaultChunkSize = 100

// Reranker applies the oracle with a local fallback.
type Reranker struct {
	Oracle    Oracle
	Scorer    *relevance.Scorer
	ChunkSize int
	Timeout   time.Duration
	Logger    *zap.Logger
}

// New returns a Reranker. A nil oracle means local scoring only.
func New(oracle Oracle, scorer *relevance.Scorer, cfg types.RerankConfig, logger *zap.Logger) *Reranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reranker{
		Oracle:    oracle,
		Scorer:    scorer,
		ChunkSize: cfg.ChunkSize,
		Timeout:   cfg.Timeout,
		Logger:    logger,
	}
}

func (r *Reranker) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// externalAllowed decides between the two paths and logs why the oracle
// is skipped.
func (r *Reranker) externalAllowed(opts Options) bool {
	switch {
	case !opts.UseExternal:
		r.logger().Debug("rerank_external_disabled", zap.String("reason", "not_requested"))
		return false
	case r.Oracle == nil || !r.Oracle.Configured():
		r.logger().Info("rerank_external_disabled", zap.String("reason", "no_credentials"))
		return false
	}
	return true
}

// Rerank reorders docs in a single oracle request and returns the results
// with the path actually taken (types.RerankExternal or RerankLocal).
// Oracle failures never reach the caller.
func (r *Reranker) Rerank(ctx context.Context, docs []types.RawDocument, q types.EnhancedQuery, opts Options) ([]Result, string) {
	if len(docs) == 0 {
		return []Result{}, r.path(opts)
	}
	if r.externalAllowed(opts) {
		results, err := r.external(ctx, docs, 0, q, opts)
		if err == nil {
			return finish(results, opts.TopK), types.RerankExternal
		}
		r.logger().Warn("rerank_fallback_local", zap.Int("documents", len(docs)), zap.Error(err))
	}
	return r.Local(docs, q, opts), types.RerankLocal
}

// RerankBatch splits docs into chunks of ChunkSize, reranks each chunk
// independently, then applies one global sort and truncation. Chunk
// boundaries do not change the final top K. If any chunk fails on the
// oracle, the whole set is scored locally so that scores stay comparable.
func (r *Reranker) RerankBatch(ctx context.Context, docs []types.RawDocument, q types.EnhancedQuery, opts Options) ([]Result, string) {
	size := r.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(docs) <= size {
		return r.Rerank(ctx, docs, q, opts)
	}
	if !r.externalAllowed(opts) {
		return r.Local(docs, q, opts), types.RerankLocal
	}

	var merged []Result
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		results, err := r.external(ctx, docs[start:end], start, q, opts)
		if err != nil {
			r.logger().Warn("rerank_fallback_local",
				zap.Int("documents", len(docs)),
				zap.Int("chunk_start", start),
				zap.Error(err))
			return r.Local(docs, q, opts), types.RerankLocal
		}
		merged = append(merged, results...)
	}
	return finish(merged, opts.TopK), types.RerankExternal
}

// Local scores docs with the deterministic relevance scorer, keeps those
// at or above MinScore, and returns the top K by score.
func (r *Reranker) Local(docs []types.RawDocument, q types.EnhancedQuery, opts Options) []Result {
	results := make([]Result, 0, len(docs))
	for i, d := range docs {
		s := r.Scorer.Score(d, q).Overall
		if s >= opts.MinScore {
			results = append(results, Result{Document: d, RelevanceScore: s, Index: i})
		}
	}
	return finish(results, opts.TopK)
}

// external calls the oracle for one chunk. offset is the chunk's position
// in the full input so that Result.Index refers to the original slice.
func (r *Reranker) external(ctx context.Context, docs []types.RawDocument, offset int, q types.EnhancedQuery, opts Options) ([]Result, error) {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = documentText(d)
	}

	callCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	topN := opts.TopK
	if topN <= 0 || topN > len(docs) {
		topN = len(docs)
	}
	start := time.Now()
	scores, err := r.Oracle.Rerank(callCtx, q.Enhanced, texts, topN)
	if err != nil {
		return nil, err
	}
	if err := callCtx.Err(); err != nil {
		return nil, fmt.Errorf("rerank oracle: %w", err)
	}

	results := make([]Result, 0, len(scores))
	for _, s := range scores {
		if s.Index < 0 || s.Index >= len(docs) {
			return nil, fmt.Errorf("oracle returned index %d for %d documents", s.Index, len(docs))
		}
		if s.RelevanceScore >= opts.MinScore {
			results = append(results, Result{
				Document:       docs[s.Index],
				RelevanceScore: s.RelevanceScore,
				Index:          offset + s.Index,
			})
		}
	}
	r.logger().Debug("rerank_external_done",
		zap.Int("documents", len(docs)),
		zap.Int("kept", len(results)),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}

func (r *Reranker) path(opts Options) string {
	if opts.UseExternal && r.Oracle != nil && r.Oracle.Configured() {
		return types.RerankExternal
	}
	return types.RerankLocal
}

// finish sorts by score descending, breaking ties by input position, and
// truncates to topK (topK <= 0 keeps everything).
func finish(results []Result, topK int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].Index < results[j].Index
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

func documentText(d types.RawDocument) string {
	if d.Abstract == "" {
		return d.Title
	}
	return strings.TrimSpace(d.Title + "\n\n" + d.Abstract)
}

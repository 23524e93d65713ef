// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fans a query out to providers, merges the results into a
// canonical deduplicated set, and renders result sets for humans and tools.
//
// See docs/ARCHITECTURE § Search.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/unified-scout/internal/provider"
	"github.com/pdiddy/unified-scout/pkg/types"
)

// DefaultCallTimeout bounds a single provider call when FanOutOptions
// leaves Timeout unset.
const DefaultCallTimeout = 20 * time.Second

// FanOutOptions controls one fan-out.
type FanOutOptions struct {
	// Limit is passed to each provider call and enforced on its result.
	Limit int

	// Timeout bounds each (provider, query) call. Zero means
	// DefaultCallTimeout.
	Timeout time.Duration

	// MaxVariations caps how many query variations are issued in addition
	// to the enhanced query. Negative means all.
	MaxVariations int
}

// FanOutResult is the union of every successful call.
type FanOutResult struct {
	Documents []types.RawDocument

	// PerProvider counts documents contributed by each provider across
	// all query forms. Providers that failed every call appear with 0.
	PerProvider map[string]int

	// Errors holds one entry per failed call.
	Errors []string

	// Calls is the number of (provider, query) calls issued.
	Calls int
}

// Queries returns the query strings issued for eq: the enhanced query
// followed by at most maxVariations variations.
func Queries(eq types.EnhancedQuery, maxVariations int) []string {
	qs := []string{eq.Enhanced}
	vs := eq.Variations
	if maxVariations >= 0 && len(vs) > maxVariations {
		vs = vs[:maxVariations]
	}
	return append(qs, vs...)
}

// FanOut issues one Search per (adapter, query form) concurrently and
// joins them all-settled: a failing, panicking or timed-out call
// contributes nothing and never cancels the others. Result order follows adapter order, then
// query order, then each provider's native ranking.
func FanOut(ctx context.Context, eq types.EnhancedQuery, adapters []provider.Adapter, opts FanOutOptions, logger *zap.Logger) FanOutResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	queries := Queries(eq, opts.MaxVariations)

	type call struct {
		adapter provider.Adapter
		query   string
		docs    []types.RawDocument
		err     error
	}
	calls := make([]call, 0, len(adapters)*len(queries))
	for _, a := range adapters {
		for _, q := range queries {
			calls = append(calls, call{adapter: a, query: q})
		}
	}

	var g errgroup.Group
	for i := range calls {
		c := &calls[i]
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			docs, err := provider.SafeSearch(callCtx, c.adapter, c.query, opts.Limit)
			if err == nil && callCtx.Err() != nil {
				err = callCtx.Err()
			}
			if err != nil {
				c.err = err
				logger.Warn("provider_search_failed",
					zap.String("provider", c.adapter.Name()),
					zap.String("query", c.query),
					zap.Duration("elapsed", time.Since(start)),
					zap.Error(err))
				return nil
			}
			if opts.Limit > 0 && len(docs) > opts.Limit {
				docs = docs[:opts.Limit]
			}
			c.docs = docs
			logger.Debug("provider_search_done",
				zap.String("provider", c.adapter.Name()),
				zap.String("query", c.query),
				zap.Int("count", len(docs)),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		})
	}
	_ = g.Wait()

	out := FanOutResult{
		PerProvider: make(map[string]int, len(adapters)),
		Calls:       len(calls),
	}
	for _, c := range calls {
		name := c.adapter.Name()
		out.PerProvider[name] += len(c.docs)
		if c.err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("%s(%q): %v", name, c.query, c.err))
			continue
		}
		out.Documents = append(out.Documents, c.docs...)
	}
	return out
}

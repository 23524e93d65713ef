// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enhance turns a research question into an EnhancedQuery:
// translated, optimized, with keyword and topic sets and ordered query
// variations. Enhancement is best-effort; any failure degrades to the
// original text so the rest of the pipeline still runs.
package enhance

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// Enhancer produces an enhanced form of a query.
type Enhancer interface {
	Enhance(ctx context.Context, query string) (types.EnhancedQuery, error)
}

// Enhance runs e and normalizes its output. A nil enhancer, an error, or
// output that fails validation yields types.DegradedQuery(query) and a
// warning; Enhance itself never fails.
func Enhance(ctx context.Context, e Enhancer, query string, logger *zap.Logger) types.EnhancedQuery {
	if logger == nil {
		logger = zap.NewNop()
	}
	if e == nil {
		return types.DegradedQuery(query)
	}

	eq, err := e.Enhance(ctx, query)
	if err == nil {
		eq.Original = query
		eq.Normalize()
		eq.Degraded = false
		err = eq.Validate()
	}
	if err != nil {
		logger.Warn("enhancement_degraded", zap.String("query", query), zap.Error(err))
		return types.DegradedQuery(query)
	}
	return eq
}

// Func adapts a function to the Enhancer interface.
type Func func(ctx context.Context, query string) (types.EnhancedQuery, error)

// Enhance calls f.
func (f Func) Enhance(ctx context.Context, query string) (types.EnhancedQuery, error) {
	return f(ctx, query)
}

// New returns the enhancer selected by cfg.
func New(cfg types.EnhanceConfig) (Enhancer, error) {
	switch cfg.Backend {
	case types.EnhancerHeuristic, "":
		return Heuristic{}, nil
	case types.EnhancerClaude:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("claude enhancer requires an API key")
		}
		return &Claude{APIKey: cfg.APIKey, Model: cfg.Model, Timeout: cfg.Timeout}, nil
	default:
		return nil, fmt.Errorf("unknown enhancer backend %q", cfg.Backend)
	}
}

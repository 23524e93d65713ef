// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// FallbackDetector reports whether a document is a degraded default rather
// than a genuine match.
type FallbackDetector func(types.RawDocument) bool

// IsFallbackFlagged is the default detector: the explicit Fallback marker.
func IsFallbackFlagged(d types.RawDocument) bool { return d.Fallback }

// Chained pairs a fast, robust primary source with a slower, richer, more
// brittle secondary. The secondary is only called when the primary found
// nothing specific. Search never returns an error and never panics.
type Chained struct {
	ChainName string
	Primary   Adapter
	Secondary Adapter

	// IsFallback classifies primary results; nil means IsFallbackFlagged.
	IsFallback FallbackDetector

	Logger *zap.Logger
}

// NewChained returns a chain with the default fallback detector.
func NewChained(name string, primary, secondary Adapter, logger *zap.Logger) *Chained {
	return &Chained{
		ChainName:  name,
		Primary:    primary,
		Secondary:  secondary,
		IsFallback: IsFallbackFlagged,
		Logger:     logger,
	}
}

// Name returns the chain identifier.
func (c *Chained) Name() string { return c.ChainName }

// Search returns the primary's results when at least one is not
// fallback-flagged. Otherwise it merges the secondary's results first and
// fills the remaining slots with the primary's, skipping repeated ids.
func (c *Chained) Search(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	logger := c.logger()
	detect := c.IsFallback
	if detect == nil {
		detect = IsFallbackFlagged
	}

	primary, err := SafeSearch(ctx, c.Primary, query, limit)
	if err != nil {
		logger.Warn("chain_primary_failed",
			zap.String("chain", c.ChainName),
			zap.String("provider", c.Primary.Name()),
			zap.Error(err))
		primary = nil
	}

	for _, d := range primary {
		if !detect(d) {
			return truncate(primary, limit), nil
		}
	}

	logger.Debug("chain_escalating",
		zap.String("chain", c.ChainName),
		zap.String("secondary", c.Secondary.Name()),
		zap.Int("primary_results", len(primary)))

	secondary, err := SafeSearch(ctx, c.Secondary, query, limit)
	if err != nil {
		logger.Warn("chain_secondary_failed",
			zap.String("chain", c.ChainName),
			zap.String("provider", c.Secondary.Name()),
			zap.Error(err))
		secondary = nil
	}

	merged := make([]types.RawDocument, 0, len(secondary)+len(primary))
	seen := make(map[string]bool, len(secondary)+len(primary))
	appendUnique := func(docs []types.RawDocument) {
		for _, d := range docs {
			if limit > 0 && len(merged) >= limit {
				return
			}
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			merged = append(merged, d)
		}
	}
	appendUnique(secondary)
	appendUnique(primary)
	return merged, nil
}

func (c *Chained) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

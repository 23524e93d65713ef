// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// Paced spaces calls to an adapter so that at most one starts per
// interval. Pacing is a policy wrapped around a provider; the fan-out
// itself never sleeps.
type Paced struct {
	Adapter
	limiter *rate.Limiter
}

// WithPacing wraps a with a limiter allowing one call per interval.
// A non-positive interval returns a unchanged.
func WithPacing(a Adapter, interval time.Duration) Adapter {
	if interval <= 0 {
		return a
	}
	return &Paced{Adapter: a, limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Search waits for the limiter, then delegates.
func (p *Paced) Search(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s pacing: %w", p.Name(), err)
	}
	return p.Adapter.Search(ctx, query, limit)
}

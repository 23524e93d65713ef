// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"github.com/pdiddy/unified-scout/internal/cache"
	"github.com/pdiddy/unified-scout/internal/enhance"
	"github.com/pdiddy/unified-scout/internal/provider"
	"github.com/pdiddy/unified-scout/internal/relevance"
	"github.com/pdiddy/unified-scout/internal/rerank"
	"github.com/pdiddy/unified-scout/internal/scout"
	"github.com/pdiddy/unified-scout/internal/store"
	"github.com/pdiddy/unified-scout/pkg/types"
)

// buildRegistry registers every provider the configuration can support.
// Remote providers are paced; chains are registered last so they can
// refer to any other provider.
func buildRegistry(cfg types.ScoutConfig, client *http.Client, log *zap.Logger) (*provider.Registry, error) {
	ua := cfg.HTTP.UserAgent
	paced := func(a provider.Adapter) provider.Adapter {
		return provider.WithPacing(a, cfg.Providers.Interval)
	}

	reg := provider.NewRegistry(
		paced(&provider.OpenAlex{Client: client, UserAgent: ua, Email: cfg.Providers.OpenAlexEmail}),
		paced(&provider.SemanticScholar{Client: client, UserAgent: ua, APIKey: cfg.Providers.SemanticScholarAPIKey}),
		paced(&provider.Arxiv{Client: client, UserAgent: ua}),
		paced(&provider.PatentsView{Client: client, UserAgent: ua, APIKey: cfg.Providers.PatentsViewAPIKey}),
	)
	if len(cfg.Providers.Feeds) > 0 {
		reg.Register(&provider.Feed{Client: client, UserAgent: ua, URLs: cfg.Providers.Feeds})
	}
	if cfg.Providers.Web.SearchURL != "" {
		reg.Register(paced(&provider.Web{Client: client, UserAgent: ua, Config: cfg.Providers.Web}))
	}
	if cfg.Providers.CuratedFile != "" {
		c, err := provider.LoadCurated(cfg.Providers.CuratedFile)
		if err != nil {
			return nil, err
		}
		reg.Register(c)
	}

	for _, ch := range cfg.Providers.Chains {
		primary, ok := reg.Get(ch.Primary)
		if !ok {
			return nil, fmt.Errorf("chain %s: %w: %s", ch.Name, provider.ErrUnknownProvider, ch.Primary)
		}
		secondary, ok := reg.Get(ch.Secondary)
		if !ok {
			return nil, fmt.Errorf("chain %s: %w: %s", ch.Name, provider.ErrUnknownProvider, ch.Secondary)
		}
		reg.Register(provider.NewChained(ch.Name, primary, secondary, log))
	}
	return reg, nil
}

// openCache returns the result cache, or nil when caching is disabled.
// An unreachable backend leaves a Degraded client that recovers on its own.
func openCache(ctx context.Context, cfg types.ScoutConfig, log *zap.Logger) (*cache.ResultCache, func(), error) {
	if cfg.Cache.Backend == types.CacheNone {
		return nil, func() {}, nil
	}
	client, err := cache.Open(ctx, cfg.Cache, log)
	if err != nil {
		return nil, nil, err
	}
	if client.Status() != cache.Ready {
		fmt.Fprintf(os.Stderr, "warning: cache %s is %s, running uncached until it recovers\n", cfg.Cache.Backend, client.Status())
	}
	return cache.NewResultCache(client, cfg.Cache, log), func() { client.Close() }, nil
}

// app holds everything a pipeline command needs and must close.
type app struct {
	pipeline *scout.Pipeline
	store    *store.Store
	metrics  *prometheus.Registry
	closers  []func()
}

func (rt *app) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// buildPipeline wires configuration into a ready pipeline.
func buildPipeline(ctx context.Context, cfg types.ScoutConfig, log *zap.Logger) (*app, error) {
	client := &http.Client{Timeout: cfg.HTTP.Timeout}
	rt := &app{metrics: prometheus.NewRegistry()}

	reg, err := buildRegistry(cfg, client, log)
	if err != nil {
		return nil, err
	}

	enh, err := enhance.New(cfg.Enhance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using heuristic query enhancement\n", err)
		enh = enhance.Heuristic{}
	}

	scorer := relevance.NewScorer(cfg.Scoring.Weights)
	var oracle rerank.Oracle
	if cfg.Rerank.Enabled {
		oracle = rerank.NewClient(cfg.Rerank, client)
	}

	p := scout.New(cfg, reg, log)
	p.Enhancer = enh
	p.Scorer = scorer
	p.Reranker = rerank.New(oracle, scorer, cfg.Rerank, log)
	p.Recorder = scout.NewPrometheusRecorder(rt.metrics)

	if cfg.Store.Path != "" {
		s, err := store.NewStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		rt.store = s
		p.Store = s
		rt.closers = append(rt.closers, func() { s.Close() })
	}

	rc, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		rt.Close()
		return nil, err
	}
	p.Cache = rc
	rt.closers = append(rt.closers, closeCache)

	rt.pipeline = p
	return rt, nil
}

// writeMetrics dumps the run metrics in the Prometheus text format.
func writeMetrics(reg *prometheus.Registry, w io.Writer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

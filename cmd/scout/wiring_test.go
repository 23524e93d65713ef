// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/unified-scout/internal/provider"
	"github.com/pdiddy/unified-scout/internal/scout"
	"github.com/pdiddy/unified-scout/pkg/types"
)

func TestBuildRegistryDefaults(t *testing.T) {
	reg, err := buildRegistry(types.DefaultConfig(), http.DefaultClient, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"arxiv", "openalex", "patentsview", "semantic_scholar"}, reg.Names())
}

func TestBuildRegistryOptionalProviders(t *testing.T) {
	curated := filepath.Join(t.TempDir(), "seeds.yaml")
	require.NoError(t, os.WriteFile(curated, []byte("seeds:\n  - id: s1\n    title: Carbon tax primer\n"), 0o644))

	cfg := types.DefaultConfig()
	cfg.Providers.Feeds = []string{"https://example.com/rss"}
	cfg.Providers.Web = types.WebConfig{SearchURL: "https://example.com/?q=%s", ItemSelector: "li"}
	cfg.Providers.CuratedFile = curated
	cfg.Providers.Chains = []types.ChainConfig{{Name: "curated_web", Primary: "curated", Secondary: "web"}}

	reg, err := buildRegistry(cfg, http.DefaultClient, nil)
	require.NoError(t, err)
	for _, name := range []string{"feed", "web", "curated", "curated_web"} {
		_, ok := reg.Get(name)
		assert.True(t, ok, name)
	}
	chain, _ := reg.Get("curated_web")
	assert.IsType(t, &provider.Chained{}, chain)
}

func TestBuildRegistryUnknownChainMember(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Providers.Chains = []types.ChainConfig{{Name: "x", Primary: "openalex", Secondary: "missing"}}

	_, err := buildRegistry(cfg, http.DefaultClient, nil)
	assert.ErrorIs(t, err, provider.ErrUnknownProvider)
}

func TestBuildPipeline(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "scout.db")
	cfg.Cache.Backend = types.CacheMemory

	rt, err := buildPipeline(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer rt.Close()

	assert.NotNil(t, rt.pipeline.Store)
	assert.NotNil(t, rt.pipeline.Cache)
	assert.NotNil(t, rt.pipeline.Reranker)

	// An invalid request still reaches the recorder.
	_, err = rt.pipeline.Run(context.Background(), scout.Request{Query: " "})
	require.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeMetrics(rt.metrics, &buf))
	assert.Contains(t, buf.String(), `scout_runs_total{outcome="rejected"} 1`)
}

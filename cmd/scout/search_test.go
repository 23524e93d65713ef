// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/unified-scout/internal/search"
	"github.com/pdiddy/unified-scout/pkg/types"
)

func savedResult() types.Result {
	res := types.EmptyResult(types.DegradedQuery("carbon tax"))
	res.RunID = "run-1"
	res.Found = 1
	res.Results = []types.RankedDocument{{
		RecordID:  "doi:10.1/s0",
		Document:  types.RawDocument{ID: "openalex:W1", Provider: "openalex", DOI: "10.1/s0", Title: "Carbon tax effectiveness in Sweden", Year: 2024},
		Relevance: 0.86,
	}}
	res.Params = types.RunParams{Limit: 10, TopK: 5, Threshold: 0.4}
	return res
}

func TestReplaySavedRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, search.WriteRunFile(path, search.RunRequest{Query: "carbon tax", Providers: []string{"openalex"}}, savedResult()))

	rf, err := search.ReadRunFile(path)
	require.NoError(t, err)

	var table bytes.Buffer
	require.NoError(t, render(&table, rf.Result, false, false))
	assert.Contains(t, table.String(), "Carbon tax effectiveness in Sweden")
	assert.Contains(t, table.String(), "1 results")

	var js bytes.Buffer
	require.NoError(t, render(&js, rf.Result, true, false))
	var decoded types.Result
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 0.4, decoded.Params.Threshold)

	var csl bytes.Buffer
	require.NoError(t, render(&csl, rf.Result, false, true))
	assert.Contains(t, csl.String(), "doi:10.1/s0")
}

func TestSearchFromMissingFile(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("from", "", "")
	cmd.Flags().Bool("json", false, "")
	cmd.Flags().Bool("csl", false, "")
	require.NoError(t, cmd.Flags().Set("from", filepath.Join(t.TempDir(), "absent.yaml")))

	err := runSearch(cmd, nil)
	assert.ErrorContains(t, err, "reading run file")
}

func TestCacheScope(t *testing.T) {
	assert.Equal(t, "this process only", cacheScope(types.CacheMemory))
	assert.Equal(t, "shared across processes", cacheScope(types.CacheRedis))
	assert.Equal(t, "disabled", cacheScope(types.CacheNone))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/unified-scout/pkg/types"
)

func sampleResult() types.Result {
	res := types.EmptyResult(types.EnhancedQuery{Original: "carbon tax", Enhanced: "carbon tax"})
	res.RunID = "run-1"
	res.Results = []types.RankedDocument{
		{
			RecordID: "doi:10.1/abc",
			Document: types.RawDocument{
				ID: "openalex:W1", Provider: "openalex", Title: "Carbon Tax Effectiveness in Europe",
				Authors: []string{"Ada Lovelace", "Alan Turing"}, Year: 2021, DOI: "10.1/abc",
			},
			Relevance: 0.91,
		},
		{
			RecordID: "patentsview:US11000000",
			Document: types.RawDocument{
				ID: "patentsview:US11000000", Provider: "patentsview", Title: "Carbon capture apparatus",
				Authors: []string{"Edison"}, Year: 2020,
			},
			Relevance: 0.55,
		},
	}
	res.Found = 2
	res.Upserted = 2
	res.SourceIDs = []string{"doi:10.1/abc", "patentsview:US11000000"}
	res.Metrics.RawCount = 7
	res.Metrics.AfterDedup = 5
	res.Metrics.AfterRelevance = 3
	res.Metrics.AfterRerank = 2
	res.Metrics.RerankPath = types.RerankLocal
	res.Metrics.PerProvider = map[string]int{"openalex": 4, "patentsview": 3}
	res.Metrics.Timings[types.StageTotal] = 1500 * time.Millisecond
	return res
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(sampleResult(), &buf)
	out := buf.String()

	for _, want := range []string{
		"Rank", "Carbon Tax Effectiveness in Europe", "Ada Lovelace et al.", "2021", "0.91",
		"2 results from 7 raw, 5 after dedup, 3 above threshold, local rerank",
		"providers: openalex=4 patentsview=3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTableEmptyAndDegraded(t *testing.T) {
	res := types.EmptyResult(types.DegradedQuery("carbon tax"))
	var buf bytes.Buffer
	FormatTable(res, &buf)
	out := buf.String()
	if !strings.Contains(out, "No results found.") {
		t.Errorf("expected empty marker, got %q", out)
	}
	if !strings.Contains(out, "query enhancement unavailable") {
		t.Errorf("expected degraded note, got %q", out)
	}
}

func TestFormatTableMarksFallback(t *testing.T) {
	res := sampleResult()
	res.Results[1].Document.Fallback = true
	var buf bytes.Buffer
	FormatTable(res, &buf)
	if !strings.Contains(buf.String(), "patentsview*") {
		t.Error("fallback-flagged rows should be marked")
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(sampleResult(), &buf))

	var decoded types.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Found)
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, []string{"doi:10.1/abc", "patentsview:US11000000"}, decoded.SourceIDs)
}

func TestClip(t *testing.T) {
	if got := clip("short", 10); got != "short" {
		t.Errorf("clip() = %q", got)
	}
	if got := clip("Économie du carbone et fiscalité", 10); got != "Économi..." || len([]rune(got)) != 10 {
		t.Errorf("clip() = %q, want rune-safe truncation", got)
	}
}

// --- CSL ---

func TestFormatCSLMixedPapersAndPatents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCSL(sampleResult(), &buf))
	s := buf.String()

	assert.Contains(t, s, "type: article")
	assert.Contains(t, s, "type: patent")
	assert.Contains(t, s, "number: US11000000")
	assert.Contains(t, s, "authority: United States Patent and Trademark Office")
	assert.Contains(t, s, "DOI: 10.1/abc")
	assert.Equal(t, 1, strings.Count(s, "number:"))
}

func TestToCSLItem(t *testing.T) {
	item := toCSLItem(types.RankedDocument{
		Document: types.RawDocument{ID: "arxiv:2301.07041", Provider: "arxiv", Title: "T", Authors: []string{"Plato", "  "}, Year: 2023},
	})
	if item.ID != "arxiv:2301.07041" {
		t.Errorf("ID = %q, want canonical id fallback", item.ID)
	}
	if item.Type != "article" || item.Number != "" {
		t.Errorf("arXiv paper should be an article: %+v", item)
	}
	if len(item.Author) != 1 || item.Author[0].Literal != "Plato" {
		t.Errorf("Author = %+v", item.Author)
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 2023 {
		t.Errorf("Issued = %+v", item.Issued)
	}
}

func TestPatentNumber(t *testing.T) {
	tests := []struct {
		name string
		doc  types.RawDocument
		want bool
	}{
		{"patentsview provider", types.RawDocument{ID: "patentsview:US7654321B2", Provider: "patentsview"}, true},
		{"US id from another provider", types.RawDocument{ID: "web:US20230012345A1", Provider: "web"}, true},
		{"arXiv id", types.RawDocument{ID: "arxiv:2301.07041", Provider: "arxiv"}, false},
		{"user word", types.RawDocument{ID: "feed:USER", Provider: "feed"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, got := patentNumber(tt.doc); got != tt.want {
				t.Errorf("patentNumber() = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- Run files ---

func TestRunFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	req := RunRequest{Query: "carbon tax", Providers: []string{"openalex", "patentsview"}}
	res := sampleResult()
	res.Params = types.RunParams{Limit: 10, TopK: 20, Threshold: 0.3, ExternalRerank: true}

	require.NoError(t, WriteRunFile(path, req, res))

	rf, err := ReadRunFile(path)
	require.NoError(t, err)
	assert.Equal(t, req, rf.Request)
	assert.Equal(t, res.Params, rf.Result.Params)
	assert.Equal(t, 2, rf.Result.Found)
	assert.Equal(t, "Carbon capture apparatus", rf.Result.Results[1].Document.Title)
	assert.Equal(t, 1500*time.Millisecond, rf.Result.Metrics.Timings[types.StageTotal])
	assert.False(t, rf.SavedAt.IsZero())
}

func TestReadRunFileMissing(t *testing.T) {
	_, err := ReadRunFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

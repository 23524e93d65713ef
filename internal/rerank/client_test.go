// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/unified-scout/pkg/types"
)

func TestClientRerank(t *testing.T) {
	var got rerankRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"results":[{"index":1,"relevance_score":0.9},{"index":0,"relevance_score":0.2}]}`)
	}))
	defer srv.Close()

	c := NewClient(types.RerankConfig{BaseURL: srv.URL + "/", APIKey: "k", Model: "rerank-v3.5"}, srv.Client())
	require.True(t, c.Configured())

	scores, err := c.Rerank(context.Background(), "carbon tax", []string{"a", "b"}, 2)
	require.NoError(t, err)

	assert.Equal(t, "Bearer k", auth)
	assert.Equal(t, "/v1/rerank", path)
	assert.Equal(t, rerankRequest{Model: "rerank-v3.5", Query: "carbon tax", Documents: []string{"a", "b"}, TopN: 2}, got)
	assert.Equal(t, []Score{{Index: 1, RelevanceScore: 0.9}, {Index: 0, RelevanceScore: 0.2}}, scores)
}

func TestClientNotConfigured(t *testing.T) {
	c := NewClient(types.RerankConfig{BaseURL: "https://api.example.com"}, nil)
	assert.False(t, c.Configured())
	_, err := c.Rerank(context.Background(), "q", []string{"a"}, 1)
	assert.Error(t, err)

	var nilClient *Client
	assert.False(t, nilClient.Configured())
}

func TestClientMalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
	}{
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`},
		{"bad json", http.StatusOK, `{"results":`},
		{"index out of range", http.StatusOK, `{"results":[{"index":5,"relevance_score":0.5}]}`},
		{"negative index", http.StatusOK, `{"results":[{"index":-1,"relevance_score":0.5}]}`},
		{"duplicate index", http.StatusOK, `{"results":[{"index":0,"relevance_score":0.5},{"index":0,"relevance_score":0.4}]}`},
		{"score above one", http.StatusOK, `{"results":[{"index":0,"relevance_score":1.7}]}`},
		{"missing score", http.StatusOK, `{"results":[{"index":0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(types.RerankConfig{BaseURL: srv.URL, APIKey: "k"}, srv.Client())
			_, err := c.Rerank(context.Background(), "q", []string{"a", "b"}, 2)
			assert.Error(t, err)
		})
	}
}

func TestClientDrivesRerankerFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"results":[{"index":99,"relevance_score":0.5}]}`)
	}))
	defer srv.Close()

	c := NewClient(types.RerankConfig{BaseURL: srv.URL, APIKey: "k"}, srv.Client())
	r := New(c, newScorer(), types.RerankConfig{}, nil)

	got, path := r.Rerank(context.Background(), corpus(), query(), Options{TopK: 3, UseExternal: true})
	assert.Equal(t, types.RerankLocal, path)
	assert.Len(t, got, 3)
}

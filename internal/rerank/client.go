// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/pdiddy/unified-scout/internal/httputil"
	"github.com/pdiddy/unified-scout/pkg/types"
)

// Client calls a hosted rerank endpoint (Cohere-compatible /v1/rerank).
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

// NewClient builds a client from configuration. A nil httpClient uses
// http.DefaultClient; per-call deadlines come from the caller's context.
func NewClient(cfg types.RerankConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		HTTP:    httpClient,
	}
}

// Configured reports whether the client has credentials. An unconfigured
// client is never called.
func (c *Client) Configured() bool {
	return c != nil && c.APIKey != "" && c.BaseURL != ""
}

type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index          int      `json:"index"`
		RelevanceScore *float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores documents against query. Scores are already normalized to
// [0, 1] by the service; anything else is treated as a malformed payload.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Score, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("rerank client not configured")
	}
	if len(documents) == 0 {
		return []Score{}, nil
	}

	payload, err := json.Marshal(rerankRequest{
		Model:     c.Model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 1)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank endpoint returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rr rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}

	seen := make(map[int]bool, len(rr.Results))
	scores := make([]Score, 0, len(rr.Results))
	for _, r := range rr.Results {
		if r.Index < 0 || r.Index >= len(documents) || seen[r.Index] {
			return nil, fmt.Errorf("invalid result index %d for %d documents", r.Index, len(documents))
		}
		if r.RelevanceScore == nil {
			return nil, fmt.Errorf("missing relevance_score for index %d", r.Index)
		}
		s := *r.RelevanceScore
		if math.IsNaN(s) || s < 0 || s > 1 {
			return nil, fmt.Errorf("relevance_score %v out of range for index %d", s, r.Index)
		}
		seen[r.Index] = true
		scores = append(scores, Score{Index: r.Index, RelevanceScore: s})
	}
	return scores, nil
}

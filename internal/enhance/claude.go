// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/unified-scout/internal/httputil"
	"github.com/pdiddy/unified-scout/pkg/types"
)

var enhancePromptTmpl = template.Must(template.New("enhance").Parse(`You prepare research questions for academic and patent search engines.

Given the question below:
- language: detect its ISO 639-1 language code
- translated: the question in English (identical if already English)
- enhanced: one concise search query that captures the question
- variations: up to 4 alternative search queries, most useful first
- keywords: the significant single words, lowercase
- topics: broader research areas the question belongs to, lowercase

Respond with a JSON object with exactly those fields. Do not include any text outside the JSON object.

Example response:
{"language": "en", "translated": "does a carbon tax reduce emissions", "enhanced": "carbon tax emission reduction", "variations": ["carbon pricing effectiveness", "emissions trading versus carbon tax"], "keywords": ["carbon", "tax", "emissions"], "topics": ["environmental economics", "climate policy"]}

Question:
{{.Query}}
`))

// DefaultClaudeModel is used when no model is configured.
const DefaultClaudeModel = "claude-sonnet-4-5-20250929"

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// Claude asks the Claude Messages API to enhance a query.
type Claude struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Client  *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Enhance implements Enhancer.
func (c *Claude) Enhance(ctx context.Context, query string) (types.EnhancedQuery, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var prompt bytes.Buffer
	if err := enhancePromptTmpl.Execute(&prompt, struct{ Query string }{query}); err != nil {
		return types.EnhancedQuery{}, fmt.Errorf("rendering prompt: %w", err)
	}

	model := c.Model
	if model == "" {
		model = DefaultClaudeModel
	}
	body, err := json.Marshal(claudeRequest{
		Model:     model,
		MaxTokens: 1024,
		Messages:  []claudeMessage{{Role: "user", Content: prompt.String()}},
	})
	if err != nil {
		return types.EnhancedQuery{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(body))
	if err != nil {
		return types.EnhancedQuery{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 1)
	if err != nil {
		return types.EnhancedQuery{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.EnhancedQuery{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return types.EnhancedQuery{}, fmt.Errorf("decoding Claude response: %w", err)
	}
	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		var eq types.EnhancedQuery
		if err := json.Unmarshal([]byte(stripFence(block.Text)), &eq); err != nil {
			return types.EnhancedQuery{}, fmt.Errorf("parsing enhanced query JSON: %w", err)
		}
		eq.Original = query
		return eq, nil
	}
	return types.EnhancedQuery{}, fmt.Errorf("no text content in Claude API response")
}

// stripFence removes a Markdown code fence the model sometimes wraps
// around its JSON.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of
// plain-text files. The filename is the key name and the trimmed file
// contents are the value.
//
// Recognised keys: semantic-scholar-api-key, patentsview-api-key,
// openalex-email, rerank-api-key, anthropic-api-key, redis-url.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// Key file names.
const (
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	PatentsViewAPIKey     = "patentsview-api-key"
	OpenAlexEmail         = "openalex-email"
	RerankAPIKey          = "rerank-api-key"
	AnthropicAPIKey       = "anthropic-api-key"
	RedisURL              = "redis-url"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error. Unreadable files are
// logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("secret_unreadable", zap.String("name", name), zap.Error(err))
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies secrets into cfg. Values already set by config or
// environment take precedence.
func Apply(cfg *types.ScoutConfig, s map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = s[key]
		}
	}
	fill(&cfg.Providers.SemanticScholarAPIKey, SemanticScholarAPIKey)
	fill(&cfg.Providers.PatentsViewAPIKey, PatentsViewAPIKey)
	fill(&cfg.Providers.OpenAlexEmail, OpenAlexEmail)
	fill(&cfg.Rerank.APIKey, RerankAPIKey)
	fill(&cfg.Enhance.APIKey, AnthropicAPIKey)
	fill(&cfg.Cache.RedisURL, RedisURL)
}

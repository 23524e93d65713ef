// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// Curated serves a hand-maintained seed list of well-known sources. It is
// fast and never fails, but its coverage is narrow: when no seed matches
// the query it returns the first seeds marked Fallback so a chain can
// escalate while still having something to fall back on.
type Curated struct {
	Seeds []types.RawDocument
}

// curatedFile is the on-disk layout of a seed list.
type curatedFile struct {
	Seeds []types.RawDocument `yaml:"seeds"`
}

// LoadCurated reads a YAML seed list. Untitled seeds are dropped and ids
// are prefixed with the provider name.
func LoadCurated(path string) (*Curated, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading curated seeds %s: %w", path, err)
	}
	var cf curatedFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing curated seeds %s: %w", path, err)
	}
	return NewCurated(cf.Seeds), nil
}

// NewCurated normalizes a seed list.
func NewCurated(seeds []types.RawDocument) *Curated {
	c := &Curated{}
	for i, s := range seeds {
		s.Title = strings.TrimSpace(s.Title)
		if s.Title == "" {
			continue
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("%d", i)
		}
		if !strings.HasPrefix(s.ID, "curated:") {
			s.ID = prefixID("curated", s.ID)
		}
		s.Provider = "curated"
		s.Fallback = false
		c.Seeds = append(c.Seeds, s)
	}
	return c
}

// Name returns the provider identifier.
func (c *Curated) Name() string { return "curated" }

// Search returns seeds whose title, abstract, or topics contain a query
// term, or the first seeds flagged as fallback when none match.
func (c *Curated) Search(_ context.Context, query string, limit int) ([]types.RawDocument, error) {
	limit = effectiveLimit(limit, 0)
	terms := feedTerms(query)

	var matched []types.RawDocument
	for _, s := range c.Seeds {
		text := strings.ToLower(s.Title + " " + s.Abstract + " " + strings.Join(s.Topics, " "))
		if len(terms) > 0 && matchesAnyTerm(text, terms) {
			matched = append(matched, s)
		}
	}
	if len(matched) > 0 {
		return truncate(matched, limit), nil
	}

	defaults := make([]types.RawDocument, 0, limit)
	for _, s := range truncate(c.Seeds, limit) {
		s.Fallback = true
		defaults = append(defaults, s)
	}
	return defaults, nil
}

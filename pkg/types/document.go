// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the scout pipeline.
//
// See docs/ARCHITECTURE.md § Data Model.
package types

import (
	"strings"
	"time"
	"unicode"
)

// RawDocument is a candidate source returned by a single provider call.
// Adapters map their native response shape into this struct and discard
// items without a title before they reach the pipeline.
type RawDocument struct {
	// ID is globally unique and prefixed with the provider name
	// (e.g. "openalex:W2741809807").
	ID string `json:"id" yaml:"id"`

	// Provider identifies the adapter that produced this document.
	Provider string `json:"provider" yaml:"provider"`

	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Year is the publication year; zero means unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	DOI      string `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	OAStatus string `json:"oa_status,omitempty" yaml:"oa_status,omitempty"`

	Authors      []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Institutions []string `json:"institutions,omitempty" yaml:"institutions,omitempty"`
	Topics       []string `json:"topics,omitempty" yaml:"topics,omitempty"`

	// CitationCount is nil when the provider does not report citations.
	CitationCount *int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// Fallback marks a curated default returned because the provider found
	// nothing specific for the query.
	Fallback bool `json:"fallback,omitempty" yaml:"fallback,omitempty"`

	// Payload carries provider-specific data through the pipeline untouched.
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// CanonicalID returns the provider-agnostic key used for persistence:
// the normalized DOI when present, otherwise the provider-prefixed ID.
func (d RawDocument) CanonicalID() string {
	if doi := NormalizeDOI(d.DOI); doi != "" {
		return "doi:" + doi
	}
	return d.ID
}

// NormalizeDOI lowercases a DOI and strips any resolver prefix.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return strings.TrimSpace(doi)
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of the
// title with whitespace collapsed.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CanonicalRecord is a deduplicated source as stored by the persistence
// gateway. Records are created on first discovery and updated on
// rediscovery; they are never deleted by the pipeline.
type CanonicalRecord struct {
	ID            string    `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title"`
	Abstract      string    `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Year          int       `json:"year,omitempty" yaml:"year,omitempty"`
	DOI           string    `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL           string    `json:"url,omitempty" yaml:"url,omitempty"`
	OAStatus      string    `json:"oa_status,omitempty" yaml:"oa_status,omitempty"`
	Authors       []string  `json:"authors,omitempty" yaml:"authors,omitempty"`
	Institutions  []string  `json:"institutions,omitempty" yaml:"institutions,omitempty"`
	Topics        []string  `json:"topics,omitempty" yaml:"topics,omitempty"`
	CitationCount *int      `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`
	Providers     []string  `json:"providers" yaml:"providers"`
	Relevance     float64   `json:"relevance" yaml:"relevance"`
	FirstSeen     time.Time `json:"first_seen" yaml:"first_seen"`
	LastSeen      time.Time `json:"last_seen" yaml:"last_seen"`
	TimesSeen     int       `json:"times_seen" yaml:"times_seen"`
}

// RecordFields is the set of fields written by an upsert.
type RecordFields struct {
	Title         string
	Abstract      string
	Year          int
	DOI           string
	URL           string
	OAStatus      string
	Authors       []string
	Institutions  []string
	Topics        []string
	CitationCount *int
	Provider      string
	Relevance     float64
}

// FieldsFromDocument copies a document's metadata into upsert fields.
func FieldsFromDocument(d RawDocument, relevance float64) RecordFields {
	return RecordFields{
		Title:         d.Title,
		Abstract:      d.Abstract,
		Year:          d.Year,
		DOI:           NormalizeDOI(d.DOI),
		URL:           d.URL,
		OAStatus:      d.OAStatus,
		Authors:       d.Authors,
		Institutions:  d.Institutions,
		Topics:        d.Topics,
		CitationCount: d.CitationCount,
		Provider:      d.Provider,
		Relevance:     relevance,
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists canonical source records in SQLite. Records are
// keyed by canonical id, created on first discovery and merged on every
// rediscovery. The store never deletes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("record not found")

const defaultListLimit = 50

// Store is the SQLite-backed persistence gateway.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens or creates the database at path, creating the parent
// directory and schema when missing.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			abstract TEXT NOT NULL DEFAULT '',
			year INTEGER NOT NULL DEFAULT 0,
			doi TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			oa_status TEXT NOT NULL DEFAULT '',
			authors TEXT NOT NULL DEFAULT '[]',
			institutions TEXT NOT NULL DEFAULT '[]',
			topics TEXT NOT NULL DEFAULT '[]',
			citation_count INTEGER,
			providers TEXT NOT NULL DEFAULT '[]',
			relevance REAL NOT NULL DEFAULT 0,
			first_seen TEXT NOT NULL,
			last_seen TEXT NOT NULL,
			times_seen INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_doi ON sources(doi)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_last_seen ON sources(last_seen)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

const selectColumns = `id, title, abstract, year, doi, url, oa_status, authors, institutions,
	topics, citation_count, providers, relevance, first_seen, last_seen, times_seen`

// Upsert creates the record for id or merges fields into the existing one.
// Merging keeps the first non-empty value of every metadata field, adds
// the provider, keeps the highest relevance, bumps times_seen, and moves
// last_seen forward. Upsert is idempotent in everything but the counters.
func (s *Store) Upsert(ctx context.Context, id string, f types.RecordFields) (types.CanonicalRecord, error) {
	if strings.TrimSpace(id) == "" {
		return types.CanonicalRecord{}, fmt.Errorf("upsert: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.CanonicalRecord{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()
	rec, err := scanRecord(tx.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM sources WHERE id = ?`, id))
	switch {
	case errors.Is(err, ErrNotFound):
		rec = types.CanonicalRecord{ID: id, FirstSeen: now, TimesSeen: 1}
	case err != nil:
		return types.CanonicalRecord{}, err
	default:
		rec.TimesSeen++
	}
	merge(&rec, f)
	rec.LastSeen = now

	authors, _ := json.Marshal(nonNil(rec.Authors))
	institutions, _ := json.Marshal(nonNil(rec.Institutions))
	topics, _ := json.Marshal(nonNil(rec.Topics))
	providers, _ := json.Marshal(nonNil(rec.Providers))
	var citations sql.NullInt64
	if rec.CitationCount != nil {
		citations = sql.NullInt64{Int64: int64(*rec.CitationCount), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sources (id, title, abstract, year, doi, url, oa_status, authors, institutions,
			topics, citation_count, providers, relevance, first_seen, last_seen, times_seen)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, abstract=excluded.abstract, year=excluded.year,
			doi=excluded.doi, url=excluded.url, oa_status=excluded.oa_status,
			authors=excluded.authors, institutions=excluded.institutions, topics=excluded.topics,
			citation_count=excluded.citation_count, providers=excluded.providers,
			relevance=excluded.relevance, last_seen=excluded.last_seen, times_seen=excluded.times_seen`,
		rec.ID, rec.Title, rec.Abstract, rec.Year, rec.DOI, rec.URL, rec.OAStatus,
		string(authors), string(institutions), string(topics), citations, string(providers),
		rec.Relevance, formatTime(rec.FirstSeen), formatTime(rec.LastSeen), rec.TimesSeen,
	)
	if err != nil {
		return types.CanonicalRecord{}, fmt.Errorf("upserting %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return types.CanonicalRecord{}, fmt.Errorf("committing %s: %w", id, err)
	}
	return rec, nil
}

// Get returns the record for id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (types.CanonicalRecord, error) {
	return scanRecord(s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM sources WHERE id = ?`, id))
}

// List returns up to limit records, most recently seen first.
func (s *Store) List(ctx context.Context, limit int) ([]types.CanonicalRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM sources ORDER BY last_seen DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var out []types.CanonicalRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM sources`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sources: %w", err)
	}
	return n, nil
}

// merge folds f into rec. Empty fields and empty lists are filled from f;
// relevance keeps its maximum.
func merge(rec *types.CanonicalRecord, f types.RecordFields) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = strings.TrimSpace(v)
		}
	}
	fill(&rec.Title, f.Title)
	fill(&rec.Abstract, f.Abstract)
	fill(&rec.DOI, f.DOI)
	fill(&rec.URL, f.URL)
	fill(&rec.OAStatus, f.OAStatus)
	if rec.Year == 0 {
		rec.Year = f.Year
	}
	if len(rec.Authors) == 0 {
		rec.Authors = f.Authors
	}
	if len(rec.Institutions) == 0 {
		rec.Institutions = f.Institutions
	}
	if len(rec.Topics) == 0 {
		rec.Topics = f.Topics
	}
	if rec.CitationCount == nil && f.CitationCount != nil {
		c := *f.CitationCount
		rec.CitationCount = &c
	}
	if f.Provider != "" && !slices.Contains(rec.Providers, f.Provider) {
		rec.Providers = append(rec.Providers, f.Provider)
	}
	if f.Relevance > rec.Relevance {
		rec.Relevance = f.Relevance
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (types.CanonicalRecord, error) {
	var rec types.CanonicalRecord
	var authors, institutions, topics, provider, firstSeen, lastSeen string
	var citations sql.NullInt64
	err := row.Scan(&rec.ID, &rec.Title, &rec.Abstract, &rec.Year, &rec.DOI, &rec.URL, &rec.OAStatus,
		&authors, &institutions, &topics, &citations, &provider, &rec.Relevance,
		&firstSeen, &lastSeen, &rec.TimesSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CanonicalRecord{}, ErrNotFound
	}
	if err != nil {
		return types.CanonicalRecord{}, fmt.Errorf("scanning source: %w", err)
	}

	lists := []struct {
		column string
		raw    string
		dst    *[]string
	}{
		{"authors", authors, &rec.Authors},
		{"institutions", institutions, &rec.Institutions},
		{"topics", topics, &rec.Topics},
		{"providers", provider, &rec.Providers},
	}
	for _, l := range lists {
		if err := json.Unmarshal([]byte(l.raw), l.dst); err != nil {
			return types.CanonicalRecord{}, fmt.Errorf("scanning source %s: %s: %w", rec.ID, l.column, err)
		}
	}
	if citations.Valid {
		c := int(citations.Int64)
		rec.CitationCount = &c
	}
	if rec.FirstSeen, err = time.Parse(time.RFC3339Nano, firstSeen); err != nil {
		return types.CanonicalRecord{}, fmt.Errorf("scanning source %s: first_seen: %w", rec.ID, err)
	}
	if rec.LastSeen, err = time.Parse(time.RFC3339Nano, lastSeen); err != nil {
		return types.CanonicalRecord{}, fmt.Errorf("scanning source %s: last_seen: %w", rec.ID, err)
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryBackend is an in-process LRU with expiry. maxTTL bounds every
// entry; shorter per-key TTLs are enforced on read.
type MemoryBackend struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

// NewMemoryBackend holds at most size entries for at most maxTTL.
func NewMemoryBackend(size int, maxTTL time.Duration) *MemoryBackend {
	if size <= 0 {
		size = 512
	}
	return &MemoryBackend{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

// Get returns an unexpired entry. Expired entries are evicted on read.
func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores a copy of value. ttl <= 0 keeps it until maxTTL or eviction.
func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.lru.Add(key, e)
	return nil
}

// Scan matches keys with Redis-style globs (*, ?, [...]) in batches.
func (m *MemoryBackend) Scan(ctx context.Context, match string, fn func(keys []string) error) error {
	if match == "" {
		match = "*"
	}
	if _, err := path.Match(match, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", match, err)
	}
	var batch []string
	for _, k := range m.lru.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ok, _ := path.Match(match, k); !ok {
			continue
		}
		batch = append(batch, k)
		if len(batch) == scanCount {
			if err := fn(batch); err != nil {
				return err
			}
			batch = nil
		}
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// Del removes keys and reports how many were present.
func (m *MemoryBackend) Del(_ context.Context, keys ...string) (int64, error) {
	var n int64
	for _, k := range keys {
		if m.lru.Remove(k) {
			n++
		}
	}
	return n, nil
}

// Size returns the number of entries, including ones not yet expired on read.
func (m *MemoryBackend) Size(context.Context) (int64, error) {
	return int64(m.lru.Len()), nil
}

// Ping always succeeds.
func (m *MemoryBackend) Ping(context.Context) error { return nil }

// Close drops every entry.
func (m *MemoryBackend) Close() error {
	m.lru.Purge()
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache stores pipeline results in a TTL key-value backend.
// Backends are selected by configuration (Redis, in-process LRU, or a
// null object); a Client tracks backend health and a ResultCache derives
// keys and serializes results on top of it.
//
// See docs/ARCHITECTURE § Cache.
package cache

import (
	"context"
	"time"
)

// Backend is a TTL key-value store.
type Backend interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set overwrites key with value for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Scan walks keys matching a glob pattern in cursor-sized batches,
	// calling fn once per non-empty batch.
	Scan(ctx context.Context, match string, fn func(keys []string) error) error

	// Del removes keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Size returns the total number of keys in the backend.
	Size(ctx context.Context) (int64, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases connections. The backend is unusable afterwards.
	Close() error
}

// NullBackend stores nothing. Every lookup misses.
type NullBackend struct{}

// Get always misses.
func (NullBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (NullBackend) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Scan finds no keys.
func (NullBackend) Scan(context.Context, string, func([]string) error) error { return nil }

// Del deletes nothing.
func (NullBackend) Del(context.Context, ...string) (int64, error) { return 0, nil }

// Size is always zero.
func (NullBackend) Size(context.Context) (int64, error) { return 0, nil }

// Ping always succeeds.
func (NullBackend) Ping(context.Context) error { return nil }

// Close is a no-op.
func (NullBackend) Close() error { return nil }

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// DefaultNamespace prefixes every result key.
const DefaultNamespace = "scout:result:"

// ResultCache stores pipeline results keyed by query and provider set.
// A nil *ResultCache is valid and behaves as an always-missing cache.
type ResultCache struct {
	client    *Client
	namespace string
	ttl       time.Duration
	logger    *zap.Logger
}

// Stats describes the cache for operational monitoring.
type Stats struct {
	Status        string `json:"status"`
	TotalKeys     int64  `json:"total_keys"`
	NamespaceKeys int64  `json:"namespace_keys"`
}

// NewResultCache returns a result cache over client.
func NewResultCache(client *Client, cfg types.CacheConfig, logger *zap.Logger) *ResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return &ResultCache{client: client, namespace: ns, ttl: cfg.TTL, logger: logger}
}

// Key derives the cache key for a query and provider list. The query is
// case-folded and whitespace-collapsed and the providers are sorted and
// deduplicated, so logically identical requests share a key.
func (rc *ResultCache) Key(query string, providers []string) string {
	q := strings.Join(strings.Fields(strings.ToLower(query)), " ")

	ps := make([]string, 0, len(providers))
	seen := make(map[string]bool, len(providers))
	for _, p := range providers {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && !seen[p] {
			seen[p] = true
			ps = append(ps, p)
		}
	}
	sort.Strings(ps)

	sum := sha256.Sum256([]byte(q + "|" + strings.Join(ps, ",")))
	ns := DefaultNamespace
	if rc != nil {
		ns = rc.namespace
	}
	return ns + hex.EncodeToString(sum[:])
}

// Lookup returns the cached result for key. Backend errors and corrupt
// entries are logged and reported as misses.
func (rc *ResultCache) Lookup(ctx context.Context, key string) (types.Result, bool) {
	if rc == nil {
		return types.Result{}, false
	}
	data, ok, err := rc.client.Get(ctx, key)
	if err != nil {
		rc.logger.Warn("cache_lookup_failed", zap.String("key", key), zap.Error(err))
		return types.Result{}, false
	}
	if !ok {
		return types.Result{}, false
	}
	var res types.Result
	if err := json.Unmarshal(data, &res); err != nil {
		rc.logger.Warn("cache_entry_corrupt", zap.String("key", key), zap.Error(err))
		return types.Result{}, false
	}
	return res, true
}

// Store writes res under key and reports whether it was written. Empty
// results are never stored.
func (rc *ResultCache) Store(ctx context.Context, key string, res types.Result) bool {
	if rc == nil || res.Found == 0 {
		return false
	}
	res.Cached = false
	data, err := json.Marshal(res)
	if err != nil {
		rc.logger.Warn("cache_store_failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := rc.client.Set(ctx, key, data, rc.ttl); err != nil {
		rc.logger.Warn("cache_store_failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Invalidate deletes a single key.
func (rc *ResultCache) Invalidate(ctx context.Context, key string) (int64, error) {
	if rc == nil {
		return 0, nil
	}
	return rc.client.Del(ctx, key)
}

// InvalidatePattern deletes every key matching a glob pattern within the
// namespace, batch by batch as the cursor advances. An empty pattern
// clears the whole namespace.
func (rc *ResultCache) InvalidatePattern(ctx context.Context, pattern string) (int64, error) {
	if rc == nil {
		return 0, nil
	}
	if !strings.HasPrefix(pattern, rc.namespace) {
		pattern = rc.namespace + pattern
	}
	if pattern == rc.namespace {
		pattern += "*"
	}
	var deleted int64
	err := rc.client.Scan(ctx, pattern, func(keys []string) error {
		n, err := rc.client.Del(ctx, keys...)
		deleted += n
		return err
	})
	return deleted, err
}

// Stats reports connection status and key counts. Count failures leave
// the counts at zero.
func (rc *ResultCache) Stats(ctx context.Context) Stats {
	if rc == nil {
		return Stats{Status: Disconnected.String()}
	}
	var st Stats
	if n, err := rc.client.Size(ctx); err == nil {
		st.TotalKeys = n
	}
	_ = rc.client.Scan(ctx, rc.namespace+"*", func(keys []string) error {
		st.NamespaceKeys += int64(len(keys))
		return nil
	})
	st.Status = rc.client.Status().String()
	return st
}

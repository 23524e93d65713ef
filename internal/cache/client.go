// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// Status is the lifecycle state of a Client.
type Status int32

const (
	// Disconnected is the initial state and the state after Close.
	Disconnected Status = iota
	// Connecting is held while Connect's Ping is in flight.
	Connecting
	// Ready means the last backend operation succeeded.
	Ready
	// Degraded means the last backend operation failed.
	Degraded
)

// String returns the lower-case state name reported by Stats.
func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("cache client closed")

// Client wraps a Backend and tracks its health. Operation failures move it
// to Degraded; the next success or new connection moves it back to Ready.
// All methods are safe for concurrent use.
type Client struct {
	backend Backend
	status  atomic.Int32
	logger  *zap.Logger
}

// NewClient wraps backend. The client starts Disconnected.
func NewClient(backend Backend, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if backend == nil {
		backend = NullBackend{}
	}
	return &Client{backend: backend, logger: logger}
}

// Open builds the backend selected by cfg and connects to it. A backend
// that cannot be reached leaves the client Degraded rather than failing:
// callers run uncached until it recovers.
func Open(ctx context.Context, cfg types.CacheConfig, logger *zap.Logger) (*Client, error) {
	c := NewClient(nil, logger)
	switch cfg.Backend {
	case types.CacheRedis:
		rb, err := NewRedisBackend(cfg.RedisURL, c.connected)
		if err != nil {
			return nil, err
		}
		c.backend = rb
	case types.CacheMemory:
		c.backend = NewMemoryBackend(cfg.MaxEntries, cfg.TTL)
	case types.CacheNone, "":
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	c.Connect(ctx)
	return c, nil
}

// Status returns the current lifecycle state.
func (c *Client) Status() Status {
	return Status(c.status.Load())
}

// Connect pings the backend, moving Disconnected → Connecting → Ready or
// Degraded.
func (c *Client) Connect(ctx context.Context) {
	c.status.Store(int32(Connecting))
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	c.observe(c.backend.Ping(pingCtx))
}

// connected is the backend's new-connection hook.
func (c *Client) connected() {
	c.observe(nil)
}

// observe records the outcome of a backend operation. A closed client
// stays Disconnected.
func (c *Client) observe(err error) {
	next := Ready
	if err != nil {
		next = Degraded
	}
	for {
		cur := Status(c.status.Load())
		if cur == Disconnected || cur == next {
			return
		}
		if !c.status.CompareAndSwap(int32(cur), int32(next)) {
			continue
		}
		switch {
		case next == Degraded:
			c.logger.Warn("cache_unavailable", zap.String("from", cur.String()), zap.Error(err))
		case cur == Degraded:
			c.logger.Info("cache_recovered")
		}
		return
	}
}

func (c *Client) closed() bool {
	return c.Status() == Disconnected
}

// Get reads key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.closed() {
		return nil, false, ErrClosed
	}
	v, ok, err := c.backend.Get(ctx, key)
	c.observe(err)
	return v, ok, err
}

// Set writes key.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed() {
		return ErrClosed
	}
	err := c.backend.Set(ctx, key, value, ttl)
	c.observe(err)
	return err
}

// Scan walks keys matching pattern.
func (c *Client) Scan(ctx context.Context, match string, fn func(keys []string) error) error {
	if c.closed() {
		return ErrClosed
	}
	err := c.backend.Scan(ctx, match, fn)
	c.observe(err)
	return err
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if c.closed() {
		return 0, ErrClosed
	}
	n, err := c.backend.Del(ctx, keys...)
	c.observe(err)
	return n, err
}

// Size returns the backend's total key count.
func (c *Client) Size(ctx context.Context) (int64, error) {
	if c.closed() {
		return 0, ErrClosed
	}
	n, err := c.backend.Size(ctx)
	c.observe(err)
	return n, err
}

// Close releases the backend and moves to Disconnected.
func (c *Client) Close() error {
	c.status.Store(int32(Disconnected))
	return c.backend.Close()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider integrates external sources behind a uniform search
// capability. Each adapter maps its native response shape into
// types.RawDocument and drops untitled items; nothing provider-specific
// leaks past this package except through RawDocument.Payload.
//
// See docs/ARCHITECTURE § Providers.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// ErrUnknownProvider is returned when a request names a provider that is
// not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// ErrAdapterPanic wraps a panic recovered from an adapter's Search.
var ErrAdapterPanic = errors.New("provider panicked")

// Adapter searches a single external source. Search may return an error;
// the fan-out isolates it. Chained adapters never return one.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.RawDocument, error)
}

// SafeSearch calls a.Search and converts a panic into an error wrapping
// ErrAdapterPanic.
func SafeSearch(ctx context.Context, a Adapter, query string, limit int) (docs []types.RawDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			docs, err = nil, fmt.Errorf("%w: %s: %v", ErrAdapterPanic, a.Name(), r)
		}
	}()
	return a.Search(ctx, query, limit)
}

// Registry maps provider names to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry returns a registry holding the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces an adapter under its own name.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the adapters for the given names, in order, ignoring
// duplicates. Every unknown name is reported in a single error wrapping
// ErrUnknownProvider.
func (r *Registry) Resolve(names []string) ([]Adapter, error) {
	var unknown []string
	seen := make(map[string]bool, len(names))
	out := make([]Adapter, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		a, ok := r.adapters[n]
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		out = append(out, a)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, strings.Join(unknown, ", "))
	}
	return out, nil
}

// Func adapts a plain function to the Adapter interface.
type Func struct {
	ProviderName string
	Fn           func(ctx context.Context, query string, limit int) ([]types.RawDocument, error)
}

// Name returns the provider identifier.
func (f Func) Name() string { return f.ProviderName }

// Search calls the wrapped function.
func (f Func) Search(ctx context.Context, query string, limit int) ([]types.RawDocument, error) {
	return f.Fn(ctx, query, limit)
}

// prefixID builds a globally unique document id for a provider.
func prefixID(provider, nativeID string) string {
	return provider + ":" + nativeID
}

// truncate caps docs at limit; limit <= 0 means no cap.
func truncate(docs []types.RawDocument, limit int) []types.RawDocument {
	if limit > 0 && len(docs) > limit {
		return docs[:limit]
	}
	return docs
}

// effectiveLimit applies the default and the provider's own maximum.
func effectiveLimit(limit, max int) int {
	if limit <= 0 {
		limit = 20
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}

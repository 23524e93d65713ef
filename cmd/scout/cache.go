// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/unified-scout/internal/cache"
	"github.com/pdiddy/unified-scout/pkg/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and invalidate the result cache",
	Long: `Cache inspects the result cache selected by cache.backend. The memory
backend is private to one process, so these commands only see entries
written through a shared backend such as redis.`,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache connection status and key counts",
	RunE:  runCacheStatus,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Delete cached results by key, query, or pattern",
	Long: `Invalidate removes cached results. Use --key for an exact cache key,
--query (with --providers) to derive the key the same way search does, or
--pattern for a glob within the cache namespace. --all clears the whole
namespace.`,
	RunE: runCacheInvalidate,
}

func init() {
	cacheStatusCmd.Flags().Bool("json", false, "output status as JSON")

	cacheInvalidateCmd.Flags().String("key", "", "exact cache key")
	cacheInvalidateCmd.Flags().String("query", "", "derive the key from this query")
	cacheInvalidateCmd.Flags().StringSlice("providers", nil, "provider set for --query (default: providers.enabled)")
	cacheInvalidateCmd.Flags().String("pattern", "", "glob within the namespace, e.g. \"ab*\"")
	cacheInvalidateCmd.Flags().Bool("all", false, "clear every cached result")

	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openResultCache(ctx context.Context) (*cache.ResultCache, func(), types.ScoutConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, cfg, err
	}
	rc, closeFn, err := openCache(ctx, cfg, logger)
	if err != nil {
		return nil, nil, cfg, err
	}
	return rc, closeFn, cfg, nil
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rc, closeFn, cfg, err := openResultCache(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	st := rc.Stats(ctx)
	if j, _ := cmd.Flags().GetBool("json"); j {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Printf("backend:        %s\n", cfg.Cache.Backend)
	fmt.Printf("scope:          %s\n", cacheScope(cfg.Cache.Backend))
	fmt.Printf("status:         %s\n", st.Status)
	fmt.Printf("total keys:     %d\n", st.TotalKeys)
	fmt.Printf("namespace keys: %d\n", st.NamespaceKeys)
	return nil
}

// cacheScope describes who can see entries written to backend.
func cacheScope(backend types.CacheBackend) string {
	switch backend {
	case types.CacheRedis:
		return "shared across processes"
	case types.CacheNone:
		return "disabled"
	default:
		return "this process only"
	}
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("key")
	query, _ := cmd.Flags().GetString("query")
	pattern, _ := cmd.Flags().GetString("pattern")
	all, _ := cmd.Flags().GetBool("all")

	set := 0
	for _, on := range []bool{key != "", query != "", pattern != "" || all} {
		if on {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("provide exactly one of --key, --query, --pattern, or --all")
	}

	ctx := context.Background()
	rc, closeFn, cfg, err := openResultCache(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	if rc == nil {
		fmt.Println("Cache disabled; nothing to invalidate.")
		return nil
	}

	var n int64
	switch {
	case query != "":
		providers, _ := cmd.Flags().GetStringSlice("providers")
		if len(providers) == 0 {
			providers = cfg.Providers.Enabled
		}
		n, err = rc.Invalidate(ctx, rc.Key(query, providers))
	case key != "":
		n, err = rc.Invalidate(ctx, key)
	default:
		n, err = rc.InvalidatePattern(ctx, pattern)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Invalidated %d cached result(s).\n", n)
	return nil
}

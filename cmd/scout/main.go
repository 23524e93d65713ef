// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scout CLI.
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/unified-scout/internal/secrets"
	"github.com/pdiddy/unified-scout/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets map[string]string

// logger is built in PersistentPreRunE from --debug.
var logger = zap.NewNop()

// rootCmd is the base command for the scout CLI.
var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Retrieve, deduplicate, score, and rerank research sources",
	Long: `scout turns a research question into a ranked set of sources. It enhances
the query, fans it out to academic, patent, feed, and web providers in
parallel, merges duplicates, filters by relevance, reranks the survivors,
persists them as canonical records, and caches the result.

Subcommands: search, cache, records, version.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		l, err := newLogger(debug)
		if err != nil {
			return err
		}
		logger = l

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scout.yaml or ~/.config/scout/scout.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of credential files")
	rootCmd.PersistentFlags().Bool("debug", false, "development logging at debug level")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scout"))
		}
	}

	setDefaults(types.DefaultConfig())
	viper.SetEnvPrefix("SCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every scalar key so that SCOUT_* environment
// variables reach Unmarshal.
func setDefaults(d types.ScoutConfig) {
	for key, v := range map[string]any{
		"http.timeout":                        d.HTTP.Timeout,
		"http.user_agent":                     d.HTTP.UserAgent,
		"providers.enabled":                   d.Providers.Enabled,
		"providers.limit":                     d.Providers.Limit,
		"providers.timeout":                   d.Providers.Timeout,
		"providers.interval":                  d.Providers.Interval,
		"providers.max_variations":            d.Providers.MaxVariations,
		"providers.semantic_scholar_api_key":  "",
		"providers.patentsview_api_key":       "",
		"providers.openalex_email":            "",
		"providers.feeds":                     d.Providers.Feeds,
		"providers.curated_file":              "",
		"providers.web.search_url":            "",
		"scoring.threshold":                   d.Scoring.Threshold,
		"scoring.weights.topic_overlap":       d.Scoring.Weights.TopicOverlap,
		"scoring.weights.field_match":         d.Scoring.Weights.FieldMatch,
		"scoring.weights.semantic_similarity": d.Scoring.Weights.SemanticSimilarity,
		"scoring.weights.temporal_relevance":  d.Scoring.Weights.TemporalRelevance,
		"rerank.enabled":                      d.Rerank.Enabled,
		"rerank.base_url":                     d.Rerank.BaseURL,
		"rerank.api_key":                      "",
		"rerank.model":                        d.Rerank.Model,
		"rerank.top_k":                        d.Rerank.TopK,
		"rerank.min_score":                    d.Rerank.MinScore,
		"rerank.chunk_size":                   d.Rerank.ChunkSize,
		"rerank.timeout":                      d.Rerank.Timeout,
		"cache.backend":                       string(d.Cache.Backend),
		"cache.redis_url":                     "",
		"cache.ttl":                           d.Cache.TTL,
		"cache.namespace":                     d.Cache.Namespace,
		"cache.max_entries":                   d.Cache.MaxEntries,
		"store.path":                          d.Store.Path,
		"enhance.backend":                     string(d.Enhance.Backend),
		"enhance.model":                       "",
		"enhance.api_key":                     "",
		"enhance.timeout":                     d.Enhance.Timeout,
	} {
		viper.SetDefault(key, v)
	}
}

// loadConfig assembles the effective configuration: defaults, then the
// config file and environment, then secrets for any credential still empty.
func loadConfig() (types.ScoutConfig, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/unified-scout/internal/scout"
	"github.com/pdiddy/unified-scout/internal/search"
	"github.com/pdiddy/unified-scout/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [question]",
	Short: "Search every enabled provider and print the ranked sources",
	Long: `Search enhances the research question, queries the selected providers in
parallel, removes duplicates across providers and query variations, keeps
sources above the relevance threshold, reranks them, and stores the
survivors as canonical records.

Results are cached by query and provider set. A cached result is only
reused when --limit, --top-k, --threshold, --min-score and --rerank
resolve to the same values; otherwise the run is live. --no-cache forces a
live run and refreshes the cached entry. The default memory backend lives
only as long as this process, so repeated invocations share a cache only
with cache.backend: redis.

--from replays a run saved with --save without querying any provider.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text research question (or pass it as arguments)")
	searchCmd.Flags().StringSlice("providers", nil, "providers to query (default: providers.enabled)")
	searchCmd.Flags().Int("limit", 0, "results per provider and query (default: providers.limit)")
	searchCmd.Flags().Float64("threshold", -1, "minimum relevance score (default: scoring.threshold)")
	searchCmd.Flags().Int("top-k", 0, "results kept after reranking (default: rerank.top_k)")
	searchCmd.Flags().Float64("min-score", -1, "minimum rerank score (default: rerank.min_score)")
	searchCmd.Flags().Bool("rerank", false, "use the external reranker when credentials are configured")
	searchCmd.Flags().Bool("no-cache", false, "skip the cache lookup")
	searchCmd.Flags().Duration("deadline", 0, "bound the whole run (0 = none)")
	searchCmd.Flags().Bool("json", false, "output the result as JSON")
	searchCmd.Flags().Bool("csl", false, "output the results as CSL YAML")
	searchCmd.Flags().String("save", "", "write the run to a YAML file")
	searchCmd.Flags().String("from", "", "render a run saved with --save instead of searching")
	searchCmd.Flags().Bool("metrics", false, "print Prometheus metrics for the run to stderr")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	cslOut, _ := cmd.Flags().GetBool("csl")

	if from, _ := cmd.Flags().GetString("from"); from != "" {
		rf, err := search.ReadRunFile(from)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Replaying %q saved %s\n", rf.Request.Query, rf.SavedAt.Format("2006-01-02 15:04"))
		return render(os.Stdout, rf.Result, jsonOut, cslOut)
	}

	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		query = strings.Join(args, " ")
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("provide a research question with --query or as arguments")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rt, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	req := scout.Request{Query: query}
	req.Providers, _ = cmd.Flags().GetStringSlice("providers")
	req.Limit, _ = cmd.Flags().GetInt("limit")
	req.TopK, _ = cmd.Flags().GetInt("top-k")
	req.UseExternalRerank, _ = cmd.Flags().GetBool("rerank")
	req.SkipCache, _ = cmd.Flags().GetBool("no-cache")
	req.Deadline, _ = cmd.Flags().GetDuration("deadline")
	if v, _ := cmd.Flags().GetFloat64("threshold"); v >= 0 {
		req.Threshold = scout.Float64(v)
	}
	if v, _ := cmd.Flags().GetFloat64("min-score"); v >= 0 {
		req.MinScore = scout.Float64(v)
	}
	if len(req.Providers) == 0 {
		req.Providers = cfg.Providers.Enabled
	}

	res, err := rt.pipeline.Run(ctx, req)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		saved := search.RunRequest{Query: query, Providers: req.Providers}
		if err := search.WriteRunFile(path, saved, res); err != nil {
			fmt.Fprintf(os.Stderr, "warning: saving run: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Saved run to %s\n", path)
		}
	}

	if m, _ := cmd.Flags().GetBool("metrics"); m {
		if err := writeMetrics(rt.metrics, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "warning: writing metrics: %v\n", err)
		}
	}

	return render(os.Stdout, res, jsonOut, cslOut)
}

// render writes res as JSON, CSL YAML, or the default table.
func render(w io.Writer, res types.Result, jsonOut, cslOut bool) error {
	switch {
	case jsonOut:
		return search.FormatJSON(res, w)
	case cslOut:
		return search.FormatCSL(res, w)
	default:
		search.FormatTable(res, w)
		return nil
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/unified-scout/internal/store"
)

var recordsCmd = &cobra.Command{
	Use:   "records [id]",
	Short: "List persisted canonical records, or show one",
	RunE:  runRecords,
}

func init() {
	recordsCmd.Flags().Int("limit", 20, "maximum records to list")
	recordsCmd.Flags().Bool("json", false, "output records as JSON")

	rootCmd.AddCommand(recordsCmd)
}

func runRecords(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := store.NewStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	jsonOut, _ := cmd.Flags().GetBool("json")
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if len(args) > 0 {
		rec, err := s.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		return enc.Encode(rec)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	recs, err := s.List(ctx, limit)
	if err != nil {
		return err
	}
	if jsonOut {
		return enc.Encode(recs)
	}
	if len(recs) == 0 {
		fmt.Println("No records.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-32s  %-50s  %-5s  %-5s  %s\n", "ID", "Title", "Seen", "Rel", "Providers")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))
	for _, r := range recs {
		fmt.Fprintf(os.Stdout, "%-32s  %-50s  %-5d  %-5.2f  %s\n",
			clip(r.ID, 32), clip(r.Title, 50), r.TimesSeen, r.Relevance, strings.Join(r.Providers, ","))
	}
	total, err := s.Count(ctx)
	if err == nil {
		fmt.Fprintf(os.Stdout, "\n%d of %d records\n", len(recs), total)
	}
	return nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

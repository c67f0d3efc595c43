// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/confplan/internal/planner"
	"github.com/pdiddy/confplan/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Parse the abstract book into talk records",
	Long: `Extract parses the abstract book into talks (title, authors, abstract,
day, time window, session, location and type) and stores them in the talk
cache. When the cache already matches the source file it is reused.

Use this to check how a new abstract book layout parses before planning.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("pdf")
	refresh, _ := cmd.Flags().GetBool("refresh")
	format, _ := cmd.Flags().GetString("format")
	limit, _ := cmd.Flags().GetInt("limit")

	if source == "" {
		return fmt.Errorf("--pdf is required")
	}

	cfg := plannerConfig()
	p := planner.New(cfg, log.With("conference", cfg.Conference), os.Stderr)
	talks, fromCache, warnings, err := p.LoadTalks(cmd.Context(), source, refresh)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	shown := talks
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(shown)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(shown); err != nil {
			return err
		}
		return enc.Close()
	case "", "table":
		printTalkTable(shown)
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}

	origin := "parsed"
	if fromCache {
		origin = "cached"
	}
	fmt.Fprintf(os.Stdout, "\n%d talks (%s), %d warnings\n", len(talks), origin, len(warnings))
	return nil
}

func printTalkTable(talks []types.Talk) {
	fmt.Fprintf(os.Stdout, "%-4s  %-6s  %-22s  %-17s  %-45s  %s\n",
		"Page", "Type", "Day", "Time", "Title", "First author")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))
	for _, t := range talks {
		fmt.Fprintf(os.Stdout, "%-4d  %-6s  %-22s  %-17s  %-45s  %s\n",
			t.Page, t.Type.Label(), clip(t.Day, 22), clip(t.TimeWindow(), 17), clip(t.Title, 45), t.FirstAuthor())
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	f := extractCmd.Flags()
	f.String("pdf", "", "abstract book: a PDF, or a .txt file with form feed page breaks")
	f.Bool("refresh", false, "ignore the talk cache and re-parse")
	f.String("format", "table", "output format: table, json, or yaml")
	f.Int("limit", 0, "show at most this many talks (0 shows all)")

	rootCmd.AddCommand(extractCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/confplan/internal/planner"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build a personalized schedule from an abstract book and a profile",
	Long: `Plan runs the full pipeline: parse the abstract book (or load the cached
talks), embed and index the talks, rank them against the research profile,
and write a Markdown schedule grouped by day with scheduling conflicts
called out.

A profile without interests or unpublished work is allowed; talks are then
ranked by authors of interest only and the schedule says so.`,
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("pdf")
	profilePath, _ := cmd.Flags().GetString("profile")
	out, _ := cmd.Flags().GetString("out")
	export, _ := cmd.Flags().GetString("export")
	refresh, _ := cmd.Flags().GetBool("refresh")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if source == "" {
		return fmt.Errorf("--pdf is required")
	}

	cfg := plannerConfig()
	p := planner.New(cfg, log.With("conference", cfg.Conference), os.Stderr)

	res, err := p.Run(cmd.Context(), planner.Input{
		SourcePath:   source,
		ProfilePath:  profilePath,
		Refresh:      refresh,
		OutputPath:   out,
		ExportFormat: export,
	})
	if errors.Is(err, planner.ErrIndexUnavailable) {
		fmt.Fprintf(os.Stderr, "embedding index unavailable; is %s reachable with model %s?\n",
			cfg.Embedding.BaseURL, cfg.Embedding.Model)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(planSummary(res))
	}

	fmt.Fprintf(os.Stdout, "Talks parsed:          %d\n", res.TalksParsed)
	fmt.Fprintf(os.Stdout, "Talks after filtering: %d\n", res.TalksAfterFiltering)
	fmt.Fprintf(os.Stdout, "Talks scheduled:       %d\n", res.TalksScheduled)
	fmt.Fprintf(os.Stdout, "Conflict groups:       %d\n", res.ConflictCount)
	fmt.Fprintf(os.Stdout, "Ranking mode:          %s\n", res.Mode)
	if len(res.Warnings) > 0 {
		fmt.Fprintf(os.Stdout, "Warnings:              %d\n", len(res.Warnings))
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stdout, "  - %s\n", w)
		}
	}
	fmt.Fprintf(os.Stdout, "Schedule:              %s\n", res.OutputPath)
	if res.ExportPath != "" {
		fmt.Fprintf(os.Stdout, "Export:                %s\n", res.ExportPath)
	}
	return nil
}

type planJSON struct {
	TalksParsed         int            `json:"talks_parsed"`
	TalksAfterFiltering int            `json:"talks_after_filtering"`
	TalksScheduled      int            `json:"talks_scheduled"`
	ConflictCount       int            `json:"conflict_count"`
	Excluded            int            `json:"excluded"`
	BelowThreshold      int            `json:"below_threshold"`
	FromCache           bool           `json:"from_cache"`
	Mode                planner.Mode   `json:"mode"`
	OutputPath          string         `json:"output_path"`
	ExportPath          string         `json:"export_path,omitempty"`
	Warnings            []warningsJSON `json:"warnings"`
}

type warningsJSON struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	TalkID  string `json:"talk_id,omitempty"`
	Page    int    `json:"page,omitempty"`
}

func planSummary(res planner.Result) planJSON {
	out := planJSON{
		TalksParsed:         res.TalksParsed,
		TalksAfterFiltering: res.TalksAfterFiltering,
		TalksScheduled:      res.TalksScheduled,
		ConflictCount:       res.ConflictCount,
		Excluded:            res.Excluded,
		BelowThreshold:      res.BelowThreshold,
		FromCache:           res.FromCache,
		Mode:                res.Mode,
		OutputPath:          res.OutputPath,
		ExportPath:          res.ExportPath,
		Warnings:            []warningsJSON{},
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, warningsJSON{Kind: string(w.Kind), Message: w.Message, TalkID: w.TalkID, Page: w.Page})
	}
	return out
}

func init() {
	f := planCmd.Flags()
	f.String("pdf", "", "abstract book: a PDF, or a .txt file with form feed page breaks")
	f.String("profile", "research_interests.md", "research profile (Markdown)")
	f.String("out", "", "schedule path (default: <output-dir>/<conference>_schedule.md)")
	f.String("output-dir", "", "directory for generated schedules")
	f.String("export", "", "also write schedule rows as yaml or json")
	f.Int("top-k", 0, "keep at most this many talks (0 keeps all)")
	f.Float64("min-score", 0, "drop talks scoring below this relevance (0-1)")
	f.Bool("refresh", false, "ignore the talk cache and re-parse the abstract book")
	f.String("embedder", "", "embedding backend: ollama or hash")
	f.String("model", "", "embedding model name")
	f.Bool("json", false, "print the run summary as JSON")

	bindFlag("output_dir", f.Lookup("output-dir"))
	bindFlag("scoring.top_k", f.Lookup("top-k"))
	bindFlag("scoring.min_relevance", f.Lookup("min-score"))
	bindFlag("embedding.backend", f.Lookup("embedder"))
	bindFlag("embedding.model", f.Lookup("model"))

	rootCmd.AddCommand(planCmd)
}

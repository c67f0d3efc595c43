// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score ranks talks against a research profile. The final score of
// a talk is its semantic similarity plus a fixed boost when an author of
// interest is on the talk, capped at 1. Talks mentioning an excluded topic
// are dropped after scoring.
package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/confplan/pkg/types"
)

// Candidate is a talk with its base similarity, in index order.
type Candidate struct {
	Talk       types.Talk
	Similarity float64
}

// Options controls scoring.
type Options struct {
	AuthorBoost     float64
	MinRelevance    float64
	TopK            int
	MinAuthorLength int

	// RequireAuthorMatch drops talks without a matched author. It is set in
	// author-only mode, where every base score is 0.
	RequireAuthorMatch bool
}

// OptionsFrom builds Options from configuration, applying defaults.
func OptionsFrom(cfg types.ScoringConfig) Options {
	cfg = types.PlannerConfig{Scoring: cfg}.WithDefaults().Scoring
	return Options{
		AuthorBoost:     cfg.AuthorBoost,
		MinRelevance:    cfg.MinRelevance,
		TopK:            cfg.TopK,
		MinAuthorLength: cfg.MinAuthorLength,
	}
}

// Result is the ranked talk list and what was filtered out.
type Result struct {
	Talks []types.ScoredTalk

	// Excluded counts talks dropped for an exclusion topic.
	Excluded int

	// BelowThreshold counts talks under MinRelevance (or without an author
	// match in author-only mode).
	BelowThreshold int

	// Truncated counts talks cut by TopK.
	Truncated int

	Warnings []types.Warning
}

// Score ranks candidates. Ties keep candidate order.
func Score(cands []Candidate, profile types.ResearchProfile, opts Options) Result {
	authors, warnings := EligibleAuthors(profile.AuthorsOfInterest, opts.MinAuthorLength)
	exclusions := lowerNonEmpty(profile.Exclusions)
	res := Result{Warnings: warnings}

	for _, c := range cands {
		base := clamp(c.Similarity)
		matched := MatchAuthors(c.Talk.Authors, authors)
		final := base
		if len(matched) > 0 {
			final = min(1, base+opts.AuthorBoost)
		}

		if Excluded(c.Talk, exclusions) {
			res.Excluded++
			continue
		}
		if final < opts.MinRelevance || (opts.RequireAuthorMatch && len(matched) == 0) {
			res.BelowThreshold++
			continue
		}
		res.Talks = append(res.Talks, types.ScoredTalk{
			Talk:           c.Talk,
			Similarity:     base,
			Score:          final,
			MatchedAuthors: matched,
		})
	}

	sort.SliceStable(res.Talks, func(i, j int) bool {
		return res.Talks[i].Score > res.Talks[j].Score
	})
	if opts.TopK > 0 && len(res.Talks) > opts.TopK {
		res.Truncated = len(res.Talks) - opts.TopK
		res.Talks = res.Talks[:opts.TopK]
	}
	return res
}

// AuthorOnly turns talks into candidates with base 0 in extraction order,
// for profiles without interests or thesis. The returned warning reports
// the mode.
func AuthorOnly(talks []types.Talk) ([]Candidate, types.Warning) {
	cands := make([]Candidate, len(talks))
	for i, t := range talks {
		cands[i] = Candidate{Talk: t}
	}
	w := types.Warning{
		Kind:    types.WarnProfileIncomplete,
		Message: "profile has no interests and no thesis excerpt; ranking by authors of interest only",
	}
	return cands, w
}

// EligibleAuthors returns the lower-cased authors of interest usable for
// matching. Entries shorter than minLen after trimming would match almost
// any name; each is reported as a config warning instead.
func EligibleAuthors(authors []string, minLen int) ([]string, []types.Warning) {
	var out []string
	var warnings []types.Warning
	for _, a := range authors {
		s := strings.TrimSpace(a)
		if s == "" {
			continue
		}
		if len([]rune(s)) < minLen {
			warnings = append(warnings, types.Warning{
				Kind:    types.WarnConfig,
				Message: fmt.Sprintf("author of interest %q is shorter than %d characters and is ignored", s, minLen),
			})
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, warnings
}

// MatchAuthors returns every talk author that contains, or is contained in,
// one of the lower-cased authors of interest, ignoring case. Names also
// match when one name's words appear in order in the other, so "Jane Doe"
// matches "Jane A. Doe".
func MatchAuthors(talkAuthors, interest []string) []string {
	var matched []string
	for _, a := range talkAuthors {
		la := strings.ToLower(strings.TrimSpace(a))
		if la == "" {
			continue
		}
		for _, b := range interest {
			if authorMatch(la, b) {
				matched = append(matched, a)
				break
			}
		}
	}
	return matched
}

func authorMatch(a, b string) bool {
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	ta, tb := nameTokens(a), nameTokens(b)
	return subsequence(ta, tb) || subsequence(tb, ta)
}

func nameTokens(s string) []string {
	var out []string
	for _, f := range strings.Fields(s) {
		if f = strings.Trim(f, ".,;"); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// subsequence reports whether short, of two or more words, appears in
// order within long.
func subsequence(short, long []string) bool {
	if len(short) < 2 || len(short) > len(long) {
		return false
	}
	i := 0
	for _, w := range long {
		if w == short[i] {
			i++
			if i == len(short) {
				return true
			}
		}
	}
	return false
}

// Excluded reports whether any lower-cased exclusion topic occurs in the
// talk title or abstract, ignoring case.
func Excluded(t types.Talk, exclusions []string) bool {
	if len(exclusions) == 0 {
		return false
	}
	title := strings.ToLower(t.Title)
	abstract := strings.ToLower(t.Abstract)
	for _, e := range exclusions {
		if strings.Contains(title, e) || strings.Contains(abstract, e) {
			return true
		}
	}
	return false
}

func lowerNonEmpty(list []string) []string {
	var out []string
	for _, s := range list {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v float64) float64 {
	if v != v {
		return 0
	}
	return max(0, min(1, v))
}

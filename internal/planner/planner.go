// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner runs the whole pipeline for one abstract book and one
// research profile: load or extract talks, index and query them, score,
// build the schedule and write it out.
package planner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/confplan/internal/embed"
	"github.com/pdiddy/confplan/internal/extract"
	"github.com/pdiddy/confplan/internal/fsutil"
	"github.com/pdiddy/confplan/internal/index"
	"github.com/pdiddy/confplan/internal/logger"
	"github.com/pdiddy/confplan/internal/pdftext"
	"github.com/pdiddy/confplan/internal/profile"
	"github.com/pdiddy/confplan/internal/schedule"
	"github.com/pdiddy/confplan/internal/score"
	"github.com/pdiddy/confplan/internal/talkcache"
	"github.com/pdiddy/confplan/pkg/types"
)

// ErrIndexUnavailable means the embedding backend or index store failed or
// timed out. No relevance ranking could be produced, which differs from a
// ranking that found nothing.
var ErrIndexUnavailable = errors.New("embedding index unavailable")

// Mode tells how talks were ranked.
type Mode string

const (
	ModeSemantic   Mode = "semantic"
	ModeAuthorOnly Mode = "author_only"
)

// Input names the files of one run.
type Input struct {
	// SourcePath is the abstract book: a PDF or a form-feed paged .txt file.
	SourcePath string

	// ProfilePath is read when Profile is nil.
	ProfilePath string
	Profile     *types.ResearchProfile

	// Refresh ignores the talk cache and re-extracts.
	Refresh bool

	// OutputPath is the schedule document. Empty means
	// <OutputDir>/<conference>_schedule.md.
	OutputPath string

	// ExportFormat (yaml or json) also writes the schedule rows, to
	// ExportPath or next to OutputPath.
	ExportFormat string
	ExportPath   string
}

// Result summarizes a run.
type Result struct {
	TalksParsed int

	// TalksAfterFiltering counts talks left after exclusions and the
	// relevance threshold, before the TopK cut.
	TalksAfterFiltering int
	TalksScheduled      int
	ConflictCount       int

	Excluded       int
	BelowThreshold int
	Truncated      int

	FromCache bool
	Mode      Mode
	Index     index.Summary

	Warnings []types.Warning
	Schedule types.Schedule
	Profile  types.ResearchProfile

	OutputPath string
	ExportPath string
}

// Planner holds the collaborators of a run. Nil fields are built from
// Config on first use.
type Planner struct {
	Config types.PlannerConfig

	Embedder embed.Embedder
	Pages    pdftext.Source
	Log      *logger.Logger

	// Progress receives one human-readable line per stage.
	Progress io.Writer

	Now func() time.Time
}

// New returns a Planner for cfg with defaults applied.
func New(cfg types.PlannerConfig, log *logger.Logger, progress io.Writer) *Planner {
	if log == nil {
		log = logger.NewNop()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Planner{Config: cfg.WithDefaults(), Log: log, Progress: progress, Now: time.Now}
}

// Run executes the pipeline. Only index failures and unreadable inputs are
// errors; everything else is reported in Result.Warnings.
func (p *Planner) Run(ctx context.Context, in Input) (Result, error) {
	cfg := p.Config.WithDefaults()
	var res Result

	prof, warnings, err := p.loadProfile(ctx, in)
	if err != nil {
		return res, err
	}
	res.Profile = prof
	res.Warnings = append(res.Warnings, warnings...)

	talks, fromCache, warnings, err := p.LoadTalks(ctx, in.SourcePath, in.Refresh)
	res.Warnings = append(res.Warnings, warnings...)
	if err != nil {
		return res, err
	}
	res.TalksParsed = len(talks)
	res.FromCache = fromCache

	opts := score.OptionsFrom(cfg.Scoring)
	var cands []score.Candidate
	if prof.Incomplete() {
		res.Mode = ModeAuthorOnly
		var w types.Warning
		cands, w = score.AuthorOnly(talks)
		opts.RequireAuthorMatch = true
		res.Warnings = append(res.Warnings, w)
	} else {
		res.Mode = ModeSemantic
		cands, res.Index, err = p.rank(ctx, talks, prof)
		if err != nil {
			p.flushWarnings(res.Warnings)
			return res, err
		}
	}

	scored := score.Score(cands, prof, opts)
	res.Warnings = append(res.Warnings, scored.Warnings...)
	res.Excluded = scored.Excluded
	res.BelowThreshold = scored.BelowThreshold
	res.Truncated = scored.Truncated
	res.TalksAfterFiltering = len(scored.Talks) + scored.Truncated
	fmt.Fprintf(p.progress(), "scored %d talks (%d excluded, %d below threshold, %d over limit)\n",
		len(cands), scored.Excluded, scored.BelowThreshold, scored.Truncated)

	sched, warnings := schedule.Build(scored.Talks)
	res.Warnings = append(res.Warnings, warnings...)
	res.Schedule = sched
	res.TalksScheduled = sched.Len()
	res.ConflictCount = len(sched.Conflicts)

	if err := p.write(in, &res); err != nil {
		p.flushWarnings(res.Warnings)
		return res, err
	}
	p.flushWarnings(res.Warnings)
	return res, nil
}

func (p *Planner) loadProfile(ctx context.Context, in Input) (types.ResearchProfile, []types.Warning, error) {
	if in.Profile != nil {
		return *in.Profile, nil, nil
	}
	if in.ProfilePath == "" {
		return types.ResearchProfile{}, nil, errors.New("no research profile given")
	}
	src, err := p.pages()
	if err != nil {
		return types.ResearchProfile{}, nil, err
	}
	prof, warnings, err := profile.Load(ctx, in.ProfilePath, p.Config.WithDefaults().Profile, src)
	if err != nil {
		return types.ResearchProfile{}, nil, err
	}
	p.log().Debug("profile loaded", "path", in.ProfilePath,
		"interests", len(prof.Interests), "authors", len(prof.AuthorsOfInterest),
		"exclusions", len(prof.Exclusions), "thesis", prof.ThesisExcerpt != "")
	return prof, warnings, nil
}

// pages returns the configured PDF source.
func (p *Planner) pages() (pdftext.Source, error) {
	if p.Pages != nil {
		return p.Pages, nil
	}
	return pdftext.New(p.Config.WithDefaults().Extraction)
}

// LoadTalks returns the talks of the abstract book at path, from the cache
// when its key still matches, otherwise by extraction. Cache read and
// write failures become warnings.
func (p *Planner) LoadTalks(ctx context.Context, path string, refresh bool) ([]types.Talk, bool, []types.Warning, error) {
	cfg := p.Config.WithDefaults()
	var warnings []types.Warning

	key, err := talkcache.KeyForFile(path, string(cfg.Extraction.Backend)+"/"+cfg.Extraction.Version)
	if err != nil {
		return nil, false, nil, fmt.Errorf("reading source: %w", err)
	}
	store := talkcache.New(cfg.CacheDir, cfg.Conference)

	if !refresh {
		talks, err := store.Load(key)
		switch {
		case err == nil:
			fmt.Fprintf(p.progress(), "loaded %d talks from cache %s\n", len(talks), store.Path())
			return talks, true, extract.TimeWarnings(talks), nil
		case errors.Is(err, talkcache.ErrCacheCorrupt):
			warnings = append(warnings, types.Warnf(types.WarnCache, "ignoring cache %s: %v", store.Path(), err))
		default:
			p.log().Debug("talk cache miss", "path", store.Path(), "reason", err.Error())
		}
	}

	var src pdftext.Source
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		src = pdftext.TextSource{}
	} else if src, err = p.pages(); err != nil {
		return nil, false, warnings, err
	}
	doc, err := src.Pages(ctx, path)
	if err != nil {
		return nil, false, warnings, fmt.Errorf("extracting page text: %w", err)
	}
	warnings = append(warnings, doc.Warnings...)

	ext := extract.Extract(doc.Pages)
	warnings = append(warnings, ext.Warnings...)
	fmt.Fprintf(p.progress(), "extracted %d talks from %d pages with %s (%d merged, %d dropped)\n",
		len(ext.Talks), len(doc.Pages), src.Name(), ext.Merged, ext.Dropped)

	if err := store.Save(key, ext.Talks); err != nil {
		warnings = append(warnings, types.Warnf(types.WarnCache, "saving cache: %v", err))
	}
	return ext.Talks, false, warnings, nil
}

// rank indexes talks and queries them with the profile under IndexTimeout.
// Candidates come back in index order.
func (p *Planner) rank(ctx context.Context, talks []types.Talk, prof types.ResearchProfile) ([]score.Candidate, index.Summary, error) {
	cfg := p.Config.WithDefaults()

	e := p.Embedder
	if e == nil {
		var err error
		if e, err = embed.New(cfg.Embedding); err != nil {
			return nil, index.Summary{}, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
		}
	}

	ictx, cancel := context.WithTimeout(ctx, cfg.IndexTimeout)
	defer cancel()

	idx, err := index.Open(cfg.IndexDir, cfg.Conference, e)
	if err != nil {
		return nil, index.Summary{}, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	defer idx.Close()
	idx.BatchSize = cfg.Embedding.BatchSize

	summary, err := idx.Index(ictx, talks)
	if err != nil {
		return nil, summary, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	if summary.Unchanged {
		fmt.Fprintf(p.progress(), "index up to date (%d talks, model %s)\n", len(talks), e.Model())
	} else {
		fmt.Fprintf(p.progress(), "indexed %d talks (%d embedded, %d kept, %d removed)\n",
			len(talks), summary.Embedded, summary.Skipped, summary.Deleted)
	}

	k := 0
	if cfg.Scoring.TopK > 0 {
		k = min(len(talks), cfg.Scoring.TopK*cfg.Scoring.FetchMultiplier)
	}
	hits, err := idx.QueryText(ictx, embed.ProfileText(prof), k)
	if err != nil {
		return nil, summary, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	byID := make(map[string]types.Talk, len(talks))
	for _, t := range talks {
		byID[t.ID] = t
	}
	cands := make([]score.Candidate, 0, len(hits))
	for _, h := range hits {
		t, ok := byID[h.TalkID]
		if !ok {
			continue
		}
		cands = append(cands, score.Candidate{Talk: t, Similarity: h.Similarity})
	}
	return cands, summary, nil
}

// write renders the schedule and the optional row export.
func (p *Planner) write(in Input, res *Result) error {
	cfg := p.Config.WithDefaults()
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	out := in.OutputPath
	if out == "" {
		out = filepath.Join(cfg.OutputDir, fsutil.SafeName(cfg.Conference)+"_schedule.md")
	}
	opts := schedule.RenderOptions{
		Conference:   cfg.Conference,
		GeneratedAt:  now(),
		Profile:      res.Profile,
		AuthorOnly:   res.Mode == ModeAuthorOnly,
		ExcerptChars: cfg.Schedule.ExcerptChars,
		PreviewChars: cfg.Schedule.PreviewChars,
	}
	if err := schedule.WriteFile(out, res.Schedule, opts); err != nil {
		return err
	}
	res.OutputPath = out
	fmt.Fprintf(p.progress(), "wrote schedule with %d talks and %d conflicts to %s\n",
		res.TalksScheduled, res.ConflictCount, out)

	if in.ExportFormat == "" {
		return nil
	}
	exportPath := in.ExportPath
	if exportPath == "" {
		exportPath = strings.TrimSuffix(out, filepath.Ext(out)) + "." + strings.ToLower(in.ExportFormat)
	}
	var buf bytes.Buffer
	if err := schedule.Export(&buf, res.Schedule, in.ExportFormat); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(exportPath, buf.Bytes()); err != nil {
		return fmt.Errorf("writing export %s: %w", exportPath, err)
	}
	res.ExportPath = exportPath
	fmt.Fprintf(p.progress(), "exported %s rows to %s\n", strings.ToLower(in.ExportFormat), exportPath)
	return nil
}

func (p *Planner) log() *logger.Logger {
	if p.Log == nil {
		return logger.NewNop()
	}
	return p.Log
}

func (p *Planner) progress() io.Writer {
	if p.Progress == nil {
		return io.Discard
	}
	return p.Progress
}

func (p *Planner) flushWarnings(warnings []types.Warning) {
	for _, w := range warnings {
		p.log().Warn(w.Message, "kind", string(w.Kind), "talk_id", w.TalkID, "page", w.Page)
	}
}

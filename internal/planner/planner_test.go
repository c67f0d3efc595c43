// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/confplan/internal/embed"
	"github.com/pdiddy/confplan/internal/index"
	"github.com/pdiddy/confplan/internal/schedule"
	"github.com/pdiddy/confplan/internal/talkcache"
	"github.com/pdiddy/confplan/pkg/types"
)

var book = strings.Join([]string{
	strings.Join([]string{
		"Wednesday, October 22",
		"Session 1: Functional Genomics",
		"Location: Hall A",
		"",
		"CRISPR screen in T cells",
		"Subsession Time: Wednesday, October 22 at 9:00am – 9:15am",
		"Authors: Jane A. Doe (Univ X)",
		"Abstract: Genome-wide CRISPR screens in primary T cells.",
		"PgmNr 101",
		"",
		"Base editing of hematopoietic stem cells",
		"Subsession Time: Wednesday, October 22 at 9:00am – 9:15am",
		"Authors: Alan Smith",
		"Abstract: Base editing corrects sickle cell mutations in stem cells.",
		"PgmNr 102",
	}, "\n"),
	strings.Join([]string{
		"Wet-lab protocols for CRISPR delivery",
		"Subsession Time: Wednesday, October 22 at 2:00pm – 2:15pm",
		"Authors: Bob Stone",
		"Abstract: A wet-lab protocol for delivering CRISPR reagents.",
		"PgmNr 103",
		"",
		"Polygenic risk in diverse cohorts",
		"Subsession Time: Wednesday, October 22 at 4:00pm – 4:15pm",
		"Authors: Ana Lopez",
		"Abstract: Polygenic scores across ancestries.",
		"PgmNr 104",
	}, "\n"),
}, "\f")

const profileDoc = `## My Research Focus

- CRISPR screens in T cells

## Authors of Interest

- Jane Doe

## Topics to Exclude

- wet-lab
`

type fixture struct {
	dir     string
	source  string
	profile string
	cfg     types.PlannerConfig
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:     dir,
		source:  filepath.Join(dir, "book.txt"),
		profile: filepath.Join(dir, "profile.md"),
		cfg: types.PlannerConfig{
			Conference: "testconf",
			CacheDir:   filepath.Join(dir, "cache"),
			IndexDir:   filepath.Join(dir, "index"),
			OutputDir:  filepath.Join(dir, "output"),
		},
	}
	require.NoError(t, os.WriteFile(f.source, []byte(book), 0o644))
	require.NoError(t, os.WriteFile(f.profile, []byte(profileDoc), 0o644))
	return f
}

func (f fixture) planner(e embed.Embedder) (*Planner, *bytes.Buffer) {
	var progress bytes.Buffer
	p := New(f.cfg, nil, &progress)
	p.Embedder = e
	p.Now = func() time.Time { return time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC) }
	return p, &progress
}

type failingEmbedder struct{ err error }

func (f failingEmbedder) Embed(context.Context, []string) ([][]float32, error) { return nil, f.err }
func (f failingEmbedder) Model() string                                         { return "failing" }

type blockingEmbedder struct{}

func (blockingEmbedder) Embed(ctx context.Context, _ []string) ([][]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (blockingEmbedder) Model() string { return "blocking" }

func TestRunSemantic(t *testing.T) {
	f := newFixture(t)
	p, progress := f.planner(embed.NewHash(128))

	res, err := p.Run(context.Background(), Input{SourcePath: f.source, ProfilePath: f.profile})
	require.NoError(t, err)

	assert.Equal(t, ModeSemantic, res.Mode)
	assert.False(t, res.FromCache)
	assert.Equal(t, 4, res.TalksParsed)
	assert.Equal(t, 1, res.Excluded)
	assert.Equal(t, 3, res.TalksAfterFiltering)
	assert.Equal(t, 3, res.TalksScheduled)
	assert.Equal(t, 1, res.ConflictCount)
	assert.Equal(t, 4, res.Index.Embedded)
	assert.Contains(t, progress.String(), "extracted 4 talks from 2 pages with text")

	require.Len(t, res.Schedule.Conflicts, 1)
	assert.Len(t, res.Schedule.Conflicts[0].Members, 2)

	var crispr types.ScoredTalk
	for _, e := range res.Schedule.Buckets[0].Entries {
		assert.NotContains(t, e.Title, "Wet-lab")
		if e.Title == "CRISPR screen in T cells" {
			crispr = e
		}
	}
	assert.Equal(t, []string{"Jane A. Doe"}, crispr.MatchedAuthors)
	assert.InDelta(t, crispr.Similarity+0.15, crispr.Score, 1e-9)

	assert.Equal(t, filepath.Join(f.cfg.OutputDir, "testconf_schedule.md"), res.OutputPath)
	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# testconf - Personalized Schedule")
	assert.Contains(t, string(data), "**CONFLICT:** 2 interesting talks at this time")

	// Second run reuses the cache and the index.
	res2, err := p.Run(context.Background(), Input{SourcePath: f.source, ProfilePath: f.profile})
	require.NoError(t, err)
	assert.True(t, res2.FromCache)
	assert.True(t, res2.Index.Unchanged)
	assert.Equal(t, res.Schedule, res2.Schedule)
}

func TestRunRefreshReextracts(t *testing.T) {
	f := newFixture(t)
	p, _ := f.planner(embed.NewHash(64))
	_, err := p.Run(context.Background(), Input{SourcePath: f.source, ProfilePath: f.profile})
	require.NoError(t, err)

	res, err := p.Run(context.Background(), Input{SourcePath: f.source, ProfilePath: f.profile, Refresh: true})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
}

func TestRunTopK(t *testing.T) {
	f := newFixture(t)
	f.cfg.Scoring.TopK = 2
	p, _ := f.planner(embed.NewHash(64))

	res, err := p.Run(context.Background(), Input{SourcePath: f.source, ProfilePath: f.profile})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TalksAfterFiltering)
	assert.Equal(t, 2, res.TalksScheduled)
	assert.Equal(t, 1, res.Truncated)
}

func TestRunAuthorOnly(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.profile, []byte("## Authors of Interest\n\n- Ana Lopez\n"), 0o644))
	p, _ := f.planner(failingEmbedder{err: errors.New("must not be called")})

	res, err := p.Run(context.Background(), Input{SourcePath: f.source, ProfilePath: f.profile})
	require.NoError(t, err)
	assert.Equal(t, ModeAuthorOnly, res.Mode)
	assert.Equal(t, 1, res.TalksScheduled)
	assert.Equal(t, "Polygenic risk in diverse cohorts", res.Schedule.Buckets[0].Entries[0].Title)

	var kinds []types.WarningKind
	for _, w := range res.Warnings {
		kinds = append(kinds, w.Kind)
	}
	assert.Contains(t, kinds, types.WarnProfileIncomplete)

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ranked by author matches only")
}

func TestRunIndexUnavailable(t *testing.T) {
	f := newFixture(t)
	p, _ := f.planner(failingEmbedder{err: errors.New("connection refused")})

	res, err := p.Run(context.Background(), Input{SourcePath: f.source, ProfilePath: f.profile})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexUnavailable)
	assert.ErrorIs(t, err, index.ErrUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 4, res.TalksParsed)

	_, statErr := os.Stat(filepath.Join(f.cfg.OutputDir, "testconf_schedule.md"))
	assert.True(t, os.IsNotExist(statErr), "no schedule written")

	// The talk cache written before the failure is intact.
	talks, err := talkcache.New(f.cfg.CacheDir, f.cfg.Conference).Load(mustKey(t, f.source))
	require.NoError(t, err)
	assert.Len(t, talks, 4)
}

func TestRunIndexTimeout(t *testing.T) {
	f := newFixture(t)
	f.cfg.IndexTimeout = 50 * time.Millisecond
	p, _ := f.planner(blockingEmbedder{})

	_, err := p.Run(context.Background(), Input{SourcePath: f.source, ProfilePath: f.profile})
	assert.ErrorIs(t, err, ErrIndexUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunUnknownEmbedderBackend(t *testing.T) {
	f := newFixture(t)
	f.cfg.Embedding.Backend = "carrier-pigeon"
	p, _ := f.planner(nil)

	_, err := p.Run(context.Background(), Input{SourcePath: f.source, ProfilePath: f.profile})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexUnavailable)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestRunCorruptCacheRecovers(t *testing.T) {
	f := newFixture(t)
	store := talkcache.New(f.cfg.CacheDir, f.cfg.Conference)
	require.NoError(t, os.MkdirAll(f.cfg.CacheDir, 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("::: not yaml"), 0o644))

	p, _ := f.planner(embed.NewHash(64))
	res, err := p.Run(context.Background(), Input{SourcePath: f.source, ProfilePath: f.profile})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, 4, res.TalksParsed)

	var cacheWarnings int
	for _, w := range res.Warnings {
		if w.Kind == types.WarnCache {
			cacheWarnings++
		}
	}
	assert.Equal(t, 1, cacheWarnings)
}

func TestRunExport(t *testing.T) {
	f := newFixture(t)
	p, _ := f.planner(embed.NewHash(64))
	out := filepath.Join(f.dir, "plan.md")

	res, err := p.Run(context.Background(), Input{
		SourcePath:   f.source,
		ProfilePath:  f.profile,
		OutputPath:   out,
		ExportFormat: "json",
	})
	require.NoError(t, err)
	assert.Equal(t, out, res.OutputPath)
	assert.Equal(t, filepath.Join(f.dir, "plan.json"), res.ExportPath)

	data, err := os.ReadFile(res.ExportPath)
	require.NoError(t, err)
	var rows []schedule.Row
	require.NoError(t, json.Unmarshal(data, &rows))
	assert.Len(t, rows, 3)
}

func TestRunMissingSource(t *testing.T) {
	f := newFixture(t)
	p, _ := f.planner(embed.NewHash(64))
	_, err := p.Run(context.Background(), Input{SourcePath: filepath.Join(f.dir, "missing.pdf"), ProfilePath: f.profile})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIndexUnavailable)
}

func TestRunPreloadedProfile(t *testing.T) {
	f := newFixture(t)
	p, _ := f.planner(embed.NewHash(64))
	prof := types.ResearchProfile{Interests: []string{"polygenic scores"}}

	res, err := p.Run(context.Background(), Input{SourcePath: f.source, Profile: &prof})
	require.NoError(t, err)
	assert.Equal(t, 4, res.TalksScheduled, "no exclusions in the preloaded profile")
}

func mustKey(t *testing.T, path string) string {
	t.Helper()
	key, err := talkcache.KeyForFile(path, string(types.BackendNative)+"/")
	require.NoError(t, err)
	return key
}

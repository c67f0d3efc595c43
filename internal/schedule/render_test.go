// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/confplan/pkg/types"
)

func sampleSchedule(t *testing.T) types.Schedule {
	t.Helper()
	a := timed("a", wed, "09:00", "09:15", 0.55)
	a.Title = "CRISPR screen in T cells"
	a.Authors = []string{"Jane A. Doe", "Alan Smith"}
	a.MatchedAuthors = []string{"Jane A. Doe"}
	a.SessionName = "Functional Genomics"
	a.Abstract = strings.Repeat("word ", 100)

	b := timed("b", wed, "09:00", "09:15", 0.40)
	b.Title = "Base editing at scale"
	b.Abstract = "Short abstract."
	b.Location = ""

	sched, _ := Build([]types.ScoredTalk{a, b})
	return sched
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	err := RenderMarkdown(&buf, sampleSchedule(t), RenderOptions{
		Conference:  "ASHG 2025",
		GeneratedAt: time.Date(2025, 10, 1, 8, 30, 0, 0, time.UTC),
		Profile: types.ResearchProfile{
			Interests:         []string{"CRISPR screens"},
			AuthorsOfInterest: []string{"Jane Doe"},
			Exclusions:        []string{"wet-lab"},
		},
	})
	require.NoError(t, err)
	out := buf.String()

	for _, want := range []string{
		"# ASHG 2025 - Personalized Schedule",
		"*Generated on: 2025-10-01 08:30*",
		"**Total relevant sessions:** 2",
		"**Scheduling conflicts:** 1",
		"- CRISPR screens",
		"**Authors of interest:** Jane Doe",
		"**Excluded topics:** wet-lab",
		"## " + wed,
		"### CRISPR screen in T cells",
		"**Type:** Talk | **Relevance Score:** 55.00%",
		"**Time:** 9:00am – 9:15am",
		"**Location:** Hall A",
		"**Location:** TBD",
		"**Session:** Functional Genomics",
		"**Authors:** **Jane A. Doe**, Alan Smith",
		"**Abstract:** Short abstract.",
		"**CONFLICT:** 2 interesting talks at this time",
		"## Scheduling Conflicts - Choose Wisely!",
		"### " + wed + " at 9:00am - 9:15am",
		"- **Base editing at scale** (Score: 40.00%)",
		"## Notes & Feedback",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "ranked by author matches only")

	// Day entries come before the conflicts section.
	assert.Less(t, strings.Index(out, "### Base editing"), strings.Index(out, "## Scheduling Conflicts"))
}

func TestRenderAuthorOnlyNote(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, types.Schedule{}, RenderOptions{AuthorOnly: true}))
	assert.Contains(t, buf.String(), "ranked by author matches only")
	assert.NotContains(t, buf.String(), "Scheduling Conflicts - Choose Wisely!")
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "Short text.", 300, "Short text."},
		{"cut", "abcdefghij", 4, "abcd..."},
		{"whitespace", "a  b\n\nc", 10, "a b c"},
		{"trailing space", "abc def", 4, "abc..."},
		{"runes", "ééééé", 2, "éé..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Excerpt(tt.in, tt.n))
		})
	}
}

func TestRenderExcerptLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, sampleSchedule(t), RenderOptions{ExcerptChars: 20, PreviewChars: 10}))
	assert.Contains(t, buf.String(), "**Abstract:** word word word word...")
	assert.Contains(t, buf.String(), "  - Preview: word word...")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "schedule.md")
	require.NoError(t, WriteFile(path, sampleSchedule(t), RenderOptions{Conference: "ASHG"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# ASHG - Personalized Schedule"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestExport(t *testing.T) {
	sched := sampleSchedule(t)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, sched, "json"))
		var rows []Row
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
		require.Len(t, rows, 2)
		assert.Equal(t, wed, rows[0].Day)
		assert.Equal(t, "CRISPR screen in T cells", rows[0].Title)
		assert.Equal(t, "Jane A. Doe; Alan Smith", rows[0].Authors)
		assert.Equal(t, 2, rows[0].Conflict)
		assert.Equal(t, "TBD", rows[1].Location)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, sched, "YAML"))
		var rows []Row
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rows))
		require.Len(t, rows, 2)
		assert.InDelta(t, 0.40, rows[1].Relevance, 1e-9)
	})

	t.Run("unknown", func(t *testing.T) {
		err := Export(&bytes.Buffer{}, sched, "xlsx")
		assert.ErrorContains(t, err, "unsupported export format")
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, types.Schedule{}, "json"))
		assert.Equal(t, "[]\n", buf.String())
	})
}

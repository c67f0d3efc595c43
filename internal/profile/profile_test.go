// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/confplan/pkg/types"
)

const sample = `# Research Interests

*Generated on: 2025-09-30 10:00:00*

## My Research Focus

- CRISPR screens
* single-cell atlases
1. rare disease diagnostics
polygenic risk scores
- crispr screens

## Authors of Interest

<!-- add collaborators here
- Not An Author
-->
- Jane Doe
- NA

## Topics to Exclude

*These topics will be filtered out from recommendations:*

- wet-lab

## Notes

- this section is ignored

## Unpublished Work

- ` + "`thesis.md`" + `
- other.pdf
`

func TestParse(t *testing.T) {
	p, warnings, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CRISPR screens",
		"single-cell atlases",
		"rare disease diagnostics",
		"polygenic risk scores",
	}, p.Interests)
	assert.Equal(t, []string{"Jane Doe"}, p.AuthorsOfInterest)
	assert.Equal(t, []string{"wet-lab"}, p.Exclusions)
	assert.Equal(t, "thesis.md", p.ThesisPath)

	require.Len(t, warnings, 1)
	assert.Equal(t, types.WarnConfig, warnings[0].Kind)
	assert.Contains(t, warnings[0].Message, "other.pdf")
}

func TestParseMissingSections(t *testing.T) {
	p, warnings, err := Parse(strings.NewReader("## Interests\n\n- genome assembly\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"genome assembly"}, p.Interests)
	assert.Empty(t, p.AuthorsOfInterest)
	assert.Empty(t, p.Exclusions)
	assert.Empty(t, warnings)
}

func TestParseNoSections(t *testing.T) {
	p, warnings, err := Parse(strings.NewReader("just some text\n"))
	require.NoError(t, err)
	assert.True(t, p.Incomplete())
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "no recognized sections")
}

func TestSectionFor(t *testing.T) {
	tests := []struct {
		heading string
		want    section
	}{
		{"My Research Focus", sectionInterests},
		{"Research Interests", sectionInterests},
		{"Authors of Interest", sectionAuthors},
		{"Topics to Exclude", sectionExclusions},
		{"Exclusions", sectionExclusions},
		{"Thesis", sectionThesis},
		{"UNPUBLISHED WORK", sectionThesis},
		{"Notes & Feedback", sectionNone},
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			assert.Equal(t, tt.want, sectionFor(tt.heading))
		})
	}
}

func TestLoadThesis(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thesis.md"),
		[]byte("Chapter one\n\nVariant   effect prediction with deep learning models.\n"), 0o644))
	path := filepath.Join(dir, "profile.md")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	p, warnings, err := Load(context.Background(), path, types.ProfileConfig{ThesisWords: 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Chapter one Variant effect", p.ThesisExcerpt)
	assert.Len(t, warnings, 1, "only the extra path warning")
	assert.False(t, p.Incomplete())
}

func TestLoadMissingThesis(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.md")
	require.NoError(t, os.WriteFile(path, []byte("## Unpublished Work\n\n- nowhere.pdf\n"), 0o644))

	p, warnings, err := Load(context.Background(), path, types.ProfileConfig{}, nil)
	require.NoError(t, err)
	assert.Empty(t, p.ThesisExcerpt)
	assert.True(t, p.Incomplete())
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "not found")
}

func TestLoadMissingProfile(t *testing.T) {
	_, _, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.md"), types.ProfileConfig{}, nil)
	assert.Error(t, err)
}

func TestFirstWords(t *testing.T) {
	assert.Equal(t, "a b c", FirstWords(" a\nb\t c d e", 3))
	assert.Equal(t, "a b", FirstWords("a b", 10))
	assert.Equal(t, "", FirstWords("   ", 5))
}

func TestWriteParsesBack(t *testing.T) {
	in := types.ResearchProfile{
		Interests:         []string{"CRISPR screens", "single-cell atlases"},
		AuthorsOfInterest: []string{"Jane Doe"},
		Exclusions:        []string{"wet-lab"},
		ThesisPath:        "thesis.pdf",
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in, time.Date(2025, 9, 30, 10, 0, 0, 0, time.UTC)))
	assert.Contains(t, buf.String(), "*Generated on: 2025-09-30 10:00:00*")

	out, warnings, err := Parse(&buf)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, in, out)
}

func TestTemplateParses(t *testing.T) {
	p, warnings, err := Parse(strings.NewReader(Template))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Len(t, p.Interests, 2)
	assert.Empty(t, p.AuthorsOfInterest)
	assert.Empty(t, p.Exclusions)
	assert.Empty(t, p.ThesisPath)
}

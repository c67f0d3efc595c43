// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/confplan/internal/fsutil"
	"github.com/pdiddy/confplan/pkg/types"
)

// RenderOptions controls the Markdown schedule document.
type RenderOptions struct {
	Conference  string
	GeneratedAt time.Time
	Profile     types.ResearchProfile

	// AuthorOnly notes that talks were ranked by author matches alone.
	AuthorOnly bool

	ExcerptChars int
	PreviewChars int
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Conference == "" {
		o.Conference = types.DefaultConference
	}
	if o.GeneratedAt.IsZero() {
		o.GeneratedAt = time.Now()
	}
	if o.ExcerptChars <= 0 {
		o.ExcerptChars = types.DefaultExcerptChars
	}
	if o.PreviewChars <= 0 {
		o.PreviewChars = types.DefaultPreviewChars
	}
	return o
}

// RenderMarkdown writes the schedule document to w.
func RenderMarkdown(w io.Writer, sched types.Schedule, opts RenderOptions) error {
	opts = opts.withDefaults()
	var b strings.Builder

	fmt.Fprintf(&b, "# %s - Personalized Schedule\n\n", opts.Conference)
	fmt.Fprintf(&b, "*Generated on: %s*\n\n", opts.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "**Total relevant sessions:** %d\n", sched.Len())
	fmt.Fprintf(&b, "**Scheduling conflicts:** %d\n\n", len(sched.Conflicts))
	if opts.AuthorOnly {
		b.WriteString("*The profile lists no interests or thesis; talks are ranked by author matches only.*\n\n")
	}

	writeProfile(&b, opts.Profile)
	b.WriteString("---\n\n")

	for _, bk := range sched.Buckets {
		fmt.Fprintf(&b, "## %s\n\n", bk.Name)
		for _, t := range bk.Entries {
			writeEntry(&b, t, opts.ExcerptChars)
		}
	}

	if len(sched.Conflicts) > 0 {
		b.WriteString("## Scheduling Conflicts - Choose Wisely!\n\n")
		for _, g := range sched.Conflicts {
			fmt.Fprintf(&b, "### %s at %s - %s\n\n", g.Day, types.FormatClock(g.Start), types.FormatClock(g.End))
			for _, m := range g.Members {
				fmt.Fprintf(&b, "- **%s** (Score: %s)\n", m.Title, percent(m.Score))
				fmt.Fprintf(&b, "  - Time: %s\n", m.TimeWindow())
				fmt.Fprintf(&b, "  - Location: %s\n", location(m.Talk))
				if m.Abstract != "" {
					fmt.Fprintf(&b, "  - Preview: %s\n", Excerpt(m.Abstract, opts.PreviewChars))
				}
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Notes & Feedback\n\n")
	b.WriteString("*Add your notes about talks you attended, people you met, and follow-up items here.*\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeProfile(b *strings.Builder, p types.ResearchProfile) {
	if len(p.Interests) > 0 {
		b.WriteString("### Your Research Interests\n\n")
		for _, i := range p.Interests {
			fmt.Fprintf(b, "- %s\n", i)
		}
		b.WriteString("\n")
	}
	if p.ThesisPath != "" {
		fmt.Fprintf(b, "**Unpublished work:** %s\n\n", p.ThesisPath)
	}
	if len(p.AuthorsOfInterest) > 0 {
		fmt.Fprintf(b, "**Authors of interest:** %s\n\n", strings.Join(p.AuthorsOfInterest, ", "))
	}
	if len(p.Exclusions) > 0 {
		fmt.Fprintf(b, "**Excluded topics:** %s\n\n", strings.Join(p.Exclusions, ", "))
	}
}

func writeEntry(b *strings.Builder, t types.ScoredTalk, excerpt int) {
	fmt.Fprintf(b, "### %s\n\n", t.Title)
	fmt.Fprintf(b, "**Type:** %s | **Relevance Score:** %s\n\n", t.Type.Label(), percent(t.Score))
	if tw := t.TimeWindow(); tw != "" {
		fmt.Fprintf(b, "**Time:** %s\n\n", tw)
	}
	fmt.Fprintf(b, "**Location:** %s\n\n", location(t.Talk))
	if t.SessionName != "" {
		fmt.Fprintf(b, "**Session:** %s\n\n", t.SessionName)
	}
	if len(t.Authors) > 0 {
		fmt.Fprintf(b, "**Authors:** %s\n\n", markAuthors(t.Authors, t.MatchedAuthors))
	}
	if t.Abstract != "" {
		fmt.Fprintf(b, "**Abstract:** %s\n\n", Excerpt(t.Abstract, excerpt))
	}
	if t.ConflictSize > 1 {
		fmt.Fprintf(b, "**CONFLICT:** %d interesting talks at this time\n\n", t.ConflictSize)
	}
	b.WriteString("---\n\n")
}

func markAuthors(authors, matched []string) string {
	hit := make(map[string]bool, len(matched))
	for _, m := range matched {
		hit[m] = true
	}
	out := make([]string, len(authors))
	for i, a := range authors {
		if hit[a] {
			out[i] = "**" + a + "**"
		} else {
			out[i] = a
		}
	}
	return strings.Join(out, ", ")
}

func location(t types.Talk) string {
	if t.Location == "" {
		return types.DefaultLocation
	}
	return t.Location
}

func percent(score float64) string {
	return fmt.Sprintf("%.2f%%", score*100)
}

// Excerpt returns the first n characters of s with an ellipsis appended when
// s was cut. Whitespace runs are collapsed first.
func Excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), " ") + "..."
}

// WriteFile renders the schedule to path, replacing any previous file
// atomically.
func WriteFile(path string, sched types.Schedule, opts RenderOptions) error {
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, sched, opts); err != nil {
		return fmt.Errorf("rendering schedule: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing schedule %s: %w", path, err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile reads and writes the research profile, a Markdown file
// with sections for interests, authors of interest, topics to exclude and
// an optional path to unpublished work.
package profile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/confplan/internal/pdftext"
	"github.com/pdiddy/confplan/pkg/types"
)

type section int

const (
	sectionNone section = iota
	sectionInterests
	sectionAuthors
	sectionExclusions
	sectionThesis
)

// sectionFor maps a heading to a section. Authors is tested before
// interests because "Authors of Interest" mentions both.
func sectionFor(heading string) section {
	h := strings.ToLower(heading)
	switch {
	case strings.Contains(h, "author"):
		return sectionAuthors
	case strings.Contains(h, "exclude"), strings.Contains(h, "exclusion"):
		return sectionExclusions
	case strings.Contains(h, "unpublished"), strings.Contains(h, "thesis"):
		return sectionThesis
	case strings.Contains(h, "focus"), strings.Contains(h, "interest"):
		return sectionInterests
	}
	return sectionNone
}

var (
	bulletRe  = regexp.MustCompile(`^(?:[-*+]|\d+[.)])\s+`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// Parse reads a profile document. Unknown sections and stray text are
// ignored; a second thesis path is reported and dropped.
func Parse(r io.Reader) (types.ResearchProfile, []types.Warning, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return types.ResearchProfile{}, nil, fmt.Errorf("reading profile: %w", err)
	}
	text := commentRe.ReplaceAllString(string(data), "")

	var (
		p        types.ResearchProfile
		warnings []types.Warning
		cur      = sectionNone
		found    bool
		seen     = make(map[string]bool)
	)

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			cur = sectionFor(strings.TrimLeft(line, "# "))
			if cur != sectionNone {
				found = true
			}
			continue
		}
		item := strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
		if cur == sectionNone || skipItem(item) {
			continue
		}

		key := fmt.Sprintf("%d/%s", cur, strings.ToLower(item))
		if seen[key] {
			continue
		}
		seen[key] = true

		switch cur {
		case sectionInterests:
			p.Interests = append(p.Interests, item)
		case sectionAuthors:
			p.AuthorsOfInterest = append(p.AuthorsOfInterest, item)
		case sectionExclusions:
			p.Exclusions = append(p.Exclusions, item)
		case sectionThesis:
			item = strings.Trim(item, "`<>\"'")
			if p.ThesisPath == "" {
				p.ThesisPath = item
			} else {
				warnings = append(warnings, types.Warnf(types.WarnConfig, "extra unpublished work path %q ignored", item))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return types.ResearchProfile{}, nil, fmt.Errorf("scanning profile: %w", err)
	}
	if !found {
		warnings = append(warnings, types.Warnf(types.WarnConfig, "profile has no recognized sections"))
	}
	return p, warnings, nil
}

// skipItem reports lines that carry no profile entry: blanks, italic notes
// and placeholders.
func skipItem(item string) bool {
	if item == "" {
		return true
	}
	if strings.HasPrefix(item, "*") || strings.HasPrefix(item, "_") {
		return true
	}
	switch strings.ToLower(strings.TrimRight(item, ".")) {
	case "na", "n/a", "none", "-":
		return true
	}
	return false
}

// Load parses the profile at path and reads the thesis excerpt. A relative
// thesis path is resolved against the profile's directory. PDF theses are
// read through pages; a nil pages uses the native PDF reader.
func Load(ctx context.Context, path string, cfg types.ProfileConfig, pages pdftext.Source) (types.ResearchProfile, []types.Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.ResearchProfile{}, nil, fmt.Errorf("opening profile %s: %w", path, err)
	}
	defer f.Close()

	p, warnings, err := Parse(f)
	if err != nil {
		return types.ResearchProfile{}, nil, err
	}
	if p.ThesisPath == "" {
		return p, warnings, nil
	}

	thesis := p.ThesisPath
	if !filepath.IsAbs(thesis) {
		thesis = filepath.Join(filepath.Dir(path), thesis)
	}
	words := cfg.ThesisWords
	if words <= 0 {
		words = types.DefaultThesisWords
	}
	excerpt, err := ThesisExcerpt(ctx, thesis, words, pages)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		warnings = append(warnings, types.Warnf(types.WarnConfig, "unpublished work %s not found", p.ThesisPath))
	case err != nil:
		warnings = append(warnings, types.Warnf(types.WarnConfig, "unpublished work %s unreadable: %v", p.ThesisPath, err))
	case excerpt == "":
		warnings = append(warnings, types.Warnf(types.WarnConfig, "unpublished work %s has no text", p.ThesisPath))
	default:
		p.ThesisExcerpt = excerpt
	}
	return p, warnings, nil
}

// ThesisExcerpt returns the first n words of the document at path.
func ThesisExcerpt(ctx context.Context, path string, n int, pages pdftext.Source) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	var text string
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		if pages == nil {
			pages = pdftext.NativeSource{}
		}
		doc, err := pages.Pages(ctx, path)
		if err != nil {
			return "", err
		}
		text = strings.Join(doc.Pages, "\n")
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		text = string(data)
	}
	return FirstWords(text, n), nil
}

// FirstWords returns up to n whitespace-separated words of text joined by
// single spaces.
func FirstWords(text string, n int) string {
	words := strings.Fields(text)
	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// Write renders p in the format Parse reads.
func Write(w io.Writer, p types.ResearchProfile, now time.Time) error {
	var b strings.Builder
	b.WriteString("# Research Interests\n\n")
	fmt.Fprintf(&b, "*Generated on: %s*\n\n", now.Format("2006-01-02 15:04:05"))

	writeList(&b, "My Research Focus", "", p.Interests)
	writeList(&b, "Authors of Interest", "*One name per line. Talks by these authors get a relevance boost.*", p.AuthorsOfInterest)
	writeList(&b, "Topics to Exclude", "*These topics will be filtered out from recommendations:*", p.Exclusions)
	if p.ThesisPath != "" {
		writeList(&b, "Unpublished Work", "", []string{p.ThesisPath})
	}

	_, err := io.WriteString(w, strings.TrimRight(b.String(), "\n")+"\n")
	return err
}

func writeList(b *strings.Builder, heading, note string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	if note != "" {
		b.WriteString(note + "\n\n")
	}
	for _, i := range items {
		fmt.Fprintf(b, "- %s\n", i)
	}
	b.WriteString("\n")
}

// Template is the starting profile written by "profile init".
const Template = `# Research Interests

## My Research Focus

*One interest per line. Be specific: these lines are compared against talk titles and abstracts.*

- single-cell transcriptomics of rare diseases
- CRISPR screens for regulatory variants

## Authors of Interest

*One name per line. Talks by these authors get a relevance boost.*

- NA

## Topics to Exclude

*Talks mentioning any of these phrases are dropped.*

- NA

## Unpublished Work

*Optional path to a thesis or manuscript (PDF or text), relative to this file.*

- NA
`

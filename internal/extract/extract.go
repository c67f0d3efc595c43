// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns the page text of a conference abstract book into
// structured talk records. Lines are scanned in document order; an ordered
// list of matchers updates the parsing context (day, time, session, talk
// type, room) and delimits talk blocks (title, authors, abstract).
// Extraction is best effort and never fails: blocks without a title, or
// with neither authors nor abstract, are dropped with a warning.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/confplan/pkg/types"
)

// Result holds the talks extracted from one document.
type Result struct {
	Talks    []types.Talk
	Warnings []types.Warning

	// Dropped counts blocks discarded for lacking a title, or lacking both
	// authors and abstract.
	Dropped int

	// Merged counts duplicate blocks folded into an earlier talk.
	Merged int
}

// Extract parses pages (one string per page, in document order) with the
// default matchers. The same input always yields the same output.
func Extract(pages []string) Result {
	return ExtractWith(pages, DefaultMatchers())
}

// ExtractWith parses pages with the given matchers, applied in order.
func ExtractWith(pages []string, matchers []Matcher) Result {
	s := &scanner{state: InitialState(), matchers: matchers}
	for i, page := range pages {
		s.page = i + 1
		for _, raw := range strings.Split(page, "\n") {
			s.line(raw)
		}
	}
	s.close()

	talks, merged := dedupe(s.talks)
	talks = assignIDs(talks)

	return Result{
		Talks:    talks,
		Warnings: append(s.warnings, TimeWarnings(talks)...),
		Dropped:  s.dropped,
		Merged:   merged,
	}
}

// TimeWarnings reports each talk whose printed time did not parse.
func TimeWarnings(talks []types.Talk) []types.Warning {
	var out []types.Warning
	for _, t := range talks {
		if t.TimeMalformed() {
			out = append(out, types.Warning{
				Kind:    types.WarnMalformedTime,
				Message: fmt.Sprintf("time %q of %q did not parse; talk left unscheduled", t.TimeRaw, t.Title),
				TalkID:  t.ID,
				Page:    t.Page,
			})
		}
	}
	return out
}

type phase int

const (
	phaseTitle phase = iota
	phaseAuthors
	phaseAbstract
)

// block is a talk being assembled.
type block struct {
	ctx      ParserState
	page     int
	phase    phase
	title    []string
	authors  []string
	abstract []string

	// titleDone is set once a blank line follows the title.
	titleDone bool

	// pending is a lone name line read right after the title. It becomes
	// the author list if an abstract follows, otherwise part of the title.
	pending string
}

// settle resolves the pending name line.
func (b *block) settle(asAuthors bool) {
	if b.pending == "" {
		return
	}
	if asAuthors {
		b.authors = append(b.authors, b.pending)
	} else {
		b.title = append(b.title, b.pending)
	}
	b.pending = ""
}

type scanner struct {
	state    ParserState
	matchers []Matcher
	page     int
	blank    bool
	cur      *block

	talks    []types.Talk
	warnings []types.Warning
	dropped  int
}

// affiliationRe matches affiliation lines keyed by footnote, such as
// "1Broad Institute, Cambridge".
var affiliationRe = regexp.MustCompile(`^(?:\d{1,2}|[*†‡§¹²³⁴⁵⁶⁷⁸⁹])\s*\p{Lu}`)

var pageNumberRe = regexp.MustCompile(`(?i)^(?:page\s+)?\d{1,4}(?:\s+of\s+\d{1,4})?$`)

func (s *scanner) line(raw string) {
	line := strings.Join(strings.Fields(raw), " ")
	if line == "" {
		s.blank = true
		return
	}
	if pageNumberRe.MatchString(line) {
		return
	}
	s.apply(line)
	s.blank = false
}

// apply runs the matchers left to right. Context matchers that do not claim
// the line pass their updated state on; the first claim ends the run.
func (s *scanner) apply(line string) {
	state := s.state
	for _, m := range s.matchers {
		out, ok := m.Match(line, state)
		if !ok {
			continue
		}
		if m.Kind().context() {
			state = out.State
			if !out.Claimed {
				continue
			}
			s.contextLine(m.Kind(), state)
			if out.Text != "" {
				s.text(out.Text)
			}
			return
		}
		if s.blockLine(m.Kind(), out) {
			s.state = state
			return
		}
	}
	s.state = state
	s.text(line)
}

// contextLine handles a claimed heading, time or room line. A time or room
// printed between the title and the authors belongs to the talk being read;
// anywhere else it ends the current talk and applies to the next one.
func (s *scanner) contextLine(kind MatcherKind, next ParserState) {
	attach := s.cur != nil && s.cur.phase == phaseTitle &&
		(kind == KindTimeRange || kind == KindLocation)
	s.state = next
	if attach {
		s.cur.ctx = next
		return
	}
	s.close()
}

// blockLine handles a block-level match and reports whether it was used.
// Shape-based matches only apply where the block phase allows them.
func (s *scanner) blockLine(kind MatcherKind, out Outcome) bool {
	switch kind {
	case KindEntryMarker:
		s.close()
		if out.Text != "" {
			s.text(out.Text)
		}
		return true

	case KindTitleLabel:
		s.close()
		s.start()
		s.cur.title = appendText(s.cur.title, out.Text)
		return true

	case KindAbstractStart:
		if s.cur == nil || s.cur.phase == phaseAbstract {
			return false
		}
		if !out.Labeled && s.cur.phase == phaseTitle && !s.blank && s.cur.pending == "" {
			return false
		}
		s.cur.settle(s.cur.phase == phaseTitle)
		s.cur.phase = phaseAbstract
		s.cur.abstract = appendText(s.cur.abstract, out.Text)
		return true

	case KindAuthorBlock:
		if out.Labeled {
			if s.cur == nil || s.cur.phase == phaseAbstract {
				s.close()
				s.start()
			}
			s.cur.settle(false)
			s.cur.phase = phaseAuthors
			s.cur.authors = appendText(s.cur.authors, out.Text)
			return true
		}
		if s.cur == nil || s.cur.phase == phaseAbstract {
			return false
		}
		s.cur.settle(false)
		s.cur.phase = phaseAuthors
		s.cur.authors = appendText(s.cur.authors, out.Text)
		return true
	}
	return false
}

// text adds an unclaimed line to the block according to its phase.
func (s *scanner) text(line string) {
	if s.cur == nil {
		s.start()
		s.cur.title = append(s.cur.title, line)
		return
	}
	b := s.cur
	switch b.phase {
	case phaseTitle:
		if s.blank && len(b.title) > 0 {
			b.titleDone = true
		}
		switch {
		case !b.titleDone:
			b.settle(false)
			if len(b.title) > 0 && singleName(line) {
				b.pending = line
				return
			}
			b.title = append(b.title, line)
		case isSentence(line) && len(strings.Fields(line)) >= 12:
			b.settle(true)
			b.phase = phaseAbstract
			b.abstract = append(b.abstract, line)
		default:
			b.settle(false)
			b.phase = phaseAuthors
			b.authors = append(b.authors, line)
		}
	case phaseAuthors:
		if affiliationRe.MatchString(line) {
			return
		}
		if s.blank && isSentence(line) && !LooksLikeAuthors(line) {
			b.phase = phaseAbstract
			b.abstract = append(b.abstract, line)
			return
		}
		b.authors = append(b.authors, line)
	case phaseAbstract:
		b.abstract = append(b.abstract, line)
	}
}

func (s *scanner) start() {
	s.cur = &block{ctx: s.state, page: s.page}
}

// close finishes the current block, if any.
func (s *scanner) close() {
	b := s.cur
	s.cur = nil
	if b == nil {
		return
	}
	b.settle(false)
	title := joinLines(b.title)
	if title == "" {
		s.dropped++
		s.warnings = append(s.warnings, types.Warning{
			Kind:    types.WarnExtraction,
			Message: "block without a title dropped",
			Page:    b.page,
		})
		return
	}
	authors := ParseAuthors(joinLines(b.authors))
	abstract := joinLines(b.abstract)
	if len(authors) == 0 && abstract == "" {
		s.dropped++
		s.warnings = append(s.warnings, types.Warning{
			Kind:    types.WarnExtraction,
			Message: fmt.Sprintf("block %q without authors or abstract dropped", title),
			Page:    b.page,
		})
		return
	}

	location := b.ctx.Location
	if location == "" {
		location = types.DefaultLocation
	}
	talkType := b.ctx.Type
	if talkType == "" {
		talkType = types.TypeTalk
	}
	s.talks = append(s.talks, types.Talk{
		Title:       title,
		Authors:     authors,
		Abstract:    abstract,
		SessionName: b.ctx.Session,
		Day:         b.ctx.Day,
		TimeStart:   b.ctx.Time.Start,
		TimeEnd:     b.ctx.Time.End,
		TimeRaw:     b.ctx.Time.Raw,
		Type:        talkType,
		Location:    location,
		Page:        b.page,
	})
}

// isSentence reports whether line reads as prose: capitalized and either
// ending a sentence or long.
func isSentence(line string) bool {
	r := []rune(line)
	if len(r) == 0 || !isUpper(r[0]) {
		return false
	}
	return strings.HasSuffix(line, ".") || len(strings.Fields(line)) >= 8
}

func isUpper(r rune) bool {
	return strings.ToUpper(string(r)) == string(r) && strings.ToLower(string(r)) != string(r)
}

func appendText(lines []string, text string) []string {
	if text == "" {
		return lines
	}
	return append(lines, text)
}

// joinLines joins wrapped lines with spaces, rejoining words hyphenated at
// a line break.
func joinLines(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			prev := lines[i-1]
			r := []rune(l)
			if strings.HasSuffix(prev, "-") && len(r) > 0 && !isUpper(r[0]) && len(prev) > 1 && prev[len(prev)-2] != ' ' {
				s := b.String()
				b.Reset()
				b.WriteString(strings.TrimSuffix(s, "-"))
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(l)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeTitle case-folds a title and collapses its whitespace.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

var talkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/pdiddy/confplan/talk"))

// TalkID derives the stable id of a talk from its normalized title, day and
// time window.
func TalkID(title, day, start, end string) string {
	key := strings.Join([]string{NormalizeTitle(title), strings.ToLower(day), start, end}, "\x1f")
	return uuid.NewSHA1(talkNamespace, []byte(key)).String()
}

// assignIDs sets talk ids. Distinct talks that share title, day and time get
// a sequence number mixed into the key, in document order.
func assignIDs(talks []types.Talk) []types.Talk {
	seen := make(map[string]int)
	for i := range talks {
		t := &talks[i]
		id := TalkID(t.Title, t.Day, t.TimeStart, t.TimeEnd)
		if n := seen[id]; n > 0 {
			t.ID = TalkID(fmt.Sprintf("%s #%d", t.Title, n+1), t.Day, t.TimeStart, t.TimeEnd)
		} else {
			t.ID = id
		}
		seen[id]++
	}
	return talks
}

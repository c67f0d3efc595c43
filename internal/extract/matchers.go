// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/confplan/pkg/types"
)

// ParserState is the parsing context threaded through the scan. Matchers
// return an updated copy; nothing outside the scan holds it.
type ParserState struct {
	Day      string
	Session  string
	Type     types.TalkType
	Time     TimeSlot
	Location string
}

// TimeSlot is a time token as printed plus its parsed window. Start and End
// are empty when the token did not parse.
type TimeSlot struct {
	Raw   string
	Start string
	End   string
}

// Malformed reports whether a token was seen but did not parse.
func (t TimeSlot) Malformed() bool {
	return t.Raw != "" && (t.Start == "" || t.End == "")
}

// InitialState is the context before the first line: no day, no session,
// talks by default.
func InitialState() ParserState {
	return ParserState{Type: types.TypeTalk}
}

// MatcherKind tags each matcher variant.
type MatcherKind int

const (
	KindWeekdayHeading MatcherKind = iota
	KindTimeRange
	KindSessionHeading
	KindPosterHeading
	KindLocation
	KindEntryMarker
	KindTitleLabel
	KindAbstractStart
	KindAuthorBlock
)

var kindNames = map[MatcherKind]string{
	KindWeekdayHeading: "weekday_heading",
	KindTimeRange:      "time_range",
	KindSessionHeading: "session_heading",
	KindPosterHeading:  "poster_heading",
	KindLocation:       "location",
	KindEntryMarker:    "entry_marker",
	KindTitleLabel:     "title_label",
	KindAbstractStart:  "abstract_start",
	KindAuthorBlock:    "author_block",
}

func (k MatcherKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// context reports whether the kind updates the parsing context rather than
// the talk block being assembled.
func (k MatcherKind) context() bool {
	return k <= KindLocation
}

// Outcome is the result of a successful match.
type Outcome struct {
	// State is the context after the line.
	State ParserState

	// Claimed means the line is consumed and later matchers do not see it.
	Claimed bool

	// Text is what follows a recognized label or token on the same line.
	Text string

	// Labeled is set when the line carried an explicit label such as
	// "Authors:" rather than matching by shape.
	Labeled bool
}

// Matcher recognizes one kind of line. Match reports false to pass the line
// through unchanged.
type Matcher interface {
	Kind() MatcherKind
	Match(line string, state ParserState) (Outcome, bool)
}

// DefaultMatchers returns the matchers in the order they are applied.
func DefaultMatchers() []Matcher {
	return []Matcher{
		WeekdayHeading{},
		TimeRange{},
		SessionHeading{},
		PosterHeading{},
		LocationLine{},
		EntryMarker{},
		TitleLabel{},
		AbstractStart{},
		AuthorBlock{},
	}
}

// --- WeekdayHeading ---

var weekdayRe = regexp.MustCompile(`(?i)^(?:(?:sub)?session\s+time\s*:|time\s*:|date\s*:|day\s*:)?\s*((?:mon|tues|wednes|thurs|fri|satur|sun)day\b(?:,?\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?\b(?:,?\s+\d{4})?)?)(.*)$`)

// WeekdayHeading sets the day from "Wednesday" or "Wednesday, October 22"
// headings. A bare heading clears the time context and claims the line; a
// heading followed by a time token (as in "Subsession Time: Wednesday,
// October 22 at 9:00am - 9:15am") sets the day and passes the line on.
type WeekdayHeading struct{}

func (WeekdayHeading) Kind() MatcherKind { return KindWeekdayHeading }

func (WeekdayHeading) Match(line string, state ParserState) (Outcome, bool) {
	m := weekdayRe.FindStringSubmatch(line)
	if m == nil {
		return Outcome{}, false
	}
	day := normalizeDay(m[1])
	rest := strings.TrimSpace(m[2])
	next := state
	next.Day = day

	if rest == "" || rest == "," {
		next.Time = TimeSlot{}
		return Outcome{State: next, Claimed: true}, true
	}
	if timeTokenRe.MatchString(rest) {
		return Outcome{State: next}, true
	}
	return Outcome{}, false
}

func normalizeDay(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, ",.;: ")
	if strings.ToUpper(s) == s {
		s = titleCase(s)
	}
	return s
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// --- TimeRange ---

var (
	timeTokenRe = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(?:([ap])\.?m\.?)?\s*(?:-{1,2}|–|—|\bto\b)\s*(\d{1,2}):(\d{2})\s*(?:([ap])\.?m\.?)?`)

	// timePrefixRe accepts what may precede a time token on a schedule line.
	timePrefixRe = regexp.MustCompile(`(?i)(?:^|\s)at$|:$|^(?:(?:sub)?session\s+)?time$`)
)

// TimeRange sets the time window from "H:MMam - H:MMpm" tokens (en dash, em
// dash, hyphen or "to"). The am/pm marker may appear on the end time only;
// tokens without one are read as 24-hour times. A token that is recognized
// but does not parse yields a Malformed slot.
type TimeRange struct{}

func (TimeRange) Kind() MatcherKind { return KindTimeRange }

func (TimeRange) Match(line string, state ParserState) (Outcome, bool) {
	loc := timeTokenRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return Outcome{}, false
	}
	prefix := strings.TrimSpace(line[:loc[0]])
	if prefix != "" && (len(strings.Fields(prefix)) > 8 ||
		!timePrefixRe.MatchString(prefix) && !weekdayRe.MatchString(prefix)) {
		return Outcome{}, false
	}

	groups := make([]string, 7)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = line[loc[2*i]:loc[2*i+1]]
		}
	}
	next := state
	next.Time = ParseTimeSlot(groups)

	rest := strings.TrimLeft(line[loc[1]:], " \t|,;:-–—")
	return Outcome{State: next, Claimed: true, Text: strings.TrimSpace(rest)}, true
}

// ParseTimeSlot converts the submatches of a time token (full match, start
// hour, start minute, start period, end hour, end minute, end period) into a
// TimeSlot.
func ParseTimeSlot(m []string) TimeSlot {
	slot := TimeSlot{Raw: strings.Join(strings.Fields(m[0]), " ")}

	sh, _ := strconv.Atoi(m[1])
	sm, _ := strconv.Atoi(m[2])
	eh, _ := strconv.Atoi(m[4])
	em, _ := strconv.Atoi(m[5])
	sp := strings.ToLower(m[3])
	ep := strings.ToLower(m[6])

	startPeriod := sp
	if startPeriod == "" {
		startPeriod = ep
	}
	start, okStart := toMinutes(sh, sm, startPeriod)
	end, okEnd := toMinutes(eh, em, ep)
	if !okStart || !okEnd {
		return slot
	}
	// "11:30 - 12:15pm" crosses noon.
	if start > end && sp == "" && ep == "p" {
		if s, ok := toMinutes(sh, sm, "a"); ok && s <= end {
			start = s
		}
	}
	if start > end {
		return slot
	}
	slot.Start = formatMinutes(start)
	slot.End = formatMinutes(end)
	return slot
}

func toMinutes(h, m int, period string) (int, bool) {
	if m > 59 {
		return 0, false
	}
	switch period {
	case "a", "p":
		if h < 1 || h > 12 {
			return 0, false
		}
		h %= 12
		if period == "p" {
			h += 12
		}
	default:
		if h > 23 {
			return 0, false
		}
	}
	return h*60 + m, true
}

func formatMinutes(v int) string {
	return fmt.Sprintf("%02d:%02d", v/60, v%60)
}

// --- SessionHeading ---

var sessionRe = regexp.MustCompile(`(?i)^session\b\s*(?:[a-z]?\d+[a-z]?)?\s*[:.\-–—]\s*(.+)$`)

// SessionHeading sets the session from "Session: Name" or "Session 12: Name"
// headings. The talk type follows the session name; room and time reset.
type SessionHeading struct{}

func (SessionHeading) Kind() MatcherKind { return KindSessionHeading }

func (SessionHeading) Match(line string, state ParserState) (Outcome, bool) {
	m := sessionRe.FindStringSubmatch(line)
	if m == nil {
		return Outcome{}, false
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return Outcome{}, false
	}
	next := state
	next.Session = name
	next.Location = ""
	next.Time = TimeSlot{}
	next.Type = types.TypeTalk
	if strings.Contains(strings.ToLower(name), "poster") {
		next.Type = types.TypePoster
	}
	return Outcome{State: next, Claimed: true}, true
}

// --- PosterHeading ---

var (
	typeHeadingRe = regexp.MustCompile(`(?i)^(?:posters?|platform|oral|plenary|invited\s+talks|talks)\b(?:\s+(?:sessions?|presentations?|talks|abstracts))?(?:\s+[\w.-]+)?\s*(?::.*)?$`)
	typeWordRe    = regexp.MustCompile(`(?i)\b(posters?|platform|oral|plenary|talks)\b`)
)

// PosterHeading switches the talk type on short headings: "Poster" headings
// select posters, "Platform", "Oral", "Plenary" and "Talks" headings select
// talks.
type PosterHeading struct{}

func (PosterHeading) Kind() MatcherKind { return KindPosterHeading }

func (PosterHeading) Match(line string, state ParserState) (Outcome, bool) {
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > 6 || strings.HasSuffix(line, ".") {
		return Outcome{}, false
	}
	if !typeHeadingRe.MatchString(line) && !(allCaps(line) && typeWordRe.MatchString(line)) {
		return Outcome{}, false
	}
	next := state
	next.Time = TimeSlot{}
	next.Type = types.TypeTalk
	if strings.Contains(strings.ToLower(line), "poster") {
		next.Type = types.TypePoster
	}
	return Outcome{State: next, Claimed: true}, true
}

func allCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters > 1
}

// --- LocationLine ---

var locationRe = regexp.MustCompile(`(?i)^(?:location|room|venue)\s*:\s*(.+)$`)

// LocationLine sets the room from "Location: Room 201".
type LocationLine struct{}

func (LocationLine) Kind() MatcherKind { return KindLocation }

func (LocationLine) Match(line string, state ParserState) (Outcome, bool) {
	m := locationRe.FindStringSubmatch(line)
	if m == nil {
		return Outcome{}, false
	}
	next := state
	next.Location = strings.TrimSpace(m[1])
	return Outcome{State: next, Claimed: true}, true
}

// --- EntryMarker ---

var entryMarkerRe = regexp.MustCompile(`(?i)^(?:pgmnr|program\s+(?:nr|number)\.?|abstract\s*(?:#|no\.?|number))\s*:?\s*\d+\b[\s:.-]*(.*)$`)

// EntryMarker recognizes program numbers such as "PgmNr 123" that separate
// abstracts.
type EntryMarker struct{}

func (EntryMarker) Kind() MatcherKind { return KindEntryMarker }

func (EntryMarker) Match(line string, state ParserState) (Outcome, bool) {
	m := entryMarkerRe.FindStringSubmatch(line)
	if m == nil {
		return Outcome{}, false
	}
	return Outcome{State: state, Claimed: true, Text: strings.TrimSpace(m[1]), Labeled: true}, true
}

// --- TitleLabel ---

var titleLabelRe = regexp.MustCompile(`(?i)^title\s*:\s*(.*)$`)

// TitleLabel recognizes "Title:" lines, which always start a new talk.
type TitleLabel struct{}

func (TitleLabel) Kind() MatcherKind { return KindTitleLabel }

func (TitleLabel) Match(line string, state ParserState) (Outcome, bool) {
	m := titleLabelRe.FindStringSubmatch(line)
	if m == nil {
		return Outcome{}, false
	}
	return Outcome{State: state, Claimed: true, Text: strings.TrimSpace(m[1]), Labeled: true}, true
}

// --- AbstractStart ---

var (
	abstractLabelRe  = regexp.MustCompile(`(?i)^abstract\s*(?:[:.]\s*(.*))?$`)
	abstractMarkerRe = regexp.MustCompile(`^(?:Background|BACKGROUND|Introduction|INTRODUCTION|Objectives?|OBJECTIVES?|Purpose|PURPOSE|Summary|SUMMARY|Rationale|Aims?)\b\s*[:.]?`)
)

// AbstractStart recognizes the start of an abstract: an "Abstract:" label
// or a paragraph opening with Background, Introduction, Objective, Purpose,
// Summary, Rationale or Aim. Marker paragraphs keep the marker as text.
type AbstractStart struct{}

func (AbstractStart) Kind() MatcherKind { return KindAbstractStart }

func (AbstractStart) Match(line string, state ParserState) (Outcome, bool) {
	if m := abstractLabelRe.FindStringSubmatch(line); m != nil {
		return Outcome{State: state, Claimed: true, Text: strings.TrimSpace(m[1]), Labeled: true}, true
	}
	if abstractMarkerRe.MatchString(line) {
		return Outcome{State: state, Claimed: true, Text: line}, true
	}
	return Outcome{}, false
}

// --- AuthorBlock ---

var (
	authorLabelRe = regexp.MustCompile(`(?i)^authors?\s*:\s*(.*)$`)

	// footnotedNameRe matches a capitalized name with footnote markers
	// attached, as in "Doe1,2" or "Smith*".
	footnotedNameRe = regexp.MustCompile(`\p{Lu}[\p{Ll}'’-]+(?:\d+(?:,\d+)*|[*†‡§¹²³⁴⁵⁶⁷⁸⁹⁰]+)(?:[,;]|\s|$)`)

	nameParticles = map[string]bool{
		"van": true, "von": true, "de": true, "der": true, "den": true,
		"da": true, "di": true, "du": true, "la": true, "le": true, "del": true,
		"dos": true, "bin": true, "al": true, "ter": true,
	}
)

// AuthorBlock recognizes author lines: an "Authors:" label, names carrying
// footnote markers, or a list made only of capitalized names.
type AuthorBlock struct{}

func (AuthorBlock) Kind() MatcherKind { return KindAuthorBlock }

func (AuthorBlock) Match(line string, state ParserState) (Outcome, bool) {
	if m := authorLabelRe.FindStringSubmatch(line); m != nil {
		return Outcome{State: state, Claimed: true, Text: strings.TrimSpace(m[1]), Labeled: true}, true
	}
	if LooksLikeAuthors(line) {
		return Outcome{State: state, Claimed: true, Text: line}, true
	}
	return Outcome{}, false
}

// LooksLikeAuthors reports whether line reads as a list of person names.
func LooksLikeAuthors(line string) bool {
	words := strings.Fields(line)
	if len(words) == 0 {
		return false
	}
	marked := footnotedNameRe.FindAllStringIndex(line, -1)
	if len(marked) >= 2 {
		return true
	}
	if len(marked) == 1 && len(words) <= 6 && marked[0][1] == len(line) {
		return true
	}
	return looksLikeNameList(line)
}

func looksLikeNameList(line string) bool {
	if strings.HasSuffix(line, ".") && !initialRe.MatchString(lastWord(line)) {
		return false
	}
	segments := splitNames(stripParens(line))
	if len(segments) < 2 {
		return false
	}
	for _, seg := range segments {
		words := strings.Fields(seg)
		if len(words) < 2 || len(words) > 5 {
			return false
		}
		for _, w := range words {
			if !nameWord(w) {
				return false
			}
		}
	}
	return true
}

// singleName reports whether line is one person's name of two to five
// name words, as printed under a title for single-author talks.
func singleName(line string) bool {
	if strings.HasSuffix(line, ".") && !initialRe.MatchString(lastWord(line)) {
		return false
	}
	segments := splitNames(stripParens(line))
	if len(segments) != 1 {
		return false
	}
	words := strings.Fields(segments[0])
	if len(words) < 2 || len(words) > 5 {
		return false
	}
	for _, w := range words {
		if !nameWord(w) {
			return false
		}
	}
	return true
}

var initialRe = regexp.MustCompile(`^\p{Lu}\.(?:-?\p{Lu}\.)*$`)

func nameWord(w string) bool {
	w = strings.TrimRight(w, "0123456789*†‡§¹²³⁴⁵⁶⁷⁸⁹⁰")
	if w == "" {
		return false
	}
	if nameParticles[strings.ToLower(w)] || initialRe.MatchString(w) {
		return true
	}
	r := []rune(w)
	if !unicode.IsUpper(r[0]) {
		return false
	}
	for _, c := range r[1:] {
		if !unicode.IsLetter(c) && c != '-' && c != '\'' && c != '’' && c != '.' {
			return false
		}
	}
	return true
}

func lastWord(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the confplan pipeline:
// parsed talks, the research profile, scored talks, the generated schedule,
// pipeline warnings and per-stage configuration.
package types

import (
	"strings"
	"time"
)

// TalkType classifies a conference presentation.
type TalkType string

const (
	TypeTalk    TalkType = "talk"
	TypePoster  TalkType = "poster"
	TypeUnknown TalkType = "unknown"
)

// Label returns the display form of the type ("Talk", "Poster", "Unknown").
func (t TalkType) Label() string {
	switch t {
	case TypeTalk:
		return "Talk"
	case TypePoster:
		return "Poster"
	default:
		return "Unknown"
	}
}

// DefaultLocation is used when the abstract book does not name a room.
const DefaultLocation = "TBD"

// ClockLayout is the canonical layout of TimeStart and TimeEnd.
const ClockLayout = "15:04"

// Talk is one parsed conference presentation. Talks are created once per
// parse of the source document and never modified afterwards.
type Talk struct {
	// ID is derived from the normalized title, day and time window, so the
	// same document always yields the same IDs.
	ID string `json:"id" yaml:"id"`

	// Title may be truncated or garbled by extraction; it is kept as parsed.
	Title string `json:"title" yaml:"title"`

	// Authors lists unique author names in the order printed. The first
	// author is distinguished only for display.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the abstract text, empty when extraction failed.
	Abstract string `json:"abstract" yaml:"abstract"`

	// SessionName is the enclosing "Session:" heading, if any.
	SessionName string `json:"session_name,omitempty" yaml:"session_name,omitempty"`

	// Day is the weekday heading in effect (e.g. "Wednesday, October 22").
	Day string `json:"day,omitempty" yaml:"day,omitempty"`

	// TimeStart and TimeEnd use ClockLayout. Both are empty when the source
	// did not expose a time window or the printed window did not parse.
	TimeStart string `json:"time_start,omitempty" yaml:"time_start,omitempty"`
	TimeEnd   string `json:"time_end,omitempty" yaml:"time_end,omitempty"`

	// TimeRaw is the time token as printed in the document.
	TimeRaw string `json:"time_raw,omitempty" yaml:"time_raw,omitempty"`

	Type TalkType `json:"type" yaml:"type"`

	Location string `json:"location" yaml:"location"`

	// Page is the 1-based page on which the talk block starts.
	Page int `json:"page" yaml:"page"`
}

// Interval returns the talk window in minutes after midnight. ok is false
// when either bound is missing or unparseable.
func (t Talk) Interval() (start, end int, ok bool) {
	if t.TimeStart == "" || t.TimeEnd == "" {
		return 0, 0, false
	}
	s, err := time.Parse(ClockLayout, t.TimeStart)
	if err != nil {
		return 0, 0, false
	}
	e, err := time.Parse(ClockLayout, t.TimeEnd)
	if err != nil {
		return 0, 0, false
	}
	return s.Hour()*60 + s.Minute(), e.Hour()*60 + e.Minute(), true
}

// Schedulable reports whether the talk has a day and a complete time window
// and therefore takes part in conflict detection.
func (t Talk) Schedulable() bool {
	if t.Day == "" {
		return false
	}
	_, _, ok := t.Interval()
	return ok
}

// TimeMalformed reports whether a time token was printed for the talk but
// could not be parsed into a window.
func (t Talk) TimeMalformed() bool {
	return t.TimeRaw != "" && (t.TimeStart == "" || t.TimeEnd == "")
}

// SearchText is the text embedded for similarity search.
func (t Talk) SearchText() string {
	if t.Abstract == "" {
		return t.Title
	}
	return t.Title + "\n" + t.Abstract
}

// FirstAuthor returns the first listed author, or "".
func (t Talk) FirstAuthor() string {
	if len(t.Authors) == 0 {
		return ""
	}
	return t.Authors[0]
}

// FormatClock renders a ClockLayout value as "9:05am". Values that do not
// parse are returned unchanged.
func FormatClock(v string) string {
	c, err := time.Parse(ClockLayout, v)
	if err != nil {
		return v
	}
	return strings.ToLower(c.Format("3:04pm"))
}

// TimeWindow returns a display form of the talk window ("9:00am – 9:15am"),
// falling back to the raw token, or "" when no time is known.
func (t Talk) TimeWindow() string {
	if t.TimeStart != "" && t.TimeEnd != "" {
		return FormatClock(t.TimeStart) + " – " + FormatClock(t.TimeEnd)
	}
	return t.TimeRaw
}

// ScoredTalk is a Talk paired with its relevance to a ResearchProfile.
type ScoredTalk struct {
	Talk `yaml:",inline"`

	// Similarity is the base semantic similarity in [0,1].
	Similarity float64 `json:"similarity" yaml:"similarity"`

	// Score is the final relevance in [0,1] after the author boost.
	Score float64 `json:"score" yaml:"score"`

	// MatchedAuthors lists the talk authors that matched an author of interest.
	MatchedAuthors []string `json:"matched_authors,omitempty" yaml:"matched_authors,omitempty"`

	// ConflictSize is the member count of the conflict group containing this
	// talk, or 0 when it does not conflict with another selected talk.
	ConflictSize int `json:"conflict_size,omitempty" yaml:"conflict_size,omitempty"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule groups ranked talks into day and session buckets, finds
// conflict groups among talks with overlapping time windows, and renders the
// result as a Markdown document or a row export.
package schedule

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/confplan/pkg/types"
)

// Build partitions talks into ordered buckets and computes conflict groups.
// Talks are expected in rank order; that order breaks remaining ties.
func Build(talks []types.ScoredTalk) (types.Schedule, []types.Warning) {
	entries := make([]types.ScoredTalk, len(talks))
	copy(entries, talks)
	for i := range entries {
		entries[i].ConflictSize = 0
	}

	groups, warnings := conflicts(entries)

	b := newBucketer()
	for i, t := range entries {
		b.add(t, i)
	}

	var sched types.Schedule
	for _, bk := range b.ordered() {
		sortEntries(bk.entries, entries)
		out := types.ScheduleBucket{Name: bk.name, Kind: bk.kind}
		for _, idx := range bk.entries {
			out.Entries = append(out.Entries, entries[idx])
		}
		sched.Buckets = append(sched.Buckets, out)
	}

	dayRank := make(map[string]int)
	for i, bk := range sched.Buckets {
		if bk.Kind == types.BucketDay {
			dayRank[bk.Name] = i
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Day != groups[j].Day {
			return dayRank[groups[i].Day] < dayRank[groups[j].Day]
		}
		return groups[i].Start < groups[j].Start
	})
	sched.Conflicts = groups
	return sched, warnings
}

// conflicts sweeps each day's timed talks by start time. A talk joins the
// open group when it starts before the latest end seen in that group, which
// makes membership transitive. Sizes are written back into entries.
func conflicts(entries []types.ScoredTalk) ([]types.ConflictGroup, []types.Warning) {
	var warnings []types.Warning
	byDay := make(map[string][]int)
	var days []string

	for i, t := range entries {
		if !t.Schedulable() {
			continue
		}
		start, end, _ := t.Interval()
		if end <= start {
			warnings = append(warnings, types.Warning{
				Kind:    types.WarnDataQuality,
				Message: fmt.Sprintf("zero-length time window for %q; excluded from conflict detection", t.Title),
				TalkID:  t.ID,
				Page:    t.Page,
			})
			continue
		}
		if _, ok := byDay[t.Day]; !ok {
			days = append(days, t.Day)
		}
		byDay[t.Day] = append(byDay[t.Day], i)
	}

	var groups []types.ConflictGroup
	for _, day := range days {
		idx := byDay[day]
		sortEntries(idx, entries)

		var cur []int
		curEnd := -1
		flush := func() {
			if len(cur) >= 2 {
				groups = append(groups, makeGroup(day, cur, entries))
			}
			cur = nil
			curEnd = -1
		}
		for _, i := range idx {
			start, end, _ := entries[i].Interval()
			if len(cur) > 0 && start >= curEnd {
				flush()
			}
			cur = append(cur, i)
			if end > curEnd {
				curEnd = end
			}
		}
		flush()
	}
	return groups, warnings
}

func makeGroup(day string, members []int, entries []types.ScoredTalk) types.ConflictGroup {
	for _, i := range members {
		entries[i].ConflictSize = len(members)
	}
	g := types.ConflictGroup{Day: day}
	minStart, maxEnd := -1, -1
	for _, i := range members {
		s, e, _ := entries[i].Interval()
		if minStart < 0 || s < minStart {
			minStart = s
			g.Start = entries[i].TimeStart
		}
		if e > maxEnd {
			maxEnd = e
			g.End = entries[i].TimeEnd
		}
		g.Members = append(g.Members, entries[i])
	}
	return g
}

// sortEntries orders indexes into entries by start time (missing last), then
// score descending, then input position.
func sortEntries(idx []int, entries []types.ScoredTalk) {
	sort.SliceStable(idx, func(a, b int) bool {
		ta, tb := entries[idx[a]], entries[idx[b]]
		sa, _, oka := ta.Interval()
		sb, _, okb := tb.Interval()
		if oka != okb {
			return oka
		}
		if oka && sa != sb {
			return sa < sb
		}
		if ta.Score != tb.Score {
			return ta.Score > tb.Score
		}
		return idx[a] < idx[b]
	})
}

type bucket struct {
	name    string
	kind    types.BucketKind
	first   int
	entries []int
}

type bucketer struct {
	byKey map[string]*bucket
	list  []*bucket
}

func newBucketer() *bucketer {
	return &bucketer{byKey: make(map[string]*bucket)}
}

// add places a talk. A talk with a day and no malformed time token goes
// under its day; otherwise under its session, or Unscheduled.
func (b *bucketer) add(t types.ScoredTalk, pos int) {
	name, kind := types.UnscheduledBucket, types.BucketUnscheduled
	switch {
	case t.TimeMalformed():
	case t.Day != "":
		name, kind = t.Day, types.BucketDay
	case t.SessionName != "":
		name, kind = t.SessionName, types.BucketSession
	}
	key := string(kind) + "\x00" + name
	bk, ok := b.byKey[key]
	if !ok {
		bk = &bucket{name: name, kind: kind, first: pos}
		b.byKey[key] = bk
		b.list = append(b.list, bk)
	}
	bk.entries = append(bk.entries, pos)
}

// ordered returns dated day buckets by date, weekday-only day buckets by
// weekday, other day buckets, session buckets and finally Unscheduled.
func (b *bucketer) ordered() []*bucket {
	out := make([]*bucket, len(b.list))
	copy(out, b.list)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := bucketRank(out[i]), bucketRank(out[j])
		if ri.class != rj.class {
			return ri.class < rj.class
		}
		if ri.key != rj.key {
			return ri.key < rj.key
		}
		return out[i].first < out[j].first
	})
	return out
}

type rank struct {
	class int
	key   int
}

func bucketRank(bk *bucket) rank {
	switch bk.kind {
	case types.BucketUnscheduled:
		return rank{class: 5}
	case types.BucketSession:
		return rank{class: 4}
	}
	if month, day, ok := DayDate(bk.name); ok {
		return rank{class: 1, key: month*100 + day}
	}
	if wd, ok := weekdayOf(bk.name); ok {
		return rank{class: 2, key: wd}
	}
	return rank{class: 3}
}

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var (
	monthDayRe = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sept?|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})\b`)
	dayMonthRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(jan|feb|mar|apr|may|jun|jul|aug|sept?|oct|nov|dec)[a-z]*\b`)
)

// DayDate extracts a month and day of month from a day heading such as
// "Wednesday, October 22" or "22 Oct".
func DayDate(name string) (month, day int, ok bool) {
	if m := monthDayRe.FindStringSubmatch(name); m != nil {
		month = months[strings.ToLower(m[1])[:3]]
		day, _ = strconv.Atoi(m[2])
	} else if m := dayMonthRe.FindStringSubmatch(name); m != nil {
		day, _ = strconv.Atoi(m[1])
		month = months[strings.ToLower(m[2])[:3]]
	}
	if month == 0 || day < 1 || day > 31 {
		return 0, 0, false
	}
	return month, day, true
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// weekdayOf returns 0 for Monday through 6 for Sunday. Full names and
// three-letter abbreviations are recognized.
func weekdayOf(name string) (int, bool) {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r < 'a' || r > 'z'
	})
	for _, f := range fields {
		for i, w := range weekdays {
			if f == w || f == w[:3] {
				return i, true
			}
		}
	}
	return 0, false
}

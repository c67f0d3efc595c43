// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pdiddy/confplan/pkg/types"
)

// dedupe folds talks with the same normalized title and overlapping authors
// (or no authors on either side) into the first occurrence. It returns the
// surviving talks in first-occurrence order and the number merged away.
func dedupe(talks []types.Talk) ([]types.Talk, int) {
	var out []types.Talk
	byTitle := make(map[string][]int)
	merged := 0

	for _, t := range talks {
		key := NormalizeTitle(t.Title)
		target := -1
		for _, i := range byTitle[key] {
			if authorsOverlap(out[i].Authors, t.Authors) {
				target = i
				break
			}
		}
		if target < 0 {
			byTitle[key] = append(byTitle[key], len(out))
			out = append(out, t)
			continue
		}
		out[target] = mergeTalk(out[target], t)
		merged++
	}
	return out, merged
}

func authorsOverlap(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	names := make(map[string]bool, len(a))
	for _, n := range a {
		names[strings.ToLower(n)] = true
	}
	for _, n := range b {
		if names[strings.ToLower(n)] {
			return true
		}
	}
	return false
}

// mergeTalk keeps the longer abstract and fills fields missing from first.
func mergeTalk(first, dup types.Talk) types.Talk {
	if len(dup.Abstract) > len(first.Abstract) {
		first.Abstract = dup.Abstract
	}
	if first.Day == "" {
		first.Day = dup.Day
	}
	if first.TimeRaw == "" || (first.TimeStart == "" && dup.TimeStart != "") {
		first.TimeStart, first.TimeEnd, first.TimeRaw = dup.TimeStart, dup.TimeEnd, dup.TimeRaw
	}
	if first.SessionName == "" {
		first.SessionName = dup.SessionName
	}
	if first.Location == "" || first.Location == types.DefaultLocation {
		first.Location = dup.Location
	}
	return first
}

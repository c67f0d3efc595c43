// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"
)

// degrees are trimmed from author names; keys are lower-case without dots.
var degrees = map[string]bool{
	"md": true, "phd": true, "msc": true, "ms": true, "mph": true,
	"bsc": true, "bs": true, "dphil": true, "drph": true, "pharmd": true,
	"rn": true, "mba": true, "dds": true, "facmg": true,
}

// institutionWords mark affiliation fragments left outside parentheses.
var institutionWords = []string{
	"university", "universit", "institute", "institut", "hospital", "center",
	"centre", "college", "school", "department", "dept", "laboratory",
	"laboratories", "foundation", "clinic", "inc.", "llc", "ltd", "corporation",
	"consortium", "program", "division", "faculty", "medical",
}

var (
	footnoteRe  = regexp.MustCompile(`[0-9*†‡§¹²³⁴⁵⁶⁷⁸⁹⁰#]+`)
	nameSplitRe = regexp.MustCompile(`\s*(?:[,;&]|\band\b)\s*`)
)

// ParseAuthors turns an author list as printed into unique names in listed
// order. Parenthesized affiliations, footnote markers and degree suffixes are
// removed; institution fragments and single characters are dropped.
func ParseAuthors(text string) []string {
	names := []string{}
	seen := make(map[string]bool)
	for _, seg := range splitNames(stripParens(text)) {
		name := cleanName(seg)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// stripParens removes text inside (), [] and {} at any depth. Unbalanced
// closers are dropped.
func stripParens(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
			continue
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitNames(s string) []string {
	var out []string
	for _, part := range nameSplitRe.Split(s, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func cleanName(seg string) string {
	seg = footnoteRe.ReplaceAllString(seg, " ")
	var words []string
	for _, w := range strings.Fields(seg) {
		if degrees[strings.ToLower(strings.ReplaceAll(w, ".", ""))] {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 || len(words) > 6 {
		return ""
	}
	name := strings.Trim(strings.Join(words, " "), " ,;:-")
	if len([]rune(name)) < 2 {
		return ""
	}
	lower := strings.ToLower(name)
	for _, inst := range institutionWords {
		if strings.Contains(lower, inst) {
			return ""
		}
	}
	return name
}

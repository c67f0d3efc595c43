// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// ResearchProfile holds the criteria talks are matched against.
type ResearchProfile struct {
	// Interests are free-text interest statements in the order written.
	Interests []string `json:"interests" yaml:"interests"`

	// Exclusions are topics whose presence in a title or abstract drops a talk.
	Exclusions []string `json:"exclusions,omitempty" yaml:"exclusions,omitempty"`

	// AuthorsOfInterest keep their case for display; matching ignores case.
	AuthorsOfInterest []string `json:"authors_of_interest,omitempty" yaml:"authors_of_interest,omitempty"`

	// ThesisPath points at an unpublished-work document, as written in the
	// profile file.
	ThesisPath string `json:"thesis_path,omitempty" yaml:"thesis_path,omitempty"`

	// ThesisExcerpt is the first words of the thesis document. It counts
	// double relative to Interests when building the profile vector.
	ThesisExcerpt string `json:"thesis_excerpt,omitempty" yaml:"thesis_excerpt,omitempty"`
}

// Incomplete reports whether the profile has neither interests nor a thesis
// excerpt, leaving only author matching to rank talks.
func (p ResearchProfile) Incomplete() bool {
	for _, i := range p.Interests {
		if strings.TrimSpace(i) != "" {
			return false
		}
	}
	return strings.TrimSpace(p.ThesisExcerpt) == ""
}

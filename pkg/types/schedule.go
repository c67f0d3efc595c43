// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// BucketKind tells how a schedule bucket was keyed.
type BucketKind string

const (
	BucketDay         BucketKind = "day"
	BucketSession     BucketKind = "session"
	BucketUnscheduled BucketKind = "unscheduled"
)

// UnscheduledBucket names the bucket for talks with neither a usable time
// window nor a session.
const UnscheduledBucket = "Unscheduled"

// ScheduleBucket is one heading of the generated schedule: a conference day
// or, for talks without a usable time window, a session name.
type ScheduleBucket struct {
	Name    string       `json:"name" yaml:"name"`
	Kind    BucketKind   `json:"kind" yaml:"kind"`
	Entries []ScoredTalk `json:"entries" yaml:"entries"`
}

// ConflictGroup is a maximal set of selected talks on one day whose time
// windows overlap directly or through a chain of overlaps.
type ConflictGroup struct {
	Day string `json:"day" yaml:"day"`

	// Start and End bound the union of the members' windows (ClockLayout).
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`

	// Members are ordered by start time, then by score descending.
	Members []ScoredTalk `json:"members" yaml:"members"`
}

// Schedule is the pipeline output: ordered buckets plus every conflict group
// with two or more members.
type Schedule struct {
	Buckets   []ScheduleBucket `json:"buckets" yaml:"buckets"`
	Conflicts []ConflictGroup  `json:"conflicts" yaml:"conflicts"`
}

// Len returns the number of talks across all buckets.
func (s Schedule) Len() int {
	n := 0
	for _, b := range s.Buckets {
		n += len(b.Entries)
	}
	return n
}

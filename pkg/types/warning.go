// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// WarningKind classifies a recoverable pipeline condition.
type WarningKind string

const (
	// WarnExtraction marks a page or block that failed to parse.
	WarnExtraction WarningKind = "extraction"

	// WarnMalformedTime marks a time token that did not parse; the talk is
	// kept but not scheduled.
	WarnMalformedTime WarningKind = "malformed_time_range"

	// WarnProfileIncomplete marks a run ranked by author matching only.
	WarnProfileIncomplete WarningKind = "profile_incomplete"

	// WarnDataQuality marks suspicious but usable data, such as a
	// zero-length time window.
	WarnDataQuality WarningKind = "data_quality"

	// WarnConfig marks profile or configuration entries that were ignored.
	WarnConfig WarningKind = "config"

	// WarnCache marks a cache that could not be read or written.
	WarnCache WarningKind = "cache"
)

// Warning is a recoverable condition reported alongside a successful result.
type Warning struct {
	Kind    WarningKind `json:"kind" yaml:"kind"`
	Message string      `json:"message" yaml:"message"`
	TalkID  string      `json:"talk_id,omitempty" yaml:"talk_id,omitempty"`
	Page    int         `json:"page,omitempty" yaml:"page,omitempty"`
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("%s: %s (page %d)", w.Kind, w.Message, w.Page)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// Warnf builds a Warning with a formatted message.
func Warnf(kind WarningKind, format string, args ...any) Warning {
	return Warning{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/confplan/pkg/types"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Row is one flattened schedule entry for spreadsheet import.
type Row struct {
	Day       string  `json:"day" yaml:"day"`
	Time      string  `json:"time" yaml:"time"`
	Title     string  `json:"title" yaml:"title"`
	Type      string  `json:"type" yaml:"type"`
	Relevance float64 `json:"relevance" yaml:"relevance"`
	Authors   string  `json:"authors" yaml:"authors"`
	Location  string  `json:"location" yaml:"location"`
	Session   string  `json:"session,omitempty" yaml:"session,omitempty"`
	Conflict  int     `json:"conflict" yaml:"conflict"`
	Abstract  string  `json:"abstract,omitempty" yaml:"abstract,omitempty"`
}

// Rows flattens the schedule in bucket order. Day holds the bucket name.
func Rows(sched types.Schedule) []Row {
	var rows []Row
	for _, bk := range sched.Buckets {
		for _, t := range bk.Entries {
			rows = append(rows, Row{
				Day:       bk.Name,
				Time:      t.TimeWindow(),
				Title:     t.Title,
				Type:      t.Type.Label(),
				Relevance: t.Score,
				Authors:   strings.Join(t.Authors, "; "),
				Location:  location(t.Talk),
				Session:   t.SessionName,
				Conflict:  t.ConflictSize,
				Abstract:  t.Abstract,
			})
		}
	}
	return rows
}

// Export writes the schedule rows to w as YAML or JSON.
func Export(w io.Writer, sched types.Schedule, format string) error {
	rows := Rows(sched)
	if rows == nil {
		rows = []Row{}
	}
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format %q (want yaml or json)", format)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/confplan/pkg/types"
)

// NativeSource reads PDFs with github.com/ledongthuc/pdf. Text is
// reassembled row by row so line-oriented parsing keeps working.
type NativeSource struct{}

func (NativeSource) Name() string { return "native" }

func (NativeSource) Pages(ctx context.Context, path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	var doc Document
	n := r.NumPage()
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}
		text, err := pageText(r.Page(i))
		if err != nil {
			doc.Warnings = append(doc.Warnings, types.Warning{
				Kind:    types.WarnExtraction,
				Message: fmt.Sprintf("page text: %v", err),
				Page:    i,
			})
		}
		doc.Pages = append(doc.Pages, text)
	}
	return doc, nil
}

// pageText returns the rows of a page top to bottom. The reader panics on
// some malformed content streams; that is reported as an error.
func pageText(p pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed page content: %v", r)
		}
	}()
	if p.V.IsNull() {
		return "", nil
	}
	rows, err := p.GetTextByRow()
	if err != nil || len(rows) == 0 {
		return p.GetPlainText(nil)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position > rows[j].Position })

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(joinRow(row.Content))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// joinRow concatenates text runs left to right, inserting a space where the
// gap between runs is wider than a fraction of the font size.
func joinRow(runs []pdf.Text) string {
	sorted := make([]pdf.Text, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var b strings.Builder
	for i, t := range sorted {
		if i > 0 {
			prev := sorted[i-1]
			gap := t.X - (prev.X + prev.W)
			if gap > 0.2*t.FontSize && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}
	return strings.TrimRight(b.String(), " ")
}

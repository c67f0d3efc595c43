// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext turns an abstract book into page text. Three sources are
// available: a pure-Go PDF reader, pdftotext run in a container, and
// pre-extracted text files with form feed page breaks.
package pdftext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/confplan/pkg/types"
)

// Document is the page text of one source file. Pages that failed to
// extract are present as empty strings with a matching warning.
type Document struct {
	Pages    []string
	Warnings []types.Warning
}

// Text joins the pages with form feeds.
func (d Document) Text() string {
	return strings.Join(d.Pages, "\f")
}

// Source produces page text for a file.
type Source interface {
	Name() string
	Pages(ctx context.Context, path string) (Document, error)
}

// ForPath picks TextSource for .txt files and the configured backend for
// everything else.
func ForPath(path string, cfg types.ExtractionConfig) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return TextSource{}, nil
	}
	return New(cfg)
}

// New returns the PDF source selected by cfg.Backend.
func New(cfg types.ExtractionConfig) (Source, error) {
	switch cfg.Backend {
	case "", types.BackendNative:
		return NativeSource{}, nil
	case types.BackendContainer:
		return &ContainerSource{Image: cfg.ContainerImage}, nil
	default:
		return nil, fmt.Errorf("unknown extraction backend %q (want %s or %s)", cfg.Backend, types.BackendNative, types.BackendContainer)
	}
}

// TextSource reads pre-extracted text where pages are separated by form
// feeds, as written by pdftotext.
type TextSource struct{}

func (TextSource) Name() string { return "text" }

func (TextSource) Pages(_ context.Context, path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Document{Pages: SplitPages(string(data))}, nil
}

// SplitPages splits text on form feeds. A trailing form feed does not start
// an extra page.
func SplitPages(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns talk and profile text into vectors. The Ollama
// embedder calls a local or remote embedding service; the hash embedder is
// deterministic and offline.
package embed

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/confplan/pkg/types"
)

// Embedder maps texts to vectors, one per text in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model names the model; vectors from different models are not
	// comparable.
	Model() string
}

// New returns the embedder selected by cfg.Backend.
func New(cfg types.EmbeddingConfig) (Embedder, error) {
	switch cfg.Backend {
	case types.EmbedderOllama, "":
		return NewOllama(cfg), nil
	case types.EmbedderHash:
		return NewHash(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q (want %s or %s)", cfg.Backend, types.EmbedderOllama, types.EmbedderHash)
	}
}

// ProfileText builds the text embedded for a research profile: the
// interests one per line, then the thesis excerpt twice so it weighs double
// against interests of equal length.
func ProfileText(p types.ResearchProfile) string {
	var parts []string
	for _, i := range p.Interests {
		if s := strings.TrimSpace(i); s != "" {
			parts = append(parts, s)
		}
	}
	if thesis := strings.TrimSpace(p.ThesisExcerpt); thesis != "" {
		parts = append(parts, thesis, thesis)
	}
	return strings.Join(parts, "\n")
}

// matchDimension truncates or zero-pads v to target; target <= 0 keeps v.
func matchDimension(v []float32, target int) []float32 {
	if target <= 0 || len(v) == target {
		return v
	}
	if len(v) > target {
		return v[:target]
	}
	out := make([]float32, target)
	copy(out, v)
	return out
}

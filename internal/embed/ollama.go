// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/confplan/internal/httputil"
	"github.com/pdiddy/confplan/pkg/types"
)

// OllamaEmbedder calls the Ollama /api/embed endpoint in batches.
type OllamaEmbedder struct {
	BaseURL    string
	APIKey     string
	Dimension  int
	BatchSize  int
	MaxRetries int
	Client     *http.Client

	model string
}

// NewOllama returns an embedder configured from cfg with defaults applied.
func NewOllama(cfg types.EmbeddingConfig) *OllamaEmbedder {
	cfg = types.PlannerConfig{Embedding: cfg}.WithDefaults().Embedding
	return &OllamaEmbedder{
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:     cfg.APIKey,
		Dimension:  cfg.Dimension,
		BatchSize:  cfg.BatchSize,
		MaxRetries: cfg.MaxRetries,
		Client:     &http.Client{Timeout: cfg.Timeout},
		model:      cfg.Model,
	}
}

// Model returns the embedding model name.
func (o *OllamaEmbedder) Model() string { return o.model }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Embed returns one vector per text. Throttled responses (429, 503) are
// retried; any other failure aborts the whole call.
func (o *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	size := o.BatchSize
	if size <= 0 {
		size = types.DefaultBatchSize
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		vecs, err := o.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (o *OllamaEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	payload, err := json.Marshal(embedRequest{Model: o.model, Input: batch})
	if err != nil {
		return nil, fmt.Errorf("encoding embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.APIKey)
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, o.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", o.BaseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("reading embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, snippet(body))
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("embedding service: %s", parsed.Error)
	}
	if len(parsed.Embeddings) != len(batch) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs", len(parsed.Embeddings), len(batch))
	}
	for i, v := range parsed.Embeddings {
		if len(v) == 0 {
			return nil, fmt.Errorf("embedding service returned an empty vector for input %d", i)
		}
		parsed.Embeddings[i] = matchDimension(v, o.Dimension)
	}
	return parsed.Embeddings, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

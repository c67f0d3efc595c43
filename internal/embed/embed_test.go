// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/confplan/internal/httputil"
	"github.com/pdiddy/confplan/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

// fakeOllama answers /api/embed with vectors whose first component is the
// input length.
func fakeOllama(t *testing.T, status func(call int32) int) (*httptest.Server, *int32, *[]embedRequest) {
	t.Helper()
	var calls int32
	var reqs []embedRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req embedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		reqs = append(reqs, req)

		if s := status(n); s != http.StatusOK {
			w.WriteHeader(s)
			_, _ = w.Write([]byte(`{"error":"busy"}`))
			return
		}
		resp := embedResponse{}
		for _, in := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(len(in)), 1, 0, 0})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)
	return ts, &calls, &reqs
}

func ok(int32) int { return http.StatusOK }

func TestOllamaEmbedBatches(t *testing.T) {
	ts, calls, reqs := fakeOllama(t, ok)

	e := NewOllama(types.EmbeddingConfig{BaseURL: ts.URL + "/", Model: "nomic-embed-text", BatchSize: 2})
	vecs, err := e.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)

	require.Len(t, vecs, 3)
	assert.Equal(t, float32(1), vecs[0][0])
	assert.Equal(t, float32(2), vecs[1][0])
	assert.Equal(t, float32(3), vecs[2][0])
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	assert.Equal(t, []string{"a", "bb"}, (*reqs)[0].Input)
	assert.Equal(t, "nomic-embed-text", (*reqs)[0].Model)
	assert.Equal(t, "nomic-embed-text", e.Model())
}

func TestOllamaEmbedDimension(t *testing.T) {
	ts, _, _ := fakeOllama(t, ok)

	e := NewOllama(types.EmbeddingConfig{BaseURL: ts.URL, Dimension: 2})
	vecs, err := e.Embed(context.Background(), []string{"abc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{3, 1}}, vecs)

	e.Dimension = 6
	vecs, err = e.Embed(context.Background(), []string{"abc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{3, 1, 0, 0, 0, 0}}, vecs)
}

func TestOllamaEmbedRetriesThrottling(t *testing.T) {
	ts, calls, _ := fakeOllama(t, func(n int32) int {
		if n == 1 {
			return http.StatusServiceUnavailable
		}
		return http.StatusOK
	})

	e := NewOllama(types.EmbeddingConfig{BaseURL: ts.URL})
	vecs, err := e.Embed(context.Background(), []string{"abc"})
	require.NoError(t, err)
	assert.Len(t, vecs, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestOllamaEmbedErrors(t *testing.T) {
	ts, _, _ := fakeOllama(t, func(int32) int { return http.StatusInternalServerError })

	e := NewOllama(types.EmbeddingConfig{BaseURL: ts.URL})
	_, err := e.Embed(context.Background(), []string{"abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	short := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,2]]}`))
	}))
	defer short.Close()
	e = NewOllama(types.EmbeddingConfig{BaseURL: short.URL})
	_, err = e.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 vectors for 2 inputs")
}

func TestOllamaSendsAPIKey(t *testing.T) {
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"embeddings":[[1]]}`))
	}))
	defer ts.Close()

	e := NewOllama(types.EmbeddingConfig{BaseURL: ts.URL, APIKey: "secret"})
	_, err := e.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
}

func TestOllamaEmbedEmptyInput(t *testing.T) {
	e := NewOllama(types.EmbeddingConfig{BaseURL: "http://127.0.0.1:1"})
	vecs, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / math.Sqrt(na*nb)
}

func TestHashEmbedder(t *testing.T) {
	e := NewHash(0)
	assert.Equal(t, "hash-256", e.Model())

	vecs, err := e.Embed(context.Background(), []string{
		"CRISPR screens",
		"CRISPR screen in T cells",
		"Seismic imaging of volcanic plumbing",
		"",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 4)
	assert.Len(t, vecs[0], DefaultHashDimension)

	again, err := e.Embed(context.Background(), []string{"CRISPR screens"})
	require.NoError(t, err)
	assert.Equal(t, vecs[0], again[0], "deterministic")

	assert.InDelta(t, 1.0, cosine(vecs[0], vecs[0]), 1e-6)
	assert.Greater(t, cosine(vecs[0], vecs[1]), cosine(vecs[0], vecs[2]))
	assert.Equal(t, make([]float32, DefaultHashDimension), vecs[3], "empty text is the zero vector")
}

func TestHashEmbedderHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHash(8).Embed(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProfileText(t *testing.T) {
	tests := []struct {
		name    string
		profile types.ResearchProfile
		want    string
	}{
		{
			name:    "interests only",
			profile: types.ResearchProfile{Interests: []string{"CRISPR screens", " ", "fine-mapping"}},
			want:    "CRISPR screens\nfine-mapping",
		},
		{
			name:    "thesis counts twice",
			profile: types.ResearchProfile{Interests: []string{"CRISPR screens"}, ThesisExcerpt: "T cell regulators"},
			want:    "CRISPR screens\nT cell regulators\nT cell regulators",
		},
		{
			name: "empty profile",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProfileText(tt.profile))
		})
	}
}

func TestNew(t *testing.T) {
	e, err := New(types.EmbeddingConfig{Backend: types.EmbedderHash, Dimension: 32})
	require.NoError(t, err)
	assert.Equal(t, "hash-32", e.Model())

	e, err = New(types.EmbeddingConfig{})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, e)

	_, err = New(types.EmbeddingConfig{Backend: "word2vec"})
	assert.Error(t, err)
}

package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/confplan/internal/planner"
	"github.com/pdiddy/confplan/pkg/types"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults()
	t.Cleanup(viper.Reset)
}

func TestPlannerConfigDefaults(t *testing.T) {
	resetViper(t)

	cfg := plannerConfig()
	assert.Equal(t, types.DefaultConference, cfg.Conference)
	assert.Equal(t, types.DefaultIndexTimeout, cfg.IndexTimeout)
	assert.Equal(t, types.BackendNative, cfg.Extraction.Backend)
	assert.Equal(t, types.DefaultEmbeddingModel, cfg.Embedding.Model)
	assert.Equal(t, types.DefaultAuthorBoost, cfg.Scoring.AuthorBoost)
	assert.Equal(t, types.DefaultExcerptChars, cfg.Schedule.ExcerptChars)
	assert.Equal(t, types.DefaultThesisWords, cfg.Profile.ThesisWords)
}

func TestPlannerConfigOverrides(t *testing.T) {
	resetViper(t)
	viper.Set("conference", "ashg2025")
	viper.Set("index_timeout", "30s")
	viper.Set("scoring.top_k", 25)
	viper.Set("scoring.min_relevance", 0.4)
	viper.Set("extraction.backend", "container")

	cfg := plannerConfig()
	assert.Equal(t, "ashg2025", cfg.Conference)
	assert.Equal(t, 30*time.Second, cfg.IndexTimeout)
	assert.Equal(t, 25, cfg.Scoring.TopK)
	assert.InDelta(t, 0.4, cfg.Scoring.MinRelevance, 1e-9)
	assert.Equal(t, types.BackendContainer, cfg.Extraction.Backend)
}

func TestPlannerConfigAPIKeyFromSecrets(t *testing.T) {
	resetViper(t)
	saved := loadedSecrets
	t.Cleanup(func() { loadedSecrets = saved })

	loadedSecrets = map[string]string{"embedding-api-key": "from-secrets"}
	assert.Equal(t, "from-secrets", plannerConfig().Embedding.APIKey)

	viper.Set("embedding.api_key", "from-config")
	assert.Equal(t, "from-config", plannerConfig().Embedding.APIKey)
}

func TestClip(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a much longer title", 10, "a much ..."},
		{"ééééééé", 6, "ééé..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clip(tt.in, tt.n), tt.in)
	}
}

func TestPlanSummary(t *testing.T) {
	res := planner.Result{
		TalksParsed:    4,
		TalksScheduled: 3,
		Mode:           planner.ModeSemantic,
		Warnings: []types.Warning{
			{Kind: types.WarnDataQuality, Message: "zero-length", TalkID: "t1", Page: 2},
		},
	}
	out := planSummary(res)
	assert.Equal(t, 4, out.TalksParsed)
	assert.Equal(t, planner.ModeSemantic, out.Mode)
	if assert.Len(t, out.Warnings, 1) {
		assert.Equal(t, "data_quality", out.Warnings[0].Kind)
		assert.Equal(t, 2, out.Warnings[0].Page)
	}

	empty := planSummary(planner.Result{})
	assert.NotNil(t, empty.Warnings, "warnings encode as [] rather than null")
}

package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/confplan/internal/secrets"
	"github.com/pdiddy/confplan/pkg/types"
)

// bindFlag ties a config key to a flag so that an explicit flag beats the
// environment, which beats the config file.
func bindFlag(key string, f *pflag.Flag) {
	if f == nil {
		panic("no flag for config key " + key)
	}
	_ = viper.BindPFlag(key, f)
}

func setDefaults() {
	viper.SetDefault("conference", types.DefaultConference)
	viper.SetDefault("cache_dir", types.DefaultCacheDir)
	viper.SetDefault("index_dir", types.DefaultIndexDir)
	viper.SetDefault("output_dir", types.DefaultOutputDir)
	viper.SetDefault("index_timeout", types.DefaultIndexTimeout)
	viper.SetDefault("extraction.backend", string(types.BackendNative))
	viper.SetDefault("extraction.container_image", types.DefaultContainerImage)
	viper.SetDefault("embedding.backend", string(types.EmbedderOllama))
	viper.SetDefault("embedding.model", types.DefaultEmbeddingModel)
	viper.SetDefault("embedding.base_url", types.DefaultEmbeddingURL)
	viper.SetDefault("embedding.batch_size", types.DefaultBatchSize)
	viper.SetDefault("embedding.timeout", types.DefaultEmbedTimeout)
	viper.SetDefault("embedding.max_retries", types.DefaultMaxRetries)
	viper.SetDefault("scoring.author_boost", types.DefaultAuthorBoost)
	viper.SetDefault("scoring.fetch_multiplier", types.DefaultFetchMultiplier)
	viper.SetDefault("scoring.min_author_length", types.DefaultMinAuthorLength)
	viper.SetDefault("schedule.excerpt_chars", types.DefaultExcerptChars)
	viper.SetDefault("schedule.preview_chars", types.DefaultPreviewChars)
	viper.SetDefault("profile.thesis_words", types.DefaultThesisWords)
	viper.SetDefault("log.mode", "quiet")
}

// plannerConfig assembles the pipeline configuration from viper. The
// embedding API key falls back to the embedding-api-key secret.
func plannerConfig() types.PlannerConfig {
	cfg := types.PlannerConfig{
		Conference:   viper.GetString("conference"),
		CacheDir:     viper.GetString("cache_dir"),
		IndexDir:     viper.GetString("index_dir"),
		OutputDir:    viper.GetString("output_dir"),
		IndexTimeout: viper.GetDuration("index_timeout"),
		Extraction: types.ExtractionConfig{
			Backend:        types.ExtractionBackend(viper.GetString("extraction.backend")),
			ContainerImage: viper.GetString("extraction.container_image"),
			Version:        viper.GetString("extraction.version"),
		},
		Embedding: types.EmbeddingConfig{
			Backend:    types.EmbeddingBackend(viper.GetString("embedding.backend")),
			Model:      viper.GetString("embedding.model"),
			BaseURL:    viper.GetString("embedding.base_url"),
			APIKey:     secretDefault(secrets.EmbeddingAPIKey, viper.GetString("embedding.api_key")),
			Dimension:  viper.GetInt("embedding.dimension"),
			BatchSize:  viper.GetInt("embedding.batch_size"),
			Timeout:    viper.GetDuration("embedding.timeout"),
			MaxRetries: viper.GetInt("embedding.max_retries"),
		},
		Scoring: types.ScoringConfig{
			AuthorBoost:     viper.GetFloat64("scoring.author_boost"),
			MinRelevance:    viper.GetFloat64("scoring.min_relevance"),
			TopK:            viper.GetInt("scoring.top_k"),
			FetchMultiplier: viper.GetInt("scoring.fetch_multiplier"),
			MinAuthorLength: viper.GetInt("scoring.min_author_length"),
		},
		Schedule: types.ScheduleConfig{
			ExcerptChars: viper.GetInt("schedule.excerpt_chars"),
			PreviewChars: viper.GetInt("schedule.preview_chars"),
		},
		Profile: types.ProfileConfig{
			ThesisWords: viper.GetInt("profile.thesis_words"),
		},
	}
	return cfg.WithDefaults()
}

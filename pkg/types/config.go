package types

import "time"

// ExtractionBackend identifies how page text is pulled out of a PDF.
type ExtractionBackend string

const (
	BackendNative    ExtractionBackend = "native"
	BackendContainer ExtractionBackend = "container"
)

// ExtractionConfig holds settings for reading the abstract book.
type ExtractionConfig struct {
	// Backend selects the page text source for PDFs: native or container.
	// Files ending in .txt are always read as pre-extracted text.
	Backend ExtractionBackend `json:"backend" yaml:"backend"`

	// ContainerImage is the pdftotext image used by the container backend.
	ContainerImage string `json:"container_image" yaml:"container_image"`

	// Version is mixed into the cache key; bump it to force re-extraction.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// EmbeddingBackend identifies the embedding service.
type EmbeddingBackend string

const (
	EmbedderOllama EmbeddingBackend = "ollama"
	EmbedderHash   EmbeddingBackend = "hash"
)

// EmbeddingConfig holds settings for the embedding backend.
type EmbeddingConfig struct {
	Backend EmbeddingBackend `json:"backend" yaml:"backend"`

	// Model is the embedding model name (e.g. "nomic-embed-text").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the embedding service endpoint (default http://localhost:11434).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Dimension forces vectors to this length when positive.
	Dimension int `json:"dimension" yaml:"dimension"`

	// BatchSize is the number of texts per embedding request (default 32).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Timeout is the per-request HTTP timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retries on 429/503 responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ScoringConfig holds relevance scoring settings.
type ScoringConfig struct {
	// AuthorBoost is added to the base similarity when an author matches (default 0.15).
	AuthorBoost float64 `json:"author_boost" yaml:"author_boost"`

	// MinRelevance drops talks whose final score is below it (default 0).
	MinRelevance float64 `json:"min_relevance" yaml:"min_relevance"`

	// TopK keeps at most this many talks after filtering; 0 keeps all.
	TopK int `json:"top_k" yaml:"top_k"`

	// FetchMultiplier widens the index query to TopK*FetchMultiplier so
	// exclusions and thresholds still leave TopK candidates (default 3).
	FetchMultiplier int `json:"fetch_multiplier" yaml:"fetch_multiplier"`

	// MinAuthorLength is the shortest author-of-interest entry used for
	// matching (default 3).
	MinAuthorLength int `json:"min_author_length" yaml:"min_author_length"`
}

// ScheduleConfig holds rendering settings for the schedule document.
type ScheduleConfig struct {
	// ExcerptChars is the abstract excerpt length (default 300).
	ExcerptChars int `json:"excerpt_chars" yaml:"excerpt_chars"`

	// PreviewChars is the abstract preview length in the conflicts section (default 100).
	PreviewChars int `json:"preview_chars" yaml:"preview_chars"`
}

// ProfileConfig holds research profile settings.
type ProfileConfig struct {
	// ThesisWords is the number of leading thesis words kept (default 500).
	ThesisWords int `json:"thesis_words" yaml:"thesis_words"`
}

// PlannerConfig groups all stage configurations for the pipeline.
type PlannerConfig struct {
	// Conference names the cache and index files (e.g. "ashg2025").
	Conference string `json:"conference" yaml:"conference"`

	CacheDir  string `json:"cache_dir" yaml:"cache_dir"`
	IndexDir  string `json:"index_dir" yaml:"index_dir"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// IndexTimeout bounds indexing plus the profile query (default 2m).
	IndexTimeout time.Duration `json:"index_timeout" yaml:"index_timeout"`

	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding"`
	Scoring    ScoringConfig    `json:"scoring" yaml:"scoring"`
	Schedule   ScheduleConfig   `json:"schedule" yaml:"schedule"`
	Profile    ProfileConfig    `json:"profile" yaml:"profile"`
}

// Defaults.
const (
	DefaultConference      = "conference"
	DefaultCacheDir        = ".confplan/cache"
	DefaultIndexDir        = ".confplan/index"
	DefaultOutputDir       = "output"
	DefaultIndexTimeout    = 2 * time.Minute
	DefaultContainerImage  = "minidocks/poppler"
	DefaultEmbeddingModel  = "nomic-embed-text"
	DefaultEmbeddingURL    = "http://localhost:11434"
	DefaultBatchSize       = 32
	DefaultEmbedTimeout    = 60 * time.Second
	DefaultMaxRetries      = 3
	DefaultAuthorBoost     = 0.15
	DefaultFetchMultiplier = 3
	DefaultMinAuthorLength = 3
	DefaultExcerptChars    = 300
	DefaultPreviewChars    = 100
	DefaultThesisWords     = 500
)

// WithDefaults returns a copy of c with zero values replaced by defaults.
// MinRelevance and TopK keep zero, which means no threshold and no limit.
func (c PlannerConfig) WithDefaults() PlannerConfig {
	if c.Conference == "" {
		c.Conference = DefaultConference
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}
	if c.IndexDir == "" {
		c.IndexDir = DefaultIndexDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.IndexTimeout <= 0 {
		c.IndexTimeout = DefaultIndexTimeout
	}
	if c.Extraction.Backend == "" {
		c.Extraction.Backend = BackendNative
	}
	if c.Extraction.ContainerImage == "" {
		c.Extraction.ContainerImage = DefaultContainerImage
	}
	if c.Embedding.Backend == "" {
		c.Embedding.Backend = EmbedderOllama
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = DefaultEmbeddingModel
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = DefaultEmbeddingURL
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = DefaultBatchSize
	}
	if c.Embedding.Timeout <= 0 {
		c.Embedding.Timeout = DefaultEmbedTimeout
	}
	if c.Embedding.MaxRetries <= 0 {
		c.Embedding.MaxRetries = DefaultMaxRetries
	}
	if c.Scoring.AuthorBoost == 0 {
		c.Scoring.AuthorBoost = DefaultAuthorBoost
	}
	if c.Scoring.FetchMultiplier <= 0 {
		c.Scoring.FetchMultiplier = DefaultFetchMultiplier
	}
	if c.Scoring.MinAuthorLength <= 0 {
		c.Scoring.MinAuthorLength = DefaultMinAuthorLength
	}
	if c.Schedule.ExcerptChars <= 0 {
		c.Schedule.ExcerptChars = DefaultExcerptChars
	}
	if c.Schedule.PreviewChars <= 0 {
		c.Schedule.PreviewChars = DefaultPreviewChars
	}
	if c.Profile.ThesisWords <= 0 {
		c.Profile.ThesisWords = DefaultThesisWords
	}
	return c
}

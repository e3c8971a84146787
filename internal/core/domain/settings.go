package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

const unknownDescription = "Unknown"

// EmbeddingProvider identifies the embedding service implementation.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is any OpenAI-compatible embeddings API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderHashing is the offline feature-hashing embedder.
	EmbeddingProviderHashing EmbeddingProvider = "hashing"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderOllama, EmbeddingProviderOpenAI, EmbeddingProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	case EmbeddingProviderOpenAI:
		return "OpenAI-compatible (cloud)"
	case EmbeddingProviderHashing:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	VectorBackendMemory   VectorBackend = "memory"
	VectorBackendBadger   VectorBackend = "badger"
	VectorBackendQdrant   VectorBackend = "qdrant"
	VectorBackendPGVector VectorBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendBadger, VectorBackendQdrant, VectorBackendPGVector:
		return true
	default:
		return false
	}
}

// KeywordBackend identifies the keyword index implementation.
type KeywordBackend string

// Available keyword backends.
const (
	KeywordBackendMemory KeywordBackend = "memory"
	KeywordBackendSQLite KeywordBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b KeywordBackend) IsValid() bool {
	return b == KeywordBackendMemory || b == KeywordBackendSQLite
}

// ChunkingSettings bounds chunk sizes.
type ChunkingSettings struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters shared with the previous window.
	ChunkOverlap int

	// MinChunkChars is the minimum length of a sliding-window chunk.
	MinChunkChars int
}

// FusionSettings controls hybrid score fusion.
type FusionSettings struct {
	// Weights is the default channel weighting.
	Weights Weights

	// KeywordScale is the divisor K in keyword_score = min(raw/K, 1).
	// It must stay stable across a deployment.
	KeywordScale float64
}

// SearchSettings controls the read path.
type SearchSettings struct {
	// ChannelTimeout bounds each retrieval channel call independently.
	ChannelTimeout time.Duration

	// DefaultLimit is used when a request does not set a limit.
	DefaultLimit int
}

// SimilaritySettings controls document-to-document similarity.
type SimilaritySettings struct {
	// Threshold is the global minimum aggregate score.
	Threshold float64

	// OverfetchFactor multiplies the limit for per-chunk neighbour queries.
	OverfetchFactor int

	// FieldThresholds are per-field minimums for same-field chunk pairs.
	FieldThresholds map[string]float64
}

// PlagiarismSettings controls plagiarism mode.
type PlagiarismSettings struct {
	// Threshold is the base threshold; candidates below it are not reported.
	Threshold float64

	// HighThreshold is the score at which a verdict is labelled HIGH.
	HighThreshold float64
}

// IndexingSettings controls the write path.
type IndexingSettings struct {
	// Workers is the bulk reindex worker pool size.
	Workers int

	// SummaryMaxChars truncates the text embedded as a document summary vector.
	SummaryMaxChars int

	// ReindexInterval schedules a background full reindex in long-running
	// processes. Zero disables it.
	ReindexInterval time.Duration
}

// EngineSettings is the complete tunable configuration of the engine.
// It is the only state the services hold besides their backend handles.
type EngineSettings struct {
	Chunking   ChunkingSettings
	Fusion     FusionSettings
	Search     SearchSettings
	Similarity SimilaritySettings
	Plagiarism PlagiarismSettings
	Indexing   IndexingSettings
}

// Default tuning values.
const (
	DefaultChunkSize          = 500
	DefaultChunkOverlap       = 50
	DefaultMinChunkChars      = 20
	DefaultKeywordScale       = 20.0
	DefaultChannelTimeout     = 3 * time.Second
	DefaultSearchLimit        = 10
	DefaultSimilarity         = 0.3
	DefaultOverfetchFactor    = 3
	DefaultFieldThreshold     = 0.2
	DefaultPlagiarismBase     = 0.7
	DefaultPlagiarismHigh     = 0.85
	DefaultSummaryMaxChars    = 8000
	DefaultIndexingWorkerSize = 4
)

// DefaultEngineSettings returns the documented defaults.
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		Chunking: ChunkingSettings{
			ChunkSize:     DefaultChunkSize,
			ChunkOverlap:  DefaultChunkOverlap,
			MinChunkChars: DefaultMinChunkChars,
		},
		Fusion: FusionSettings{
			Weights:      DefaultWeights(),
			KeywordScale: DefaultKeywordScale,
		},
		Search: SearchSettings{
			ChannelTimeout: DefaultChannelTimeout,
			DefaultLimit:   DefaultSearchLimit,
		},
		Similarity: SimilaritySettings{
			Threshold:       DefaultSimilarity,
			OverfetchFactor: DefaultOverfetchFactor,
			FieldThresholds: map[string]float64{
				FieldGrowthBackground: DefaultFieldThreshold,
				FieldMotivation:       DefaultFieldThreshold,
				FieldCareerHistory:    DefaultFieldThreshold,
			},
		},
		Plagiarism: PlagiarismSettings{
			Threshold:     DefaultPlagiarismBase,
			HighThreshold: DefaultPlagiarismHigh,
		},
		Indexing: IndexingSettings{
			Workers:         DefaultIndexingWorkerSize,
			SummaryMaxChars: DefaultSummaryMaxChars,
		},
	}
}

// Validate checks the settings for values that would break the engine's invariants.
func (s EngineSettings) Validate() error {
	switch {
	case s.Chunking.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)
	case s.Chunking.ChunkOverlap < 0 || s.Chunking.ChunkOverlap >= s.Chunking.ChunkSize:
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", ErrInvalidInput)
	case s.Chunking.MinChunkChars < 0 || s.Chunking.MinChunkChars > s.Chunking.ChunkSize:
		return fmt.Errorf("%w: min chunk chars must be in [0, chunk size]", ErrInvalidInput)
	case s.Fusion.KeywordScale <= 0:
		return fmt.Errorf("%w: keyword scale must be positive", ErrInvalidInput)
	case s.Fusion.Weights.Vector < 0 || s.Fusion.Weights.Keyword < 0:
		return fmt.Errorf("%w: fusion weights must not be negative", ErrInvalidInput)
	case s.Fusion.Weights.Vector+s.Fusion.Weights.Keyword > 1+1e-9:
		return fmt.Errorf("%w: fusion weights must sum to at most 1", ErrInvalidInput)
	case s.Search.ChannelTimeout <= 0:
		return fmt.Errorf("%w: channel timeout must be positive", ErrInvalidInput)
	case s.Search.DefaultLimit <= 0:
		return fmt.Errorf("%w: default limit must be positive", ErrInvalidInput)
	case s.Similarity.Threshold < 0 || s.Similarity.Threshold > 1:
		return fmt.Errorf("%w: similarity threshold must be in [0, 1]", ErrInvalidInput)
	case s.Similarity.OverfetchFactor < 1:
		return fmt.Errorf("%w: overfetch factor must be at least 1", ErrInvalidInput)
	case s.Plagiarism.Threshold < 0 || s.Plagiarism.HighThreshold > 1:
		return fmt.Errorf("%w: plagiarism thresholds must be in [0, 1]", ErrInvalidInput)
	case s.Indexing.Workers < 1:
		return fmt.Errorf("%w: indexing workers must be at least 1", ErrInvalidInput)
	case s.Indexing.ReindexInterval < 0:
		return fmt.Errorf("%w: reindex interval must not be negative", ErrInvalidInput)
	case s.Plagiarism.HighThreshold < s.Plagiarism.Threshold:
		return fmt.Errorf("%w: plagiarism high threshold below base threshold", ErrInvalidInput)
	}
	return nil
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	Provider EmbeddingProvider
	Model    string
	BaseURL  string
	APIKey   string

	// Dimensions is the vector size. Zero means the provider's default.
	Dimensions int

	// RequestsPerSecond throttles provider calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider can be constructed.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// VectorSettings configures the vector index backend.
type VectorSettings struct {
	Backend VectorBackend

	// Path is the badger data directory.
	Path string

	// URL is the Qdrant endpoint.
	URL string

	// APIKey authenticates against Qdrant.
	APIKey string

	// Collection is the Qdrant collection or Postgres table name.
	Collection string

	// DSN is the Postgres connection string.
	DSN string
}

// KeywordSettings configures the keyword index backend.
type KeywordSettings struct {
	Backend KeywordBackend

	// Path is the SQLite database file.
	Path string
}

// BackendSettings selects and configures the infrastructure adapters.
type BackendSettings struct {
	Embedding EmbeddingSettings
	Vector    VectorSettings
	Keyword   KeywordSettings

	// LexiconPath points to an optional YAML lexicon extending the built-in one.
	LexiconPath string
}

// Default backend values.
const (
	DefaultEmbeddingModel      = "nomic-embed-text"
	DefaultOllamaURL           = "http://localhost:11434"
	DefaultQdrantURL           = "http://localhost:6333"
	DefaultVectorCollection    = "resumatch_chunks"
	DefaultHashingDimensions   = 384
	DefaultOpenAIModel         = "text-embedding-3-small"
	DefaultKeywordDatabaseFile = "resumatch.db"
	DefaultVectorDirectory     = "vectors"
)

// DefaultBackendSettings returns local, dependency-free backends rooted at dataDir.
func DefaultBackendSettings(dataDir string) BackendSettings {
	return BackendSettings{
		Embedding: EmbeddingSettings{
			Provider: EmbeddingProviderOllama,
			Model:    DefaultEmbeddingModel,
			BaseURL:  DefaultOllamaURL,
		},
		Vector: VectorSettings{
			Backend:    VectorBackendBadger,
			Path:       filepath.Join(dataDir, DefaultVectorDirectory),
			URL:        DefaultQdrantURL,
			Collection: DefaultVectorCollection,
		},
		Keyword: KeywordSettings{
			Backend: KeywordBackendSQLite,
			Path:    filepath.Join(dataDir, DefaultKeywordDatabaseFile),
		},
	}
}

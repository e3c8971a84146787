package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/core/ports/driving"
	"github.com/custodia-labs/resumatch/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for backend settings.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyVectorBackend   = "vector.backend"
	keyVectorPath      = "vector.path"
	keyVectorURL       = "vector.url"
	keyVectorAPIKey    = "vector.api_key"
	keyVectorColl      = "vector.collection"
	keyVectorDSN       = "vector.dsn"
	keyKeywordBackend  = "keyword.backend"
	keyKeywordPath     = "keyword.path"
	keyLexiconPath     = "tokenizer.lexicon_path"

	keyFieldThresholdPrefix = "similarity.field_thresholds."
)

// Environment variables that override secrets in the config file.
const (
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvQdrantAPIKey = "QDRANT_API_KEY"
	EnvDatabaseURL  = "RESUMATCH_DATABASE_URL"
)

// engineKey binds a numeric config key to an EngineSettings field.
type engineKey struct {
	name    string
	integer bool
	apply   func(s *domain.EngineSettings, v float64)
}

var engineKeys = []engineKey{
	{"chunking.chunk_size", true, func(s *domain.EngineSettings, v float64) { s.Chunking.ChunkSize = int(v) }},
	{"chunking.chunk_overlap", true, func(s *domain.EngineSettings, v float64) { s.Chunking.ChunkOverlap = int(v) }},
	{"chunking.min_chunk_chars", true, func(s *domain.EngineSettings, v float64) { s.Chunking.MinChunkChars = int(v) }},
	{"fusion.vector_weight", false, func(s *domain.EngineSettings, v float64) { s.Fusion.Weights.Vector = v }},
	{"fusion.keyword_weight", false, func(s *domain.EngineSettings, v float64) { s.Fusion.Weights.Keyword = v }},
	{"fusion.keyword_scale", false, func(s *domain.EngineSettings, v float64) { s.Fusion.KeywordScale = v }},
	{"search.channel_timeout_ms", true, func(s *domain.EngineSettings, v float64) {
		s.Search.ChannelTimeout = time.Duration(v) * time.Millisecond
	}},
	{"search.default_limit", true, func(s *domain.EngineSettings, v float64) { s.Search.DefaultLimit = int(v) }},
	{"similarity.threshold", false, func(s *domain.EngineSettings, v float64) { s.Similarity.Threshold = v }},
	{"similarity.overfetch_factor", true, func(s *domain.EngineSettings, v float64) { s.Similarity.OverfetchFactor = int(v) }},
	{"plagiarism.threshold", false, func(s *domain.EngineSettings, v float64) { s.Plagiarism.Threshold = v }},
	{"plagiarism.high_threshold", false, func(s *domain.EngineSettings, v float64) { s.Plagiarism.HighThreshold = v }},
	{"indexing.workers", true, func(s *domain.EngineSettings, v float64) { s.Indexing.Workers = int(v) }},
	{"indexing.summary_max_chars", true, func(s *domain.EngineSettings, v float64) { s.Indexing.SummaryMaxChars = int(v) }},
	{"indexing.reindex_interval_minutes", true, func(s *domain.EngineSettings, v float64) {
		s.Indexing.ReindexInterval = time.Duration(v) * time.Minute
	}},
}

// thresholdFields are the field names whose per-field threshold can be configured.
var thresholdFields = []string{
	domain.FieldGrowthBackground,
	domain.FieldMotivation,
	domain.FieldCareerHistory,
	domain.FieldSkills,
	domain.FieldSummary,
	domain.FieldExtractedText,
}

// SettingsService reads engine and backend settings from the config store.
type SettingsService struct {
	configStore driven.ConfigStore
	dataDir     string
}

// NewSettingsService creates a new settings service.
// dataDir roots the default local backend paths.
func NewSettingsService(configStore driven.ConfigStore, dataDir string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		dataDir:     dataDir,
	}
}

// Engine returns the tuning settings.
func (s *SettingsService) Engine() domain.EngineSettings {
	return LoadEngineSettings(s.configStore)
}

// Backends returns the adapter selection.
func (s *SettingsService) Backends() domain.BackendSettings {
	return LoadBackendSettings(s.configStore, s.dataDir)
}

// Set validates and stores a single configuration value.
// Numeric engine keys are checked against the full settings before they are
// persisted, so a value that would break the engine is never written.
func (s *SettingsService) Set(key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: empty key", domain.ErrInvalidInput)
	}

	if k, ok := lookupEngineKey(key); ok {
		v, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("%w: %s must be numeric", domain.ErrInvalidInput, key)
		}
		candidate := s.Engine()
		k.apply(&candidate, v)
		if err := candidate.Validate(); err != nil {
			return err
		}
		if k.integer {
			return s.configStore.Set(key, int(v))
		}
		return s.configStore.Set(key, v)
	}

	str := fmt.Sprint(value)
	switch key {
	case keyEmbedProvider:
		if !domain.EmbeddingProvider(str).IsValid() {
			return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, str)
		}
	case keyVectorBackend:
		if !domain.VectorBackend(str).IsValid() {
			return fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidInput, str)
		}
	case keyKeywordBackend:
		if !domain.KeywordBackend(str).IsValid() {
			return fmt.Errorf("%w: unknown keyword backend %q", domain.ErrInvalidInput, str)
		}
	case keyEmbedDimensions:
		v, ok := toFloat(value)
		if !ok || v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, int(v))
	case keyEmbedRPS:
		v, ok := toFloat(value)
		if !ok || v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, v)
	}

	return s.configStore.Set(key, value)
}

// LoadEngineSettings maps config keys onto EngineSettings.
// Missing or non-numeric keys keep their defaults. An invalid combination
// falls back to the defaults as a whole.
func LoadEngineSettings(store driven.ConfigStore) domain.EngineSettings {
	settings := domain.DefaultEngineSettings()
	if store == nil {
		return settings
	}

	for _, k := range engineKeys {
		raw, ok := store.Get(k.name)
		if !ok {
			continue
		}
		if v, ok := toFloat(raw); ok {
			k.apply(&settings, v)
		}
	}

	for _, field := range thresholdFields {
		raw, ok := store.Get(keyFieldThresholdPrefix + field)
		if !ok {
			continue
		}
		v, ok := toFloat(raw)
		if !ok {
			continue
		}
		if v <= 0 {
			delete(settings.Similarity.FieldThresholds, field)
			continue
		}
		settings.Similarity.FieldThresholds[field] = v
	}

	if err := settings.Validate(); err != nil {
		logger.Warn("Ignoring configured engine settings: %v", err)
		return domain.DefaultEngineSettings()
	}
	return settings
}

// LoadBackendSettings maps config keys and environment secrets onto BackendSettings.
func LoadBackendSettings(store driven.ConfigStore, dataDir string) domain.BackendSettings {
	settings := domain.DefaultBackendSettings(dataDir)
	if store != nil {
		if p := domain.EmbeddingProvider(store.GetString(keyEmbedProvider)); p.IsValid() {
			settings.Embedding.Provider = p
			switch p {
			case domain.EmbeddingProviderOpenAI:
				settings.Embedding.Model = domain.DefaultOpenAIModel
				settings.Embedding.BaseURL = ""
			case domain.EmbeddingProviderHashing:
				settings.Embedding.Model = ""
				settings.Embedding.BaseURL = ""
			}
		}
		settings.Embedding.Model = stringOr(store, keyEmbedModel, settings.Embedding.Model)
		settings.Embedding.BaseURL = stringOr(store, keyEmbedBaseURL, settings.Embedding.BaseURL)
		settings.Embedding.APIKey = store.GetString(keyEmbedAPIKey)
		settings.Embedding.Dimensions = store.GetInt(keyEmbedDimensions)
		settings.Embedding.RequestsPerSecond = store.GetFloat64(keyEmbedRPS)

		if b := domain.VectorBackend(store.GetString(keyVectorBackend)); b.IsValid() {
			settings.Vector.Backend = b
		}
		settings.Vector.Path = stringOr(store, keyVectorPath, settings.Vector.Path)
		settings.Vector.URL = stringOr(store, keyVectorURL, settings.Vector.URL)
		settings.Vector.APIKey = store.GetString(keyVectorAPIKey)
		settings.Vector.Collection = stringOr(store, keyVectorColl, settings.Vector.Collection)
		settings.Vector.DSN = store.GetString(keyVectorDSN)

		if b := domain.KeywordBackend(store.GetString(keyKeywordBackend)); b.IsValid() {
			settings.Keyword.Backend = b
		}
		settings.Keyword.Path = stringOr(store, keyKeywordPath, settings.Keyword.Path)
		settings.LexiconPath = store.GetString(keyLexiconPath)
	}

	if v := os.Getenv(EnvOpenAIAPIKey); v != "" {
		settings.Embedding.APIKey = v
	}
	if v := os.Getenv(EnvQdrantAPIKey); v != "" {
		settings.Vector.APIKey = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		settings.Vector.DSN = v
	}
	return settings
}

func lookupEngineKey(name string) (engineKey, bool) {
	for _, k := range engineKeys {
		if k.name == name {
			return k, true
		}
	}
	if field, ok := strings.CutPrefix(name, keyFieldThresholdPrefix); ok && field != "" {
		return engineKey{name: name, apply: func(s *domain.EngineSettings, v float64) {
			thresholds := make(map[string]float64, len(s.Similarity.FieldThresholds)+1)
			for f, t := range s.Similarity.FieldThresholds {
				thresholds[f] = t
			}
			thresholds[field] = v
			s.Similarity.FieldThresholds = thresholds
		}}, true
	}
	return engineKey{}, false
}

func stringOr(store driven.ConfigStore, key, fallback string) string {
	if v := store.GetString(key); v != "" {
		return v
	}
	return fallback
}

// toFloat converts numbers from TOML, JSON or command-line strings.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

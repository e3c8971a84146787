// Package app assembles the engine from configuration: it opens the
// configured stores, builds the embedding service and wires the core services
// that the driving adapters call.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/resumatch/internal/adapters/driven/ai"
	"github.com/custodia-labs/resumatch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/resumatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/resumatch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/resumatch/internal/adapters/driven/vector"
	"github.com/custodia-labs/resumatch/internal/adapters/driven/vector/badger"
	"github.com/custodia-labs/resumatch/internal/adapters/driven/vector/pgvector"
	"github.com/custodia-labs/resumatch/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/core/services"
	"github.com/custodia-labs/resumatch/internal/logger"
	"github.com/custodia-labs/resumatch/internal/postprocessors"
	"github.com/custodia-labs/resumatch/internal/tokenizer"
)

// DefaultDirName is the data directory created under the user's home.
const DefaultDirName = ".resumatch"

// Options locate the data and configuration directories.
type Options struct {
	// DataDir holds the SQLite database and local vectors (default: ~/.resumatch).
	DataDir string

	// ConfigDir holds config.toml (default: DataDir).
	ConfigDir string
}

// App owns the adapters and the services built on them.
type App struct {
	Config     *file.ConfigStore
	Settings   *services.SettingsService
	Documents  driven.DocumentStore
	Indexer    *services.IndexService
	Search     *services.SearchService
	Similarity *services.SimilarityService
	Reindex    *services.ReindexScheduler

	closers []func() error
}

// New reads the configuration in opts and wires every service.
// A backend that cannot be opened is logged and left out, so the engine
// starts in a degraded mode rather than failing. Only a configuration that
// leaves neither retrieval channel usable is an error.
func New(ctx context.Context, opts Options) (*App, error) {
	dataDir, err := resolveDataDir(opts.DataDir)
	if err != nil {
		return nil, err
	}
	configDir := opts.ConfigDir
	if configDir == "" {
		configDir = dataDir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	a := &App{
		Config:   configStore,
		Settings: services.NewSettingsService(configStore, dataDir),
	}
	engine := a.Settings.Engine()
	backends := a.Settings.Backends()

	tok, err := newTokenizer(backends.LexiconPath)
	if err != nil {
		return nil, err
	}
	pipeline, err := postprocessors.NewDefaultPipeline(engine.Chunking, tok)
	if err != nil {
		return nil, fmt.Errorf("building chunk pipeline: %w", err)
	}

	docs, keywordIndex, err := a.openKeyword(backends.Keyword)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Documents = docs

	embedder, err := ai.CreateAndValidateEmbeddingService(&backends.Embedding)
	if err != nil {
		logger.Warn("Vector search disabled: %v", err)
		embedder = nil
	}
	if embedder != nil {
		a.closers = append(a.closers, embedder.Close)
	}

	// Stored vectors still serve similarity checks when the embedder is down.
	dimensions := backends.Embedding.Dimensions
	if embedder != nil {
		dimensions = embedder.Dimensions()
	}
	vectorIndex, err := a.openVector(ctx, backends.Vector, dimensions)
	if err != nil {
		logger.Warn("Vector index unavailable, using keyword search only: %v", err)
		vectorIndex = nil
	}

	if keywordIndex == nil && vectorIndex == nil {
		a.Close()
		return nil, domain.ErrNoBackends
	}

	logger.Debug("Backends: keyword=%s vector=%s embedding=%s",
		backends.Keyword.Backend, vectorName(vectorIndex, backends.Vector), embeddingName(embedder))

	a.Indexer = services.NewIndexService(docs, pipeline, keywordIndex, vectorIndex, embedder, engine)
	a.Search = services.NewSearchService(keywordIndex, vectorIndex, embedder, tok, engine)
	a.Similarity = services.NewSimilarityService(docs, pipeline, vectorIndex, embedder, engine)
	a.Reindex = services.NewReindexScheduler(a.Indexer, engine.Indexing.ReindexInterval)

	return a, nil
}

// WatchConfig reloads engine settings into the running services whenever
// config.toml changes. Backend selection and chunk sizes apply on restart.
func (a *App) WatchConfig(ctx context.Context) error {
	return a.Config.Watch(ctx, a.ApplySettings)
}

// ApplySettings pushes the current engine settings into every service.
func (a *App) ApplySettings() {
	engine := a.Settings.Engine()
	a.Indexer.SetSettings(engine)
	a.Search.SetSettings(engine)
	a.Similarity.SetSettings(engine)
	logger.Info("Applied configuration: weights vector=%.2f keyword=%.2f",
		engine.Fusion.Weights.Vector, engine.Fusion.Weights.Keyword)
}

// Close releases every opened backend in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openKeyword opens the document store and keyword index. SQLite provides both
// from one database file; the memory backend keeps both in process.
func (a *App) openKeyword(settings domain.KeywordSettings) (driven.DocumentStore, driven.KeywordIndex, error) {
	switch settings.Backend {
	case domain.KeywordBackendMemory:
		return memory.NewDocumentStore(), memory.NewKeywordIndex(), nil

	case domain.KeywordBackendSQLite:
		store, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening document store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store.DocumentStore(), store.KeywordIndex(), nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown keyword backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}

// openVector opens the configured vector backend behind the normalising guard.
func (a *App) openVector(ctx context.Context, settings domain.VectorSettings, dimensions int) (driven.VectorIndex, error) {
	var (
		inner driven.VectorIndex
		err   error
	)
	switch settings.Backend {
	case domain.VectorBackendMemory:
		inner = memory.NewVectorIndex()

	case domain.VectorBackendBadger:
		inner, err = badger.Open(settings.Path)

	case domain.VectorBackendQdrant:
		inner = qdrant.New(qdrant.Config{
			URL:        settings.URL,
			APIKey:     settings.APIKey,
			Collection: settings.Collection,
			Dimensions: dimensions,
		})

	case domain.VectorBackendPGVector:
		if settings.DSN == "" {
			return nil, fmt.Errorf("%w: pgvector needs %s or vector.dsn", domain.ErrInvalidInput, services.EnvDatabaseURL)
		}
		inner, err = pgvector.Open(ctx, settings.DSN, settings.Collection)

	default:
		return nil, fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidInput, settings.Backend)
	}
	if err != nil {
		return nil, err
	}

	a.closers = append(a.closers, inner.Close)
	return vector.NewGuard(inner, dimensions), nil
}

func newTokenizer(lexiconPath string) (*tokenizer.Tokenizer, error) {
	if lexiconPath == "" {
		return tokenizer.New(), nil
	}
	lexicon, err := tokenizer.LoadLexicon(lexiconPath)
	if err != nil {
		return nil, fmt.Errorf("loading lexicon: %w", err)
	}
	return tokenizer.New(tokenizer.WithLexicon(lexicon)), nil
}

func resolveDataDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

func vectorName(index driven.VectorIndex, settings domain.VectorSettings) string {
	if index == nil {
		return "none"
	}
	return string(settings.Backend)
}

func embeddingName(svc driven.EmbeddingService) string {
	if svc == nil {
		return "none"
	}
	return svc.ModelName()
}

// Package ai provides factory functions for creating embedding service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/resumatch/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/resumatch/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/resumatch/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/resumatch/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil without error when no provider is configured.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'resumatch config set embedding.provider ...' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the embedding service selected by settings,
// throttled to settings.RequestsPerSecond when that is positive.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.EmbeddingProviderOllama:
		svc = createOllamaEmbedding(settings)

	case domain.EmbeddingProviderOpenAI:
		svc, err = createOpenAIEmbedding(settings)

	case domain.EmbeddingProviderHashing:
		svc = hashing.NewEmbeddingService(settings.Dimensions)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return ratelimit.Wrap(svc, settings.RequestsPerSecond), nil
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI-compatible embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

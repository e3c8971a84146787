// Package ratelimit wraps an EmbeddingService with a token-bucket limiter
// so bulk indexing stays inside a provider's request quota.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService throttles Embed and EmbedBatch calls. A batch counts as
// one request.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap returns inner throttled to requestsPerSecond with a burst of one
// second's worth of requests. A non-positive rate returns inner unchanged.
func Wrap(inner driven.EmbeddingService, requestsPerSecond float64) driven.EmbeddingService {
	if requestsPerSecond <= 0 {
		return inner
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &EmbeddingService{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Embed waits for a token, then embeds text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return s.inner.Embed(ctx, text)
}

// EmbedBatch waits for a token, then embeds texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return s.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the wrapped service's dimensions.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping is not throttled.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}

// Package hashing provides a deterministic, offline EmbeddingService based on
// signed feature hashing of words and character trigrams. It needs no model
// and no network, so it backs tests and air-gapped deployments; its vectors
// capture lexical overlap rather than meaning.
package hashing

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/vecmath"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultDimensions = 384
	ModelName         = "feature-hashing-v1"
)

// Feature weights.
const (
	wordWeight    = 1.0
	trigramWeight = 0.5
	projections   = 4
)

// EmbeddingService embeds text by hashing features into a fixed-size vector.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder. Non-positive dimensions use the default.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed returns the L2-normalised feature vector of text.
// Text without letters or digits yields an all-zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, s.dimensions)
	for _, word := range words(text) {
		s.project(vec, "w:"+word, wordWeight)

		runes := []rune(" " + word + " ")
		for i := 0; i+3 <= len(runes); i++ {
			s.project(vec, "c:"+string(runes[i:i+3]), trigramWeight)
		}
	}

	if normalized := vecmath.Normalize(vec); normalized != nil {
		return normalized, nil
	}
	return vec, nil
}

// EmbedBatch embeds each text in turn.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the fixed model identifier.
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *EmbeddingService) Close() error {
	return nil
}

// project adds a signed contribution of feature to several buckets.
func (s *EmbeddingService) project(vec []float32, feature string, weight float32) {
	hash := xxhash.Sum64String(feature)
	state := hash
	for j := 0; j < projections; j++ {
		state = state*6364136223846793005 + 1442695040888963407
		idx := int(state % uint64(s.dimensions))
		sign := float32(1)
		if (hash>>j)&1 == 0 {
			sign = -1
		}
		vec[idx] += weight * sign
	}
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

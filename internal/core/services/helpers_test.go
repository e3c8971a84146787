package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/resumatch/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/resumatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/postprocessors"
	"github.com/custodia-labs/resumatch/internal/tokenizer"
)

// --- Mock implementations ---

// tableEmbedder returns fixed vectors for known texts and fails on anything else.
type tableEmbedder struct {
	vectors map[string][]float32
	calls   atomic.Int64
}

func newTableEmbedder() *tableEmbedder {
	return &tableEmbedder{vectors: make(map[string][]float32)}
}

func (m *tableEmbedder) set(text string, vec []float32) {
	m.vectors[text] = vec
}

func (m *tableEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	vec, ok := m.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return vec, nil
}

func (m *tableEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *tableEmbedder) Dimensions() int              { return 8 }
func (m *tableEmbedder) ModelName() string            { return "table" }
func (m *tableEmbedder) Ping(_ context.Context) error { return nil }
func (m *tableEmbedder) Close() error                 { return nil }

// flakyEmbedder wraps the hashing embedder: batches always fail and single
// texts containing poison fail.
type flakyEmbedder struct {
	*hashing.EmbeddingService
	poison string
}

func (m *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.poison != "" && strings.Contains(text, m.poison) {
		return nil, errors.New("embedding rejected")
	}
	return m.EmbeddingService.Embed(ctx, text)
}

func (m *flakyEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errors.New("batch endpoint down")
}

// blockingEmbedder never answers before its context is done.
type blockingEmbedder struct {
	*hashing.EmbeddingService
}

func (m *blockingEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// basis returns a unit vector of dims with a at index 0 and the remainder at index i.
func basis(dims, i int, a float64) []float32 {
	v := make([]float32, dims)
	v[0] = float32(a)
	if i > 0 {
		v[i] = float32(math.Sqrt(1 - a*a))
	}
	return v
}

// unit returns the i-th standard basis vector of dims.
func unit(dims, i int) []float32 {
	v := make([]float32, dims)
	v[i] = 1
	return v
}

// --- Fixtures ---

type fixture struct {
	docs     *memory.DocumentStore
	keyword  *memory.KeywordIndex
	vectors  *memory.VectorIndex
	embedder driven.EmbeddingService
	pipeline driven.PostProcessorPipeline
	settings domain.EngineSettings
	indexer  *IndexService
}

func newFixture(t *testing.T, embedder driven.EmbeddingService) *fixture {
	t.Helper()
	if embedder == nil {
		embedder = hashing.NewEmbeddingService(256)
	}
	settings := domain.DefaultEngineSettings()
	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunking, tokenizer.New())
	require.NoError(t, err)

	f := &fixture{
		docs:     memory.NewDocumentStore(),
		keyword:  memory.NewKeywordIndex(),
		vectors:  memory.NewVectorIndex(),
		embedder: embedder,
		pipeline: pipeline,
		settings: settings,
	}
	f.indexer = NewIndexService(f.docs, f.pipeline, f.keyword, f.vectors, f.embedder, settings)
	return f
}

// add stores and indexes documents, failing the test on any indexing problem.
func (f *fixture) add(t *testing.T, docs ...*domain.Document) {
	t.Helper()
	ctx := context.Background()
	for _, doc := range docs {
		require.NoError(t, f.docs.Save(ctx, doc))
		res, err := f.indexer.IndexDocument(ctx, doc)
		require.NoError(t, err)
		require.True(t, res.Success, res.Message)
	}
}

func (f *fixture) search() *SearchService {
	return NewSearchService(f.keyword, f.vectors, f.embedder, tokenizer.New(), f.settings)
}

func (f *fixture) similarity() *SimilarityService {
	return NewSimilarityService(f.docs, f.pipeline, f.vectors, f.embedder, f.settings)
}

func backendResume() *domain.Document {
	return &domain.Document{
		ID:            "r-backend",
		ApplicantID:   "a-1",
		Type:          domain.DocumentTypeResume,
		ApplicantName: "Kim Minjun",
		Position:      "Backend Engineer",
		Fields: map[string]string{
			domain.FieldGrowthBackground: "Grew up in Busan repairing old radios with my father.",
			domain.FieldMotivation:       "I want to grow as a backend engineer using Go and distributed systems.",
			domain.FieldCareerHistory:    "Built payment APIs in Go at a fintech startup for three years.",
			domain.FieldSkills:           "Go, Kafka, PostgreSQL, Kubernetes",
		},
	}
}

func designerResume() *domain.Document {
	return &domain.Document{
		ID:            "r-designer",
		ApplicantID:   "a-2",
		Type:          domain.DocumentTypeResume,
		ApplicantName: "Lee Seoyeon",
		Position:      "Product Designer",
		Fields: map[string]string{
			domain.FieldGrowthBackground: "Spent my childhood drawing comics and illustrating school magazines.",
			domain.FieldMotivation:       "I love turning user research into calm and accessible interfaces.",
			domain.FieldCareerHistory:    "Led the design system of a travel booking app used by millions.",
			domain.FieldSkills:           "Figma, prototyping, usability testing",
		},
	}
}

func analystResume() *domain.Document {
	return &domain.Document{
		ID:            "r-analyst",
		ApplicantID:   "a-3",
		Type:          domain.DocumentTypeResume,
		ApplicantName: "Park Jiwoo",
		Position:      "Data Analyst",
		Fields: map[string]string{
			domain.FieldGrowthBackground: "My parents ran a small grocery store where I kept the ledgers.",
			domain.FieldMotivation:       "I enjoy finding stories hidden in sales numbers and dashboards.",
			domain.FieldCareerHistory:    "Analysed retail demand forecasts with Python and SQL for a chain.",
			domain.FieldSkills:           "Python, pandas, SQL, Tableau",
		},
	}
}

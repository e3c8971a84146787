package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// mockSearchService records the last request and returns canned results.
type mockSearchService struct {
	lastQuery string
	lastOpts  domain.SearchOptions
	lastLimit int
	degraded  bool
	err       error
}

func (m *mockSearchService) SearchHybrid(_ context.Context, query string, opts domain.SearchOptions) (domain.SearchResponse, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return domain.SearchResponse{}, m.err
	}
	resp := domain.SearchResponse{
		Success:  true,
		Message:  "ok",
		Query:    query,
		Strategy: "hybrid",
		Results: []domain.FusedResult{
			{
				DocumentID:          "r-backend",
				FinalScore:          0.81,
				VectorScore:         0.72,
				KeywordScore:        0.9,
				ContributingMethods: []domain.RetrievalMethod{domain.MethodVector, domain.MethodKeyword},
				Highlights:          []string{"Go, Kafka, Kubernetes"},
			},
		},
	}
	if m.degraded {
		resp.Degraded = true
		resp.KeywordDegraded = true
		resp.Message = "keyword index unavailable, showing semantic results only"
	}
	return resp, nil
}

func (m *mockSearchService) SearchByKeywords(_ context.Context, query string, limit int) (domain.KeywordSearchResponse, error) {
	m.lastQuery = query
	m.lastLimit = limit
	if m.err != nil {
		return domain.KeywordSearchResponse{}, m.err
	}
	return domain.KeywordSearchResponse{
		Success: true,
		Query:   query,
		Hits: []domain.RetrievalHit{
			{SourceID: "r-backend", Score: 7.5, Highlights: []string{"... [Kubernetes] clusters ..."}},
		},
	}, nil
}

// mockSimilarityService returns one HIGH verdict.
type mockSimilarityService struct {
	lastMethod string
	lastID     string
	lastLimit  int
	err        error
}

func (m *mockSimilarityService) response(id string) domain.SimilarityResponse {
	return domain.SimilarityResponse{
		Success:    true,
		DocumentID: id,
		Verdicts: []domain.SimilarityVerdict{
			{
				CandidateDocumentID: "cl-2",
				SimilarityScore:     0.91,
				RiskLevel:           domain.RiskHigh,
				Explanation:         "motivation->motivation 0.98",
			},
		},
	}
}

func (m *mockSimilarityService) FindSimilarDocuments(_ context.Context, id string, limit int) (domain.SimilarityResponse, error) {
	m.lastMethod, m.lastID, m.lastLimit = "similar", id, limit
	if m.err != nil {
		return domain.SimilarityResponse{}, m.err
	}
	return m.response(id), nil
}

func (m *mockSimilarityService) CheckPlagiarism(_ context.Context, id string, limit int) (domain.SimilarityResponse, error) {
	m.lastMethod, m.lastID, m.lastLimit = "plagiarism", id, limit
	if m.err != nil {
		return domain.SimilarityResponse{}, m.err
	}
	return m.response(id), nil
}

// mockIndexService records indexed documents.
type mockIndexService struct {
	indexed []string
	deleted []string
	err     error
}

func (m *mockIndexService) IndexDocument(_ context.Context, doc *domain.Document) (domain.IndexResult, error) {
	if m.err != nil {
		return domain.IndexResult{}, m.err
	}
	m.indexed = append(m.indexed, doc.ID)
	return domain.IndexResult{
		Success:        true,
		DocumentID:     doc.ID,
		ChunkCount:     4,
		VectorsIndexed: 4,
		KeywordIndexed: true,
	}, nil
}

func (m *mockIndexService) BuildFullIndex(_ context.Context) (domain.BulkIndexResult, error) {
	if m.err != nil {
		return domain.BulkIndexResult{}, m.err
	}
	return domain.BulkIndexResult{Success: true, TotalIndexed: 12, TotalFailed: 1}, nil
}

func (m *mockIndexService) DeleteDocumentData(_ context.Context, id string) (domain.DeleteResult, error) {
	if m.err != nil {
		return domain.DeleteResult{}, m.err
	}
	m.deleted = append(m.deleted, id)
	return domain.DeleteResult{DocumentID: id, VectorDeleted: true}, nil
}

// mockSettingsService keeps values in a map.
type mockSettingsService struct {
	values map[string]any
}

func (m *mockSettingsService) Engine() domain.EngineSettings {
	return domain.DefaultEngineSettings()
}

func (m *mockSettingsService) Backends() domain.BackendSettings {
	b := domain.DefaultBackendSettings("/data")
	b.Embedding.Provider = domain.EmbeddingProviderOpenAI
	b.Embedding.APIKey = "sk-1234567890abcd"
	return b
}

func (m *mockSettingsService) Set(key string, value any) error {
	if key == "fusion.vector_weight" {
		return errors.New("invalid input: weights must sum to 1")
	}
	if m.values == nil {
		m.values = make(map[string]any)
	}
	m.values[key] = value
	return nil
}

// mockSaver records saved documents.
type mockSaver struct {
	saved []string
	docs  []domain.Document
	err   error
}

func (m *mockSaver) Save(_ context.Context, doc *domain.Document) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, doc.ID)
	m.docs = append(m.docs, *doc)
	return nil
}

type testServices struct {
	search     *mockSearchService
	similarity *mockSimilarityService
	index      *mockIndexService
	settings   *mockSettingsService
	saver      *mockSaver
}

// setupTestServices installs mocks for every port and restores nil services on cleanup.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()
	ts := &testServices{
		search:     &mockSearchService{},
		similarity: &mockSimilarityService{},
		index:      &mockIndexService{},
		settings:   &mockSettingsService{},
		saver:      &mockSaver{},
	}
	setServices(&Services{
		Search:     ts.search,
		Similarity: ts.similarity,
		Index:      ts.index,
		Settings:   ts.settings,
		Documents:  ts.saver,
	})
	t.Cleanup(func() { setServices(nil) })
	return ts
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

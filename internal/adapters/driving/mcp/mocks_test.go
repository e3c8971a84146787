package mcp

import (
	"context"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	hybrid    domain.SearchResponse
	keywords  domain.KeywordSearchResponse
	err       error
	lastQuery string
	lastOpts  domain.SearchOptions
	lastLimit int
}

func (m *mockSearchService) SearchHybrid(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (domain.SearchResponse, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.hybrid, m.err
}

func (m *mockSearchService) SearchByKeywords(
	_ context.Context,
	query string,
	limit int,
) (domain.KeywordSearchResponse, error) {
	m.lastQuery = query
	m.lastLimit = limit
	return m.keywords, m.err
}

// mockSimilarityService is a mock implementation of driving.SimilarityService.
type mockSimilarityService struct {
	similar    domain.SimilarityResponse
	plagiarism domain.SimilarityResponse
	err        error
	lastID     string
	lastLimit  int
}

func (m *mockSimilarityService) FindSimilarDocuments(
	_ context.Context,
	documentID string,
	limit int,
) (domain.SimilarityResponse, error) {
	m.lastID = documentID
	m.lastLimit = limit
	return m.similar, m.err
}

func (m *mockSimilarityService) CheckPlagiarism(
	_ context.Context,
	documentID string,
	limit int,
) (domain.SimilarityResponse, error) {
	m.lastID = documentID
	m.lastLimit = limit
	return m.plagiarism, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	engine domain.EngineSettings
}

func (m *mockSettingsService) Engine() domain.EngineSettings { return m.engine }

func (m *mockSettingsService) Backends() domain.BackendSettings {
	return domain.DefaultBackendSettings("")
}

func (m *mockSettingsService) Set(_ string, _ any) error { return nil }

// mockReindexStatus is a mock implementation of driving.ReindexStatus.
type mockReindexStatus struct {
	run *domain.ReindexRun
}

func (m *mockReindexStatus) LastRun() (domain.ReindexRun, bool) {
	if m.run == nil {
		return domain.ReindexRun{}, false
	}
	return *m.run, true
}

func newTestServer(search *mockSearchService, similarity *mockSimilarityService) *Server {
	server, err := NewServer(&Ports{Search: search, Similarity: similarity})
	if err != nil {
		panic(err)
	}
	return server
}

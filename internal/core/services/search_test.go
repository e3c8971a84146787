package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/resumatch/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/tokenizer"
)

func indexedFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, nil)
	f.add(t, backendResume(), designerResume(), analystResume())
	return f
}

func TestSearchHybrid_EmptyQuery(t *testing.T) {
	f := indexedFixture(t)

	resp, err := f.search().SearchHybrid(context.Background(), "   ", domain.SearchOptions{})

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, domain.ErrEmptyQuery.Error(), resp.Message)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestSearchHybrid_NoBackends(t *testing.T) {
	svc := NewSearchService(nil, nil, nil, tokenizer.New(), domain.DefaultEngineSettings())

	resp, err := svc.SearchHybrid(context.Background(), "go", domain.SearchOptions{})

	assert.ErrorIs(t, err, domain.ErrNoBackends)
	assert.False(t, resp.Success)
}

func TestSearchHybrid_FusesBothChannels(t *testing.T) {
	f := indexedFixture(t)

	resp, err := f.search().SearchHybrid(context.Background(), "backend engineer Go Kafka", domain.SearchOptions{Limit: 5})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.Degraded)
	assert.Equal(t, StrategyHybrid, resp.Strategy)
	require.NotEmpty(t, resp.Results)

	top := resp.Results[0]
	assert.Equal(t, "r-backend", top.DocumentID)
	assert.Equal(t, "a-1", top.ApplicantID)
	assert.Contains(t, top.ContributingMethods, domain.MethodKeyword)
	assert.Contains(t, top.ContributingMethods, domain.MethodVector)

	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].FinalScore, resp.Results[i].FinalScore)
	}
}

func TestSearchHybrid_KeywordDegraded(t *testing.T) {
	f := indexedFixture(t)
	f.keyword.SetAvailable(false)

	resp, err := f.search().SearchHybrid(context.Background(), "backend engineer Go", domain.SearchOptions{})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.Degraded)
	assert.True(t, resp.KeywordDegraded)
	assert.False(t, resp.VectorDegraded)
	assert.Equal(t, StrategyHybrid, resp.Strategy)
	require.NotEmpty(t, resp.Results)
	for _, r := range resp.Results {
		assert.Equal(t, []domain.RetrievalMethod{domain.MethodVector}, r.ContributingMethods)
		assert.Equal(t, 0.0, r.KeywordScore)
		assert.InDelta(t, r.VectorScore*0.5, r.FinalScore, 1e-9)
	}
}

func TestSearchHybrid_BothChannelsDown(t *testing.T) {
	f := indexedFixture(t)
	f.keyword.SetAvailable(false)
	f.vectors.SetAvailable(false)

	resp, err := f.search().SearchHybrid(context.Background(), "backend", domain.SearchOptions{})

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.True(t, resp.KeywordDegraded)
	assert.True(t, resp.VectorDegraded)
	assert.Empty(t, resp.Results)
}

func TestSearchHybrid_VectorOnlyStrategy(t *testing.T) {
	f := indexedFixture(t)
	svc := NewSearchService(nil, f.vectors, f.embedder, tokenizer.New(), f.settings)

	resp, err := svc.SearchHybrid(context.Background(), "user research interfaces", domain.SearchOptions{})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, StrategyVectorOnly, resp.Strategy)
	assert.True(t, resp.KeywordDegraded)
	require.NotEmpty(t, resp.Results)
	for _, r := range resp.Results {
		assert.Equal(t, []domain.RetrievalMethod{domain.MethodVector}, r.ContributingMethods)
		assert.InDelta(t, r.VectorScore*0.5, r.FinalScore, 1e-9)
	}
}

func TestSearchHybrid_DegradedPathsKeepRequestedWeights(t *testing.T) {
	f := indexedFixture(t)
	weights := domain.Weights{Vector: 0.7, Keyword: 0.3}

	vectorOnly := NewSearchService(nil, f.vectors, f.embedder, tokenizer.New(), f.settings)
	resp, err := vectorOnly.SearchHybrid(context.Background(), "user research", domain.SearchOptions{Weights: weights})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	for _, r := range resp.Results {
		assert.InDelta(t, r.VectorScore*0.7, r.FinalScore, 1e-9)
	}

	keywordOnly := NewSearchService(f.keyword, f.vectors, nil, tokenizer.New(), f.settings)
	resp, err = keywordOnly.SearchHybrid(context.Background(), "Figma", domain.SearchOptions{Weights: weights})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	for _, r := range resp.Results {
		assert.InDelta(t, r.KeywordScore*0.3, r.FinalScore, 1e-9)
	}
}

func TestSearchHybrid_KeywordOnlyStrategy(t *testing.T) {
	f := indexedFixture(t)
	svc := NewSearchService(f.keyword, f.vectors, nil, tokenizer.New(), f.settings)

	resp, err := svc.SearchHybrid(context.Background(), "Figma prototyping", domain.SearchOptions{})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, StrategyKeywordOnly, resp.Strategy)
	assert.True(t, resp.VectorDegraded)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "r-designer", resp.Results[0].DocumentID)
	assert.Equal(t, []domain.RetrievalMethod{domain.MethodKeyword}, resp.Results[0].ContributingMethods)
}

func TestSearchHybrid_ChannelTimeout(t *testing.T) {
	f := indexedFixture(t)
	settings := f.settings
	settings.Search.ChannelTimeout = 20 * time.Millisecond
	slow := &blockingEmbedder{EmbeddingService: hashing.NewEmbeddingService(256)}
	svc := NewSearchService(f.keyword, f.vectors, slow, tokenizer.New(), settings)

	start := time.Now()
	resp, err := svc.SearchHybrid(context.Background(), "Python SQL", domain.SearchOptions{})

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, resp.Success)
	assert.True(t, resp.VectorDegraded)
	assert.False(t, resp.KeywordDegraded)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "r-analyst", resp.Results[0].DocumentID)
}

func TestSearchHybrid_CallerCancelAbandonsChannels(t *testing.T) {
	f := indexedFixture(t)
	settings := f.settings
	settings.Search.ChannelTimeout = time.Minute
	slow := &blockingEmbedder{EmbeddingService: hashing.NewEmbeddingService(256)}
	svc := NewSearchService(f.keyword, f.vectors, slow, tokenizer.New(), settings)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	defer cancel()

	start := time.Now()
	resp, err := svc.SearchHybrid(ctx, "Python SQL", domain.SearchOptions{})

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, resp.VectorDegraded)
}

func TestSearchHybrid_WeightsOverride(t *testing.T) {
	f := indexedFixture(t)
	svc := f.search()

	resp, err := svc.SearchHybrid(context.Background(), "Kafka", domain.SearchOptions{
		Weights: domain.Weights{Keyword: 1},
	})

	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	for _, r := range resp.Results {
		assert.InDelta(t, r.KeywordScore, r.FinalScore, 1e-9)
	}
}

func TestSearchHybrid_InvalidWeights(t *testing.T) {
	f := indexedFixture(t)

	resp, err := f.search().SearchHybrid(context.Background(), "go", domain.SearchOptions{
		Weights: domain.Weights{Vector: 0.9, Keyword: 0.9},
	})

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "invalid input")
}

func TestSearchHybrid_LimitAndDocumentType(t *testing.T) {
	f := indexedFixture(t)
	letter := &domain.Document{
		ID:          "cl-1",
		ApplicantID: "a-9",
		Type:        domain.DocumentTypeCoverLetter,
		Fields:      map[string]string{domain.FieldMotivation: "Go backend engineering is what I want to do."},
	}
	f.add(t, letter)
	svc := f.search()

	resp, err := svc.SearchHybrid(context.Background(), "backend Go", domain.SearchOptions{
		Limit:        1,
		DocumentType: domain.DocumentTypeCoverLetter,
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "cl-1", resp.Results[0].DocumentID)
}

func TestSearchService_SetSettings(t *testing.T) {
	f := indexedFixture(t)
	svc := f.search()

	settings := f.settings
	settings.Search.DefaultLimit = 1
	svc.SetSettings(settings)

	resp, err := svc.SearchHybrid(context.Background(), "engineer designer analyst", domain.SearchOptions{})

	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, 1, svc.Settings().Search.DefaultLimit)
}

func TestSearchByKeywords(t *testing.T) {
	f := indexedFixture(t)

	resp, err := f.search().SearchByKeywords(context.Background(), "Kubernetes", 5)

	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "r-backend", resp.Hits[0].SourceID)
	assert.NotEmpty(t, resp.Hits[0].Highlights)
}

func TestSearchByKeywords_Degraded(t *testing.T) {
	f := indexedFixture(t)
	f.keyword.SetAvailable(false)

	resp, err := f.search().SearchByKeywords(context.Background(), "Kubernetes", 5)

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.True(t, resp.Degraded)
	assert.Empty(t, resp.Hits)
}

func TestSearchByKeywords_NoIndex(t *testing.T) {
	svc := NewSearchService(nil, nil, nil, nil, domain.DefaultEngineSettings())

	resp, err := svc.SearchByKeywords(context.Background(), "go", 5)

	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Equal(t, domain.ErrKeywordIndexUnavailable.Error(), resp.Message)
}

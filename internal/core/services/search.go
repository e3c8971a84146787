package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/core/ports/driving"
	"github.com/custodia-labs/resumatch/internal/logger"
)

// Ensure SearchService implements the interfaces.
var (
	_ driving.SearchService = (*SearchService)(nil)
	_ driving.SettingsAware = (*SearchService)(nil)
)

// overfetchFactor multiplies the limit for each retrieval channel.
const overfetchFactor = 2

// Strategy names reported in SearchResponse.Strategy.
const (
	StrategyHybrid      = "hybrid"
	StrategyVectorOnly  = "vector"
	StrategyKeywordOnly = "keyword"
)

// channelResult holds one channel's hits after its call has finished.
type channelResult struct {
	vectorHits      []domain.RetrievalHit
	keywordHits     []domain.RetrievalHit
	vectorDegraded  bool
	keywordDegraded bool
}

// retrievalStrategy is one entry of the ordered fallback chain.
type retrievalStrategy interface {
	Name() string
	Available() bool
	Retrieve(ctx context.Context, query string, opts domain.SearchOptions) channelResult
}

// SearchService provides hybrid and keyword search.
type SearchService struct {
	settingsHolder

	keywordIndex     driven.KeywordIndex
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	tokenizer        Tokenizer

	strategies []retrievalStrategy
}

// NewSearchService creates a new search service.
// keywordIndex, vectorIndex and embeddingService are optional (can be nil),
// but at least one retrieval channel must be usable for searches to succeed.
func NewSearchService(
	keywordIndex driven.KeywordIndex,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	tokenizer Tokenizer,
	settings domain.EngineSettings,
) *SearchService {
	s := &SearchService{
		keywordIndex:     keywordIndex,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		tokenizer:        tokenizer,
	}
	s.SetSettings(settings)
	s.strategies = []retrievalStrategy{
		hybridStrategy{s},
		vectorOnlyStrategy{s},
		keywordOnlyStrategy{s},
	}
	return s
}

// SearchHybrid fuses keyword and vector retrieval into one ranked list.
// Only ErrNoBackends is returned as an error; every other failure is
// reported through the response flags.
func (s *SearchService) SearchHybrid(
	ctx context.Context, query string, opts domain.SearchOptions,
) (domain.SearchResponse, error) {
	logger.Section("Hybrid Search")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	resp := domain.SearchResponse{Query: query, Results: []domain.FusedResult{}}
	if query == "" {
		resp.Message = domain.ErrEmptyQuery.Error()
		return resp, nil
	}

	settings := s.Settings()
	opts.Limit = s.limitOrDefault(opts.Limit)
	weights := opts.Weights
	if weights.IsZero() {
		weights = settings.Fusion.Weights
	}
	if err := validateWeights(weights); err != nil {
		resp.Message = err.Error()
		return resp, nil
	}

	strategy := s.selectStrategy()
	if strategy == nil {
		logger.Warn("Hybrid search: no retrieval backend available")
		return resp, domain.ErrNoBackends
	}
	logger.Info("Retrieval strategy: %s", strategy.Name())

	result := strategy.Retrieve(ctx, query, opts)
	logger.Debug("Channel hits: vector=%d keyword=%d", len(result.vectorHits), len(result.keywordHits))

	fused := Fuse(result.vectorHits, result.keywordHits, weights, settings.Fusion.KeywordScale)
	if len(fused) > opts.Limit {
		fused = fused[:opts.Limit]
	}

	resp.Strategy = strategy.Name()
	resp.Results = fused
	resp.VectorDegraded = result.vectorDegraded
	resp.KeywordDegraded = result.keywordDegraded
	resp.Degraded = result.vectorDegraded || result.keywordDegraded

	switch {
	case result.vectorDegraded && result.keywordDegraded:
		resp.Message = "all retrieval channels failed"
	case resp.Degraded:
		resp.Success = true
		resp.Message = fmt.Sprintf("found %d results (degraded: %s)", len(fused), degradedChannels(result))
	default:
		resp.Success = true
		resp.Message = fmt.Sprintf("found %d results", len(fused))
	}
	logger.Info("Hybrid search: %s", resp.Message)
	return resp, nil
}

// SearchByKeywords runs keyword retrieval only and returns highlighted hits.
func (s *SearchService) SearchByKeywords(
	ctx context.Context, query string, limit int,
) (domain.KeywordSearchResponse, error) {
	logger.Section("Keyword Search")

	query = strings.TrimSpace(query)
	resp := domain.KeywordSearchResponse{Query: query, Hits: []domain.RetrievalHit{}}
	if query == "" {
		resp.Message = domain.ErrEmptyQuery.Error()
		return resp, nil
	}
	if s.keywordIndex == nil {
		resp.Degraded = true
		resp.Message = domain.ErrKeywordIndexUnavailable.Error()
		return resp, nil
	}

	hits, err := s.keywordSearch(ctx, query, s.limitOrDefault(limit), "")
	if err != nil {
		logger.Warn("Keyword search failed: %v", err)
		resp.Degraded = true
		resp.Message = domain.ErrKeywordIndexUnavailable.Error()
		return resp, nil
	}

	if hits != nil {
		resp.Hits = hits
	}
	resp.Success = true
	resp.Message = fmt.Sprintf("found %d results", len(resp.Hits))
	return resp, nil
}

// selectStrategy returns the first available strategy of the chain.
func (s *SearchService) selectStrategy() retrievalStrategy {
	for _, strategy := range s.strategies {
		if strategy.Available() {
			return strategy
		}
		logger.Debug("Strategy %s unavailable", strategy.Name())
	}
	return nil
}

func (s *SearchService) keywordAvailable() bool {
	return s.keywordIndex != nil
}

func (s *SearchService) vectorAvailable() bool {
	return s.vectorIndex != nil && s.embeddingService != nil
}

// keywordSearch queries the keyword index with the raw text and its token set.
func (s *SearchService) keywordSearch(
	ctx context.Context, query string, limit int, docType domain.DocumentType,
) ([]domain.RetrievalHit, error) {
	var tokens []string
	if s.tokenizer != nil {
		tokens = s.tokenizer.Tokenize(query)
	}
	logger.Debug("Keyword search: query=%q tokens=%v limit=%d", query, tokens, limit)

	return s.keywordIndex.Search(ctx, driven.KeywordQuery{
		Text:         query,
		Tokens:       tokens,
		Limit:        limit,
		DocumentType: docType,
	})
}

// vectorSearch embeds the query and searches document summary vectors.
func (s *SearchService) vectorSearch(
	ctx context.Context, query string, limit int, docType domain.DocumentType,
) ([]domain.RetrievalHit, error) {
	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	return s.vectorIndex.Query(ctx, embedding, limit, driven.VectorFilter{
		Level:        domain.VectorLevelDocument,
		DocumentType: docType,
	})
}

// runChannel calls fn under its own timeout. Failures are logged and
// reported as degradation, never returned.
func (s *SearchService) runChannel(
	ctx context.Context, name string, fn func(context.Context) ([]domain.RetrievalHit, error),
) (hits []domain.RetrievalHit, degraded bool) {
	ctx, cancel := context.WithTimeout(ctx, s.Settings().Search.ChannelTimeout)
	defer cancel()

	hits, err := fn(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("%s channel timed out", name)
		} else {
			logger.Warn("%s channel failed: %v", name, err)
		}
		return nil, true
	}
	return hits, false
}

func degradedChannels(r channelResult) string {
	var names []string
	if r.vectorDegraded {
		names = append(names, domain.MethodVector.String())
	}
	if r.keywordDegraded {
		names = append(names, domain.MethodKeyword.String())
	}
	return strings.Join(names, ", ")
}

func validateWeights(w domain.Weights) error {
	if w.Vector < 0 || w.Keyword < 0 {
		return fmt.Errorf("%w: weights must not be negative", domain.ErrInvalidInput)
	}
	if w.Vector+w.Keyword > 1+1e-9 {
		return fmt.Errorf("%w: weights must sum to at most 1", domain.ErrInvalidInput)
	}
	return nil
}

// hybridStrategy runs both channels concurrently and fuses them.
type hybridStrategy struct{ s *SearchService }

func (h hybridStrategy) Name() string { return StrategyHybrid }

func (h hybridStrategy) Available() bool {
	return h.s.keywordAvailable() && h.s.vectorAvailable()
}

func (h hybridStrategy) Retrieve(ctx context.Context, query string, opts domain.SearchOptions) channelResult {
	var r channelResult
	limit := opts.Limit * overfetchFactor

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.keywordHits, r.keywordDegraded = h.s.runChannel(gctx, "keyword", func(ctx context.Context) ([]domain.RetrievalHit, error) {
			return h.s.keywordSearch(ctx, query, limit, opts.DocumentType)
		})
		return nil
	})
	g.Go(func() error {
		r.vectorHits, r.vectorDegraded = h.s.runChannel(gctx, "vector", func(ctx context.Context) ([]domain.RetrievalHit, error) {
			return h.s.vectorSearch(ctx, query, limit, opts.DocumentType)
		})
		return nil
	})
	_ = g.Wait()

	return r
}

// vectorOnlyStrategy is used when no keyword index is configured.
type vectorOnlyStrategy struct{ s *SearchService }

func (v vectorOnlyStrategy) Name() string { return StrategyVectorOnly }

func (v vectorOnlyStrategy) Available() bool { return v.s.vectorAvailable() }

func (v vectorOnlyStrategy) Retrieve(ctx context.Context, query string, opts domain.SearchOptions) channelResult {
	r := channelResult{keywordDegraded: true}
	r.vectorHits, r.vectorDegraded = v.s.runChannel(ctx, "vector", func(ctx context.Context) ([]domain.RetrievalHit, error) {
		return v.s.vectorSearch(ctx, query, opts.Limit*overfetchFactor, opts.DocumentType)
	})
	return r
}

// keywordOnlyStrategy is used when vectors cannot be produced or stored.
type keywordOnlyStrategy struct{ s *SearchService }

func (k keywordOnlyStrategy) Name() string { return StrategyKeywordOnly }

func (k keywordOnlyStrategy) Available() bool { return k.s.keywordAvailable() }

func (k keywordOnlyStrategy) Retrieve(ctx context.Context, query string, opts domain.SearchOptions) channelResult {
	r := channelResult{vectorDegraded: true}
	r.keywordHits, r.keywordDegraded = k.s.runChannel(ctx, "keyword", func(ctx context.Context) ([]domain.RetrievalHit, error) {
		return k.s.keywordSearch(ctx, query, opts.Limit*overfetchFactor, opts.DocumentType)
	})
	return r
}

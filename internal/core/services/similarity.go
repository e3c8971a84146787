package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/core/ports/driving"
	"github.com/custodia-labs/resumatch/internal/logger"
	"github.com/custodia-labs/resumatch/internal/vecmath"
)

// Ensure SimilarityService implements the interfaces.
var (
	_ driving.SimilarityService = (*SimilarityService)(nil)
	_ driving.SettingsAware     = (*SimilarityService)(nil)
)

// maxConcurrentChunkQueries bounds the per-chunk neighbour fan-out.
const maxConcurrentChunkQueries = 8

// Classify labels an aggregate similarity score.
// Scores at or above high are HIGH, at or above base are MEDIUM, the rest NONE.
func Classify(score float64, p domain.PlagiarismSettings) domain.RiskLevel {
	switch {
	case score >= p.HighThreshold:
		return domain.RiskHigh
	case score >= p.Threshold:
		return domain.RiskMedium
	default:
		return domain.RiskNone
	}
}

// pairKey identifies a (source chunk type, candidate chunk type) pair.
type pairKey struct {
	source    domain.ChunkType
	candidate domain.ChunkType
}

// candidateScores accumulates the best score per chunk-type pair for one document.
type candidateScores struct {
	applicantID string
	pairs       map[pairKey]float64
}

// Aggregator collapses chunk-level neighbour hits into document-level scores.
// It is not safe for concurrent use.
type Aggregator struct {
	sourceID     string
	sourceChunks map[string]bool
	candidates   map[string]*candidateScores
}

// NewAggregator creates an aggregator for a source document and its chunk IDs.
// Hits from the source document or any of its chunks are never counted.
func NewAggregator(sourceID string, sourceChunkIDs []string) *Aggregator {
	chunks := make(map[string]bool, len(sourceChunkIDs))
	for _, id := range sourceChunkIDs {
		chunks[id] = true
	}
	return &Aggregator{
		sourceID:     sourceID,
		sourceChunks: chunks,
		candidates:   make(map[string]*candidateScores),
	}
}

// Add records the neighbours of one source chunk.
// Each pair keeps its maximum score; repeated matches never add up.
func (a *Aggregator) Add(sourceType domain.ChunkType, hits []domain.RetrievalHit) {
	for _, hit := range hits {
		docID := hitDocumentID(hit)
		if docID == a.sourceID || a.sourceChunks[hit.SourceID] {
			continue
		}

		c, ok := a.candidates[docID]
		if !ok {
			c = &candidateScores{
				applicantID: hit.Metadata.ApplicantID,
				pairs:       make(map[pairKey]float64),
			}
			a.candidates[docID] = c
		}

		key := pairKey{source: sourceType, candidate: hit.Metadata.ChunkType}
		score := vecmath.Clamp(hit.Score, 0, 1)
		if best, seen := c.pairs[key]; !seen || score > best {
			c.pairs[key] = score
		}
	}
}

// CandidateIDs returns the IDs of every candidate seen so far, sorted.
func (a *Aggregator) CandidateIDs() []string {
	ids := make([]string, 0, len(a.candidates))
	for id := range a.candidates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AggregateOptions controls which candidates Verdicts retains.
type AggregateOptions struct {
	// Threshold is the minimum mean pair score.
	Threshold float64
	// FieldThresholds are minimums for same-field pairs.
	FieldThresholds map[string]float64
	// SourceFields are the fields populated in the source document.
	SourceFields map[string]bool
	// CandidateFields returns the fields populated in a candidate document.
	// When it returns false the candidate is dropped.
	CandidateFields func(documentID string) (map[string]bool, bool)
	// Limit truncates the result when positive.
	Limit int
}

// Verdicts scores every candidate as the mean of its pair scores and
// returns those that clear the thresholds, best first.
func (a *Aggregator) Verdicts(opts AggregateOptions) []domain.SimilarityVerdict {
	verdicts := make([]domain.SimilarityVerdict, 0, len(a.candidates))
	for id, c := range a.candidates {
		if len(c.pairs) == 0 {
			continue
		}

		var sum float64
		evidence := make([]domain.ChunkEvidence, 0, len(c.pairs))
		for key, score := range c.pairs {
			sum += score
			evidence = append(evidence, domain.ChunkEvidence{
				SourceType:    key.source,
				CandidateType: key.candidate,
				Score:         score,
			})
		}
		mean := sum / float64(len(c.pairs))
		if mean < opts.Threshold {
			continue
		}

		if len(opts.FieldThresholds) > 0 || opts.CandidateFields != nil {
			var candidateFields map[string]bool
			if opts.CandidateFields != nil {
				fields, ok := opts.CandidateFields(id)
				if !ok {
					continue
				}
				candidateFields = fields
			}
			if !c.clearsFieldThresholds(opts.FieldThresholds, opts.SourceFields, candidateFields) {
				continue
			}
		}

		sort.Slice(evidence, func(i, j int) bool {
			if evidence[i].Score != evidence[j].Score {
				return evidence[i].Score > evidence[j].Score
			}
			if evidence[i].SourceType != evidence[j].SourceType {
				return evidence[i].SourceType < evidence[j].SourceType
			}
			return evidence[i].CandidateType < evidence[j].CandidateType
		})

		verdicts = append(verdicts, domain.SimilarityVerdict{
			CandidateDocumentID: id,
			ApplicantID:         c.applicantID,
			SimilarityScore:     mean,
			ChunkEvidence:       evidence,
		})
	}

	sort.Slice(verdicts, func(i, j int) bool {
		if verdicts[i].SimilarityScore != verdicts[j].SimilarityScore {
			return verdicts[i].SimilarityScore > verdicts[j].SimilarityScore
		}
		return verdicts[i].CandidateDocumentID < verdicts[j].CandidateDocumentID
	})
	if opts.Limit > 0 && len(verdicts) > opts.Limit {
		verdicts = verdicts[:opts.Limit]
	}
	return verdicts
}

// clearsFieldThresholds checks the same-field pair of every thresholded
// field populated on both sides. A missing pair scores 0.
func (c *candidateScores) clearsFieldThresholds(
	thresholds map[string]float64, sourceFields, candidateFields map[string]bool,
) bool {
	for field, minScore := range thresholds {
		if !sourceFields[field] || !candidateFields[field] {
			continue
		}
		key := pairKey{source: domain.ChunkType(field), candidate: domain.ChunkType(field)}
		if c.pairs[key] < minScore {
			return false
		}
	}
	return true
}

// SimilarityService compares stored documents with the rest of the corpus.
type SimilarityService struct {
	settingsHolder

	docStore         driven.DocumentStore
	pipeline         driven.PostProcessorPipeline
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
}

// NewSimilarityService creates a new similarity service.
// embeddingService is optional: stored chunk vectors are used when present.
// pipeline is used only for documents without stored chunks.
func NewSimilarityService(
	docStore driven.DocumentStore,
	pipeline driven.PostProcessorPipeline,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	settings domain.EngineSettings,
) *SimilarityService {
	s := &SimilarityService{
		docStore:         docStore,
		pipeline:         pipeline,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
	}
	s.SetSettings(settings)
	return s
}

// FindSimilarDocuments returns candidates above the similarity threshold.
func (s *SimilarityService) FindSimilarDocuments(
	ctx context.Context, documentID string, limit int,
) (domain.SimilarityResponse, error) {
	settings := s.Settings()
	return s.compare(ctx, documentID, limit, settings.Similarity.Threshold, settings.Similarity.FieldThresholds)
}

// CheckPlagiarism returns only candidates at or above the plagiarism threshold.
// Candidates below it are excluded, not reported as low risk.
func (s *SimilarityService) CheckPlagiarism(
	ctx context.Context, documentID string, limit int,
) (domain.SimilarityResponse, error) {
	settings := s.Settings()
	resp, err := s.compare(ctx, documentID, limit, settings.Plagiarism.Threshold, settings.Similarity.FieldThresholds)
	if err != nil {
		return resp, err
	}

	flagged := resp.Verdicts[:0]
	for _, v := range resp.Verdicts {
		if v.RiskLevel != domain.RiskNone {
			flagged = append(flagged, v)
		}
	}
	resp.Verdicts = flagged
	if resp.Success {
		resp.Message = fmt.Sprintf("%d documents at or above %.2f", len(flagged), settings.Plagiarism.Threshold)
	}
	return resp, nil
}

// compare runs the chunk fan-out and aggregation for one source document.
func (s *SimilarityService) compare(
	ctx context.Context, documentID string, limit int, threshold float64, fieldThresholds map[string]float64,
) (domain.SimilarityResponse, error) {
	logger.Section("Document Similarity")

	resp := domain.SimilarityResponse{DocumentID: documentID, Verdicts: []domain.SimilarityVerdict{}}
	if documentID == "" {
		resp.Message = "document id is required"
		return resp, nil
	}
	if s.vectorIndex == nil {
		resp.Degraded = true
		resp.Message = domain.ErrVectorIndexUnavailable.Error()
		return resp, nil
	}

	settings := s.Settings()
	limit = s.limitOrDefault(limit)

	doc, err := s.docStore.FindByID(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		resp.Message = fmt.Sprintf("document %s not found", documentID)
		return resp, nil
	}
	if err != nil {
		return resp, fmt.Errorf("load document %s: %w", documentID, err)
	}

	chunks, err := s.sourceChunks(ctx, doc)
	if err != nil {
		return resp, err
	}
	if len(chunks) == 0 {
		resp.Message = domain.ErrNothingToIndex.Error()
		return resp, nil
	}
	logger.Debug("Source %s: %d chunks, threshold %.2f", documentID, len(chunks), threshold)

	neighbours, failed := s.queryNeighbours(ctx, doc, chunks, limit*settings.Similarity.OverfetchFactor)
	if failed == len(chunks) {
		resp.Degraded = true
		resp.Message = "no chunk of the document could be compared"
		return resp, nil
	}

	agg := NewAggregator(doc.ID, chunkIDs(chunks))
	for i := range chunks {
		agg.Add(chunks[i].Type, neighbours[i])
	}

	candidateFields, err := s.candidateFields(ctx, agg.CandidateIDs())
	if err != nil {
		return resp, err
	}

	verdicts := agg.Verdicts(AggregateOptions{
		Threshold:       threshold,
		FieldThresholds: fieldThresholds,
		SourceFields:    populatedFields(doc),
		CandidateFields: func(id string) (map[string]bool, bool) {
			fields, ok := candidateFields[id]
			return fields, ok
		},
		Limit: limit,
	})
	for i := range verdicts {
		verdicts[i].RiskLevel = Classify(verdicts[i].SimilarityScore, settings.Plagiarism)
		verdicts[i].Explanation = explain(verdicts[i])
	}

	resp.Verdicts = verdicts
	resp.Degraded = failed > 0
	resp.Success = true
	resp.Message = fmt.Sprintf("found %d similar documents", len(verdicts))
	if resp.Degraded {
		resp.Message += fmt.Sprintf(" (%d chunks not compared)", failed)
	}
	logger.Info("Similarity for %s: %s", documentID, resp.Message)
	return resp, nil
}

// sourceChunks returns the stored chunks of doc, chunking it when none are stored.
func (s *SimilarityService) sourceChunks(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	chunks, err := s.docStore.GetChunks(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("load chunks for %s: %w", doc.ID, err)
	}
	if len(chunks) > 0 || s.pipeline == nil {
		return chunks, nil
	}

	logger.Debug("No stored chunks for %s, chunking on the fly", doc.ID)
	chunks, err = s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document %s: %w", doc.ID, err)
	}
	return chunks, nil
}

// queryNeighbours fans out one vector query per chunk and joins the results.
// neighbours[i] holds the hits of chunks[i]; failed counts chunks without hits
// because no vector was available or the query failed.
func (s *SimilarityService) queryNeighbours(
	ctx context.Context, doc *domain.Document, chunks []domain.Chunk, topK int,
) (neighbours [][]domain.RetrievalHit, failed int) {
	neighbours = make([][]domain.RetrievalHit, len(chunks))
	timeout := s.Settings().Search.ChannelTimeout
	filter := driven.VectorFilter{Level: domain.VectorLevelChunk, DocumentType: doc.Type}

	var failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChunkQueries)
	for i := range chunks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			vec, err := s.chunkVector(cctx, &chunks[i])
			if err != nil {
				logger.Warn("No vector for chunk %s: %v", chunks[i].ID, err)
				failures.Add(1)
				return nil
			}
			hits, err := s.vectorIndex.Query(cctx, vec, topK, filter)
			if err != nil {
				logger.Warn("Neighbour query for chunk %s failed: %v", chunks[i].ID, err)
				failures.Add(1)
				return nil
			}
			neighbours[i] = hits
			return nil
		})
	}
	_ = g.Wait()

	return neighbours, int(failures.Load())
}

// chunkVector returns the stored vector of a chunk, embedding it when missing.
func (s *SimilarityService) chunkVector(ctx context.Context, chunk *domain.Chunk) ([]float32, error) {
	record, err := s.vectorIndex.Fetch(ctx, chunk.VectorID())
	if err == nil && len(record.Vector) > 0 {
		return record.Vector, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Debug("Fetching vector %s failed: %v", chunk.ID, err)
	}
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return s.embeddingService.Embed(ctx, chunk.Content)
}

// candidateFields loads the populated fields of each candidate document.
// Candidates missing from the store are left out.
func (s *SimilarityService) candidateFields(ctx context.Context, ids []string) (map[string]map[string]bool, error) {
	out := make(map[string]map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	docs, err := s.docStore.FindMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidate documents: %w", err)
	}
	for i := range docs {
		out[docs[i].ID] = populatedFields(&docs[i])
	}
	return out, nil
}

func populatedFields(doc *domain.Document) map[string]bool {
	fields := make(map[string]bool)
	for _, name := range doc.FieldNames() {
		if doc.Field(name) != "" {
			fields[name] = true
		}
	}
	if doc.Field(domain.FieldExtractedText) != "" {
		fields[domain.FieldExtractedText] = true
	}
	return fields
}

// explain summarises the strongest evidence of a verdict.
func explain(v domain.SimilarityVerdict) string {
	if len(v.ChunkEvidence) == 0 {
		return ""
	}
	top := v.ChunkEvidence
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, len(top))
	for i, e := range top {
		parts[i] = fmt.Sprintf("%s->%s %.2f", e.SourceType, e.CandidateType, e.Score)
	}
	return fmt.Sprintf("%s: mean of %d chunk pairs (%s)",
		v.RiskLevel.Description(), len(v.ChunkEvidence), strings.Join(parts, ", "))
}

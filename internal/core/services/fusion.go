package services

import (
	"sort"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/vecmath"
)

// fusionCandidate collects the best native score per channel for one document.
type fusionCandidate struct {
	documentID   string
	applicantID  string
	documentType domain.DocumentType
	vector       float64
	keyword      float64
	highlights   []string
}

// Fuse merges vector and keyword hits into one ranked list of documents.
//
// Hits are keyed by document: a document reached by several chunks keeps its
// best score per channel. The vector score is the cosine similarity clamped
// to [0,1]; the keyword score is min(raw/keywordScale, 1). A document found
// by one channel only scores 0 for the other. Results with a final score of
// 0 or less are dropped, and the rest are ordered by final score descending,
// then document ID ascending.
func Fuse(vectorHits, keywordHits []domain.RetrievalHit, weights domain.Weights, keywordScale float64) []domain.FusedResult {
	if keywordScale <= 0 {
		keywordScale = domain.DefaultKeywordScale
	}

	candidates := make(map[string]*fusionCandidate)
	get := func(hit domain.RetrievalHit) *fusionCandidate {
		id := hitDocumentID(hit)
		c, ok := candidates[id]
		if !ok {
			c = &fusionCandidate{documentID: id}
			candidates[id] = c
		}
		if c.applicantID == "" {
			c.applicantID = hit.Metadata.ApplicantID
		}
		if c.documentType == "" {
			c.documentType = hit.Metadata.DocumentType
		}
		return c
	}

	for _, hit := range vectorHits {
		c := get(hit)
		if score := vecmath.Clamp(hit.Score, 0, 1); score > c.vector {
			c.vector = score
		}
	}
	for _, hit := range keywordHits {
		c := get(hit)
		if score := vecmath.Clamp(hit.Score/keywordScale, 0, 1); score > c.keyword {
			c.keyword = score
			c.highlights = hit.Highlights
		}
	}

	results := make([]domain.FusedResult, 0, len(candidates))
	for _, c := range candidates {
		final := vecmath.Clamp(c.vector*weights.Vector+c.keyword*weights.Keyword, 0, 1)
		if final <= 0 {
			continue
		}

		var methods []domain.RetrievalMethod
		if c.vector > 0 {
			methods = append(methods, domain.MethodVector)
		}
		if c.keyword > 0 {
			methods = append(methods, domain.MethodKeyword)
		}

		results = append(results, domain.FusedResult{
			DocumentID:          c.documentID,
			ApplicantID:         c.applicantID,
			DocumentType:        c.documentType,
			FinalScore:          final,
			VectorScore:         c.vector,
			KeywordScore:        c.keyword,
			ContributingMethods: methods,
			Highlights:          c.highlights,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	return results
}

// hitDocumentID returns the document a hit belongs to.
func hitDocumentID(hit domain.RetrievalHit) string {
	if hit.Metadata.DocumentID != "" {
		return hit.Metadata.DocumentID
	}
	return hit.SourceID
}

package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
)

// Ensure KeywordIndex implements the interface.
var _ driven.KeywordIndex = (*KeywordIndex)(nil)

// BM25 parameters.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// maxHighlights caps the snippets returned per hit.
const maxHighlights = 3

type keywordField int

const (
	fieldName keywordField = iota
	fieldPosition
	fieldSkills
	fieldBody
	fieldCount
)

var fieldBoosts = [fieldCount]float64{
	fieldName:     driven.BoostName,
	fieldPosition: driven.BoostPosition,
	fieldSkills:   driven.BoostSkills,
	fieldBody:     driven.BoostBody,
}

type keywordEntry struct {
	doc    domain.KeywordDocument
	terms  [fieldCount]map[string]int
	length [fieldCount]int
	tokens map[string]bool
}

// KeywordIndex is an in-memory field-weighted BM25 index.
// SetAvailable(false) simulates an unreachable backend.
type KeywordIndex struct {
	mu          sync.RWMutex
	entries     map[string]*keywordEntry
	unavailable bool
}

// NewKeywordIndex creates an empty keyword index.
func NewKeywordIndex() *KeywordIndex {
	return &KeywordIndex{entries: make(map[string]*keywordEntry)}
}

// SetAvailable toggles the simulated availability of the index.
func (k *KeywordIndex) SetAvailable(available bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.unavailable = !available
}

// Index adds or replaces a document.
func (k *KeywordIndex) Index(_ context.Context, doc domain.KeywordDocument) error {
	entry := &keywordEntry{doc: doc, tokens: make(map[string]bool, len(doc.Tokens))}
	for f, text := range [fieldCount]string{doc.Name, doc.Position, doc.Skills, doc.Body} {
		terms := analyze(text)
		entry.length[f] = len(terms)
		entry.terms[f] = make(map[string]int, len(terms))
		for _, t := range terms {
			entry.terms[f][t]++
		}
	}
	for _, t := range doc.Tokens {
		entry.tokens[t] = true
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.unavailable {
		return domain.ErrKeywordIndexUnavailable
	}
	k.entries[doc.DocumentID] = entry
	return nil
}

// Delete removes a document.
func (k *KeywordIndex) Delete(_ context.Context, documentID string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.unavailable {
		return domain.ErrKeywordIndexUnavailable
	}
	delete(k.entries, documentID)
	return nil
}

// Search scores every document with field-weighted BM25 plus a boosted
// exact token-set match.
func (k *KeywordIndex) Search(ctx context.Context, query driven.KeywordQuery) ([]domain.RetrievalHit, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.unavailable {
		return nil, domain.ErrKeywordIndexUnavailable
	}

	terms := uniqueTerms(analyze(query.Text))
	if len(terms) == 0 && len(query.Tokens) == 0 {
		return nil, nil
	}

	n := float64(len(k.entries))
	avgLen := k.averageLengths()
	idf := func(match func(*keywordEntry) bool) float64 {
		df := 0.0
		for _, e := range k.entries {
			if match(e) {
				df++
			}
		}
		return math.Log(1 + (n-df+0.5)/(df+0.5))
	}

	termIDF := make(map[string]float64, len(terms))
	for _, t := range terms {
		termIDF[t] = idf(func(e *keywordEntry) bool { return e.hasTerm(t) })
	}
	tokenIDF := make(map[string]float64, len(query.Tokens))
	for _, t := range query.Tokens {
		tokenIDF[t] = idf(func(e *keywordEntry) bool { return e.tokens[t] })
	}

	var hits []domain.RetrievalHit
	for id, e := range k.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if query.DocumentType != "" && e.doc.DocumentType != query.DocumentType {
			continue
		}

		score := 0.0
		for _, t := range terms {
			for f := keywordField(0); f < fieldCount; f++ {
				tf := float64(e.terms[f][t])
				if tf == 0 {
					continue
				}
				norm := 1 - bm25B + bm25B*float64(e.length[f])/math.Max(avgLen[f], 1)
				score += fieldBoosts[f] * termIDF[t] * tf * (bm25K1 + 1) / (tf + bm25K1*norm)
			}
		}
		for t, w := range tokenIDF {
			if e.tokens[t] {
				score += driven.BoostTokens * w
			}
		}
		if score <= 0 {
			continue
		}

		hits = append(hits, domain.RetrievalHit{
			SourceID: id,
			Score:    score,
			Metadata: domain.ChunkMetadata{
				DocumentID:   id,
				ApplicantID:  e.doc.ApplicantID,
				DocumentType: e.doc.DocumentType,
				Preview:      domain.Preview(e.doc.Body, domain.PreviewLength),
			},
			Highlights: highlights(e.doc.Body, terms),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].SourceID < hits[j].SourceID
	})
	if query.Limit > 0 && len(hits) > query.Limit {
		hits = hits[:query.Limit]
	}
	return hits, nil
}

// Stats reports the number of indexed documents.
func (k *KeywordIndex) Stats(_ context.Context) (driven.KeywordStats, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.unavailable {
		return driven.KeywordStats{}, domain.ErrKeywordIndexUnavailable
	}
	return driven.KeywordStats{Documents: len(k.entries)}, nil
}

// Ping reports whether the index is available.
func (k *KeywordIndex) Ping(_ context.Context) error {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.unavailable {
		return domain.ErrKeywordIndexUnavailable
	}
	return nil
}

// Close is a no-op.
func (k *KeywordIndex) Close() error {
	return nil
}

func (k *KeywordIndex) averageLengths() [fieldCount]float64 {
	var avg [fieldCount]float64
	if len(k.entries) == 0 {
		return avg
	}
	for _, e := range k.entries {
		for f := range avg {
			avg[f] += float64(e.length[f])
		}
	}
	for f := range avg {
		avg[f] /= float64(len(k.entries))
	}
	return avg
}

func (e *keywordEntry) hasTerm(t string) bool {
	for f := keywordField(0); f < fieldCount; f++ {
		if e.terms[f][t] > 0 {
			return true
		}
	}
	return false
}

// analyze lowercases and splits on anything that is not a letter or digit,
// matching the unicode61 tokenizer closely enough for ranking.
func analyze(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func uniqueTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// highlights returns up to maxHighlights sentences containing a query term.
func highlights(content string, terms []string) []string {
	if len(terms) == 0 {
		return nil
	}

	var out []string
	for _, sentence := range splitSentences(content) {
		lower := strings.ToLower(sentence)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				out = append(out, domain.Preview(sentence, 200))
				break
			}
		}
		if len(out) >= maxHighlights {
			break
		}
	}
	return out
}

// splitSentences splits content on sentence terminators and newlines.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

package domain

// RetrievalMethod names a retrieval channel.
type RetrievalMethod string

// Available retrieval channels.
const (
	// MethodVector is embedding nearest-neighbour retrieval.
	MethodVector RetrievalMethod = "vector"

	// MethodKeyword is lexical BM25-style retrieval.
	MethodKeyword RetrievalMethod = "keyword"
)

// String returns the string representation.
func (m RetrievalMethod) String() string {
	return string(m)
}

// VectorLevel distinguishes per-chunk vectors from per-document summary vectors.
type VectorLevel string

// Available vector levels.
const (
	// VectorLevelChunk marks one vector per chunk.
	VectorLevelChunk VectorLevel = "chunk"

	// VectorLevelDocument marks one summary vector per document.
	VectorLevelDocument VectorLevel = "document"
)

// RetrievalHit is a channel-native match produced per query.
// SourceID is a chunk id or a document id depending on the query mode.
type RetrievalHit struct {
	// SourceID is the matched chunk or document.
	SourceID string `json:"source_id"`

	// Score is channel-native: cosine similarity or an unbounded BM25-like score.
	Score float64 `json:"score"`

	// Metadata is the provenance of the match.
	Metadata ChunkMetadata `json:"metadata"`

	// Highlights contains snippets with matched terms (keyword channel only).
	Highlights []string `json:"highlights,omitempty"`
}

// KeywordDocument is the record stored in the keyword index for one document.
type KeywordDocument struct {
	DocumentID   string
	ApplicantID  string
	DocumentType DocumentType
	Name         string
	Position     string
	Skills       string
	Body         string
	Tokens       []string
}

// Weights controls the contribution of each channel to the fused score.
type Weights struct {
	Vector  float64 `json:"vector"`
	Keyword float64 `json:"keyword"`
}

// DefaultWeights weighs both channels equally.
func DefaultWeights() Weights {
	return Weights{Vector: 0.5, Keyword: 0.5}
}

// IsZero returns true if no weight is set.
func (w Weights) IsZero() bool {
	return w.Vector == 0 && w.Keyword == 0
}

// FusedResult is one document ranked by weighted fusion of both channels.
// All scores are in [0,1].
type FusedResult struct {
	DocumentID          string            `json:"document_id"`
	ApplicantID         string            `json:"applicant_id,omitempty"`
	DocumentType        DocumentType      `json:"document_type,omitempty"`
	FinalScore          float64           `json:"final_score"`
	VectorScore         float64           `json:"vector_score"`
	KeywordScore        float64           `json:"keyword_score"`
	ContributingMethods []RetrievalMethod `json:"contributing_methods"`
	Highlights          []string          `json:"highlights,omitempty"`
}

// SearchOptions configures a hybrid search.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// Weights overrides the configured channel weights when non-zero.
	Weights Weights

	// DocumentType restricts results to one document type when set.
	DocumentType DocumentType
}

// SearchResponse is the envelope returned by hybrid search.
// It is always well-formed; degradation is reported by flags, never errors.
type SearchResponse struct {
	Success         bool          `json:"success"`
	Message         string        `json:"message"`
	Query           string        `json:"query"`
	Strategy        string        `json:"strategy,omitempty"`
	Results         []FusedResult `json:"results"`
	Degraded        bool          `json:"degraded"`
	KeywordDegraded bool          `json:"keyword_degraded"`
	VectorDegraded  bool          `json:"vector_degraded"`
}

// KeywordSearchResponse is the envelope returned by keyword-only search.
type KeywordSearchResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Query    string         `json:"query"`
	Hits     []RetrievalHit `json:"hits"`
	Degraded bool           `json:"degraded"`
}

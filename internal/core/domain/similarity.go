package domain

// RiskLevel is the qualitative similarity/plagiarism label of a verdict.
type RiskLevel string

// Available risk levels.
const (
	RiskNone   RiskLevel = "NONE"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// String returns the string representation.
func (r RiskLevel) String() string {
	return string(r)
}

// Description returns a human-readable description of the level.
func (r RiskLevel) Description() string {
	switch r {
	case RiskHigh:
		return "High similarity: likely copied"
	case RiskMedium:
		return "Medium similarity: review recommended"
	case RiskNone:
		return "No significant similarity"
	default:
		return unknownDescription
	}
}

// ChunkEvidence is the best score seen for one (source type, candidate type) pair.
type ChunkEvidence struct {
	SourceType    ChunkType `json:"source_type"`
	CandidateType ChunkType `json:"candidate_type"`
	Score         float64   `json:"score"`
}

// SimilarityVerdict is a candidate document with its aggregate similarity.
type SimilarityVerdict struct {
	CandidateDocumentID string          `json:"candidate_document_id"`
	ApplicantID         string          `json:"applicant_id,omitempty"`
	SimilarityScore     float64         `json:"similarity_score"`
	RiskLevel           RiskLevel       `json:"risk_level"`
	ChunkEvidence       []ChunkEvidence `json:"chunk_evidence"`
	Explanation         string          `json:"explanation,omitempty"`
}

// SimilarityResponse is the envelope returned by similarity and plagiarism checks.
type SimilarityResponse struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	DocumentID string              `json:"document_id"`
	Verdicts   []SimilarityVerdict `json:"verdicts"`
	Degraded   bool                `json:"degraded"`
}

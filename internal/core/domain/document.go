package domain

import (
	"sort"
	"strings"
	"time"
)

// DocumentType identifies the kind of applicant document.
type DocumentType string

// Available document types.
const (
	// DocumentTypeResume is a structured résumé.
	DocumentTypeResume DocumentType = "resume"

	// DocumentTypeCoverLetter is a cover letter (self-introduction).
	DocumentTypeCoverLetter DocumentType = "cover_letter"

	// DocumentTypePortfolio is a portfolio with a summary and items.
	DocumentTypePortfolio DocumentType = "portfolio"
)

// IsValid returns true if the document type is recognised.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeResume, DocumentTypeCoverLetter, DocumentTypePortfolio:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocumentType) String() string {
	return string(t)
}

// Well-known structured field names.
const (
	FieldGrowthBackground = "growthBackground"
	FieldMotivation       = "motivation"
	FieldCareerHistory    = "careerHistory"
	FieldSkills           = "skills"
	FieldSummary          = "summary"
	FieldExtractedText    = "extracted_text"
	FieldItemTitle        = "item_title"
)

// StructuredFields returns the ordered structured field names for a document type.
// Free-form text (extracted_text) is not part of this list; it is chunked by window.
func StructuredFields(t DocumentType) []string {
	switch t {
	case DocumentTypeResume, DocumentTypeCoverLetter:
		return []string{FieldGrowthBackground, FieldMotivation, FieldCareerHistory, FieldSkills}
	case DocumentTypePortfolio:
		return []string{FieldSummary}
	default:
		return nil
	}
}

// PortfolioItem is a single project or work sample in a portfolio.
type PortfolioItem struct {
	// Title is the item headline.
	Title string `json:"title"`

	// Description is optional free text about the item.
	Description string `json:"description,omitempty"`
}

// Document is an applicant document whose text has already been extracted.
// Documents are owned by the external document store and are immutable once
// extraction completes; the engine only derives chunks and vectors from them.
type Document struct {
	// ID is the identifier assigned by the document store.
	ID string `json:"id"`

	// ApplicantID links the document to its applicant.
	ApplicantID string `json:"applicant_id"`

	// Type is the document kind.
	Type DocumentType `json:"document_type"`

	// ApplicantName is the applicant's display name (boosted in keyword search).
	ApplicantName string `json:"applicant_name,omitempty"`

	// Position is the job position applied for (boosted in keyword search).
	Position string `json:"position,omitempty"`

	// Fields holds the named text fields, e.g. "motivation" or "skills".
	Fields map[string]string `json:"fields,omitempty"`

	// Items holds portfolio items. Empty for other document types.
	Items []PortfolioItem `json:"items,omitempty"`

	// ExtractedText is unstructured OCR output, chunked by sliding window.
	ExtractedText string `json:"extracted_text,omitempty"`

	// CreatedAt is when the document was created in the store.
	CreatedAt time.Time `json:"created_at"`
}

// Field returns the trimmed value of a named field.
// The extracted_text field name maps to ExtractedText.
func (d *Document) Field(name string) string {
	if name == FieldExtractedText {
		return strings.TrimSpace(d.ExtractedText)
	}
	return strings.TrimSpace(d.Fields[name])
}

// FieldNames returns the document's field names in chunking order:
// the type's structured fields first, then any other populated fields sorted.
func (d *Document) FieldNames() []string {
	known := StructuredFields(d.Type)
	seen := make(map[string]bool, len(known))
	names := make([]string, 0, len(d.Fields))
	for _, name := range known {
		seen[name] = true
		names = append(names, name)
	}

	var extra []string
	for name := range d.Fields {
		if seen[name] || name == FieldExtractedText {
			continue
		}
		extra = append(extra, name)
	}
	sort.Strings(extra)

	return append(names, extra...)
}

// SearchableText concatenates every populated text field of the document.
// It is the body indexed for keyword search and embedded as the summary vector.
func (d *Document) SearchableText() string {
	var parts []string
	for _, name := range d.FieldNames() {
		if v := d.Field(name); v != "" {
			parts = append(parts, v)
		}
	}
	for _, item := range d.Items {
		if t := strings.TrimSpace(item.Title); t != "" {
			parts = append(parts, t)
		}
		if desc := strings.TrimSpace(item.Description); desc != "" {
			parts = append(parts, desc)
		}
	}
	if v := d.Field(FieldExtractedText); v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, "\n")
}

// HasText returns true if any text field is populated.
func (d *Document) HasText() bool {
	return strings.TrimSpace(d.SearchableText()) != ""
}

// ChunkType is the semantic label of a chunk: the name of its source field.
type ChunkType string

// String returns the string representation.
func (t ChunkType) String() string {
	return string(t)
}

// ChunkMetadata is the typed provenance record stored alongside each chunk
// and its vector. Extra carries only genuinely open-ended attributes.
type ChunkMetadata struct {
	// DocumentID is the parent document.
	DocumentID string `json:"document_id"`

	// ApplicantID is the parent document's applicant.
	ApplicantID string `json:"applicant_id"`

	// DocumentType is the parent document's type.
	DocumentType DocumentType `json:"document_type"`

	// ChunkType is the source field label.
	ChunkType ChunkType `json:"chunk_type"`

	// ChunkIndex is the window index within the field (0 for whole-field chunks).
	ChunkIndex int `json:"chunk_index"`

	// Preview is a short prefix of the chunk text.
	Preview string `json:"preview,omitempty"`

	// Extra holds open-ended attributes.
	Extra map[string]string `json:"extra,omitempty"`
}

// Chunk is a bounded passage derived from exactly one document.
// The chunk ID doubles as the embedding vector ID.
type Chunk struct {
	// ID is a stable function of (document id, chunk type, chunk index).
	ID string `json:"chunk_id"`

	// DocumentID links to the parent Document.
	DocumentID string `json:"document_id"`

	// ApplicantID links to the parent document's applicant.
	ApplicantID string `json:"applicant_id"`

	// DocumentType is the parent document's type.
	DocumentType DocumentType `json:"document_type"`

	// Type is the semantic label of the chunk.
	Type ChunkType `json:"chunk_type"`

	// Index is the sliding-window index (0 for whole-field chunks).
	Index int `json:"chunk_index"`

	// Content is the chunk text.
	Content string `json:"text"`

	// Tokens is the normalised keyword set of Content.
	Tokens []string `json:"tokens,omitempty"`

	// Embedding is the vector representation, when one was generated.
	Embedding []float32 `json:"-"`
}

// VectorID returns the vector store identifier for the chunk.
func (c *Chunk) VectorID() string {
	return c.ID
}

// Metadata builds the typed metadata record for the chunk.
func (c *Chunk) Metadata() ChunkMetadata {
	return ChunkMetadata{
		DocumentID:   c.DocumentID,
		ApplicantID:  c.ApplicantID,
		DocumentType: c.DocumentType,
		ChunkType:    c.Type,
		ChunkIndex:   c.Index,
		Preview:      Preview(c.Content, PreviewLength),
	}
}

// PreviewLength is the number of runes kept in text previews.
const PreviewLength = 120

// Preview returns at most n runes of text, with an ellipsis when truncated.
func Preview(text string, n int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}

// SummaryVectorID returns the vector id of a document-level summary vector.
func SummaryVectorID(documentID string) string {
	return "summary:" + documentID
}

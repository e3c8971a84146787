package domain

import "time"

// IndexResult reports the outcome of indexing one document.
type IndexResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	DocumentID     string `json:"document_id"`
	ChunkCount     int    `json:"chunk_count"`
	VectorsIndexed int    `json:"vectors_indexed"`
	ChunksSkipped  int    `json:"chunks_skipped"`
	KeywordIndexed bool   `json:"keyword_indexed"`
	SummaryReused  bool   `json:"summary_reused"`
}

// BulkIndexResult reports the outcome of a full corpus (re)index.
type BulkIndexResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	TotalIndexed int    `json:"total_indexed"`
	TotalFailed  int    `json:"total_failed"`
}

// DeleteResult reports which stores dropped a document's derived data.
type DeleteResult struct {
	DocumentID     string `json:"document_id"`
	VectorDeleted  bool   `json:"vector_deleted"`
	KeywordDeleted bool   `json:"keyword_deleted"`
}

// ReindexRun records one scheduled full reindex.
type ReindexRun struct {
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at"`
	Result    BulkIndexResult `json:"result"`
	Error     string          `json:"error,omitempty"`
}

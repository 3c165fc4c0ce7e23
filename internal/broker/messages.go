package broker

import "github.com/google/uuid"

const (
	QueueSimilarity = "summary.similarity"
	QueueIndexing   = "summary.indexing"
)

type IndexOp string

const (
	IndexOpUpsert IndexOp = "upsert"
	IndexOpDelete IndexOp = "delete"
)

// SimilarRequest asks the similarity engine to cluster one summary.
// Delivery is at-least-once; the handler is idempotent.
type SimilarRequest struct {
	SummaryID uuid.UUID `json:"summaryId"`
}

// IndexRequest asks the search collaborator to (re)index or delete one
// summary.
type IndexRequest struct {
	SummaryID uuid.UUID `json:"summaryId"`
	Op        IndexOp   `json:"op"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

type SummaryState string

const (
	SummaryStateCreated   SummaryState = "created"
	SummaryStateValidated SummaryState = "validated"
	SummaryStateDigested  SummaryState = "digested"
	SummaryStateDiscarded SummaryState = "discarded"
)

// Summary is the pipeline's central unit of work: an AI rephrasing of one
// article in one language. An article has at most one summary per language
// (the original plus translations).
type Summary struct {
	ID          uuid.UUID    `json:"id"`
	ArticleID   uuid.UUID    `json:"articleId"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	CategoryID  uuid.UUID    `json:"categoryId"`
	Language    Language     `json:"language"`
	State       SummaryState `json:"state"`
	Reason      string       `json:"reason,omitempty"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// Judgeable reports whether the summary is past creation and therefore
// eligible for translation, clustering and digests.
func (s SummaryState) Judgeable() bool {
	return s == SummaryStateValidated || s == SummaryStateDigested
}

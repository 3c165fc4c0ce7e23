package domain

import (
	"time"

	"github.com/google/uuid"
)

// Article is one collected page. The canonical URL is the dedup key:
// an article is created at most once per URL.
type Article struct {
	ID          uuid.UUID `json:"id"`
	SourceID    uuid.UUID `json:"sourceId"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"publishedAt"`
	CollectedAt time.Time `json:"collectedAt"`
}

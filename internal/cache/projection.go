package cache

import (
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/store"
	"github.com/google/uuid"
)

// InlineRelatedLimit is how many similarity backrefs a projection carries.
// The "load more" read path skips exactly this many, so the two sides must
// agree on the number.
const InlineRelatedLimit = 3

// Related is one similarity backref embedded in a projection.
type Related struct {
	GroupID   uuid.UUID `json:"groupId"`
	SummaryID uuid.UUID `json:"summaryId"`
	Title     string    `json:"title"`
}

// CachedSummary is the denormalized read model served from the timeline.
// It lives only in the cache and can be rebuilt from the store at any time.
type CachedSummary struct {
	ID           uuid.UUID           `json:"id"`
	ArticleID    uuid.UUID           `json:"articleId"`
	Title        string              `json:"title"`
	Body         string              `json:"body"`
	URL          string              `json:"url"`
	CategoryID   uuid.UUID           `json:"categoryId"`
	CategoryName string              `json:"categoryName"`
	SourceID     uuid.UUID           `json:"sourceId"`
	SourceName   string              `json:"sourceName"`
	Language     domain.Language     `json:"language"`
	State        domain.SummaryState `json:"state"`
	GeneratedAt  time.Time           `json:"generatedAt"`
	Related      []Related           `json:"related,omitempty"`
}

// BuildProjection flattens a joined summary row plus its first few
// similarity backrefs into the cached read model.
func BuildProjection(sc store.SummaryContext, related []Related) CachedSummary {
	if len(related) > InlineRelatedLimit {
		related = related[:InlineRelatedLimit]
	}
	return CachedSummary{
		ID:           sc.Summary.ID,
		ArticleID:    sc.Summary.ArticleID,
		Title:        sc.Summary.Title,
		Body:         sc.Summary.Body,
		URL:          sc.ArticleURL,
		CategoryID:   sc.Summary.CategoryID,
		CategoryName: sc.CategoryName,
		SourceID:     sc.SourceID,
		SourceName:   sc.SourceName,
		Language:     sc.Summary.Language,
		State:        sc.Summary.State,
		GeneratedAt:  sc.Summary.GeneratedAt,
		Related:      related,
	}
}

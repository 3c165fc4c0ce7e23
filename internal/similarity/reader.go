package similarity

import (
	"context"

	"github.com/DjordjeVuckovic/news-pulse/internal/cache"
	"github.com/DjordjeVuckovic/news-pulse/internal/store"
	"github.com/DjordjeVuckovic/news-pulse/pkg/pagination"
	"github.com/google/uuid"
)

type Related interface {
	RelatedWithTitles(ctx context.Context, summaryID uuid.UUID, offset, limit int) ([]store.RelatedSummary, error)
}

// Reader serves the load-more path for group references. Cached feed
// entries already inline the newest few references, so page 1 here starts
// where the inline list ends.
type Reader struct {
	related Related
}

func NewReader(related Related) *Reader {
	return &Reader{related: related}
}

func (r *Reader) ListRelated(ctx context.Context, summaryID uuid.UUID, req pagination.OffsetRequest) ([]store.RelatedSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	offset := cache.InlineRelatedLimit + (req.Page-1)*req.Size
	return r.related.RelatedWithTitles(ctx, summaryID, offset, req.Size)
}

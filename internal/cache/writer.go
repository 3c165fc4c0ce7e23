package cache

import (
	"context"
	"fmt"

	"github.com/DjordjeVuckovic/news-pulse/internal/store"
	"github.com/google/uuid"
)

type ContextLoader interface {
	GetContext(ctx context.Context, id uuid.UUID) (*store.SummaryContext, error)
}

type RelatedLoader interface {
	RelatedWithTitles(ctx context.Context, summaryID uuid.UUID, offset, limit int) ([]store.RelatedSummary, error)
}

// Writer rebuilds one summary's projection from the source of truth and
// pushes it into the timeline. Every stage that touches a summary calls
// this so the read path never serves stale cross-links.
type Writer struct {
	summaries ContextLoader
	groups    RelatedLoader
	timeline  *Timeline
}

func NewWriter(summaries ContextLoader, groups RelatedLoader, timeline *Timeline) *Writer {
	return &Writer{
		summaries: summaries,
		groups:    groups,
		timeline:  timeline,
	}
}

func (w *Writer) UpsertSummary(ctx context.Context, id uuid.UUID) error {
	sc, err := w.summaries.GetContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load summary context: %w", err)
	}

	refs, err := w.groups.RelatedWithTitles(ctx, id, 0, InlineRelatedLimit)
	if err != nil {
		return fmt.Errorf("failed to load related summaries: %w", err)
	}

	related := make([]Related, 0, len(refs))
	for _, r := range refs {
		related = append(related, Related{
			GroupID:   r.GroupID,
			SummaryID: r.SummaryID,
			Title:     r.Title,
		})
	}

	return w.timeline.Upsert(ctx, BuildProjection(*sc, related))
}

// RemoveSummary evicts a summary from the read path, used when it drops
// out of the public feed. The row still exists in the store, so the
// context load tells us which timeline and index sets to clean.
func (w *Writer) RemoveSummary(ctx context.Context, id uuid.UUID) error {
	sc, err := w.summaries.GetContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load summary context: %w", err)
	}
	return w.timeline.Remove(ctx, BuildProjection(*sc, nil))
}

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/store"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	rebuildLockName = "rebuild"
	rebuildLockTTL  = 10 * time.Minute
	rebuildPageSize = 200
)

type ContextLister interface {
	ListContexts(ctx context.Context, lang domain.Language, offset, limit int) ([]store.SummaryContext, error)
}

type RelatedByID interface {
	RelatedWithTitles(ctx context.Context, summaryID uuid.UUID, offset, limit int) ([]store.RelatedSummary, error)
}

// Rebuilder repopulates the timeline from the source of truth. It exists
// for recovery after a cache flush or a projection format change.
type Rebuilder struct {
	rdb       *redis.Client
	summaries ContextLister
	groups    RelatedByID
	timeline  *Timeline
}

func NewRebuilder(rdb *redis.Client, summaries ContextLister, groups RelatedByID, timeline *Timeline) *Rebuilder {
	return &Rebuilder{
		rdb:       rdb,
		summaries: summaries,
		groups:    groups,
		timeline:  timeline,
	}
}

// Rebuild walks each language's summaries newest-first and upserts them
// into the timeline. A distributed lock keeps concurrent operator calls
// from interleaving; a held lock surfaces as ErrLocked.
func (r *Rebuilder) Rebuild(ctx context.Context) error {
	return WithLock(ctx, r.rdb, rebuildLockName, rebuildLockTTL, func(ctx context.Context) error {
		var total int
		for lang := range domain.SupportedLanguages {
			n, err := r.rebuildLanguage(ctx, lang)
			if err != nil {
				return fmt.Errorf("failed to rebuild %s timeline: %w", lang, err)
			}
			total += n
		}
		slog.Info("cache rebuild finished", "summaries", total)
		return nil
	})
}

func (r *Rebuilder) rebuildLanguage(ctx context.Context, lang domain.Language) (int, error) {
	var total int
	for offset := 0; ; offset += rebuildPageSize {
		page, err := r.summaries.ListContexts(ctx, lang, offset, rebuildPageSize)
		if err != nil {
			return total, err
		}
		if len(page) == 0 {
			return total, nil
		}

		for i := range page {
			sc := &page[i]
			refs, err := r.groups.RelatedWithTitles(ctx, sc.Summary.ID, 0, InlineRelatedLimit)
			if err != nil {
				return total, err
			}

			related := make([]Related, 0, len(refs))
			for _, rr := range refs {
				related = append(related, Related{
					GroupID:   rr.GroupID,
					SummaryID: rr.SummaryID,
					Title:     rr.Title,
				})
			}

			if err := r.timeline.Upsert(ctx, BuildProjection(*sc, related)); err != nil {
				return total, err
			}
			total++
		}

		if len(page) < rebuildPageSize {
			return total, nil
		}
	}
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/ai"
	"github.com/DjordjeVuckovic/news-pulse/internal/cache"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/store"
	"github.com/google/uuid"
)

const (
	// DefaultMinCorpus is the smallest validated corpus worth digesting.
	DefaultMinCorpus = 10

	digestCooldown = time.Hour
	fallbackWindow = 12 * time.Hour
)

type DigestSummaries interface {
	ListValidatedContextsInWindow(ctx context.Context, lang domain.Language, start, end time.Time) ([]store.SummaryContext, error)
	MarkDigested(ctx context.Context, ids []uuid.UUID) error
}

type Digests interface {
	Latest(ctx context.Context, lang domain.Language) (*domain.Digest, error)
	Save(ctx context.Context, digest domain.Digest, refs []domain.DigestRef) (uuid.UUID, error)
}

type DigestCache interface {
	UpsertDigest(ctx context.Context, d cache.CachedDigest) error
}

// Composer builds the periodic per-language digest out of the validated
// summaries of the last window.
type Composer struct {
	summaries DigestSummaries
	digests   Digests
	aiClient  ai.Client
	cache     CacheWriter
	digCache  DigestCache
	minCorpus int
	now       func() time.Time
}

type ComposerOption func(*Composer)

func NewComposer(summaries DigestSummaries, digests Digests, aiClient ai.Client, cacheW CacheWriter, digCache DigestCache, opts ...ComposerOption) *Composer {
	c := &Composer{
		summaries: summaries,
		digests:   digests,
		aiClient:  aiClient,
		cache:     cacheW,
		digCache:  digCache,
		minCorpus: DefaultMinCorpus,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithMinCorpus(n int) ComposerOption {
	return func(c *Composer) {
		c.minCorpus = n
	}
}

func WithClock(now func() time.Time) ComposerOption {
	return func(c *Composer) {
		c.now = now
	}
}

// Run composes one digest for the language if the window rules allow it.
// A nil return with no digest created means a rule skipped the run.
func (c *Composer) Run(ctx context.Context, lang domain.Language) error {
	now := c.now().UTC()

	last, err := c.digests.Latest(ctx, lang)
	if err != nil {
		return fmt.Errorf("failed to load latest digest: %w", err)
	}

	start := now.Add(-fallbackWindow)
	if last != nil {
		if now.Sub(last.GeneratedAt) < digestCooldown {
			slog.Info("digest skipped, cooldown active", "language", lang)
			return nil
		}
		start = last.PeriodEnd
	}

	corpus, err := c.summaries.ListValidatedContextsInWindow(ctx, lang, start, now)
	if err != nil {
		return fmt.Errorf("failed to load digest corpus: %w", err)
	}
	if len(corpus) < c.minCorpus {
		slog.Info("digest skipped, corpus too small", "language", lang, "corpus", len(corpus), "min", c.minCorpus)
		return nil
	}

	items := make([]ai.DigestCorpusItem, 0, len(corpus))
	byURL := make(map[string]store.SummaryContext, len(corpus))
	for _, sc := range corpus {
		items = append(items, ai.DigestCorpusItem{
			Title:       sc.Summary.Title,
			Body:        sc.Summary.Body,
			URL:         sc.ArticleURL,
			GeneratedAt: sc.Summary.GeneratedAt,
		})
		byURL[sc.ArticleURL] = sc
	}

	system, user, err := ai.DigestPrompt(string(lang), items)
	if err != nil {
		return err
	}
	result, err := ai.GenerateStructured[ai.DigestResult](ctx, c.aiClient, ai.TierDeep, system, user)
	if err != nil {
		return fmt.Errorf("failed to compose digest: %w", err)
	}

	// Keep only references whose URL matches a corpus summary; models
	// occasionally cite pages that were never in the input.
	var refs []domain.DigestRef
	for _, ref := range result.References {
		sc, ok := byURL[ref.URL]
		if !ok {
			slog.Warn("digest reference rejected, url not in corpus", "url", ref.URL)
			continue
		}
		refs = append(refs, domain.DigestRef{
			SummaryID: sc.Summary.ID,
			Title:     ref.Title,
			URL:       ref.URL,
			Reason:    ref.Reason,
		})
	}

	digest := domain.Digest{
		Title:       result.Title,
		Content:     result.Content,
		Language:    lang,
		PeriodStart: start,
		PeriodEnd:   now,
		GeneratedAt: now,
		State:       domain.DigestStateCreated,
	}
	digestID, err := c.digests.Save(ctx, digest, refs)
	if err != nil {
		return fmt.Errorf("failed to save digest: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(corpus))
	for _, sc := range corpus {
		ids = append(ids, sc.Summary.ID)
	}
	if err := c.summaries.MarkDigested(ctx, ids); err != nil {
		return fmt.Errorf("failed to mark summaries digested: %w", err)
	}

	if err := c.digCache.UpsertDigest(ctx, cache.CachedDigest{
		ID:          digestID,
		Title:       digest.Title,
		Content:     digest.Content,
		Language:    lang,
		GeneratedAt: now,
	}); err != nil {
		slog.Error("failed to cache digest", "digest", digestID, "error", err)
	}

	for _, id := range ids {
		if err := c.cache.UpsertSummary(ctx, id); err != nil {
			slog.Error("failed to refresh cached summary", "summary", id, "error", err)
		}
	}

	slog.Info("digest composed", "digest", digestID, "language", lang, "corpus", len(corpus), "references", len(refs))
	return nil
}

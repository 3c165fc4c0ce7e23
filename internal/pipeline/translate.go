package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/news-pulse/internal/ai"
	"github.com/DjordjeVuckovic/news-pulse/internal/broker"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/metrics"
	"github.com/google/uuid"
)

const translateBatchSize = 50

type TranslatorSummaries interface {
	ListMissingTranslation(ctx context.Context, target domain.Language, limit int) ([]domain.Summary, error)
	ExistsSibling(ctx context.Context, articleID uuid.UUID, lang domain.Language) (bool, error)
	Save(ctx context.Context, sum domain.Summary) (uuid.UUID, error)
}

type Publisher interface {
	Publish(ctx context.Context, queue string, msg any) error
}

// Translator creates sibling summaries in a target language for accepted
// originals that lack one. Safe to re-run: existing siblings are skipped.
type Translator struct {
	summaries TranslatorSummaries
	aiClient  ai.Client
	publisher Publisher
	cache     CacheWriter
}

func NewTranslator(summaries TranslatorSummaries, aiClient ai.Client, publisher Publisher, cache CacheWriter) *Translator {
	return &Translator{
		summaries: summaries,
		aiClient:  aiClient,
		publisher: publisher,
		cache:     cache,
	}
}

func (t *Translator) Run(ctx context.Context, target domain.Language) error {
	batch, err := t.summaries.ListMissingTranslation(ctx, target, translateBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list summaries missing translation: %w", err)
	}

	for _, sum := range batch {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := t.translateOne(ctx, sum, target); err != nil {
			slog.Error("summary translation failed", "summary", sum.ID, "target", target, "error", err)
		}
	}
	return nil
}

// TranslateOne translates a single summary, used both by the batch run
// and the operator endpoint.
func (t *Translator) TranslateOne(ctx context.Context, sum domain.Summary, target domain.Language) error {
	return t.translateOne(ctx, sum, target)
}

func (t *Translator) translateOne(ctx context.Context, sum domain.Summary, target domain.Language) error {
	// The batch query already filters, but the check-then-act guard here
	// keeps the operator endpoint and redeliveries idempotent too.
	exists, err := t.summaries.ExistsSibling(ctx, sum.ArticleID, target)
	if err != nil {
		return fmt.Errorf("failed to check sibling: %w", err)
	}
	if exists {
		return nil
	}

	system, user := ai.TranslatePrompt(sum.Title, sum.Body, string(target))
	result, err := ai.GenerateStructured[ai.TranslationResult](ctx, t.aiClient, ai.TierFast, system, user)
	if err != nil {
		return fmt.Errorf("failed to translate summary: %w", err)
	}

	siblingID, err := t.summaries.Save(ctx, domain.Summary{
		ArticleID:  sum.ArticleID,
		Title:      result.Title,
		Body:       result.Body,
		CategoryID: sum.CategoryID,
		Language:   target,
		State:      domain.SummaryStateValidated,
		Reason:     "translated from " + string(sum.Language),
	})
	if err != nil {
		return fmt.Errorf("failed to save translation: %w", err)
	}
	metrics.SummariesTransitioned.WithLabelValues(string(domain.SummaryStateValidated)).Inc()

	if err := t.cache.UpsertSummary(ctx, siblingID); err != nil {
		slog.Error("failed to cache translation", "summary", siblingID, "error", err)
	}

	// The translation enters clustering like any organic summary.
	if err := t.publisher.Publish(ctx, broker.QueueSimilarity, broker.SimilarRequest{SummaryID: siblingID}); err != nil {
		slog.Error("failed to publish similarity request", "summary", siblingID, "error", err)
	}
	if err := t.publisher.Publish(ctx, broker.QueueIndexing, broker.IndexRequest{SummaryID: siblingID, Op: broker.IndexOpUpsert}); err != nil {
		slog.Error("failed to publish index request", "summary", siblingID, "error", err)
	}

	return nil
}

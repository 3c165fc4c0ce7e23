// Package pipeline holds the summary state machine stages and the
// scheduler that drives them.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/ai"
	"github.com/DjordjeVuckovic/news-pulse/internal/broker"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/metrics"
	"github.com/google/uuid"
)

const validateBatchSize = 100

type ValidatorSummaries interface {
	ListByState(ctx context.Context, state domain.SummaryState, limit int) ([]domain.Summary, error)
	ListJudgeableSince(ctx context.Context, since time.Time, limit int) ([]domain.Summary, error)
	SetState(ctx context.Context, id uuid.UUID, state domain.SummaryState, reason string) error
	SetCategory(ctx context.Context, id uuid.UUID, categoryID uuid.UUID) error
}

type ValidatorArticles interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error)
}

type CacheWriter interface {
	UpsertSummary(ctx context.Context, id uuid.UUID) error
}

// ValidatorCache also evicts, since a discarded summary must leave the
// public feed while its row stays in the store.
type ValidatorCache interface {
	CacheWriter
	RemoveSummary(ctx context.Context, id uuid.UUID) error
}

// Validator judges Created summaries and transitions each to Validated or
// Discarded. A maintenance variant re-checks already accepted summaries
// and remaps their category in place.
type Validator struct {
	summaries  ValidatorSummaries
	articles   ValidatorArticles
	aiClient   ai.Client
	publisher  Publisher
	cache      ValidatorCache
	categories []domain.Category
}

func NewValidator(
	summaries ValidatorSummaries,
	articles ValidatorArticles,
	aiClient ai.Client,
	publisher Publisher,
	cache ValidatorCache,
	categories []domain.Category,
) *Validator {
	return &Validator{
		summaries:  summaries,
		articles:   articles,
		aiClient:   aiClient,
		publisher:  publisher,
		cache:      cache,
		categories: categories,
	}
}

// Run validates every Created summary exactly once. Per-summary failures
// are logged and skipped, so a partial crash leaves the rest still
// Created and a re-run only touches those.
func (v *Validator) Run(ctx context.Context) error {
	batch, err := v.summaries.ListByState(ctx, domain.SummaryStateCreated, validateBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list created summaries: %w", err)
	}

	for _, sum := range batch {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := v.validateOne(ctx, sum); err != nil {
			slog.Error("summary validation failed", "summary", sum.ID, "error", err)
		}
	}
	return nil
}

func (v *Validator) validateOne(ctx context.Context, sum domain.Summary) error {
	result, err := v.judge(ctx, sum)
	if err != nil {
		return err
	}

	state := domain.SummaryStateDiscarded
	if result.IsValid {
		state = domain.SummaryStateValidated
	}

	if err := v.summaries.SetState(ctx, sum.ID, state, result.Reason); err != nil {
		return err
	}
	metrics.SummariesTransitioned.WithLabelValues(string(state)).Inc()

	// A discarded summary leaves the feed and the search index; a cache
	// rebuild must then reproduce the same timeline the live path left.
	if state == domain.SummaryStateDiscarded {
		if err := v.cache.RemoveSummary(ctx, sum.ID); err != nil {
			slog.Error("failed to evict cached summary", "summary", sum.ID, "error", err)
		}
		if err := v.publisher.Publish(ctx, broker.QueueIndexing, broker.IndexRequest{SummaryID: sum.ID, Op: broker.IndexOpDelete}); err != nil {
			slog.Error("failed to publish index delete", "summary", sum.ID, "error", err)
		}
		return nil
	}

	if err := v.cache.UpsertSummary(ctx, sum.ID); err != nil {
		slog.Error("failed to refresh cached summary", "summary", sum.ID, "error", err)
	}
	if err := v.publisher.Publish(ctx, broker.QueueIndexing, broker.IndexRequest{SummaryID: sum.ID, Op: broker.IndexOpUpsert}); err != nil {
		slog.Error("failed to publish index request", "summary", sum.ID, "error", err)
	}
	return nil
}

// Revalidate re-checks summaries already accepted since the timestamp.
// Only the category may change; states stay as they are.
func (v *Validator) Revalidate(ctx context.Context, since time.Time) error {
	batch, err := v.summaries.ListJudgeableSince(ctx, since, validateBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list summaries for revalidation: %w", err)
	}

	for _, sum := range batch {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := v.judge(ctx, sum)
		if err != nil {
			slog.Error("summary revalidation failed", "summary", sum.ID, "error", err)
			continue
		}

		categoryID, ok := v.topicCategory(result.Topic)
		if !ok || categoryID == sum.CategoryID {
			continue
		}

		if err := v.summaries.SetCategory(ctx, sum.ID, categoryID); err != nil {
			slog.Error("failed to remap summary category", "summary", sum.ID, "error", err)
			continue
		}
		slog.Info("summary category remapped", "summary", sum.ID, "topic", result.Topic)

		if err := v.cache.UpsertSummary(ctx, sum.ID); err != nil {
			slog.Error("failed to refresh cached summary", "summary", sum.ID, "error", err)
		}
	}
	return nil
}

func (v *Validator) judge(ctx context.Context, sum domain.Summary) (*ai.ValidationResult, error) {
	article, err := v.articles.GetByID(ctx, sum.ArticleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load article: %w", err)
	}

	system, user := ai.ValidatePrompt(article.Title, article.URL, sum.Title, sum.Body)
	result, err := ai.GenerateStructured[ai.ValidationResult](ctx, v.aiClient, ai.TierFast, system, user)
	if err != nil {
		return nil, fmt.Errorf("failed to judge summary: %w", err)
	}
	return result, nil
}

func (v *Validator) topicCategory(topic string) (uuid.UUID, bool) {
	for _, cat := range v.categories {
		if strings.EqualFold(cat.Name, topic) {
			return cat.ID, true
		}
	}
	return uuid.Nil, false
}

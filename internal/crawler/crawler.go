// Package crawler drives the ingest side of the pipeline: walk every
// active source, collect fresh articles and turn each into a Created
// summary. One bad source or article never aborts the run.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/adapter"
	"github.com/DjordjeVuckovic/news-pulse/internal/ai"
	"github.com/DjordjeVuckovic/news-pulse/internal/broker"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/metrics"
	"github.com/google/uuid"
)

type Sources interface {
	ListActive(ctx context.Context) ([]domain.Source, error)
	MarkCrawled(ctx context.Context, id uuid.UUID, at time.Time) error
}

type Articles interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
	Save(ctx context.Context, article domain.Article) (uuid.UUID, error)
}

type Summaries interface {
	Save(ctx context.Context, sum domain.Summary) (uuid.UUID, error)
}

type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, queue string, msg any) error
}

type CacheWriter interface {
	UpsertSummary(ctx context.Context, id uuid.UUID) error
}

type Crawler struct {
	sources    Sources
	articles   Articles
	summaries  Summaries
	registry   *adapter.Registry
	fetcher    Fetcher
	aiClient   ai.Client
	publisher  Publisher
	cache      CacheWriter
	categories []domain.Category
}

func NewCrawler(
	sources Sources,
	articles Articles,
	summaries Summaries,
	registry *adapter.Registry,
	fetcher Fetcher,
	aiClient ai.Client,
	publisher Publisher,
	cache CacheWriter,
	categories []domain.Category,
) *Crawler {
	return &Crawler{
		sources:    sources,
		articles:   articles,
		summaries:  summaries,
		registry:   registry,
		fetcher:    fetcher,
		aiClient:   aiClient,
		publisher:  publisher,
		cache:      cache,
		categories: categories,
	}
}

// Run crawls every active source once. Per-source failures are logged and
// isolated; the error return covers only listing the sources themselves.
func (c *Crawler) Run(ctx context.Context) error {
	sources, err := c.sources.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active sources: %w", err)
	}

	for _, src := range sources {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := c.crawlSource(ctx, src); err != nil {
			slog.Error("source crawl failed", "source", src.Domain, "error", err)
			metrics.CrawlRuns.WithLabelValues(src.Domain, "error").Inc()
			continue
		}
		metrics.CrawlRuns.WithLabelValues(src.Domain, "ok").Inc()
	}

	return nil
}

func (c *Crawler) crawlSource(ctx context.Context, src domain.Source) error {
	ad, err := c.registry.Resolve(src.AdapterKey, adapter.Options(src.Options))
	if err != nil {
		return fmt.Errorf("failed to resolve adapter: %w", err)
	}

	raw, err := c.fetcher.Get(ctx, ad.SitemapURL())
	if err != nil {
		return fmt.Errorf("failed to fetch sitemap: %w", err)
	}

	items, err := ad.ParseSitemap(ctx, raw)
	if err != nil {
		return fmt.Errorf("failed to parse sitemap: %w", err)
	}

	slog.Info("crawling source", "source", src.Domain, "items", len(items))

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if item.PublishedAt.Before(today) {
			metrics.ItemsSkipped.WithLabelValues("stale").Inc()
			continue
		}

		if err := c.processItem(ctx, src, ad, item); err != nil {
			slog.Error("item processing failed", "source", src.Domain, "url", item.URL, "error", err)
		}
	}

	if err := c.sources.MarkCrawled(ctx, src.ID, time.Now().UTC()); err != nil {
		slog.Error("failed to mark source crawled", "source", src.Domain, "error", err)
	}
	return nil
}

func (c *Crawler) processItem(ctx context.Context, src domain.Source, ad adapter.Adapter, item adapter.Item) error {
	exists, err := c.articles.ExistsByURL(ctx, item.URL)
	if err != nil {
		return fmt.Errorf("failed to check article existence: %w", err)
	}
	if exists {
		metrics.ItemsSkipped.WithLabelValues("duplicate").Inc()
		return nil
	}

	page, err := c.fetcher.Get(ctx, item.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch article: %w", err)
	}

	content, err := ad.ExtractContent(item.URL, string(page))
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		metrics.ItemsSkipped.WithLabelValues("empty").Inc()
		return nil
	}

	articleID, err := c.articles.Save(ctx, domain.Article{
		SourceID:    src.ID,
		URL:         item.URL,
		Title:       item.Title,
		PublishedAt: item.PublishedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to save article: %w", err)
	}
	metrics.ArticlesCollected.Inc()

	system, user := ai.SummarizePrompt(item.Title, content, c.categoryNames())
	result, err := ai.GenerateStructured[ai.SummaryResult](ctx, c.aiClient, ai.TierFast, system, user)
	if err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}

	lang, _ := adapter.DetectLanguage(content)

	summaryID, err := c.summaries.Save(ctx, domain.Summary{
		ArticleID:  articleID,
		Title:      result.Title,
		Body:       result.Body,
		CategoryID: c.categoryID(result.Category),
		Language:   lang,
		State:      domain.SummaryStateCreated,
	})
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	metrics.SummariesTransitioned.WithLabelValues(string(domain.SummaryStateCreated)).Inc()

	if err := c.cache.UpsertSummary(ctx, summaryID); err != nil {
		slog.Error("failed to cache new summary", "summary", summaryID, "error", err)
	}

	if err := c.publisher.Publish(ctx, broker.QueueSimilarity, broker.SimilarRequest{SummaryID: summaryID}); err != nil {
		slog.Error("failed to publish similarity request", "summary", summaryID, "error", err)
	}
	if err := c.publisher.Publish(ctx, broker.QueueIndexing, broker.IndexRequest{SummaryID: summaryID, Op: broker.IndexOpUpsert}); err != nil {
		slog.Error("failed to publish index request", "summary", summaryID, "error", err)
	}

	return nil
}

func (c *Crawler) categoryNames() []string {
	names := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		names = append(names, cat.Name)
	}
	return names
}

// categoryID maps the AI's category name back onto the taxonomy,
// falling back to the first category when the model invents one.
func (c *Crawler) categoryID(name string) uuid.UUID {
	for _, cat := range c.categories {
		if strings.EqualFold(cat.Name, name) {
			return cat.ID
		}
	}
	slog.Warn("summary category not in taxonomy, using fallback", "category", name)
	return c.categories[0].ID
}

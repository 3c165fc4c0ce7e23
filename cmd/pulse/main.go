package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DjordjeVuckovic/news-pulse/internal/adapter"
	"github.com/DjordjeVuckovic/news-pulse/internal/ai"
	"github.com/DjordjeVuckovic/news-pulse/internal/broker"
	"github.com/DjordjeVuckovic/news-pulse/internal/cache"
	"github.com/DjordjeVuckovic/news-pulse/internal/crawler"
	"github.com/DjordjeVuckovic/news-pulse/internal/pipeline"
	"github.com/DjordjeVuckovic/news-pulse/internal/ratelimit"
	"github.com/DjordjeVuckovic/news-pulse/internal/router"
	"github.com/DjordjeVuckovic/news-pulse/internal/search"
	"github.com/DjordjeVuckovic/news-pulse/internal/seed"
	"github.com/DjordjeVuckovic/news-pulse/internal/server"
	"github.com/DjordjeVuckovic/news-pulse/internal/similarity"
	"github.com/DjordjeVuckovic/news-pulse/internal/store"
	pkgserver "github.com/DjordjeVuckovic/news-pulse/pkg/server"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		slog.Error("pulse exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appSettings := NewAppConfig()
	cfg, err := appSettings.Load()
	if err != nil {
		return err
	}

	pool, err := store.NewConnectionPool(ctx, store.PoolConfig{ConnStr: cfg.DatabaseURL})
	if err != nil {
		return err
	}
	defer pool.Close()

	cacheCfg, err := cache.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	rdb, err := cache.NewClient(ctx, *cacheCfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	brokerCfg, err := broker.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	chPool, err := broker.NewChannelPool(*brokerCfg)
	if err != nil {
		return err
	}
	defer chPool.Close()

	sources := store.NewSourceStore(pool)
	articles := store.NewArticleStore(pool)
	summaries := store.NewSummaryStore(pool)
	groups := store.NewGroupStore(pool)
	digests := store.NewDigestStore(pool)
	categoryStore := store.NewCategoryStore(pool)

	registry := adapter.DefaultRegistry()
	if err := applySeed(ctx, cfg.SeedPath, registry, sources, categoryStore); err != nil {
		return err
	}
	categories, err := categoryStore.List(ctx)
	if err != nil {
		return err
	}

	timeline := cache.NewTimeline(rdb)
	writer := cache.NewWriter(summaries, groups, timeline)
	rebuilder := cache.NewRebuilder(rdb, summaries, groups, timeline)
	limiter := ratelimit.NewLimiter(rdb)

	aiCfg, err := ai.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	aiClient, err := ai.NewOpenAIClient(aiCfg.BaseURL, aiCfg.APIKey, aiCfg.Models(),
		ai.WithRateLimit(limiter, aiCfg.RPM, aiCfg.MaxWait))
	if err != nil {
		return err
	}

	publisher := broker.NewPublisher(chPool)
	consumer := broker.NewConsumer(chPool)

	crawl := crawler.NewCrawler(sources, articles, summaries, registry,
		crawler.NewPoliteClient(), aiClient, publisher, writer, categories)
	validator := pipeline.NewValidator(summaries, articles, aiClient, publisher, writer, categories)
	translator := pipeline.NewTranslator(summaries, aiClient, publisher, writer)
	composer := pipeline.NewComposer(summaries, digests, aiClient, writer, timeline)
	post := pipeline.NewPostStage(digests, pipeline.LogPoster{})

	pipelineCfg := pipeline.LoadConfigFromEnv()
	summaryCycle := pipeline.NewCycle("summary", pipelineCfg.SummaryInterval,
		pipeline.SummaryJob(pipelineCfg, crawl, validator, translator))
	scheduler := pipeline.NewScheduler(
		summaryCycle,
		pipeline.NewCycle("digest", pipelineCfg.DigestInterval,
			pipeline.DigestJob(pipelineCfg, composer, post)),
	)

	engine := similarity.NewEngine(summaries, groups, aiClient, writer)

	searchCfg := search.LoadConfigFromEnv()
	indexer, err := search.NewIndexer(ctx, searchCfg, summaries)
	if err != nil {
		return err
	}
	searcher, err := search.NewSearcher(searchCfg)
	if err != nil {
		return err
	}

	go func() {
		if err := consumer.Run(ctx, broker.QueueSimilarity, engine.Handler()); err != nil {
			slog.Error("similarity consumer stopped", "error", err)
			stop()
		}
	}()
	go func() {
		if err := consumer.Run(ctx, broker.QueueIndexing, indexer.Handler()); err != nil {
			slog.Error("indexing consumer stopped", "error", err)
			stop()
		}
	}()
	go scheduler.Start(ctx)

	serverCfg, err := server.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	s := server.NewServer(echo.New(), serverCfg)

	router.NewFeedRouter(s.Echo, timeline, similarity.NewReader(groups)).Bind()
	router.NewOpsRouter(s.Echo, summaryCycle, crawl, validator, translator, rebuilder, summaries).Bind()
	router.NewSearchRouter(s.Echo, searcher).Bind()
	router.NewHealthRouter(s.Echo, map[string]pkgserver.HealthChecker{
		"postgres": pool,
		"redis":    redisChecker{rdb},
	}).Bind()

	slog.Info("pulse started", "port", serverCfg.Port)
	return s.Start(ctx)
}

func applySeed(ctx context.Context, path string, registry *adapter.Registry, sources *store.SourceStore, categories *store.CategoryStore) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	seedCfg, err := seed.NewYAMLConfigLoader(f).Load()
	if err != nil {
		return err
	}
	return seed.Apply(ctx, seedCfg, registry, sources, categories)
}

type redisChecker struct {
	rdb *redis.Client
}

func (c redisChecker) Healthy(ctx context.Context) bool {
	return c.rdb.Ping(ctx).Err() == nil
}

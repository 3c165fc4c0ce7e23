package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/news-pulse/internal/broker"
	"github.com/DjordjeVuckovic/news-pulse/internal/store"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ContextLoader interface {
	GetContext(ctx context.Context, id uuid.UUID) (*store.SummaryContext, error)
}

type Indexer struct {
	client       *elasticsearch.TypedClient
	indexName    string
	summaries    ContextLoader
	indexBuilder *IndexBuilder
}

func NewIndexer(ctx context.Context, config Config, summaries ContextLoader) (*Indexer, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	idx := &Indexer{
		client:       client,
		indexName:    config.IndexName,
		summaries:    summaries,
		indexBuilder: NewIndexBuilder(),
	}

	if err := idx.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return idx, nil
}

// Handler adapts the indexer to the broker's delivery contract. Malformed
// bodies are dropped instead of requeued.
func (e *Indexer) Handler() broker.Handler {
	return func(ctx context.Context, body []byte) error {
		var req broker.IndexRequest
		if err := json.Unmarshal(body, &req); err != nil {
			slog.Error("dropping malformed index request", "error", err)
			return nil
		}
		switch req.Op {
		case broker.IndexOpDelete:
			return e.Delete(ctx, req.SummaryID)
		default:
			return e.Upsert(ctx, req.SummaryID)
		}
	}
}

func (e *Indexer) Upsert(ctx context.Context, summaryID uuid.UUID) error {
	sc, err := e.summaries.GetContext(ctx, summaryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			slog.Warn("index request for unknown summary", "summary", summaryID)
			return nil
		}
		return fmt.Errorf("failed to load summary context: %w", err)
	}

	doc := e.indexBuilder.mapToDocument(sc)

	res, err := e.client.Index(e.indexName).Id(doc.ID).Document(doc).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}

	slog.Info("summary indexed", "id", doc.ID, "index", e.indexName, "result", res.Result)
	return nil
}

func (e *Indexer) Delete(ctx context.Context, summaryID uuid.UUID) error {
	_, err := e.client.Delete(e.indexName, summaryID.String()).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	slog.Info("summary removed from index", "id", summaryID, "index", e.indexName)
	return nil
}

func (e *Indexer) EnsureIndex(ctx context.Context) error {
	existsRes, err := e.client.Indices.Exists(e.indexName).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}

	if existsRes {
		slog.Info("index already exists", "index", e.indexName)
		return nil
	}

	settings := e.indexBuilder.buildSettings()
	mappings := e.indexBuilder.buildMapping()

	createRes, err := e.client.Indices.Create(e.indexName).
		Settings(&settings).
		Mappings(&mappings).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if !createRes.Acknowledged {
		return fmt.Errorf("index creation was not acknowledged")
	}

	slog.Info("index created", "index", e.indexName)
	return nil
}

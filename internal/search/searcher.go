package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/operator"
)

var searchFields = []string{"title^2.0", "body", "source_name"}

type SearchHit struct {
	Document SummaryDocument `json:"document"`
	Score    float64         `json:"score"`
}

type SearchResult struct {
	Hits         []SearchHit `json:"hits"`
	TotalMatches int64       `json:"totalMatches"`
}

type Searcher struct {
	client    *elasticsearch.TypedClient
	indexName string
}

func NewSearcher(config Config) (*Searcher, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &Searcher{
		client:    client,
		indexName: config.IndexName,
	}, nil
}

// Search runs a BM25 multi_match query over indexed summaries, optionally
// narrowed to one language.
func (r *Searcher) Search(ctx context.Context, query string, lang domain.Language, size int) (*SearchResult, error) {
	or := operator.Or
	multiMatch := &types.MultiMatchQuery{
		Query:    query,
		Fields:   searchFields,
		Operator: &or,
	}

	esQuery := &types.Query{MultiMatch: multiMatch}
	if lang != "" {
		esQuery = &types.Query{
			Bool: &types.BoolQuery{
				Must: []types.Query{{MultiMatch: multiMatch}},
				Filter: []types.Query{{
					Term: map[string]types.TermQuery{
						"language": {Value: string(lang)},
					},
				}},
			},
		}
	}

	res, err := r.client.Search().
		Index(r.indexName).
		Query(esQuery).
		Size(size).
		TrackScores(true).
		Do(ctx)
	if err != nil {
		slog.Error("search query failed", "error", err, "query", query)
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}

	hits := make([]SearchHit, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc SummaryDocument
		if err := json.Unmarshal(hit.Source_, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}
		var score float64
		if hit.Score_ != nil {
			score = float64(*hit.Score_)
		}
		hits = append(hits, SearchHit{Document: doc, Score: score})
	}

	slog.Info("search results fetched",
		"query", query,
		"total_matches", res.Hits.Total.Value,
		"returned_count", len(hits))

	return &SearchResult{
		Hits:         hits,
		TotalMatches: res.Hits.Total.Value,
	}, nil
}

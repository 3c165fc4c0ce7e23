package search

import (
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/store"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
)

// SummaryDocument is the Elasticsearch projection of a summary.
type SummaryDocument struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	URL         string    `json:"url"`
	Language    string    `json:"language"`
	SourceID    string    `json:"source_id"`
	SourceName  string    `json:"source_name"`
	Category    string    `json:"category"`
	State       string    `json:"state"`
	GeneratedAt time.Time `json:"generated_at"`
	IndexedAt   time.Time `json:"indexed_at"`
}

type IndexBuilder struct{}

func NewIndexBuilder() *IndexBuilder {
	return &IndexBuilder{}
}

func (b *IndexBuilder) mapToDocument(sc *store.SummaryContext) SummaryDocument {
	return SummaryDocument{
		ID:          sc.Summary.ID.String(),
		Title:       sc.Summary.Title,
		Body:        sc.Summary.Body,
		URL:         sc.ArticleURL,
		Language:    string(sc.Summary.Language),
		SourceID:    sc.SourceID.String(),
		SourceName:  sc.SourceName,
		Category:    sc.CategoryName,
		State:       string(sc.Summary.State),
		GeneratedAt: sc.Summary.GeneratedAt,
		IndexedAt:   time.Now(),
	}
}

func (b *IndexBuilder) buildSettings() types.IndexSettings {
	return types.IndexSettings{
		Analysis: &types.IndexSettingsAnalysis{
			Analyzer: map[string]types.Analyzer{
				"multilingual_analyzer": types.StandardAnalyzer{
					Stopwords: []string{"_none_"},
				},
			},
		},
	}
}

func (b *IndexBuilder) buildMapping() types.TypeMapping {
	return types.TypeMapping{
		Properties: map[string]types.Property{
			"id":           types.NewKeywordProperty(),
			"title":        b.createTextPropertyWithKeyword("multilingual_analyzer"),
			"body":         b.createTextProperty("multilingual_analyzer"),
			"url":          types.NewKeywordProperty(),
			"language":     types.NewKeywordProperty(),
			"source_id":    types.NewKeywordProperty(),
			"source_name":  b.createTextPropertyWithKeyword(""),
			"category":     types.NewKeywordProperty(),
			"state":        types.NewKeywordProperty(),
			"generated_at": types.NewDateProperty(),
			"indexed_at":   types.NewDateProperty(),
		},
	}
}

func (b *IndexBuilder) createTextProperty(analyzer string) types.Property {
	textProp := types.NewTextProperty()
	if analyzer != "" {
		textProp.Analyzer = &analyzer
	}
	return textProp
}

func (b *IndexBuilder) createTextPropertyWithKeyword(analyzer string) types.Property {
	textProp := types.NewTextProperty()
	if analyzer != "" {
		textProp.Analyzer = &analyzer
	}
	textProp.Fields = map[string]types.Property{
		"keyword": types.NewKeywordProperty(),
	}
	return textProp
}

package cache

import (
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBuildProjection(t *testing.T) {
	sc := store.SummaryContext{
		Summary: domain.Summary{
			ID:          uuid.New(),
			ArticleID:   uuid.New(),
			Title:       "headline",
			Body:        "body",
			CategoryID:  uuid.New(),
			Language:    domain.LanguageSerbian,
			State:       domain.SummaryStateValidated,
			GeneratedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
		ArticleURL:   "https://example-news.com/story",
		SourceID:     uuid.New(),
		SourceName:   "Example News",
		CategoryName: "politics",
	}

	proj := BuildProjection(sc, nil)

	assert.Equal(t, sc.Summary.ID, proj.ID)
	assert.Equal(t, sc.ArticleURL, proj.URL)
	assert.Equal(t, sc.SourceID, proj.SourceID)
	assert.Equal(t, "Example News", proj.SourceName)
	assert.Equal(t, "politics", proj.CategoryName)
	assert.Equal(t, domain.LanguageSerbian, proj.Language)
	assert.Empty(t, proj.Related)
}

func TestBuildProjection_CapsInlineRelated(t *testing.T) {
	related := make([]Related, InlineRelatedLimit+2)
	for i := range related {
		related[i] = Related{GroupID: uuid.New(), SummaryID: uuid.New(), Title: "ref"}
	}

	proj := BuildProjection(store.SummaryContext{}, related)
	assert.Len(t, proj.Related, InlineRelatedLimit)
	assert.Equal(t, related[:InlineRelatedLimit], proj.Related)
}

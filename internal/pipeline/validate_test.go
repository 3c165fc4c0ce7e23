package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/ai"
	"github.com/DjordjeVuckovic/news-pulse/internal/broker"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateChange struct {
	id     uuid.UUID
	state  domain.SummaryState
	reason string
}

type fakeValidatorSummaries struct {
	created      []domain.Summary
	judgeable    []domain.Summary
	stateChanges []stateChange
	categories   map[uuid.UUID]uuid.UUID
}

func (f *fakeValidatorSummaries) ListByState(_ context.Context, state domain.SummaryState, _ int) ([]domain.Summary, error) {
	if state == domain.SummaryStateCreated {
		return f.created, nil
	}
	return nil, nil
}

func (f *fakeValidatorSummaries) ListJudgeableSince(_ context.Context, _ time.Time, _ int) ([]domain.Summary, error) {
	return f.judgeable, nil
}

func (f *fakeValidatorSummaries) SetState(_ context.Context, id uuid.UUID, state domain.SummaryState, reason string) error {
	f.stateChanges = append(f.stateChanges, stateChange{id: id, state: state, reason: reason})
	return nil
}

func (f *fakeValidatorSummaries) SetCategory(_ context.Context, id uuid.UUID, categoryID uuid.UUID) error {
	if f.categories == nil {
		f.categories = make(map[uuid.UUID]uuid.UUID)
	}
	f.categories[id] = categoryID
	return nil
}

type fakeArticles struct {
	byID map[uuid.UUID]*domain.Article
}

func (f *fakeArticles) GetByID(_ context.Context, id uuid.UUID) (*domain.Article, error) {
	return f.byID[id], nil
}

type fakeJudge struct {
	byTitle map[string]ai.ValidationResult
}

func (f *fakeJudge) Complete(_ context.Context, _ ai.Tier, _, user string) (string, error) {
	for title, result := range f.byTitle {
		if strings.Contains(user, title) {
			raw, _ := json.Marshal(result)
			return string(raw), nil
		}
	}
	raw, _ := json.Marshal(ai.ValidationResult{IsValid: true})
	return string(raw), nil
}

type fakeUpserter struct {
	upserted []uuid.UUID
}

func (f *fakeUpserter) UpsertSummary(_ context.Context, id uuid.UUID) error {
	f.upserted = append(f.upserted, id)
	return nil
}

type fakeValidatorCache struct {
	fakeUpserter
	removed []uuid.UUID
}

func (f *fakeValidatorCache) RemoveSummary(_ context.Context, id uuid.UUID) error {
	f.removed = append(f.removed, id)
	return nil
}

func pipelineSummary(title string, cat uuid.UUID) (domain.Summary, domain.Article) {
	articleID := uuid.New()
	sum := domain.Summary{
		ID:          uuid.New(),
		ArticleID:   articleID,
		Title:       title,
		Body:        "body of " + title,
		CategoryID:  cat,
		Language:    domain.LanguageEnglish,
		State:       domain.SummaryStateCreated,
		GeneratedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	article := domain.Article{
		ID:    articleID,
		URL:   "https://example-news.com/" + title,
		Title: title,
	}
	return sum, article
}

func TestValidator_TransitionsCreatedSummaries(t *testing.T) {
	cat := uuid.New()
	good, goodArticle := pipelineSummary("good story", cat)
	bad, badArticle := pipelineSummary("broken story", cat)

	summaries := &fakeValidatorSummaries{created: []domain.Summary{good, bad}}
	articles := &fakeArticles{byID: map[uuid.UUID]*domain.Article{
		good.ArticleID: &goodArticle,
		bad.ArticleID:  &badArticle,
	}}
	judge := &fakeJudge{byTitle: map[string]ai.ValidationResult{
		"good story":   {IsValid: true, Reason: "faithful"},
		"broken story": {IsValid: false, Reason: "hallucinated quote"},
	}}
	cacheW := &fakeValidatorCache{}
	publisher := &fakePublisher{}

	v := NewValidator(summaries, articles, judge, publisher, cacheW, nil)
	require.NoError(t, v.Run(context.Background()))

	require.Len(t, summaries.stateChanges, 2)
	assert.Equal(t, stateChange{id: good.ID, state: domain.SummaryStateValidated, reason: "faithful"}, summaries.stateChanges[0])
	assert.Equal(t, stateChange{id: bad.ID, state: domain.SummaryStateDiscarded, reason: "hallucinated quote"}, summaries.stateChanges[1])
	assert.Equal(t, []uuid.UUID{good.ID}, cacheW.upserted, "only the accepted summary stays in the feed")
	assert.Equal(t, []uuid.UUID{bad.ID}, cacheW.removed)
}

func TestValidator_DiscardedLeavesFeedAndIndex(t *testing.T) {
	cat := uuid.New()
	bad, badArticle := pipelineSummary("fabricated story", cat)

	summaries := &fakeValidatorSummaries{created: []domain.Summary{bad}}
	articles := &fakeArticles{byID: map[uuid.UUID]*domain.Article{bad.ArticleID: &badArticle}}
	judge := &fakeJudge{byTitle: map[string]ai.ValidationResult{
		"fabricated story": {IsValid: false, Reason: "invented sources"},
	}}
	cacheW := &fakeValidatorCache{}
	publisher := &fakePublisher{}

	v := NewValidator(summaries, articles, judge, publisher, cacheW, nil)
	require.NoError(t, v.Run(context.Background()))

	assert.Empty(t, cacheW.upserted, "a discarded summary is never upserted into the timeline")
	assert.Equal(t, []uuid.UUID{bad.ID}, cacheW.removed)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, broker.QueueIndexing, publisher.published[0].queue)
	assert.Equal(t, broker.IndexRequest{SummaryID: bad.ID, Op: broker.IndexOpDelete}, publisher.published[0].msg)
}

func TestValidator_RevalidateOnlyRemapsCategory(t *testing.T) {
	politics := domain.Category{ID: uuid.New(), Name: "politics"}
	economy := domain.Category{ID: uuid.New(), Name: "economy"}

	sum, article := pipelineSummary("budget vote", politics.ID)
	sum.State = domain.SummaryStateValidated

	summaries := &fakeValidatorSummaries{judgeable: []domain.Summary{sum}}
	articles := &fakeArticles{byID: map[uuid.UUID]*domain.Article{sum.ArticleID: &article}}
	judge := &fakeJudge{byTitle: map[string]ai.ValidationResult{
		"budget vote": {IsValid: true, Topic: "Economy"},
	}}
	cacheW := &fakeValidatorCache{}

	v := NewValidator(summaries, articles, judge, &fakePublisher{}, cacheW, []domain.Category{politics, economy})
	require.NoError(t, v.Revalidate(context.Background(), time.Now().Add(-24*time.Hour)))

	assert.Empty(t, summaries.stateChanges, "revalidation never changes state")
	assert.Equal(t, economy.ID, summaries.categories[sum.ID], "topic match is case-insensitive")
	assert.Equal(t, []uuid.UUID{sum.ID}, cacheW.upserted)
}

func TestValidator_RevalidateSkipsUnknownTopicAndSameCategory(t *testing.T) {
	politics := domain.Category{ID: uuid.New(), Name: "politics"}

	same, sameArticle := pipelineSummary("still politics", politics.ID)
	unknown, unknownArticle := pipelineSummary("weird topic", politics.ID)

	summaries := &fakeValidatorSummaries{judgeable: []domain.Summary{same, unknown}}
	articles := &fakeArticles{byID: map[uuid.UUID]*domain.Article{
		same.ArticleID:    &sameArticle,
		unknown.ArticleID: &unknownArticle,
	}}
	judge := &fakeJudge{byTitle: map[string]ai.ValidationResult{
		"still politics": {IsValid: true, Topic: "politics"},
		"weird topic":    {IsValid: true, Topic: "astrology"},
	}}
	cacheW := &fakeValidatorCache{}

	v := NewValidator(summaries, articles, judge, &fakePublisher{}, cacheW, []domain.Category{politics})
	require.NoError(t, v.Revalidate(context.Background(), time.Now().Add(-24*time.Hour)))

	assert.Empty(t, summaries.categories)
	assert.Empty(t, cacheW.upserted)
}

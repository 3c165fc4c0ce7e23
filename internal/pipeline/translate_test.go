package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DjordjeVuckovic/news-pulse/internal/ai"
	"github.com/DjordjeVuckovic/news-pulse/internal/broker"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranslatorSummaries struct {
	missing  []domain.Summary
	siblings map[uuid.UUID]bool
	saved    []domain.Summary
}

func (f *fakeTranslatorSummaries) ListMissingTranslation(_ context.Context, _ domain.Language, _ int) ([]domain.Summary, error) {
	return f.missing, nil
}

func (f *fakeTranslatorSummaries) ExistsSibling(_ context.Context, articleID uuid.UUID, _ domain.Language) (bool, error) {
	return f.siblings[articleID], nil
}

func (f *fakeTranslatorSummaries) Save(_ context.Context, sum domain.Summary) (uuid.UUID, error) {
	sum.ID = uuid.New()
	f.saved = append(f.saved, sum)
	return sum.ID, nil
}

type fakeTranslatorAI struct{}

func (fakeTranslatorAI) Complete(_ context.Context, _ ai.Tier, _, _ string) (string, error) {
	raw, _ := json.Marshal(ai.TranslationResult{Title: "prevedeni naslov", Body: "prevedeno telo"})
	return string(raw), nil
}

type publishedMsg struct {
	queue string
	msg   any
}

type fakePublisher struct {
	published []publishedMsg
}

func (f *fakePublisher) Publish(_ context.Context, queue string, msg any) error {
	f.published = append(f.published, publishedMsg{queue: queue, msg: msg})
	return nil
}

func TestTranslator_CreatesValidatedSibling(t *testing.T) {
	cat := uuid.New()
	sum, _ := pipelineSummary("original", cat)
	sum.State = domain.SummaryStateValidated

	summaries := &fakeTranslatorSummaries{missing: []domain.Summary{sum}, siblings: map[uuid.UUID]bool{}}
	publisher := &fakePublisher{}
	cacheW := &fakeUpserter{}

	tr := NewTranslator(summaries, fakeTranslatorAI{}, publisher, cacheW)
	require.NoError(t, tr.Run(context.Background(), domain.LanguageSerbian))

	require.Len(t, summaries.saved, 1)
	sibling := summaries.saved[0]
	assert.Equal(t, sum.ArticleID, sibling.ArticleID)
	assert.Equal(t, domain.LanguageSerbian, sibling.Language)
	assert.Equal(t, domain.SummaryStateValidated, sibling.State, "translations enter already validated")
	assert.Equal(t, "translated from en", sibling.Reason)
	assert.Equal(t, cat, sibling.CategoryID)
	assert.Equal(t, "prevedeni naslov", sibling.Title)

	require.Len(t, cacheW.upserted, 1)

	// the sibling enters clustering and indexing like any organic summary
	require.Len(t, publisher.published, 2)
	assert.Equal(t, broker.QueueSimilarity, publisher.published[0].queue)
	assert.Equal(t, broker.QueueIndexing, publisher.published[1].queue)
}

func TestTranslator_SkipsExistingSibling(t *testing.T) {
	sum, _ := pipelineSummary("original", uuid.New())
	summaries := &fakeTranslatorSummaries{
		missing:  []domain.Summary{sum},
		siblings: map[uuid.UUID]bool{sum.ArticleID: true},
	}
	publisher := &fakePublisher{}

	tr := NewTranslator(summaries, fakeTranslatorAI{}, publisher, &fakeUpserter{})
	require.NoError(t, tr.Run(context.Background(), domain.LanguageSerbian))

	assert.Empty(t, summaries.saved)
	assert.Empty(t, publisher.published)
}

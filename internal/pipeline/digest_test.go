package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/ai"
	"github.com/DjordjeVuckovic/news-pulse/internal/cache"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDigestSummaries struct {
	corpus      []store.SummaryContext
	gotStart    time.Time
	gotEnd      time.Time
	markedIDs   []uuid.UUID
	listedCalls int
}

func (f *fakeDigestSummaries) ListValidatedContextsInWindow(_ context.Context, _ domain.Language, start, end time.Time) ([]store.SummaryContext, error) {
	f.listedCalls++
	f.gotStart, f.gotEnd = start, end
	return f.corpus, nil
}

func (f *fakeDigestSummaries) MarkDigested(_ context.Context, ids []uuid.UUID) error {
	f.markedIDs = append(f.markedIDs, ids...)
	return nil
}

type fakeDigests struct {
	latest *domain.Digest
	saved  []domain.Digest
	refs   [][]domain.DigestRef
}

func (f *fakeDigests) Latest(_ context.Context, _ domain.Language) (*domain.Digest, error) {
	return f.latest, nil
}

func (f *fakeDigests) Save(_ context.Context, digest domain.Digest, refs []domain.DigestRef) (uuid.UUID, error) {
	digest.ID = uuid.New()
	f.saved = append(f.saved, digest)
	f.refs = append(f.refs, refs)
	return digest.ID, nil
}

type fakeDigestAI struct {
	result ai.DigestResult
	calls  int
}

func (f *fakeDigestAI) Complete(_ context.Context, _ ai.Tier, _, _ string) (string, error) {
	f.calls++
	raw, _ := json.Marshal(f.result)
	return string(raw), nil
}

type fakeDigestCache struct {
	digests []cache.CachedDigest
}

func (f *fakeDigestCache) UpsertDigest(_ context.Context, d cache.CachedDigest) error {
	f.digests = append(f.digests, d)
	return nil
}

func digestCorpus(n int, base time.Time) []store.SummaryContext {
	out := make([]store.SummaryContext, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.New()
		out = append(out, store.SummaryContext{
			Summary: domain.Summary{
				ID:          id,
				Title:       "story " + id.String()[:8],
				Body:        "body",
				Language:    domain.LanguageEnglish,
				State:       domain.SummaryStateValidated,
				GeneratedAt: base.Add(time.Duration(i) * time.Minute),
			},
			ArticleURL: "https://example-news.com/" + id.String(),
		})
	}
	return out
}

func TestComposer_SkipsDuringCooldown(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	summaries := &fakeDigestSummaries{}
	digests := &fakeDigests{latest: &domain.Digest{
		GeneratedAt: now.Add(-30 * time.Minute),
		PeriodEnd:   now.Add(-30 * time.Minute),
	}}
	aiClient := &fakeDigestAI{}

	c := NewComposer(summaries, digests, aiClient, &fakeUpserter{}, &fakeDigestCache{},
		WithClock(func() time.Time { return now }))
	require.NoError(t, c.Run(context.Background(), domain.LanguageEnglish))

	assert.Zero(t, summaries.listedCalls, "cooldown skips before loading the corpus")
	assert.Zero(t, aiClient.calls)
	assert.Empty(t, digests.saved)
}

func TestComposer_SkipsSmallCorpus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	summaries := &fakeDigestSummaries{corpus: digestCorpus(2, now.Add(-2*time.Hour))}
	digests := &fakeDigests{}
	aiClient := &fakeDigestAI{}

	c := NewComposer(summaries, digests, aiClient, &fakeUpserter{}, &fakeDigestCache{},
		WithMinCorpus(3),
		WithClock(func() time.Time { return now }))
	require.NoError(t, c.Run(context.Background(), domain.LanguageEnglish))

	assert.Zero(t, aiClient.calls)
	assert.Empty(t, digests.saved)
	assert.Empty(t, summaries.markedIDs, "a skipped run leaves states untouched")
}

func TestComposer_WindowStartsAtPreviousPeriodEnd(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prevEnd := now.Add(-4 * time.Hour)
	summaries := &fakeDigestSummaries{}
	digests := &fakeDigests{latest: &domain.Digest{
		GeneratedAt: prevEnd,
		PeriodEnd:   prevEnd,
	}}

	c := NewComposer(summaries, digests, &fakeDigestAI{}, &fakeUpserter{}, &fakeDigestCache{},
		WithClock(func() time.Time { return now }))
	require.NoError(t, c.Run(context.Background(), domain.LanguageEnglish))

	assert.Equal(t, prevEnd, summaries.gotStart)
	assert.Equal(t, now, summaries.gotEnd)
}

func TestComposer_FallbackWindowWithoutPreviousDigest(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	summaries := &fakeDigestSummaries{}

	c := NewComposer(summaries, &fakeDigests{}, &fakeDigestAI{}, &fakeUpserter{}, &fakeDigestCache{},
		WithClock(func() time.Time { return now }))
	require.NoError(t, c.Run(context.Background(), domain.LanguageEnglish))

	assert.Equal(t, now.Add(-12*time.Hour), summaries.gotStart)
}

func TestComposer_ComposesAndMarksCorpus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	corpus := digestCorpus(3, now.Add(-2*time.Hour))

	summaries := &fakeDigestSummaries{corpus: corpus}
	digests := &fakeDigests{}
	digCache := &fakeDigestCache{}
	cacheW := &fakeUpserter{}
	aiClient := &fakeDigestAI{result: ai.DigestResult{
		Title:   "midday digest",
		Content: "three stories mattered",
		References: []ai.DigestReference{
			{Title: "first", URL: corpus[0].ArticleURL, Reason: "lead story"},
			{Title: "made up", URL: "https://elsewhere.com/fake", Reason: "hallucinated"},
		},
	}}

	c := NewComposer(summaries, digests, aiClient, cacheW, digCache,
		WithMinCorpus(3),
		WithClock(func() time.Time { return now }))
	require.NoError(t, c.Run(context.Background(), domain.LanguageEnglish))

	require.Len(t, digests.saved, 1)
	saved := digests.saved[0]
	assert.Equal(t, "midday digest", saved.Title)
	assert.Equal(t, domain.DigestStateCreated, saved.State)
	assert.Equal(t, now, saved.PeriodEnd)

	// references outside the corpus never make it in
	require.Len(t, digests.refs[0], 1)
	assert.Equal(t, corpus[0].Summary.ID, digests.refs[0][0].SummaryID)

	// every corpus member is consumed, cited or not
	wantIDs := []uuid.UUID{corpus[0].Summary.ID, corpus[1].Summary.ID, corpus[2].Summary.ID}
	assert.ElementsMatch(t, wantIDs, summaries.markedIDs)
	assert.ElementsMatch(t, wantIDs, cacheW.upserted)

	require.Len(t, digCache.digests, 1)
	assert.Equal(t, "midday digest", digCache.digests[0].Title)
}

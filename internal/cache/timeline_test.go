package cache

import (
	"context"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func testProjection(at time.Time) CachedSummary {
	return CachedSummary{
		ID:          uuid.New(),
		ArticleID:   uuid.New(),
		Title:       "test summary",
		Body:        "test body",
		URL:         "https://example-news.com/story",
		CategoryID:  uuid.New(),
		SourceID:    uuid.New(),
		Language:    domain.LanguageEnglish,
		State:       domain.SummaryStateValidated,
		GeneratedAt: at,
	}
}

func TestTimeline_ReadNewestFirst(t *testing.T) {
	_, rdb := newTestRedis(t)
	timeline := NewTimeline(rdb)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		proj := testProjection(base.Add(time.Duration(i) * time.Minute))
		ids = append(ids, proj.ID)
		require.NoError(t, timeline.Upsert(ctx, proj))
	}

	got, err := timeline.Read(ctx, domain.LanguageEnglish, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[1], got[1].ID)
	assert.Equal(t, ids[0], got[2].ID)
}

func TestTimeline_UpsertReplacesEditedEntry(t *testing.T) {
	_, rdb := newTestRedis(t)
	timeline := NewTimeline(rdb)
	ctx := context.Background()

	proj := testProjection(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, timeline.Upsert(ctx, proj))

	proj.State = domain.SummaryStateDigested
	require.NoError(t, timeline.Upsert(ctx, proj))

	n, err := timeline.Len(ctx, domain.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := timeline.Read(ctx, domain.LanguageEnglish, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SummaryStateDigested, got[0].State)
}

func TestTimeline_EvictsOldestBeyondMaxLen(t *testing.T) {
	_, rdb := newTestRedis(t)
	timeline := NewTimeline(rdb, WithMaxLen(3))
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	var oldest uuid.UUID
	for i := 0; i < 4; i++ {
		proj := testProjection(base.Add(time.Duration(i) * time.Minute))
		if i == 0 {
			oldest = proj.ID
		}
		require.NoError(t, timeline.Upsert(ctx, proj))
	}

	n, err := timeline.Len(ctx, domain.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := timeline.Read(ctx, domain.LanguageEnglish, 0, 10)
	require.NoError(t, err)
	for _, proj := range got {
		assert.NotEqual(t, oldest, proj.ID)
	}
}

func TestTimeline_Get(t *testing.T) {
	mr, rdb := newTestRedis(t)
	timeline := NewTimeline(rdb)
	ctx := context.Background()

	proj := testProjection(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, timeline.Upsert(ctx, proj))

	got, err := timeline.Get(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, proj.ID, got.ID)
	assert.Equal(t, proj.Title, got.Title)

	_, err = timeline.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	// per-id entries expire on their own
	mr.FastForward(pointTTL + time.Minute)
	_, err = timeline.Get(ctx, proj.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimeline_ReadFiltered(t *testing.T) {
	_, rdb := newTestRedis(t)
	timeline := NewTimeline(rdb)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	catA, catB := uuid.New(), uuid.New()
	srcA, srcB := uuid.New(), uuid.New()

	mk := func(i int, cat, src uuid.UUID) CachedSummary {
		proj := testProjection(base.Add(time.Duration(i) * time.Minute))
		proj.CategoryID = cat
		proj.SourceID = src
		return proj
	}

	inBoth := mk(0, catA, srcA)
	catOnly := mk(1, catA, srcB)
	srcOnly := mk(2, catB, srcA)
	neither := mk(3, catB, srcB)
	for _, proj := range []CachedSummary{inBoth, catOnly, srcOnly, neither} {
		require.NoError(t, timeline.Upsert(ctx, proj))
	}

	got, err := timeline.ReadFiltered(ctx, domain.LanguageEnglish, Filter{CategoryID: &catA}, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, catOnly.ID, got[0].ID)
	assert.Equal(t, inBoth.ID, got[1].ID)

	got, err = timeline.ReadFiltered(ctx, domain.LanguageEnglish, Filter{CategoryID: &catA, SourceID: &srcA}, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inBoth.ID, got[0].ID)

	// filtered offset skips matches, not timeline positions
	got, err = timeline.ReadFiltered(ctx, domain.LanguageEnglish, Filter{SourceID: &srcA}, 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inBoth.ID, got[0].ID)
}

func TestTimeline_Digests(t *testing.T) {
	_, rdb := newTestRedis(t)
	timeline := NewTimeline(rdb)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	older := CachedDigest{
		ID:          uuid.New(),
		Title:       "morning digest",
		Content:     "what happened this morning",
		Language:    domain.LanguageEnglish,
		GeneratedAt: base,
	}
	newer := older
	newer.ID = uuid.New()
	newer.Title = "evening digest"
	newer.GeneratedAt = base.Add(8 * time.Hour)

	require.NoError(t, timeline.UpsertDigest(ctx, older))
	require.NoError(t, timeline.UpsertDigest(ctx, newer))

	got, err := timeline.ReadDigests(ctx, domain.LanguageEnglish, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "evening digest", got[0].Title)
	assert.Equal(t, "morning digest", got[1].Title)
}

func TestTimeline_RemoveEvictsEverywhere(t *testing.T) {
	_, rdb := newTestRedis(t)
	timeline := NewTimeline(rdb)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	keep := testProjection(base)
	gone := testProjection(base.Add(time.Minute))
	require.NoError(t, timeline.Upsert(ctx, keep))
	require.NoError(t, timeline.Upsert(ctx, gone))

	require.NoError(t, timeline.Remove(ctx, gone))

	got, err := timeline.Read(ctx, domain.LanguageEnglish, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, keep.ID, got[0].ID)

	_, err = timeline.Get(ctx, gone.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	filtered, err := timeline.ReadFiltered(ctx, domain.LanguageEnglish, Filter{CategoryID: &gone.CategoryID}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, filtered, "removed entry no longer matches its index sets")
}

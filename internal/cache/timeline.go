package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultMaxLen caps each per-language timeline; the oldest entries
	// are evicted by rank once the cap is exceeded.
	DefaultMaxLen = 300

	// pointTTL bounds how long a per-id entry outlives its timeline slot.
	pointTTL = 7 * 24 * time.Hour

	walkChunk = 64
)

var ErrNotFound = errors.New("cache: entry not found")

// Timeline is the recency-ordered read cache. The sorted set is the sole
// ordering authority; category/source sets are existence filters only.
type Timeline struct {
	rdb    *redis.Client
	maxLen int64
}

type TimelineOption func(*Timeline)

func NewTimeline(rdb *redis.Client, opts ...TimelineOption) *Timeline {
	t := &Timeline{rdb: rdb, maxLen: DefaultMaxLen}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func WithMaxLen(n int64) TimelineOption {
	return func(t *Timeline) {
		t.maxLen = n
	}
}

// Upsert writes the projection to the timeline, the index sets and the
// per-id entry. Any stale member at the same score is removed first so an
// edited summary never appears twice.
func (t *Timeline) Upsert(ctx context.Context, proj CachedSummary) error {
	payload, err := json.Marshal(proj)
	if err != nil {
		return fmt.Errorf("failed to marshal projection: %w", err)
	}

	score := float64(proj.GeneratedAt.UnixMilli())
	key := timelineKey(proj.Language)
	scoreStr := strconv.FormatInt(proj.GeneratedAt.UnixMilli(), 10)

	if err := t.rdb.ZRemRangeByScore(ctx, key, scoreStr, scoreStr).Err(); err != nil {
		return fmt.Errorf("failed to remove stale timeline entry: %w", err)
	}

	pipe := t.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: payload})
	pipe.SAdd(ctx, categoryIndexKey(proj.CategoryID), proj.ID.String())
	pipe.SAdd(ctx, sourceIndexKey(proj.SourceID), proj.ID.String())
	pipe.ZRemRangeByRank(ctx, key, 0, -t.maxLen-1)
	pipe.Set(ctx, summaryKey(proj.ID), payload, pointTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to upsert timeline entry: %w", err)
	}
	return nil
}

// Remove deletes a summary from the timeline, its index sets and the
// per-id entry. The score removal mirrors Upsert's stale-entry rule:
// generation time is immutable, so the member at that score is ours.
func (t *Timeline) Remove(ctx context.Context, proj CachedSummary) error {
	key := timelineKey(proj.Language)
	scoreStr := strconv.FormatInt(proj.GeneratedAt.UnixMilli(), 10)

	pipe := t.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, scoreStr, scoreStr)
	pipe.SRem(ctx, categoryIndexKey(proj.CategoryID), proj.ID.String())
	pipe.SRem(ctx, sourceIndexKey(proj.SourceID), proj.ID.String())
	pipe.Del(ctx, summaryKey(proj.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove timeline entry: %w", err)
	}
	return nil
}

// Get is the point lookup against the fixed-TTL per-id entry.
func (t *Timeline) Get(ctx context.Context, id uuid.UUID) (*CachedSummary, error) {
	raw, err := t.rdb.Get(ctx, summaryKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached summary: %w", err)
	}

	var proj CachedSummary
	if err := json.Unmarshal(raw, &proj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached summary: %w", err)
	}
	return &proj, nil
}

// Read returns a page of the timeline, newest first.
func (t *Timeline) Read(ctx context.Context, lang domain.Language, offset, limit int) ([]CachedSummary, error) {
	raw, err := t.rdb.ZRevRange(ctx, timelineKey(lang), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read timeline: %w", err)
	}
	return decodeProjections(raw)
}

// Filter narrows a timeline read. Nil fields are ignored.
type Filter struct {
	CategoryID *uuid.UUID
	SourceID   *uuid.UUID
}

func (f Filter) indexKeys() []string {
	var keys []string
	if f.CategoryID != nil {
		keys = append(keys, categoryIndexKey(*f.CategoryID))
	}
	if f.SourceID != nil {
		keys = append(keys, sourceIndexKey(*f.SourceID))
	}
	return keys
}

// ReadFiltered walks the timeline newest first and keeps entries that are
// members of every filter set. The sets only answer membership; ordering
// always comes from the timeline itself.
func (t *Timeline) ReadFiltered(ctx context.Context, lang domain.Language, filter Filter, offset, limit int) ([]CachedSummary, error) {
	keys := filter.indexKeys()
	if len(keys) == 0 {
		return t.Read(ctx, lang, offset, limit)
	}

	var (
		out     []CachedSummary
		skipped int
		cursor  int64
	)

	for len(out) < limit {
		raw, err := t.rdb.ZRevRange(ctx, timelineKey(lang), cursor, cursor+walkChunk-1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to walk timeline: %w", err)
		}
		if len(raw) == 0 {
			break
		}
		cursor += int64(len(raw))

		projections, err := decodeProjections(raw)
		if err != nil {
			return nil, err
		}

		for _, proj := range projections {
			ok, err := t.memberOfAll(ctx, keys, proj.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			out = append(out, proj)
			if len(out) == limit {
				break
			}
		}
	}

	return out, nil
}

func (t *Timeline) memberOfAll(ctx context.Context, keys []string, id uuid.UUID) (bool, error) {
	for _, key := range keys {
		ok, err := t.rdb.SIsMember(ctx, key, id.String()).Result()
		if err != nil {
			return false, fmt.Errorf("failed to check index membership: %w", err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// CachedDigest mirrors a digest for the read path.
type CachedDigest struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	Language    domain.Language `json:"language"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

func (t *Timeline) UpsertDigest(ctx context.Context, d CachedDigest) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal digest: %w", err)
	}

	score := float64(d.GeneratedAt.UnixMilli())
	key := digestTimelineKey(d.Language)
	scoreStr := strconv.FormatInt(d.GeneratedAt.UnixMilli(), 10)

	if err := t.rdb.ZRemRangeByScore(ctx, key, scoreStr, scoreStr).Err(); err != nil {
		return fmt.Errorf("failed to remove stale digest entry: %w", err)
	}

	pipe := t.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: payload})
	pipe.ZRemRangeByRank(ctx, key, 0, -t.maxLen-1)
	pipe.Set(ctx, digestKey(d.ID), payload, pointTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to upsert digest entry: %w", err)
	}
	return nil
}

func (t *Timeline) ReadDigests(ctx context.Context, lang domain.Language, offset, limit int) ([]CachedDigest, error) {
	raw, err := t.rdb.ZRevRange(ctx, digestTimelineKey(lang), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read digest timeline: %w", err)
	}

	out := make([]CachedDigest, 0, len(raw))
	for _, r := range raw {
		var d CachedDigest
		if err := json.Unmarshal([]byte(r), &d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached digest: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (t *Timeline) Len(ctx context.Context, lang domain.Language) (int64, error) {
	n, err := t.rdb.ZCard(ctx, timelineKey(lang)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get timeline length: %w", err)
	}
	return n, nil
}

func decodeProjections(raw []string) ([]CachedSummary, error) {
	out := make([]CachedSummary, 0, len(raw))
	for _, r := range raw {
		var proj CachedSummary
		if err := json.Unmarshal([]byte(r), &proj); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached summary: %w", err)
		}
		out = append(out, proj)
	}
	return out, nil
}

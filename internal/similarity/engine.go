// Package similarity clusters semantically-duplicate summaries into
// groups, consuming async requests from the broker.
package similarity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/DjordjeVuckovic/news-pulse/internal/ai"
	"github.com/DjordjeVuckovic/news-pulse/internal/broker"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// candidateLimit caps the same-language, same-category recency set
	// offered to the adjudicator.
	candidateLimit = 20

	candidateBodyLimit = 600
)

type Summaries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Summary, error)
	ListCandidates(ctx context.Context, lang domain.Language, categoryID uuid.UUID, before time.Time, exclude uuid.UUID, limit int) ([]domain.Summary, error)
}

type Groups interface {
	GroupsFor(ctx context.Context, summaryID uuid.UUID) ([]domain.Group, error)
	GroupTitlesFor(ctx context.Context, summaryIDs []uuid.UUID) (map[uuid.UUID][]string, error)
	Create(ctx context.Context, group domain.Group, refs []domain.GroupRef) (uuid.UUID, error)
	AddRef(ctx context.Context, ref domain.GroupRef) error
}

type CacheWriter interface {
	UpsertSummary(ctx context.Context, id uuid.UUID) error
}

type Engine struct {
	summaries Summaries
	groups    Groups
	aiClient  ai.Client
	cache     CacheWriter
}

func NewEngine(summaries Summaries, groups Groups, aiClient ai.Client, cache CacheWriter) *Engine {
	return &Engine{
		summaries: summaries,
		groups:    groups,
		aiClient:  aiClient,
		cache:     cache,
	}
}

// Handler adapts Process to the broker's delivery contract. A body that
// doesn't parse is dropped, not requeued: redelivery can't fix it.
func (e *Engine) Handler() broker.Handler {
	return func(ctx context.Context, body []byte) error {
		var req broker.SimilarRequest
		if err := json.Unmarshal(body, &req); err != nil {
			slog.Error("dropping malformed similarity request", "error", err)
			return nil
		}
		return e.Process(ctx, req.SummaryID)
	}
}

// Process clusters one summary. Deliveries are at-least-once, so the
// first step makes redelivery a no-op. The grouped check and the insert
// are not one atomic step; concurrent processing of the same id can slip
// through the gap, which we accept.
func (e *Engine) Process(ctx context.Context, summaryID uuid.UUID) error {
	existing, err := e.groups.GroupsFor(ctx, summaryID)
	if err != nil {
		return fmt.Errorf("failed to check existing groups: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	sum, err := e.summaries.GetByID(ctx, summaryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			slog.Warn("similarity request for unknown summary", "summary", summaryID)
			return nil
		}
		return fmt.Errorf("failed to load summary: %w", err)
	}
	// A discarded summary left the feed; clustering it would push it
	// back into the cache.
	if sum.State == domain.SummaryStateDiscarded {
		return nil
	}

	candidates, err := e.summaries.ListCandidates(ctx, sum.Language, sum.CategoryID, sum.GeneratedAt, sum.ID, candidateLimit)
	if err != nil {
		return fmt.Errorf("failed to load candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	match, reason, err := e.adjudicate(ctx, sum, candidates)
	if err != nil {
		return err
	}
	if match == nil {
		return nil
	}

	return e.merge(ctx, sum, match, reason)
}

// adjudicate asks the AI for at most one matching candidate, enriched
// with the titles of groups each candidate already belongs to so the
// model avoids contradictory clusters.
func (e *Engine) adjudicate(ctx context.Context, sum *domain.Summary, candidates []domain.Summary) (*domain.Summary, string, error) {
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}

	groupTitles, err := e.groups.GroupTitlesFor(ctx, ids)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load candidate group titles: %w", err)
	}

	payload := make([]ai.SimilarityCandidate, 0, len(candidates))
	byID := make(map[uuid.UUID]*domain.Summary, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		byID[c.ID] = c
		payload = append(payload, ai.SimilarityCandidate{
			ID:     c.ID.String(),
			Title:  c.Title,
			Body:   truncate(c.Body, candidateBodyLimit),
			Groups: groupTitles[c.ID],
		})
	}

	system, user, err := ai.SimilarityPrompt(sum.Title, sum.Body, payload)
	if err != nil {
		return nil, "", err
	}

	result, err := ai.GenerateStructured[ai.SimilarityResult](ctx, e.aiClient, ai.TierDeep, system, user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to adjudicate similarity: %w", err)
	}
	if result.MatchID == "" {
		return nil, "", nil
	}

	matchID, err := uuid.Parse(result.MatchID)
	if err != nil {
		slog.Warn("similarity match id unparsable, ignoring", "summary", sum.ID, "match", result.MatchID)
		return nil, "", nil
	}

	match, ok := byID[matchID]
	if !ok {
		// the model answered with an id outside the set it was given
		slog.Warn("similarity match not in candidate set, ignoring", "summary", sum.ID, "match", matchID)
		return nil, "", nil
	}

	return match, result.Reason, nil
}

// merge attaches the summary to the matched candidate's clusters. If the
// candidate belongs to several groups the new reference fans out to every
// one; if it belongs to none a fresh group is seeded with both summaries.
func (e *Engine) merge(ctx context.Context, sum *domain.Summary, match *domain.Summary, reason string) error {
	matchGroups, err := e.groups.GroupsFor(ctx, match.ID)
	if err != nil {
		return fmt.Errorf("failed to load match groups: %w", err)
	}

	if len(matchGroups) == 0 {
		_, err := e.groups.Create(ctx, domain.Group{
			Title:    sum.Title,
			Language: sum.Language,
		}, []domain.GroupRef{
			{SummaryID: match.ID},
			{SummaryID: sum.ID, Reason: reason},
		})
		if err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}
		metrics.GroupsCreated.Inc()
		metrics.GroupRefsAdded.Add(2)
		slog.Info("similarity group created", "summary", sum.ID, "match", match.ID)
	} else {
		for _, g := range matchGroups {
			err := e.groups.AddRef(ctx, domain.GroupRef{
				GroupID:   g.ID,
				SummaryID: sum.ID,
				Reason:    reason,
			})
			if err != nil {
				return fmt.Errorf("failed to add ref to group %s: %w", g.ID, err)
			}
			metrics.GroupRefsAdded.Inc()
		}
		slog.Info("summary joined groups", "summary", sum.ID, "match", match.ID, "groups", len(matchGroups))
	}

	// refresh both sides so the inline cross-links appear immediately
	for _, id := range []uuid.UUID{sum.ID, match.ID} {
		if err := e.cache.UpsertSummary(ctx, id); err != nil {
			slog.Error("failed to refresh cached summary", "summary", id, "error", err)
		}
	}
	return nil
}

// truncate cuts at a rune boundary so multi-byte text never ends in a
// split rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

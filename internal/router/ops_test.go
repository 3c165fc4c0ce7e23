package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/ai"
	"github.com/DjordjeVuckovic/news-pulse/internal/apperr"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/pipeline"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGate struct {
	busy bool
	runs int
}

func (g *recordingGate) TryRun(ctx context.Context, fn pipeline.Job) error {
	if g.busy {
		return pipeline.ErrBusy
	}
	g.runs++
	return fn(ctx)
}

type opsSummaries struct {
	listedCreated  bool
	revalidateFrom *time.Time
}

func (f *opsSummaries) ListByState(_ context.Context, _ domain.SummaryState, _ int) ([]domain.Summary, error) {
	f.listedCreated = true
	return nil, nil
}

func (f *opsSummaries) ListJudgeableSince(_ context.Context, since time.Time, _ int) ([]domain.Summary, error) {
	f.revalidateFrom = &since
	return nil, nil
}

func (f *opsSummaries) SetState(_ context.Context, _ uuid.UUID, _ domain.SummaryState, _ string) error {
	return nil
}

func (f *opsSummaries) SetCategory(_ context.Context, _ uuid.UUID, _ uuid.UUID) error {
	return nil
}

type opsArticles struct{}

func (opsArticles) GetByID(_ context.Context, _ uuid.UUID) (*domain.Article, error) {
	return &domain.Article{}, nil
}

type opsAI struct{}

func (opsAI) Complete(_ context.Context, _ ai.Tier, _, _ string) (string, error) {
	return `{"isValid": true}`, nil
}

type opsCache struct{}

func (opsCache) UpsertSummary(_ context.Context, _ uuid.UUID) error { return nil }
func (opsCache) RemoveSummary(_ context.Context, _ uuid.UUID) error { return nil }

type opsPublisher struct{}

func (opsPublisher) Publish(_ context.Context, _ string, _ any) error { return nil }

type opsCrawl struct {
	runs int
}

func (f *opsCrawl) Run(_ context.Context) error {
	f.runs++
	return nil
}

func newOpsTest(t *testing.T, gate Gate, crawl Crawl, summaries *opsSummaries) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = apperr.GlobalErrorHandler()

	validator := pipeline.NewValidator(summaries, opsArticles{}, opsAI{}, opsPublisher{}, opsCache{}, nil)
	NewOpsRouter(e, gate, crawl, validator, nil, nil, nil).Bind()
	return e
}

func TestOpsRouter_ValidateRunsCreatedPass(t *testing.T) {
	gate := &recordingGate{}
	summaries := &opsSummaries{}
	e := newOpsTest(t, gate, &opsCrawl{}, summaries)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ops/validate-summaries", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, gate.runs, "the stage runs under the cycle lock")
	assert.True(t, summaries.listedCreated)
	assert.Nil(t, summaries.revalidateFrom)
}

func TestOpsRouter_ValidateSinceTriggersRevalidation(t *testing.T) {
	gate := &recordingGate{}
	summaries := &opsSummaries{}
	e := newOpsTest(t, gate, &opsCrawl{}, summaries)

	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/ops/validate-summaries?since="+since.Format(time.RFC3339), nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, summaries.revalidateFrom)
	assert.True(t, since.Equal(*summaries.revalidateFrom))
	assert.False(t, summaries.listedCreated)
}

func TestOpsRouter_ValidateRejectsBadSince(t *testing.T) {
	gate := &recordingGate{}
	e := newOpsTest(t, gate, &opsCrawl{}, &opsSummaries{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ops/validate-summaries?since=yesterday", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, gate.runs)
}

func TestOpsRouter_BusyCycleConflicts(t *testing.T) {
	gate := &recordingGate{busy: true}
	crawl := &opsCrawl{}
	e := newOpsTest(t, gate, crawl, &opsSummaries{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ops/process-sources", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, crawl.runs, "a stage never runs concurrently with a scheduled cycle")
}

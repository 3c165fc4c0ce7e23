package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/apperr"
	"github.com/DjordjeVuckovic/news-pulse/internal/cache"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/pipeline"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

type Crawl interface {
	Run(ctx context.Context) error
}

type Rebuild interface {
	Rebuild(ctx context.Context) error
}

// Gate serializes operator-triggered stage runs against the scheduled
// summary cycle.
type Gate interface {
	TryRun(ctx context.Context, fn pipeline.Job) error
}

type SummaryLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Summary, error)
}

// OpsRouter exposes manual triggers for the scheduled stages so an
// operator can force a run without waiting out the intervals.
type OpsRouter struct {
	e          *echo.Echo
	gate       Gate
	crawl      Crawl
	validator  *pipeline.Validator
	translator *pipeline.Translator
	rebuild    Rebuild
	summaries  SummaryLoader
}

func NewOpsRouter(e *echo.Echo, gate Gate, crawl Crawl, validator *pipeline.Validator, translator *pipeline.Translator, rebuild Rebuild, summaries SummaryLoader) *OpsRouter {
	return &OpsRouter{
		e:          e,
		gate:       gate,
		crawl:      crawl,
		validator:  validator,
		translator: translator,
		rebuild:    rebuild,
		summaries:  summaries,
	}
}

func (r *OpsRouter) Bind() {
	ops := r.e.Group("/ops")
	ops.POST("/process-sources", r.processSourcesHandler)
	ops.POST("/validate-summaries", r.validateSummariesHandler)
	ops.POST("/rebuild-cache", r.rebuildCacheHandler)
	ops.POST("/translate/:id", r.translateHandler)
}

func (r *OpsRouter) processSourcesHandler(c echo.Context) error {
	return r.runStage(c, r.crawl.Run)
}

// validateSummariesHandler triggers the normal created-summary pass, or
// the maintenance re-validation when a since timestamp is given.
func (r *OpsRouter) validateSummariesHandler(c echo.Context) error {
	job := r.validator.Run
	if raw := c.QueryParam("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperr.NewValidationWrap("invalid since timestamp, want RFC3339", err)
		}
		job = func(ctx context.Context) error {
			return r.validator.Revalidate(ctx, since)
		}
	}
	return r.runStage(c, job)
}

// runStage executes one pipeline stage under the summary cycle's lock so
// operator triggers never overlap a scheduled run.
func (r *OpsRouter) runStage(c echo.Context, job pipeline.Job) error {
	err := r.gate.TryRun(c.Request().Context(), job)
	if err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "pipeline run already in progress"})
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "completed"})
}

func (r *OpsRouter) rebuildCacheHandler(c echo.Context) error {
	err := r.rebuild.Rebuild(c.Request().Context())
	if err != nil {
		if errors.Is(err, cache.ErrLocked) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "rebuild already in progress"})
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "completed"})
}

func (r *OpsRouter) translateHandler(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.NewValidationWrap("invalid summary id", err)
	}

	target := domain.Language(c.QueryParam("target"))
	if target == "" {
		target = domain.DefaultLanguage
	}
	if !domain.SupportedLanguages[target] {
		return apperr.NewValidation("unsupported target language: " + string(target))
	}

	sum, err := r.summaries.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NewNotFound("summary not found")
		}
		return err
	}
	if sum.Language == target {
		return apperr.NewValidation("summary is already in the target language")
	}
	if !sum.State.Judgeable() {
		return apperr.NewValidation("summary is not eligible for translation")
	}

	return r.runStage(c, func(ctx context.Context) error {
		return r.translator.TranslateOne(ctx, *sum, target)
	})
}

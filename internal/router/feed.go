// Package router binds the HTTP surface: the cached feed, group
// references, digests, full-text search and operator actions.
package router

import (
	"errors"
	"net/http"

	"github.com/DjordjeVuckovic/news-pulse/internal/apperr"
	"github.com/DjordjeVuckovic/news-pulse/internal/cache"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/similarity"
	"github.com/DjordjeVuckovic/news-pulse/pkg/pagination"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type FeedRouter struct {
	e        *echo.Echo
	timeline *cache.Timeline
	related  *similarity.Reader
}

func NewFeedRouter(e *echo.Echo, timeline *cache.Timeline, related *similarity.Reader) *FeedRouter {
	return &FeedRouter{
		e:        e,
		timeline: timeline,
		related:  related,
	}
}

func (r *FeedRouter) Bind() {
	r.e.GET("/feed", r.feedHandler)
	r.e.GET("/summaries/:id", r.summaryHandler)
	r.e.GET("/summaries/:id/related", r.relatedHandler)
	r.e.GET("/digests", r.digestsHandler)
}

func (r *FeedRouter) feedHandler(c echo.Context) error {
	lang, err := queryLanguage(c)
	if err != nil {
		return err
	}
	page := pageRequest(c)
	offset := (page.Page - 1) * page.Size

	filter := cache.Filter{}
	if cat := c.QueryParam("category"); cat != "" {
		id, err := uuid.Parse(cat)
		if err != nil {
			return apperr.NewValidationWrap("invalid category id", err)
		}
		filter.CategoryID = &id
	}
	if src := c.QueryParam("source"); src != "" {
		id, err := uuid.Parse(src)
		if err != nil {
			return apperr.NewValidationWrap("invalid source id", err)
		}
		filter.SourceID = &id
	}

	var items []cache.CachedSummary
	if filter.CategoryID != nil || filter.SourceID != nil {
		items, err = r.timeline.ReadFiltered(c.Request().Context(), lang, filter, offset, page.Size)
	} else {
		items, err = r.timeline.Read(c.Request().Context(), lang, offset, page.Size)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"items": items,
		"page":  page.Page,
		"size":  page.Size,
	})
}

func (r *FeedRouter) summaryHandler(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.NewValidationWrap("invalid summary id", err)
	}

	item, err := r.timeline.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return apperr.NewNotFound("summary not cached")
		}
		return err
	}

	return c.JSON(http.StatusOK, item)
}

func (r *FeedRouter) relatedHandler(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.NewValidationWrap("invalid summary id", err)
	}

	page := pageRequest(c)
	refs, err := r.related.ListRelated(c.Request().Context(), id, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"items": refs,
		"page":  page.Page,
		"size":  page.Size,
	})
}

func (r *FeedRouter) digestsHandler(c echo.Context) error {
	lang, err := queryLanguage(c)
	if err != nil {
		return err
	}
	page := pageRequest(c)
	offset := (page.Page - 1) * page.Size

	digests, err := r.timeline.ReadDigests(c.Request().Context(), lang, offset, page.Size)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"items": digests,
		"page":  page.Page,
		"size":  page.Size,
	})
}

func queryLanguage(c echo.Context) (domain.Language, error) {
	raw := c.QueryParam("lang")
	if raw == "" {
		return domain.DefaultLanguage, nil
	}
	lang := domain.Language(raw)
	if !domain.SupportedLanguages[lang] {
		return "", apperr.NewValidation("unsupported language: " + raw)
	}
	return lang, nil
}

func pageRequest(c echo.Context) pagination.OffsetRequest {
	var req pagination.OffsetRequest
	_ = c.Bind(&req)
	if req.Size <= 0 || req.Size > 50 {
		req.Size = 20
	}
	_ = req.Validate()
	return req
}

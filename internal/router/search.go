package router

import (
	"net/http"
	"strconv"

	"github.com/DjordjeVuckovic/news-pulse/internal/apperr"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"github.com/DjordjeVuckovic/news-pulse/internal/search"
	"github.com/labstack/echo/v4"
)

type SearchRouter struct {
	e        *echo.Echo
	searcher *search.Searcher
}

func NewSearchRouter(e *echo.Echo, searcher *search.Searcher) *SearchRouter {
	return &SearchRouter{
		e:        e,
		searcher: searcher,
	}
}

func (r *SearchRouter) Bind() {
	r.e.GET("/search", r.searchHandler)
}

func (r *SearchRouter) searchHandler(c echo.Context) error {
	query := c.QueryParam("query")
	if query == "" {
		return apperr.NewValidation("query parameter is required")
	}

	// no lang means search across all languages
	var lang domain.Language
	if raw := c.QueryParam("lang"); raw != "" {
		lang = domain.Language(raw)
		if !domain.SupportedLanguages[lang] {
			return apperr.NewValidation("unsupported language: " + raw)
		}
	}

	size := 10
	if raw := c.QueryParam("size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			size = n
		}
	}

	results, err := r.searcher.Search(c.Request().Context(), query, lang, size)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, results)
}

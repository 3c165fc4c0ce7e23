package router

import (
	"net/http"

	"github.com/DjordjeVuckovic/news-pulse/pkg/server"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthRouter struct {
	e        *echo.Echo
	checkers map[string]server.HealthChecker
}

func NewHealthRouter(e *echo.Echo, checkers map[string]server.HealthChecker) *HealthRouter {
	return &HealthRouter{
		e:        e,
		checkers: checkers,
	}
}

func (r *HealthRouter) Bind() {
	r.e.GET("/healthz", r.healthHandler)
	r.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func (r *HealthRouter) healthHandler(c echo.Context) error {
	status := http.StatusOK
	checks := make(map[string]string, len(r.checkers))
	for name, hc := range r.checkers {
		if hc.Healthy(c.Request().Context()) {
			checks[name] = "ok"
		} else {
			checks[name] = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	return c.JSON(status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}

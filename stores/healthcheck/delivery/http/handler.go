package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain/healthcheck"
)

type handler struct {
	us healthcheck.Usecase
}

// New mounts GET /health, answering 503 while any backend is down
func New(e *echo.Echo, us healthcheck.Usecase) {
	h := &handler{us: us}
	e.GET("/health", h.check)
}

func (h *handler) check(c echo.Context) error {
	report := h.us.Check(c.Get("ctx").(ctx.Ctx))
	if !report.Healthy {
		return c.JSON(http.StatusServiceUnavailable, report)
	}
	return c.JSON(http.StatusOK, report)
}

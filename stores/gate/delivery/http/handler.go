package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/delivery"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/gate"
	authMiddleware "github.com/x-xyz/gatemarket/stores/auth/delivery/http/middleware"
)

type handler struct {
	gate gate.Usecase
}

func New(e *echo.Echo, gate gate.Usecase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{gate}

	// admin is checked by the usecase after the params are validated
	e.POST("/gates", h.create, authMiddleware.Auth())

	g := e.Group("/gates/:gateId")

	g.GET("", h.get)

	g.DELETE("", h.delete, authMiddleware.Auth())

	g.POST("/purchase", h.purchase, authMiddleware.Auth())

	e.GET("/creators/:account/gates", h.findByCreator)
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p := gate.CreateParams{}

	if err := c.Bind(&p); err != nil {
		ctx.WithField("err", err).Warn("bind failed")
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	g, err := h.gate.Create(ctx, p)
	if err != nil {
		ctx.WithField("err", err).Warn("gate.Create failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, g)
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	g, err := h.gate.Get(ctx, domain.GateId(c.Param("gateId")))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, g)
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	if err := h.gate.Delete(ctx, domain.GateId(c.Param("gateId"))); err != nil {
		ctx.WithField("err", err).Warn("gate.Delete failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, nil)
}

func (h *handler) purchase(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := h.gate.Purchase(ctx, domain.GateId(c.Param("gateId")))
	if err != nil {
		ctx.WithField("err", err).Warn("gate.Purchase failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, map[string]domain.TokenId{"tokenId": id})
}

func (h *handler) findByCreator(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	gs, err := h.gate.FindByCreator(ctx, domain.AccountId(c.Param("account")))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, gs)
}

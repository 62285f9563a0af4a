package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/delivery"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/listing"
	"github.com/x-xyz/gatemarket/domain/remote"
	authMiddleware "github.com/x-xyz/gatemarket/stores/auth/delivery/http/middleware"
)

type handler struct {
	listing listing.Usecase
}

func New(e *echo.Echo, listing listing.Usecase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{listing}

	// called by registries with a service token, the caller is the registry account
	hooks := e.Group("/hooks", authMiddleware.Auth(), authMiddleware.ServiceOnly())

	hooks.POST("/approve", h.onApprove)

	hooks.POST("/batch-approve", h.onBatchApprove)

	hooks.POST("/revoke", h.onRevoke)

	e.GET("/listings", h.all)

	e.POST("/listings/:registry/:tokenId/buy", h.buy, authMiddleware.Auth())

	e.GET("/purchases/:id", h.getPurchase)

	e.GET("/owners/:account/listings", h.byOwner)

	e.GET("/creators/:account/listings", h.byCreator)

	e.GET("/gates/:gateId/listings", h.byGate)
}

func (h *handler) onApprove(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	msg := remote.ApproveMsg{}

	if err := c.Bind(&msg); err != nil {
		ctx.WithField("err", err).Warn("bind failed")
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	if err := h.listing.OnApprove(ctx, msg); err != nil {
		ctx.WithField("err", err).Warn("listing.OnApprove failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, nil)
}

func (h *handler) onBatchApprove(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	msg := remote.BatchApproveMsg{}

	if err := c.Bind(&msg); err != nil {
		ctx.WithField("err", err).Warn("bind failed")
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	if err := h.listing.OnBatchApprove(ctx, msg); err != nil {
		ctx.WithField("err", err).Warn("listing.OnBatchApprove failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, nil)
}

func (h *handler) onRevoke(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	msg := remote.RevokeMsg{}

	if err := c.Bind(&msg); err != nil {
		ctx.WithField("err", err).Warn("bind failed")
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	if err := h.listing.OnRevoke(ctx, msg); err != nil {
		ctx.WithField("err", err).Warn("listing.OnRevoke failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, nil)
}

func (h *handler) buy(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := domain.ParseTokenId(c.Param("tokenId"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Deposit *domain.Balance `json:"deposit"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil || p.Deposit == nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidAmount)
	}

	key := listing.Key{Registry: domain.AccountId(c.Param("registry")), TokenId: id}
	purchase, err := h.listing.Buy(ctx, key, *p.Deposit)
	if err != nil {
		ctx.WithField("err", err).Warn("listing.Buy failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusAccepted, purchase)
}

func (h *handler) getPurchase(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p, err := h.listing.GetPurchase(ctx, c.Param("id"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, p)
}

func (h *handler) all(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	ls, err := h.listing.All(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, ls)
}

func (h *handler) byOwner(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	ls, err := h.listing.ByOwner(ctx, domain.AccountId(c.Param("account")))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, ls)
}

func (h *handler) byCreator(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	ls, err := h.listing.ByCreator(ctx, domain.AccountId(c.Param("account")))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, ls)
}

func (h *handler) byGate(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	ls, err := h.listing.ByGate(ctx, domain.GateId(c.Param("gateId")))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, ls)
}

package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/delivery"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/token"
	authMiddleware "github.com/x-xyz/gatemarket/stores/auth/delivery/http/middleware"
)

const defaultLimit = 100

type handler struct {
	token token.Usecase
}

func New(e *echo.Echo, token token.Usecase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{token}

	gs := e.Group("/tokens")

	gs.GET("", h.tokens)

	gs.POST("/batch-approve", h.batchApprove, authMiddleware.Auth())

	g := e.Group("/tokens/:tokenId")

	g.GET("", h.get)

	g.GET("/uri", h.uri)

	g.GET("/payout", h.payout)

	g.POST("/approve", h.approve, authMiddleware.Auth())

	g.POST("/revoke", h.revoke, authMiddleware.Auth())

	g.POST("/revoke-all", h.revokeAll, authMiddleware.Auth())

	g.POST("/transfer", h.transfer, authMiddleware.Auth())

	g.POST("/transfer-payout", h.transferPayout, authMiddleware.Auth())

	e.GET("/owners/:account/tokens", h.tokensForOwner)

	e.GET("/owners/:account/supply", h.supplyForOwner)

	e.GET("/supply", h.totalSupply)

	e.GET("/metadata", h.metadata)
}

type pagination struct {
	Offset int `query:"offset"`
	Limit  int `query:"limit"`
}

func bindPagination(c echo.Context) (*pagination, error) {
	p := &pagination{}
	if err := c.Bind(p); err != nil || p.Offset < 0 || p.Limit < 0 {
		return nil, domain.ErrBadParamInput
	}
	if p.Limit == 0 {
		p.Limit = defaultLimit
	}
	return p, nil
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := domain.ParseTokenId(c.Param("tokenId"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	t, err := h.token.Get(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, t)
}

func (h *handler) tokens(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p, err := bindPagination(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	ts, err := h.token.Tokens(ctx, p.Offset, p.Limit)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, ts)
}

func (h *handler) tokensForOwner(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p, err := bindPagination(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	ts, err := h.token.TokensForOwner(ctx, domain.AccountId(c.Param("account")), p.Offset, p.Limit)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, ts)
}

func (h *handler) supplyForOwner(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	n, err := h.token.SupplyForOwner(ctx, domain.AccountId(c.Param("account")))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, n)
}

func (h *handler) totalSupply(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	n, err := h.token.TotalSupply(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, n)
}

func (h *handler) uri(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := domain.ParseTokenId(c.Param("tokenId"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	uri, err := h.token.TokenURI(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, uri)
}

func (h *handler) metadata(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	return delivery.MakeJsonResp(c, http.StatusOK, h.token.ContractMetadata(ctx))
}

func (h *handler) payout(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := domain.ParseTokenId(c.Param("tokenId"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	amount, err := domain.ParseBalance(c.QueryParam("amount"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	p, err := h.token.Payout(ctx, id, amount)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, p)
}

func (h *handler) approve(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := domain.ParseTokenId(c.Param("tokenId"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Spender  domain.AccountId `json:"accountId"`
		MinPrice *domain.Balance  `json:"minPrice"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		ctx.WithField("err", err).Warn("bind failed")
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	if err := h.token.Approve(ctx, id, p.Spender, p.MinPrice); err != nil {
		ctx.WithField("err", err).Warn("token.Approve failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, nil)
}

func (h *handler) batchApprove(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Spender domain.AccountId  `json:"accountId"`
		Tokens  []token.BatchItem `json:"tokens"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		ctx.WithField("err", err).Warn("bind failed")
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	if err := h.token.BatchApprove(ctx, p.Tokens, p.Spender); err != nil {
		ctx.WithField("err", err).Warn("token.BatchApprove failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, nil)
}

func (h *handler) revoke(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := domain.ParseTokenId(c.Param("tokenId"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		Spender domain.AccountId `json:"accountId"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	if err := h.token.Revoke(ctx, id, p.Spender); err != nil {
		ctx.WithField("err", err).Warn("token.Revoke failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, nil)
}

func (h *handler) revokeAll(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := domain.ParseTokenId(c.Param("tokenId"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.token.RevokeAll(ctx, id); err != nil {
		ctx.WithField("err", err).Warn("token.RevokeAll failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, nil)
}

type transferParams struct {
	token.TransferParams
	Amount *domain.Balance `json:"amount,omitempty"`
}

func (h *handler) bindTransfer(c echo.Context) (*transferParams, error) {
	id, err := domain.ParseTokenId(c.Param("tokenId"))
	if err != nil {
		return nil, err
	}
	p := &transferParams{}
	if err := c.Bind(p); err != nil {
		return nil, domain.ErrBadParamInput
	}
	p.TokenId = id
	if err := c.Validate(p.TransferParams); err != nil {
		return nil, domain.ErrInvalidAccountId
	}
	return p, nil
}

func (h *handler) transfer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p, err := h.bindTransfer(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.token.Transfer(ctx, p.TransferParams); err != nil {
		ctx.WithField("err", err).Warn("token.Transfer failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, nil)
}

func (h *handler) transferPayout(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p, err := h.bindTransfer(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	payout, err := h.token.TransferWithPayout(ctx, p.TransferParams, p.Amount)
	if err != nil {
		ctx.WithField("err", err).Warn("token.TransferWithPayout failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, payout)
}

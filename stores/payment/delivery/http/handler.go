package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/delivery"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/payment"
)

type handler struct {
	payer payment.Payer
}

func New(e *echo.Echo, payer payment.Payer) {
	h := &handler{payer}

	e.GET("/accounts/:account/balance", h.balance)
}

func (h *handler) balance(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	b, err := h.payer.Balance(ctx, domain.AccountId(c.Param("account")))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, b)
}

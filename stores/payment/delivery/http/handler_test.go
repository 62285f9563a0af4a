package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/x-xyz/gatemarket/base/ctx"
	mmiddleware "github.com/x-xyz/gatemarket/middleware"
	paymentRepo "github.com/x-xyz/gatemarket/stores/payment/repository"
)

func TestBalance(t *testing.T) {
	req := require.New(t)
	payer := paymentRepo.NewMemory()
	req.NoError(payer.Pay(ctx.Background(), "b1.near", decimal.NewFromInt(875)))

	e := echo.New()
	e.Use(mmiddleware.InitMiddleware("market").AddContext())
	New(e, payer)

	for account, want := range map[string]string{"b1.near": "875", "nobody.near": "0"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/"+account+"/balance", nil))
		req.Equal(http.StatusOK, rec.Code)

		res := struct {
			Data   string `json:"data"`
			Status string `json:"status"`
		}{}
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &res))
		req.Equal(want, res.Data, account)
	}
}

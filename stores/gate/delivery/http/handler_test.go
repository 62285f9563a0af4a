package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/serial"
	bValidator "github.com/x-xyz/gatemarket/base/validator"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/fraction"
	mmiddleware "github.com/x-xyz/gatemarket/middleware"
	authMiddleware "github.com/x-xyz/gatemarket/stores/auth/delivery/http/middleware"
	authUsecase "github.com/x-xyz/gatemarket/stores/auth/usecase"
	gateRepo "github.com/x-xyz/gatemarket/stores/gate/repository"
	gateUsecase "github.com/x-xyz/gatemarket/stores/gate/usecase"
	tokenRepo "github.com/x-xyz/gatemarket/stores/token/repository"
)

type handlerSuite struct {
	suite.Suite
	e    *echo.Echo
	auth domain.AuthUsecase
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(handlerSuite))
}

func (s *handlerSuite) SetupTest() {
	s.auth = authUsecase.New("secret")
	s.e = echo.New()
	s.e.Use(mmiddleware.InitMiddleware("registry").AddContext())
	s.e.Validator = bValidator.NewCustomValidator(bValidator.New())

	uc := gateUsecase.New(&gateUsecase.GateUseCaseCfg{
		Exec:        serial.NewLocal(),
		GateRepo:    gateRepo.NewMemory(),
		TokenRepo:   tokenRepo.NewMemory(),
		Admins:      []domain.AccountId{"admin.near"},
		PlatformFee: fraction.New(25, 1000),
	})
	New(s.e, uc, authMiddleware.New(s.auth, []string{"admin.near"}))
}

func (s *handlerSuite) do(method, path string, as domain.AccountId, body string) (int, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if as != "" {
		tkn, err := s.auth.SignToken(ctx.Background(), as)
		s.Require().NoError(err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tkn)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	res := map[string]interface{}{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return rec.Code, res
}

const createBody = `{"creatorId":"c.near","gateId":"G1","title":"Gate","supply":2,"royalty":{"num":10,"den":100}}`

func (s *handlerSuite) TestCreateAndPurchase() {
	code, _ := s.do(http.MethodPost, "/gates", "", createBody)
	s.Equal(http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, "/gates", "c.near", createBody)
	s.Equal(http.StatusForbidden, code)

	code, res := s.do(http.MethodPost, "/gates", "admin.near", createBody)
	s.Require().Equal(http.StatusCreated, code)
	s.Equal("success", res["status"])

	code, _ = s.do(http.MethodPost, "/gates", "admin.near", createBody)
	s.Equal(http.StatusConflict, code)

	code, res = s.do(http.MethodPost, "/gates/G1/purchase", "b1.near", "")
	s.Require().Equal(http.StatusCreated, code)
	s.Equal(float64(0), res["data"].(map[string]interface{})["tokenId"])

	code, res = s.do(http.MethodGet, "/gates/G1", "", "")
	s.Require().Equal(http.StatusOK, code)
	s.Equal(float64(1), res["data"].(map[string]interface{})["currentSupply"])

	code, res = s.do(http.MethodGet, "/creators/c.near/gates", "", "")
	s.Require().Equal(http.StatusOK, code)
	s.Len(res["data"], 1)

	code, _ = s.do(http.MethodDelete, "/gates/G1", "admin.near", "")
	s.Equal(http.StatusConflict, code)
}

func (s *handlerSuite) TestValidationErrors() {
	code, res := s.do(http.MethodPost, "/gates", "admin.near", `{"creatorId":"c.near","gateId":"G1","supply":1,"royalty":{"num":1,"den":1}}`)
	s.Equal(http.StatusBadRequest, code)
	s.Equal("fail", res["status"])

	code, _ = s.do(http.MethodGet, "/gates/missing", "", "")
	s.Equal(http.StatusNotFound, code)

	code, _ = s.do(http.MethodPost, "/gates/missing/purchase", "b1.near", "")
	s.Equal(http.StatusNotFound, code)
}

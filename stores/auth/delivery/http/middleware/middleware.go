package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/delivery"
	"github.com/x-xyz/gatemarket/domain"
)

type AuthMiddleware struct {
	auth   domain.AuthUsecase
	admins map[domain.AccountId]bool
}

func New(auth domain.AuthUsecase, adminAccounts []string) *AuthMiddleware {
	admins := map[domain.AccountId]bool{}
	for _, a := range adminAccounts {
		admins[domain.AccountId(a)] = true
	}
	return &AuthMiddleware{
		auth:   auth,
		admins: admins,
	}
}

// Auth identifies the caller from the bearer token and binds it to the request ctx
func (m *AuthMiddleware) Auth() echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Validator: m.validateAuthToken,
		ErrorHandler: func(err error, c echo.Context) error {
			return delivery.MakeJsonResp(c, http.StatusUnauthorized, domain.ErrNoCaller)
		},
	})
}

func (m *AuthMiddleware) IsAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, _ := c.Get("account").(domain.AccountId)
			if m.admins[account] {
				return next(c)
			}
			return delivery.MakeJsonResp(c, http.StatusForbidden, domain.ErrAdminOnly)
		}
	}
}

// ServiceOnly admits only tokens issued to peer services, it must run after Auth
func (m *AuthMiddleware) ServiceOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if service, _ := c.Get("service").(bool); service {
				return next(c)
			}
			return delivery.MakeJsonResp(c, http.StatusForbidden, domain.ErrServiceOnly)
		}
	}
}

// IsAdminAccount reports whether account has admin privilege
func (m *AuthMiddleware) IsAdminAccount(account domain.AccountId) bool {
	return m.admins[account]
}

func (m *AuthMiddleware) validateAuthToken(key string, c echo.Context) (bool, error) {
	bc := c.Get("ctx").(ctx.Ctx)
	claims, err := m.auth.ParseToken(bc, key)
	if err != nil {
		bc.WithField("err", err).Warn("auth.ParseToken failed")
		return false, err
	}
	account := claims.Account()
	c.Set("account", account)
	c.Set("service", claims.Service)
	c.Set("ctx", ctx.WithCaller(bc, account.String()))
	return true, nil
}

package domain

import (
	"github.com/golang-jwt/jwt"

	"github.com/x-xyz/gatemarket/base/ctx"
)

// JwtCustomClaims identifies the caller of a request. Subject holds the account id.
type JwtCustomClaims struct {
	Service bool `json:"svc,omitempty"` // issued to a peer service
	jwt.StandardClaims
}

// Account is the caller the token was issued to
func (c *JwtCustomClaims) Account() AccountId {
	return AccountId(c.Subject)
}

type AuthUsecase interface {
	SignToken(ctx ctx.Ctx, account AccountId) (string, error)
	SignServiceToken(ctx ctx.Ctx, account AccountId) (string, error)
	// ParseToken verifies the token and returns its claims, Service tells peer services from users
	ParseToken(ctx ctx.Ctx, token string) (*JwtCustomClaims, error)
}

package usecase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/xerrors"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
)

const (
	userTokenTTL    = 24 * time.Hour
	serviceTokenTTL = 5 * time.Minute
)

var timeNow = time.Now

type impl struct {
	jwtSecret []byte
}

func New(jwtSecret string) domain.AuthUsecase {
	return &impl{
		jwtSecret: []byte(jwtSecret),
	}
}

func (im *impl) SignToken(ctx ctx.Ctx, account domain.AccountId) (string, error) {
	return im.sign(ctx, account, false, userTokenTTL)
}

// SignServiceToken issues a short lived token a service attaches to its calls to peers
func (im *impl) SignServiceToken(ctx ctx.Ctx, account domain.AccountId) (string, error) {
	return im.sign(ctx, account, true, serviceTokenTTL)
}

func (im *impl) sign(ctx ctx.Ctx, account domain.AccountId, service bool, ttl time.Duration) (string, error) {
	if account.IsEmpty() {
		return "", domain.ErrInvalidAccountId
	}

	now := timeNow()
	claims := domain.JwtCustomClaims{
		Service: service,
		StandardClaims: jwt.StandardClaims{
			Subject:   account.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	if ss, err := token.SignedString(im.jwtSecret); err != nil {
		ctx.WithField("err", err).Error("token.SignedString failed")
		return "", err
	} else {
		return ss, nil
	}
}

func (im *impl) ParseToken(ctx ctx.Ctx, str string) (*domain.JwtCustomClaims, error) {
	token, err := jwt.ParseWithClaims(str, &domain.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}
		return im.jwtSecret, nil
	})

	if token != nil {
		if claims, ok := token.Claims.(*domain.JwtCustomClaims); ok && token.Valid && claims.Subject != "" {
			return claims, nil
		}
	}

	if err == nil {
		err = domain.ErrNoCaller
	}
	return nil, xerrors.Errorf("%v: %w", err, domain.ErrUnauthorized)
}

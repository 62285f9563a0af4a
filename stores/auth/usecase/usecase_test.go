package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
)

func TestSignAndParseToken(t *testing.T) {
	c := ctx.Background()
	u := New("jwt-secret")

	tkn, err := u.SignToken(c, "alice.near")
	require.NoError(t, err)
	assert.NotEmpty(t, tkn)

	claims, err := u.ParseToken(c, tkn)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountId("alice.near"), claims.Account())
	assert.False(t, claims.Service)

	svc, err := u.SignServiceToken(c, "market.near")
	require.NoError(t, err)
	claims, err = u.ParseToken(c, svc)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountId("market.near"), claims.Account())
	assert.True(t, claims.Service)
}

func TestParseTokenRejects(t *testing.T) {
	c := ctx.Background()

	_, err := New("jwt-secret").SignToken(c, "")
	assert.Equal(t, domain.ErrInvalidAccountId, err)

	other, err := New("other-secret").SignToken(c, "alice.near")
	require.NoError(t, err)
	_, err = New("jwt-secret").ParseToken(c, other)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	_, err = New("jwt-secret").ParseToken(c, "garbage")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	defer func() { timeNow = time.Now }()
	timeNow = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, err := New("jwt-secret").SignToken(c, "alice.near")
	require.NoError(t, err)
	_, err = New("jwt-secret").ParseToken(c, expired)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain/healthcheck"
)

type stubRepo map[string]error

func (s stubRepo) Ping(ctx.Ctx) map[string]error { return s }

func TestCheck(t *testing.T) {
	req := require.New(t)

	report := New("market", stubRepo{}).Check(ctx.Background())
	req.True(report.Healthy)
	req.Equal("market", report.Service)
	req.Empty(report.Components)

	report = New("market", stubRepo{
		healthcheck.ComponentMongo: nil,
		healthcheck.ComponentRedis: errors.New("i/o timeout"),
	}).Check(ctx.Background())
	req.False(report.Healthy)
	req.Equal(map[string]string{
		healthcheck.ComponentMongo: healthcheck.StatusUp,
		healthcheck.ComponentRedis: healthcheck.StatusDown,
	}, report.Components)
}

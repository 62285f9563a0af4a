package remote

import (
	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/remote"
	"github.com/x-xyz/gatemarket/domain/token"
)

// LocalMarket delivers notifications to a marketplace running in the same process,
// the callee sees `from` as its caller
type LocalMarket struct {
	from   domain.AccountId
	market remote.Market
}

func NewLocalMarket(from domain.AccountId, market remote.Market) *LocalMarket {
	return &LocalMarket{from: from, market: market}
}

func (m *LocalMarket) OnApprove(c ctx.Ctx, msg remote.ApproveMsg) error {
	return m.market.OnApprove(ctx.WithCaller(c, m.from.String()), msg)
}

func (m *LocalMarket) OnBatchApprove(c ctx.Ctx, msg remote.BatchApproveMsg) error {
	return m.market.OnBatchApprove(ctx.WithCaller(c, m.from.String()), msg)
}

func (m *LocalMarket) OnRevoke(c ctx.Ctx, msg remote.RevokeMsg) error {
	return m.market.OnRevoke(ctx.WithCaller(c, m.from.String()), msg)
}

// LocalRegistry settles sales on a registry running in the same process
type LocalRegistry struct {
	from   domain.AccountId
	tokens token.Usecase
}

func NewLocalRegistry(from domain.AccountId, tokens token.Usecase) *LocalRegistry {
	return &LocalRegistry{from: from, tokens: tokens}
}

func (r *LocalRegistry) TransferWithPayout(c ctx.Ctx, req remote.TransferPayoutReq) (token.Payout, error) {
	return r.tokens.TransferWithPayout(ctx.WithCaller(c, r.from.String()), req.TransferParams, req.Amount)
}

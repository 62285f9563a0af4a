package payment

import (
	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
)

// Payer keeps the marketplace ledger. A balance is what an account was paid
// minus the deposits collected from it, so buyers go negative.
type Payer interface {
	Pay(ctx ctx.Ctx, to domain.AccountId, amount domain.Balance) error
	// Collect debits a deposit attached by from
	Collect(ctx ctx.Ctx, from domain.AccountId, amount domain.Balance) error
	Balance(ctx ctx.Ctx, account domain.AccountId) (domain.Balance, error)
}

package usecase

import (
	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/listing"
	"github.com/x-xyz/gatemarket/domain/remote"
	"github.com/x-xyz/gatemarket/domain/token"
	"github.com/x-xyz/gatemarket/service/xcall"
)

// Buy delists the token before the registry has confirmed the transfer.
// Whatever the registry answers, the listing is not put back.
func (im *impl) Buy(c ctx.Ctx, key listing.Key, deposit domain.Balance) (*listing.Purchase, error) {
	buyer := domain.AccountId(ctx.Caller(c))
	if buyer.IsEmpty() {
		return nil, domain.ErrNoCaller
	}
	if err := domain.CheckBalance(deposit); err != nil {
		return nil, err
	}

	var res *listing.Purchase
	err := im.exec.Do(c, func(c ctx.Ctx) error {
		l, err := im.listing.Get(c, key)
		if err != nil {
			return err
		}
		if l.Owner == buyer {
			return domain.ErrBuyOwnToken
		}
		if deposit.LessThan(l.MinPrice) {
			return xerrors.Errorf("deposit %s below %s: %w", deposit.String(), l.MinPrice.String(), domain.ErrInsufficientDeposit)
		}

		if err := im.payer.Collect(c, buyer, deposit); err != nil {
			c.WithFields(log.Fields{"err": err, "buyer": buyer}).Error("payer.Collect failed")
			return err
		}
		if _, err := im.listing.Remove(c, key); err != nil {
			c.WithFields(log.Fields{"err": err, "key": key.String()}).Error("listing.Remove failed")
			im.giveBack(c, buyer, deposit)
			return err
		}

		now := timeNow()
		p := &listing.Purchase{
			Id:         uuid.NewString(),
			Key:        key,
			Buyer:      buyer,
			Seller:     l.Owner,
			ApprovalId: l.ApprovalId,
			Deposit:    deposit,
			State:      listing.PurchasePending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := im.purchase.Insert(c, p); err != nil {
			c.WithFields(log.Fields{"err": err, "key": key.String()}).Error("purchase.Insert failed")
			im.giveBack(c, buyer, deposit)
			return err
		}
		im.settle(c, p)
		res = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// giveBack credits a deposit collected for a purchase that was never recorded
func (im *impl) giveBack(c ctx.Ctx, buyer domain.AccountId, deposit domain.Balance) {
	if err := im.payer.Pay(c, buyer, deposit); err != nil {
		c.WithFields(log.Fields{"err": err, "buyer": buyer, "deposit": deposit.String()}).Error("payer.Pay failed")
	}
}

// settle asks the registry to transfer the token and distributes the payout it returns
func (im *impl) settle(c ctx.Ctx, p *listing.Purchase) {
	c = ctx.WithValues(c, map[string]interface{}{"purchaseId": p.Id, "key": p.Key.String()})
	approvalId := p.ApprovalId
	amount := p.Deposit
	req := remote.TransferPayoutReq{
		TransferParams: token.TransferParams{
			TokenId:    p.Key.TokenId,
			Receiver:   p.Buyer,
			ApprovalId: &approvalId,
		},
		Amount: &amount,
	}
	id := p.Id

	im.xcall.Call(c, func(c ctx.Ctx) (interface{}, error) {
		r, err := im.dir.Registry(p.Key.Registry)
		if err != nil {
			return nil, err
		}
		return r.TransferWithPayout(c, req)
	}, func(c ctx.Ctx, res xcall.Result) {
		if err := im.exec.Do(c, func(c ctx.Ctx) error {
			return im.distribute(c, id, res)
		}); err != nil {
			c.WithField("err", err).Error("failed to settle purchase")
		}
	})
}

func (im *impl) distribute(c ctx.Ctx, id string, res xcall.Result) error {
	p, err := im.purchase.FindOne(c, id)
	if err != nil {
		c.WithField("err", err).Error("purchase.FindOne failed")
		return err
	}

	payout, _ := res.Value.(token.Payout)
	switch {
	case res.Err != nil:
		return im.fail(c, p, res.Err)
	case payout == nil:
		return im.fail(c, p, domain.ErrUnexpectedOutcome)
	}

	for _, a := range payout.Accounts() {
		amount := payout[a]
		if amount.IsZero() {
			continue
		}
		if err := im.payer.Pay(c, a, amount); err != nil {
			c.WithFields(log.Fields{"err": err, "to": a, "amount": amount.String()}).Error("payer.Pay failed")
			return im.fail(c, p, xerrors.Errorf("pay %s: %w", a, err))
		}
	}

	p.State = listing.PurchaseSettled
	p.Payout = payout
	p.UpdatedAt = timeNow()
	if err := im.purchase.Update(c, p); err != nil {
		c.WithField("err", err).Error("purchase.Update failed")
		return err
	}
	im.met.BumpSum("purchase", 1, "outcome", string(listing.PurchaseSettled))
	return nil
}

// fail is terminal for the purchase, the token stays delisted
func (im *impl) fail(c ctx.Ctx, p *listing.Purchase, cause error) error {
	c.WithFields(log.Fields{"err": cause, "buyer": p.Buyer, "approvalId": p.ApprovalId}).Error("purchase failed, listing is not restored")
	im.met.BumpSum("purchase", 1, "outcome", string(listing.PurchaseFailed))

	p.State = listing.PurchaseFailed
	p.Reason = cause.Error()
	p.UpdatedAt = timeNow()
	if err := im.purchase.Update(c, p); err != nil {
		c.WithField("err", err).Error("purchase.Update failed")
		return err
	}
	return nil
}

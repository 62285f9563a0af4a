package usecase

import (
	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/base/validator"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/token"
)

func (im *impl) Transfer(c ctx.Ctx, p token.TransferParams) error {
	return im.exec.Do(c, func(c ctx.Ctx) error {
		t, err := im.token.FindOne(c, p.TokenId)
		if err != nil {
			return err
		}
		return im.transfer(c, t, p)
	})
}

func (im *impl) transfer(c ctx.Ctx, t *token.Token, p token.TransferParams) error {
	if !validator.IsValidAccountId(p.Receiver.String()) {
		return domain.ErrInvalidAccountId
	}

	sender := domain.AccountId(ctx.Caller(c))
	approval, approved := t.ApprovalOf(sender)
	if sender != t.Owner && !approved {
		return domain.ErrSenderNotAuthToXfr
	}
	if p.Receiver == t.Owner {
		return domain.ErrReceiverIsOwner
	}
	if p.ApprovalId != nil && (!approved || approval.ApprovalId != *p.ApprovalId) {
		return domain.ErrStaleApproval
	}

	fields := log.Fields{"tokenId": t.Id, "from": t.Owner, "to": p.Receiver}
	if p.Memo != nil {
		fields["memo"] = *p.Memo
	}

	// every outstanding approval dies with the ownership change
	t.Approvals = []token.Approval{}
	t.Owner = p.Receiver
	t.ModifiedAt = timeNow()
	if err := im.token.Update(c, t); err != nil {
		c.WithField("err", err).Error("token.Update failed")
		return err
	}
	c.WithFields(fields).Info("token transferred")
	return nil
}

func (im *impl) Payout(c ctx.Ctx, id domain.TokenId, amount domain.Balance) (token.Payout, error) {
	t, err := im.token.FindOne(c, id)
	if err != nil {
		return nil, err
	}
	return im.payout(c, t, amount)
}

// payout splits amount into creator royalty, platform fee and the owner's remainder.
// Flooring leftovers go to the owner so the entries always add up to amount.
func (im *impl) payout(c ctx.Ctx, t *token.Token, amount domain.Balance) (token.Payout, error) {
	if err := domain.CheckBalance(amount); err != nil {
		return nil, err
	}
	g, err := im.gate.FindOne(c, t.GateId)
	if err != nil {
		return nil, err
	}

	royalty := g.Royalty.Mult(amount)
	fee := im.platformFee.Mult(amount)
	p := token.Payout{}
	p.Add(g.Creator, royalty)
	p.Add(im.feeAccount, fee)
	p.Add(t.Owner, amount.Sub(royalty).Sub(fee))
	return p, nil
}

func (im *impl) TransferWithPayout(c ctx.Ctx, p token.TransferParams, amount *domain.Balance) (token.Payout, error) {
	var res token.Payout
	err := im.exec.Do(c, func(c ctx.Ctx) error {
		t, err := im.token.FindOne(c, p.TokenId)
		if err != nil {
			return err
		}

		// computed against the seller, before ownership moves
		if amount != nil {
			if res, err = im.payout(c, t, *amount); err != nil {
				return err
			}
		}
		return im.transfer(c, t, p)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

package usecase

import (
	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/remote"
	"github.com/x-xyz/gatemarket/domain/token"
	"github.com/x-xyz/gatemarket/service/xcall"
)

// ownedBy loads token id and requires the caller to own it
func (im *impl) ownedBy(c ctx.Ctx, id domain.TokenId) (*token.Token, error) {
	t, err := im.token.FindOne(c, id)
	if err != nil {
		return nil, err
	}
	if t.Owner != domain.AccountId(ctx.Caller(c)) {
		return nil, domain.ErrTokenNotOwnedBy
	}
	return t, nil
}

// approve records the approval and returns what the spender's marketplace needs to list it
func (im *impl) approve(c ctx.Ctx, id domain.TokenId, spender domain.AccountId, minPrice *domain.Balance) (remote.BatchApproveItem, error) {
	if minPrice == nil {
		return remote.BatchApproveItem{}, domain.ErrMinPriceMissing
	}
	if err := domain.CheckBalance(*minPrice); err != nil {
		return remote.BatchApproveItem{}, err
	}
	if spender.IsEmpty() {
		return remote.BatchApproveItem{}, domain.ErrInvalidAccountId
	}

	t, err := im.ownedBy(c, id)
	if err != nil {
		return remote.BatchApproveItem{}, err
	}
	// one approval per token, whoever the spender is
	if len(t.Approvals) > 0 {
		return remote.BatchApproveItem{}, domain.ErrTokenAlreadyApprove
	}
	g, err := im.gate.FindOne(c, t.GateId)
	if err != nil {
		return remote.BatchApproveItem{}, err
	}

	a := t.Approve(spender, *minPrice)
	if err := im.token.Update(c, t); err != nil {
		c.WithField("err", err).Error("token.Update failed")
		return remote.BatchApproveItem{}, err
	}
	im.met.BumpSum("approve", 1)

	price := a.MinPrice
	return remote.BatchApproveItem{
		TokenId:    t.Id,
		ApprovalId: a.ApprovalId,
		Msg: remote.ListingMsg{
			MinPrice: &price,
			GateId:   &g.Id,
			Creator:  &g.Creator,
		},
	}, nil
}

func (im *impl) Approve(c ctx.Ctx, id domain.TokenId, spender domain.AccountId, minPrice *domain.Balance) error {
	return im.exec.Do(c, func(c ctx.Ctx) error {
		item, err := im.approve(c, id, spender, minPrice)
		if err != nil {
			return err
		}

		msg := remote.ApproveMsg{
			TokenId:    item.TokenId,
			Owner:      domain.AccountId(ctx.Caller(c)),
			ApprovalId: item.ApprovalId,
			Msg:        item.Msg,
		}
		im.notify(c, spender, "OnApprove", func(c ctx.Ctx, m remote.Market) error {
			return m.OnApprove(c, msg)
		})
		return nil
	})
}

func (im *impl) Revoke(c ctx.Ctx, id domain.TokenId, spender domain.AccountId) error {
	return im.exec.Do(c, func(c ctx.Ctx) error {
		t, err := im.ownedBy(c, id)
		if err != nil {
			return err
		}
		if !t.Revoke(spender) {
			return domain.ErrApprovalNotFound
		}
		if err := im.token.Update(c, t); err != nil {
			c.WithField("err", err).Error("token.Update failed")
			return err
		}

		im.notifyRevoke(c, spender, id)
		return nil
	})
}

func (im *impl) RevokeAll(c ctx.Ctx, id domain.TokenId) error {
	return im.exec.Do(c, func(c ctx.Ctx) error {
		t, err := im.ownedBy(c, id)
		if err != nil {
			return err
		}
		approvals := t.Approvals
		t.Approvals = []token.Approval{}
		if err := im.token.Update(c, t); err != nil {
			c.WithField("err", err).Error("token.Update failed")
			return err
		}

		for _, a := range approvals {
			im.notifyRevoke(c, a.Spender, id)
		}
		return nil
	})
}

func (im *impl) notifyRevoke(c ctx.Ctx, spender domain.AccountId, id domain.TokenId) {
	msg := remote.RevokeMsg{TokenId: id}
	im.notify(c, spender, "OnRevoke", func(c ctx.Ctx, m remote.Market) error {
		return m.OnRevoke(c, msg)
	})
}

// notify delivers a message to the marketplace of spender without waiting.
// Failures are logged, the local state change stands.
func (im *impl) notify(c ctx.Ctx, spender domain.AccountId, method string, send func(ctx.Ctx, remote.Market) error) {
	c = ctx.WithValues(c, map[string]interface{}{"spender": spender, "method": method})
	im.xcall.Call(c, func(c ctx.Ctx) (interface{}, error) {
		m, err := im.dir.Market(spender)
		if err != nil {
			return nil, err
		}
		return nil, send(c, m)
	}, func(c ctx.Ctx, res xcall.Result) {
		if res.Err != nil {
			im.met.BumpSum("notify.err", 1, "method", method)
			c.WithFields(log.Fields{"err": res.Err}).Warn("failed to notify marketplace")
		}
	})
}

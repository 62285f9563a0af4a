package usecase

import (
	"time"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/base/metrics"
	"github.com/x-xyz/gatemarket/base/serial"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/listing"
	"github.com/x-xyz/gatemarket/domain/payment"
	"github.com/x-xyz/gatemarket/domain/remote"
	"github.com/x-xyz/gatemarket/service/xcall"
)

var timeNow = time.Now

type ListingUseCaseCfg struct {
	Exec         serial.Executor
	ListingRepo  listing.Repo
	PurchaseRepo listing.PurchaseRepo
	Payer        payment.Payer
	Directory    remote.Directory
	Dispatcher   xcall.Dispatcher
}

type impl struct {
	exec     serial.Executor
	listing  listing.Repo
	purchase listing.PurchaseRepo
	payer    payment.Payer
	dir      remote.Directory
	xcall    xcall.Dispatcher
	met      metrics.Service
}

func New(cfg *ListingUseCaseCfg) listing.Usecase {
	return &impl{
		exec:     cfg.Exec,
		listing:  cfg.ListingRepo,
		purchase: cfg.PurchaseRepo,
		payer:    cfg.Payer,
		dir:      cfg.Directory,
		xcall:    cfg.Dispatcher,
		met:      metrics.New("listing"),
	}
}

// registry is the account of the service notifying us
func registry(c ctx.Ctx) (domain.AccountId, error) {
	r := domain.AccountId(ctx.Caller(c))
	if r.IsEmpty() {
		return "", domain.ErrNoCaller
	}
	return r, nil
}

func newListing(reg, owner domain.AccountId, id domain.TokenId, approvalId uint64, msg remote.ListingMsg) (*listing.Listing, error) {
	if msg.MinPrice == nil {
		return nil, domain.ErrMinPriceMissing
	}
	if err := domain.CheckBalance(*msg.MinPrice); err != nil {
		return nil, err
	}
	return &listing.Listing{
		Key:        listing.Key{Registry: reg, TokenId: id},
		Owner:      owner,
		ApprovalId: approvalId,
		MinPrice:   *msg.MinPrice,
		GateId:     msg.GateId,
		Creator:    msg.Creator,
		ListedAt:   timeNow(),
	}, nil
}

func (im *impl) OnApprove(c ctx.Ctx, msg remote.ApproveMsg) error {
	return im.exec.Do(c, func(c ctx.Ctx) error {
		reg, err := registry(c)
		if err != nil {
			return err
		}
		l, err := newListing(reg, msg.Owner, msg.TokenId, msg.ApprovalId, msg.Msg)
		if err != nil {
			return err
		}
		if err := im.listing.Insert(c, l); err != nil {
			c.WithFields(log.Fields{"err": err, "key": l.Key.String()}).Error("listing.Insert failed")
			return err
		}
		im.met.BumpSum("listed", 1)
		return nil
	})
}

// OnBatchApprove lists nothing unless every item carries a valid price
func (im *impl) OnBatchApprove(c ctx.Ctx, msg remote.BatchApproveMsg) error {
	return im.exec.Do(c, func(c ctx.Ctx) error {
		reg, err := registry(c)
		if err != nil {
			return err
		}
		ls := make([]*listing.Listing, 0, len(msg.Tokens))
		for _, item := range msg.Tokens {
			l, err := newListing(reg, msg.Owner, item.TokenId, item.ApprovalId, item.Msg)
			if err != nil {
				return err
			}
			ls = append(ls, l)
		}
		for _, l := range ls {
			if err := im.listing.Insert(c, l); err != nil {
				c.WithFields(log.Fields{"err": err, "key": l.Key.String()}).Error("listing.Insert failed")
				return err
			}
		}
		im.met.BumpSum("listed", float64(len(ls)))
		return nil
	})
}

func (im *impl) OnRevoke(c ctx.Ctx, msg remote.RevokeMsg) error {
	return im.exec.Do(c, func(c ctx.Ctx) error {
		reg, err := registry(c)
		if err != nil {
			return err
		}
		key := listing.Key{Registry: reg, TokenId: msg.TokenId}
		if _, err := im.listing.Remove(c, key); err != nil {
			if err != domain.ErrListingNotFound {
				c.WithFields(log.Fields{"err": err, "key": key.String()}).Error("listing.Remove failed")
			}
			return err
		}
		im.met.BumpSum("delisted", 1)
		return nil
	})
}

func (im *impl) GetPurchase(c ctx.Ctx, id string) (*listing.Purchase, error) {
	return im.purchase.FindOne(c, id)
}

func (im *impl) All(c ctx.Ctx) ([]*listing.Listing, error) {
	return im.listing.All(c)
}

func (im *impl) ByOwner(c ctx.Ctx, owner domain.AccountId) ([]*listing.Listing, error) {
	return im.listing.ByOwner(c, owner)
}

func (im *impl) ByCreator(c ctx.Ctx, creator domain.AccountId) ([]*listing.Listing, error) {
	return im.listing.ByCreator(c, creator)
}

func (im *impl) ByGate(c ctx.Ctx, gateId domain.GateId) ([]*listing.Listing, error) {
	return im.listing.ByGate(c, gateId)
}

package repository

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/listing"
	"github.com/x-xyz/gatemarket/service/query"
)

type purchaseImpl struct {
	q query.Mongo
}

func NewPurchase(q query.Mongo) listing.PurchaseRepo {
	return &purchaseImpl{q}
}

func EnsurePurchaseIndexes(c ctx.Ctx, q query.Mongo) error {
	return q.EnsureIndexes(c, domain.TablePurchases,
		query.Index{Keys: []string{"purchaseId"}, Unique: true},
	)
}

func (im *purchaseImpl) Insert(c ctx.Ctx, p *listing.Purchase) error {
	if err := im.q.Insert(c, domain.TablePurchases, p); err != nil {
		c.WithField("err", err).Error("q.Insert failed")
		return err
	}
	return nil
}

func (im *purchaseImpl) FindOne(c ctx.Ctx, id string) (*listing.Purchase, error) {
	res := &listing.Purchase{}
	if err := im.q.FindOne(c, domain.TablePurchases, bson.M{"purchaseId": id}, res); err == query.ErrNotFound {
		return nil, domain.ErrPurchaseNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	return res, nil
}

func (im *purchaseImpl) Update(c ctx.Ctx, p *listing.Purchase) error {
	if err := im.q.Upsert(c, domain.TablePurchases, bson.M{"purchaseId": p.Id}, p); err != nil {
		c.WithField("err", err).Error("q.Upsert failed")
		return err
	}
	return nil
}

type purchaseMemory struct {
	lock      sync.RWMutex
	purchases map[string]*listing.Purchase
}

func NewPurchaseMemory() listing.PurchaseRepo {
	return &purchaseMemory{purchases: map[string]*listing.Purchase{}}
}

func clonePurchase(p *listing.Purchase) *listing.Purchase {
	res := *p
	if p.Payout != nil {
		res.Payout = make(map[domain.AccountId]domain.Balance, len(p.Payout))
		for k, v := range p.Payout {
			res.Payout[k] = v
		}
	}
	return &res
}

func (m *purchaseMemory) Insert(_ ctx.Ctx, p *listing.Purchase) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.purchases[p.Id]; ok {
		return query.ErrDuplicateKey
	}
	m.purchases[p.Id] = clonePurchase(p)
	return nil
}

func (m *purchaseMemory) FindOne(_ ctx.Ctx, id string) (*listing.Purchase, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	p, ok := m.purchases[id]
	if !ok {
		return nil, domain.ErrPurchaseNotFound
	}
	return clonePurchase(p), nil
}

func (m *purchaseMemory) Update(_ ctx.Ctx, p *listing.Purchase) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.purchases[p.Id] = clonePurchase(p)
	return nil
}

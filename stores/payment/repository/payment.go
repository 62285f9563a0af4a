package repository

import (
	"sync"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/payment"
	"github.com/x-xyz/gatemarket/service/query"
)

type balanceDoc struct {
	Account domain.AccountId `bson:"_id"`
	Balance domain.Balance   `bson:"balance"`
}

type impl struct {
	q query.Mongo
}

// New keeps a ledger of paid out amounts per account in mongo
func New(q query.Mongo) payment.Payer {
	return &impl{q}
}

func (im *impl) Pay(c ctx.Ctx, to domain.AccountId, amount domain.Balance) error {
	return im.add(c, to, amount, false)
}

func (im *impl) Collect(c ctx.Ctx, from domain.AccountId, amount domain.Balance) error {
	return im.add(c, from, amount, true)
}

func (im *impl) add(c ctx.Ctx, account domain.AccountId, amount domain.Balance, debit bool) error {
	if err := domain.CheckBalance(amount); err != nil {
		return err
	}
	if debit {
		amount = amount.Neg()
	}
	res := balanceDoc{}
	if err := im.q.IncrementMany(c, domain.TableBalances, bson.M{"_id": account}, bson.M{"balance": amount}, nil, &res); err != nil {
		c.WithFields(log.Fields{"err": err, "account": account}).Error("q.IncrementMany failed")
		return err
	}
	return nil
}

func (im *impl) Balance(c ctx.Ctx, account domain.AccountId) (domain.Balance, error) {
	res := balanceDoc{}
	if err := im.q.FindOne(c, domain.TableBalances, bson.M{"_id": account}, &res); err == query.ErrNotFound {
		return decimal.Zero, nil
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return decimal.Zero, err
	}
	return res.Balance, nil
}

type memory struct {
	lock     sync.RWMutex
	balances map[domain.AccountId]domain.Balance
}

func NewMemory() payment.Payer {
	return &memory{balances: map[domain.AccountId]domain.Balance{}}
}

func (m *memory) Pay(_ ctx.Ctx, to domain.AccountId, amount domain.Balance) error {
	if err := domain.CheckBalance(amount); err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.balances[to] = m.balances[to].Add(amount)
	return nil
}

func (m *memory) Collect(_ ctx.Ctx, from domain.AccountId, amount domain.Balance) error {
	if err := domain.CheckBalance(amount); err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.balances[from] = m.balances[from].Sub(amount)
	return nil
}

func (m *memory) Balance(_ ctx.Ctx, account domain.AccountId) (domain.Balance, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.balances[account], nil
}

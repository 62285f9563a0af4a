package token

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/x-xyz/gatemarket/domain"
)

// Payout maps recipients to amounts
type Payout map[domain.AccountId]domain.Balance

// Add merges amount into the entry of account
func (p Payout) Add(account domain.AccountId, amount domain.Balance) {
	if cur, ok := p[account]; ok {
		p[account] = cur.Add(amount)
		return
	}
	p[account] = amount
}

func (p Payout) Total() domain.Balance {
	sum := decimal.Zero
	for _, v := range p {
		sum = sum.Add(v)
	}
	return sum
}

// Accounts returns the recipients in a stable order
func (p Payout) Accounts() []domain.AccountId {
	res := make([]domain.AccountId, 0, len(p))
	for a := range p {
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// account ids contain dots, so the bson form is a list instead of a document
type payoutEntry struct {
	Account domain.AccountId `bson:"account"`
	Amount  string           `bson:"amount"`
}

func (p Payout) MarshalBSONValue() (bsontype.Type, []byte, error) {
	entries := make([]payoutEntry, 0, len(p))
	for _, a := range p.Accounts() {
		entries = append(entries, payoutEntry{Account: a, Amount: p[a].String()})
	}
	return bson.MarshalValue(entries)
}

func (p *Payout) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null {
		*p = nil
		return nil
	}
	entries := []payoutEntry{}
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&entries); err != nil {
		return err
	}
	res := Payout{}
	for _, e := range entries {
		amount, err := decimal.NewFromString(e.Amount)
		if err != nil {
			return err
		}
		res.Add(e.Account, amount)
	}
	*p = res
	return nil
}

package repository

import (
	"sort"
	"sync"

	"github.com/x-xyz/gatemarket/base/counter"
	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/token"
)

type memory struct {
	lock   sync.RWMutex
	seq    *counter.Sequence
	tokens map[domain.TokenId]*token.Token
}

// NewMemory keeps tokens in process memory
func NewMemory() token.Repo {
	return &memory{
		seq:    counter.NewSequence(),
		tokens: map[domain.TokenId]*token.Token{},
	}
}

func clone(t *token.Token) *token.Token {
	res := *t
	res.Approvals = append([]token.Approval{}, t.Approvals...)
	return &res
}

func (m *memory) NextId(ctx.Ctx) (domain.TokenId, error) {
	return domain.TokenId(m.seq.Next()), nil
}

func (m *memory) Insert(_ ctx.Ctx, t *token.Token) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.tokens[t.Id]; ok {
		return domain.ErrConflict
	}
	m.tokens[t.Id] = clone(t)
	return nil
}

func (m *memory) FindOne(_ ctx.Ctx, id domain.TokenId) (*token.Token, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return clone(t), nil
}

func (m *memory) filter(opts token.FindAllOptions) []*token.Token {
	res := []*token.Token{}
	for _, t := range m.tokens {
		if opts.Owner != nil && t.Owner != *opts.Owner {
			continue
		}
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id < res[j].Id })
	return res
}

func (m *memory) FindAll(c ctx.Ctx, optFns ...token.FindAllOptionsFunc) ([]*token.Token, error) {
	opts, err := token.GetFindAllOptions(optFns...)
	if err != nil {
		return nil, err
	}

	m.lock.RLock()
	defer m.lock.RUnlock()
	all := m.filter(opts)
	if opts.Offset != nil && opts.Limit != nil {
		start, end := *opts.Offset, *opts.Offset+*opts.Limit
		if start > len(all) {
			start = len(all)
		}
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}

	res := make([]*token.Token, 0, len(all))
	for _, t := range all {
		res = append(res, clone(t))
	}
	return res, nil
}

func (m *memory) Count(c ctx.Ctx, optFns ...token.FindAllOptionsFunc) (int, error) {
	opts, err := token.GetFindAllOptions(optFns...)
	if err != nil {
		return 0, err
	}

	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.filter(opts)), nil
}

func (m *memory) Update(_ ctx.Ctx, t *token.Token) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.tokens[t.Id] = clone(t)
	return nil
}

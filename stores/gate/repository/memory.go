package repository

import (
	"sort"
	"sync"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/gate"
)

type memory struct {
	lock  sync.RWMutex
	gates map[domain.GateId]*gate.Gate
}

// NewMemory keeps gates in process memory
func NewMemory() gate.Repo {
	return &memory{gates: map[domain.GateId]*gate.Gate{}}
}

func clone(g *gate.Gate) *gate.Gate {
	res := *g
	res.MintedTokens = append([]domain.TokenId{}, g.MintedTokens...)
	return &res
}

func (m *memory) Insert(_ ctx.Ctx, g *gate.Gate) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.gates[g.Id]; ok {
		return domain.ErrGateAlreadyExists
	}
	m.gates[g.Id] = clone(g)
	return nil
}

func (m *memory) FindOne(_ ctx.Ctx, id domain.GateId) (*gate.Gate, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	g, ok := m.gates[id]
	if !ok {
		return nil, domain.ErrGateNotFound
	}
	return clone(g), nil
}

func (m *memory) FindByCreator(_ ctx.Ctx, creator domain.AccountId) ([]*gate.Gate, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	res := []*gate.Gate{}
	for _, g := range m.gates {
		if g.Creator == creator {
			res = append(res, clone(g))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id < res[j].Id })
	return res, nil
}

func (m *memory) Remove(_ ctx.Ctx, id domain.GateId) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.gates[id]; !ok {
		return domain.ErrGateNotFound
	}
	delete(m.gates, id)
	return nil
}

func (m *memory) Mint(_ ctx.Ctx, id domain.GateId, tokenId domain.TokenId) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	g, ok := m.gates[id]
	if !ok {
		return domain.ErrGateNotFound
	}
	if g.Supply == 0 {
		return domain.ErrGateExhausted
	}
	g.Supply--
	g.MintedTokens = append(g.MintedTokens, tokenId)
	return nil
}

func (m *memory) Unmint(_ ctx.Ctx, id domain.GateId, tokenId domain.TokenId) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	g, ok := m.gates[id]
	if !ok {
		return domain.ErrGateNotFound
	}
	for i, t := range g.MintedTokens {
		if t == tokenId {
			g.MintedTokens = append(g.MintedTokens[:i:i], g.MintedTokens[i+1:]...)
			g.Supply++
			return nil
		}
	}
	return nil
}

// Package remote implements the transports of the calls declared in domain/remote.
package remote

import (
	"sync"

	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/remote"
)

// Directory is a mutable account to endpoint table
type Directory struct {
	lock       sync.RWMutex
	markets    map[domain.AccountId]remote.Market
	registries map[domain.AccountId]remote.Registry
}

func NewDirectory() *Directory {
	return &Directory{
		markets:    map[domain.AccountId]remote.Market{},
		registries: map[domain.AccountId]remote.Registry{},
	}
}

func (d *Directory) AddMarket(account domain.AccountId, m remote.Market) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.markets[account] = m
}

func (d *Directory) AddRegistry(account domain.AccountId, r remote.Registry) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.registries[account] = r
}

func (d *Directory) Market(account domain.AccountId) (remote.Market, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	m, ok := d.markets[account]
	if !ok {
		return nil, domain.ErrUnknownAccount
	}
	return m, nil
}

func (d *Directory) Registry(account domain.AccountId) (remote.Registry, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	r, ok := d.registries[account]
	if !ok {
		return nil, domain.ErrUnknownAccount
	}
	return r, nil
}

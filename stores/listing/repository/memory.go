package repository

import (
	"sort"
	"sync"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/listing"
)

type keySet map[listing.Key]struct{}

// index maps an owning id to the keys it covers
type index struct {
	name    string
	entries map[string]keySet
	// of returns the owning id of l, false when l is not covered
	of func(l *listing.Listing) (string, bool)
}

func newIndex(name string, of func(l *listing.Listing) (string, bool)) *index {
	return &index{name: name, entries: map[string]keySet{}, of: of}
}

func (i *index) add(l *listing.Listing) {
	id, ok := i.of(l)
	if !ok {
		return
	}
	if i.entries[id] == nil {
		i.entries[id] = keySet{}
	}
	i.entries[id][l.Key] = struct{}{}
}

func (i *index) has(l *listing.Listing) bool {
	id, ok := i.of(l)
	if !ok {
		return true
	}
	_, found := i.entries[id][l.Key]
	return found
}

func (i *index) remove(l *listing.Listing) {
	id, ok := i.of(l)
	if !ok {
		return
	}
	delete(i.entries[id], l.Key)
	if len(i.entries[id]) == 0 {
		delete(i.entries, id)
	}
}

type memory struct {
	lock       sync.RWMutex
	listings   map[listing.Key]*listing.Listing
	byRegistry *index
	byOwner    *index
	byCreator  *index
	byGate     *index
}

// NewMemory keeps listings and their indexes in process memory
func NewMemory() listing.Repo {
	return &memory{
		listings: map[listing.Key]*listing.Listing{},
		byRegistry: newIndex("registry", func(l *listing.Listing) (string, bool) {
			return l.Registry.String(), true
		}),
		byOwner: newIndex("owner", func(l *listing.Listing) (string, bool) {
			return l.Owner.String(), true
		}),
		byCreator: newIndex("creator", func(l *listing.Listing) (string, bool) {
			if l.Creator == nil {
				return "", false
			}
			return l.Creator.String(), true
		}),
		byGate: newIndex("gate", func(l *listing.Listing) (string, bool) {
			if l.GateId == nil {
				return "", false
			}
			return l.GateId.String(), true
		}),
	}
}

func (m *memory) indexes() []*index {
	return []*index{m.byRegistry, m.byOwner, m.byCreator, m.byGate}
}

func clone(l *listing.Listing) *listing.Listing {
	res := *l
	return &res
}

func (m *memory) Insert(c ctx.Ctx, l *listing.Listing) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.listings[l.Key]; ok {
		if _, err := m.remove(c, l.Key); err != nil {
			return err
		}
	}
	stored := clone(l)
	m.listings[l.Key] = stored
	for _, idx := range m.indexes() {
		idx.add(stored)
	}
	return nil
}

// remove verifies every index before touching any of them
func (m *memory) remove(c ctx.Ctx, key listing.Key) (*listing.Listing, error) {
	l, ok := m.listings[key]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	for _, idx := range m.indexes() {
		if !idx.has(l) {
			c.WithFields(log.Fields{"key": key.String(), "index": idx.name}).Error("listing missing from index")
			return nil, domain.ErrIndexCorrupted
		}
	}

	for _, idx := range m.indexes() {
		idx.remove(l)
	}
	delete(m.listings, key)
	return l, nil
}

func (m *memory) Remove(c ctx.Ctx, key listing.Key) (*listing.Listing, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	l, err := m.remove(c, key)
	if err != nil {
		return nil, err
	}
	return clone(l), nil
}

func (m *memory) Get(_ ctx.Ctx, key listing.Key) (*listing.Listing, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	l, ok := m.listings[key]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return clone(l), nil
}

func sortListings(res []*listing.Listing) []*listing.Listing {
	sort.Slice(res, func(i, j int) bool {
		if res[i].Registry != res[j].Registry {
			return res[i].Registry < res[j].Registry
		}
		return res[i].TokenId < res[j].TokenId
	})
	return res
}

func (m *memory) All(ctx.Ctx) ([]*listing.Listing, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	res := make([]*listing.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		res = append(res, clone(l))
	}
	return sortListings(res), nil
}

func (m *memory) lookup(idx *index, id string) []*listing.Listing {
	m.lock.RLock()
	defer m.lock.RUnlock()
	res := []*listing.Listing{}
	for key := range idx.entries[id] {
		if l, ok := m.listings[key]; ok {
			res = append(res, clone(l))
		}
	}
	return sortListings(res)
}

func (m *memory) ByRegistry(_ ctx.Ctx, registry domain.AccountId) ([]*listing.Listing, error) {
	return m.lookup(m.byRegistry, registry.String()), nil
}

func (m *memory) ByOwner(_ ctx.Ctx, owner domain.AccountId) ([]*listing.Listing, error) {
	return m.lookup(m.byOwner, owner.String()), nil
}

func (m *memory) ByCreator(_ ctx.Ctx, creator domain.AccountId) ([]*listing.Listing, error) {
	return m.lookup(m.byCreator, creator.String()), nil
}

func (m *memory) ByGate(_ ctx.Ctx, gateId domain.GateId) ([]*listing.Listing, error) {
	return m.lookup(m.byGate, gateId.String()), nil
}

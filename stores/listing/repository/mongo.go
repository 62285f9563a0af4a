package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/listing"
	"github.com/x-xyz/gatemarket/service/query"
)

// indexTable stores one document per owning id: {_id: id, keys: [key, ...]}
type indexTable struct {
	table domain.Table
	of    func(l *listing.Listing) (string, bool)
}

type indexDoc struct {
	Id   string        `bson:"_id"`
	Keys []listing.Key `bson:"keys"`
}

var indexTables = []indexTable{
	{domain.TableListingsByRegistry, func(l *listing.Listing) (string, bool) { return l.Registry.String(), true }},
	{domain.TableListingsByOwner, func(l *listing.Listing) (string, bool) { return l.Owner.String(), true }},
	{domain.TableListingsByCreator, func(l *listing.Listing) (string, bool) {
		if l.Creator == nil {
			return "", false
		}
		return l.Creator.String(), true
	}},
	{domain.TableListingsByGate, func(l *listing.Listing) (string, bool) {
		if l.GateId == nil {
			return "", false
		}
		return l.GateId.String(), true
	}},
}

type impl struct {
	q query.Mongo
}

func New(q query.Mongo) listing.Repo {
	return &impl{q}
}

func EnsureIndexes(c ctx.Ctx, q query.Mongo) error {
	return q.EnsureIndexes(c, domain.TableListings,
		query.Index{Keys: []string{"registryId", "tokenId"}, Unique: true},
	)
}

func keySelector(key listing.Key) bson.M {
	return bson.M{"registryId": key.Registry, "tokenId": key.TokenId}
}

func (im *impl) Insert(c ctx.Ctx, l *listing.Listing) error {
	return im.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		if _, err := im.get(c, l.Key); err == nil {
			if _, err := im.remove(c, l.Key); err != nil {
				return err
			}
		} else if err != domain.ErrListingNotFound {
			return err
		}

		if err := im.q.Insert(c, domain.TableListings, l); err != nil {
			c.WithField("err", err).Error("q.Insert failed")
			return err
		}
		for _, idx := range indexTables {
			id, ok := idx.of(l)
			if !ok {
				continue
			}
			update := bson.M{"$addToSet": bson.M{"keys": l.Key}}
			if err := im.q.CustomPatch(c, idx.table, bson.M{"_id": id}, update, true); err != nil {
				c.WithFields(log.Fields{"err": err, "table": idx.table}).Error("q.CustomPatch failed")
				return err
			}
		}
		return nil
	})
}

func (im *impl) Remove(c ctx.Ctx, key listing.Key) (*listing.Listing, error) {
	var res *listing.Listing
	err := im.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		l, err := im.remove(c, key)
		res = l
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// remove pulls the key from every index, a pull matching nothing aborts the transaction
func (im *impl) remove(c ctx.Ctx, key listing.Key) (*listing.Listing, error) {
	l, err := im.get(c, key)
	if err != nil {
		return nil, err
	}

	for _, idx := range indexTables {
		id, ok := idx.of(l)
		if !ok {
			continue
		}
		sel := bson.M{"_id": id, "keys": key}
		update := bson.M{"$pull": bson.M{"keys": key}}
		if err := im.q.CustomPatch(c, idx.table, sel, update, false); err == query.ErrNotFound {
			c.WithFields(log.Fields{"key": key.String(), "table": idx.table}).Error("listing missing from index")
			return nil, domain.ErrIndexCorrupted
		} else if err != nil {
			c.WithFields(log.Fields{"err": err, "table": idx.table}).Error("q.CustomPatch failed")
			return nil, err
		}
	}

	if err := im.q.Remove(c, domain.TableListings, keySelector(key)); err != nil {
		c.WithField("err", err).Error("q.Remove failed")
		return nil, err
	}
	return l, nil
}

func (im *impl) get(c ctx.Ctx, key listing.Key) (*listing.Listing, error) {
	res := &listing.Listing{}
	if err := im.q.FindOne(c, domain.TableListings, keySelector(key), res); err == query.ErrNotFound {
		return nil, domain.ErrListingNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	return res, nil
}

func (im *impl) Get(c ctx.Ctx, key listing.Key) (*listing.Listing, error) {
	return im.get(c, key)
}

func (im *impl) search(c ctx.Ctx, qry bson.M) ([]*listing.Listing, error) {
	res := []*listing.Listing{}
	if err := im.q.Search(c, domain.TableListings, 0, 0, "registryId", qry, &res); err != nil {
		c.WithField("err", err).Error("q.Search failed")
		return nil, err
	}
	return sortListings(res), nil
}

func (im *impl) All(c ctx.Ctx) ([]*listing.Listing, error) {
	return im.search(c, bson.M{})
}

// lookup resolves the keys held by an index document against the primary table
func (im *impl) lookup(c ctx.Ctx, table domain.Table, id string) ([]*listing.Listing, error) {
	doc := indexDoc{}
	if err := im.q.FindOne(c, table, bson.M{"_id": id}, &doc); err == query.ErrNotFound {
		return []*listing.Listing{}, nil
	} else if err != nil {
		c.WithFields(log.Fields{"err": err, "table": table}).Error("q.FindOne failed")
		return nil, err
	}
	if len(doc.Keys) == 0 {
		return []*listing.Listing{}, nil
	}

	or := make([]bson.M, 0, len(doc.Keys))
	for _, k := range doc.Keys {
		or = append(or, keySelector(k))
	}
	return im.search(c, bson.M{"$or": or})
}

func (im *impl) ByRegistry(c ctx.Ctx, registry domain.AccountId) ([]*listing.Listing, error) {
	return im.lookup(c, domain.TableListingsByRegistry, registry.String())
}

func (im *impl) ByOwner(c ctx.Ctx, owner domain.AccountId) ([]*listing.Listing, error) {
	return im.lookup(c, domain.TableListingsByOwner, owner.String())
}

func (im *impl) ByCreator(c ctx.Ctx, creator domain.AccountId) ([]*listing.Listing, error) {
	return im.lookup(c, domain.TableListingsByCreator, creator.String())
}

func (im *impl) ByGate(c ctx.Ctx, gateId domain.GateId) ([]*listing.Listing, error) {
	return im.lookup(c, domain.TableListingsByGate, gateId.String())
}

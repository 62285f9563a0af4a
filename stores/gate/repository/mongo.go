package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/gate"
	"github.com/x-xyz/gatemarket/service/query"
)

type impl struct {
	q query.Mongo
}

func New(q query.Mongo) gate.Repo {
	return &impl{q}
}

// EnsureIndexes creates the unique gate id index and the by-creator index
func EnsureIndexes(c ctx.Ctx, q query.Mongo) error {
	return q.EnsureIndexes(c, domain.TableGates,
		query.Index{Keys: []string{"gateId"}, Unique: true},
		query.Index{Keys: []string{"creatorId", "gateId"}},
	)
}

func (im *impl) Insert(c ctx.Ctx, g *gate.Gate) error {
	if err := im.q.Insert(c, domain.TableGates, g); err == query.ErrDuplicateKey {
		return domain.ErrGateAlreadyExists
	} else if err != nil {
		c.WithField("err", err).Error("q.Insert failed")
		return err
	}
	return nil
}

func (im *impl) FindOne(c ctx.Ctx, id domain.GateId) (*gate.Gate, error) {
	res := &gate.Gate{}
	if err := im.q.FindOne(c, domain.TableGates, bson.M{"gateId": id}, res); err == query.ErrNotFound {
		return nil, domain.ErrGateNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	return res, nil
}

func (im *impl) FindByCreator(c ctx.Ctx, creator domain.AccountId) ([]*gate.Gate, error) {
	res := []*gate.Gate{}
	if err := im.q.Search(c, domain.TableGates, 0, 0, "gateId", bson.M{"creatorId": creator}, &res); err != nil {
		c.WithField("err", err).Error("q.Search failed")
		return nil, err
	}
	return res, nil
}

func (im *impl) Remove(c ctx.Ctx, id domain.GateId) error {
	if err := im.q.Remove(c, domain.TableGates, bson.M{"gateId": id}); err == query.ErrNotFound {
		return domain.ErrGateNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.Remove failed")
		return err
	}
	return nil
}

func (im *impl) Mint(c ctx.Ctx, id domain.GateId, tokenId domain.TokenId) error {
	sel := bson.M{"gateId": id, "supply": bson.M{"$gt": 0}}
	update := bson.M{
		"$inc":  bson.M{"supply": -1},
		"$push": bson.M{"mintedTokens": tokenId},
	}
	err := im.q.CustomPatch(c, domain.TableGates, sel, update, false)
	if err == nil {
		return nil
	} else if err != query.ErrNotFound {
		c.WithField("err", err).Error("q.CustomPatch failed")
		return err
	}

	if _, err := im.FindOne(c, id); err != nil {
		return err
	}
	return domain.ErrGateExhausted
}

func (im *impl) Unmint(c ctx.Ctx, id domain.GateId, tokenId domain.TokenId) error {
	sel := bson.M{"gateId": id, "mintedTokens": tokenId}
	update := bson.M{
		"$inc":  bson.M{"supply": 1},
		"$pull": bson.M{"mintedTokens": tokenId},
	}
	err := im.q.CustomPatch(c, domain.TableGates, sel, update, false)
	if err == nil {
		return nil
	} else if err != query.ErrNotFound {
		c.WithField("err", err).Error("q.CustomPatch failed")
		return err
	}

	_, err = im.FindOne(c, id)
	return err
}

package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/token"
	"github.com/x-xyz/gatemarket/service/query"
)

const tokenSeq = "tokens"

type impl struct {
	q query.Mongo
}

func New(q query.Mongo) token.Repo {
	return &impl{q}
}

func EnsureIndexes(c ctx.Ctx, q query.Mongo) error {
	return q.EnsureIndexes(c, domain.TableTokens,
		query.Index{Keys: []string{"tokenId"}, Unique: true},
		query.Index{Keys: []string{"ownerId", "tokenId"}},
	)
}

type seqDoc struct {
	Seq uint64 `bson:"seq"`
}

func (im *impl) NextId(c ctx.Ctx) (domain.TokenId, error) {
	res := seqDoc{}
	if err := im.q.IncrementMany(c, domain.TableCounters, bson.M{"_id": tokenSeq}, bson.M{"seq": 1}, nil, &res); err != nil {
		c.WithField("err", err).Error("q.IncrementMany failed")
		return 0, err
	}
	return domain.TokenId(res.Seq - 1), nil
}

func (im *impl) Insert(c ctx.Ctx, t *token.Token) error {
	if err := im.q.Insert(c, domain.TableTokens, t); err != nil {
		c.WithField("err", err).Error("q.Insert failed")
		return err
	}
	return nil
}

func (im *impl) FindOne(c ctx.Ctx, id domain.TokenId) (*token.Token, error) {
	res := &token.Token{}
	if err := im.q.FindOne(c, domain.TableTokens, bson.M{"tokenId": id}, res); err == query.ErrNotFound {
		return nil, domain.ErrTokenNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	return res, nil
}

func selector(opts token.FindAllOptions) bson.M {
	qry := bson.M{}
	if opts.Owner != nil {
		qry["ownerId"] = *opts.Owner
	}
	return qry
}

func (im *impl) FindAll(c ctx.Ctx, optFns ...token.FindAllOptionsFunc) ([]*token.Token, error) {
	opts, err := token.GetFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("token.GetFindAllOptions failed")
		return nil, err
	}

	offset, limit := 0, 0
	if opts.Offset != nil && opts.Limit != nil {
		offset, limit = *opts.Offset, *opts.Limit
		if limit == 0 {
			return []*token.Token{}, nil
		}
	}

	res := []*token.Token{}
	if err := im.q.Search(c, domain.TableTokens, offset, limit, "tokenId", selector(opts), &res); err != nil {
		c.WithField("err", err).Error("q.Search failed")
		return nil, err
	}
	return res, nil
}

func (im *impl) Count(c ctx.Ctx, optFns ...token.FindAllOptionsFunc) (int, error) {
	opts, err := token.GetFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("token.GetFindAllOptions failed")
		return 0, err
	}

	n, err := im.q.Count(c, domain.TableTokens, selector(opts))
	if err != nil {
		c.WithField("err", err).Error("q.Count failed")
		return 0, err
	}
	return n, nil
}

func (im *impl) Update(c ctx.Ctx, t *token.Token) error {
	if err := im.q.Upsert(c, domain.TableTokens, bson.M{"tokenId": t.Id}, t); err != nil {
		c.WithField("err", err).Error("q.Upsert failed")
		return err
	}
	return nil
}

package query

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/database/mongoclient"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/base/metrics"
	"github.com/x-xyz/gatemarket/domain"
)

const (
	queryMaxTime  = 20 * time.Second
	slowThreshold = 500 * time.Millisecond
	maxTxn        = 10
)

var (
	timeNow = time.Now
	met     = metrics.New("query")
)

type impl struct {
	client *mongoclient.Client
	// bounds concurrent transactions
	txns chan struct{}
}

func New(client *mongoclient.Client) Mongo {
	return &impl{
		client: client,
		txns:   make(chan struct{}, maxTxn),
	}
}

func (im *impl) coll(table domain.Table) *mongo.Collection {
	return im.client.Database(im.client.DbName).Collection(string(table))
}

// begin tags c with the call, the returned func records its latency and flags slow calls
func begin(c ctx.Ctx, table domain.Table, action string, filter interface{}) (ctx.Ctx, func()) {
	start := timeNow()
	c = ctx.WithValues(c, map[string]interface{}{"table": table, "action": action})
	return c, func() {
		elapsed := time.Since(start)
		met.BumpHistogram("time", float64(elapsed.Milliseconds()), "func", action, "table", string(table))
		if elapsed < slowThreshold {
			return
		}
		met.BumpSum("slow", 1, "func", action, "table", string(table))
		c.WithFields(log.Fields{"filter": filter, "durationMs": elapsed.Milliseconds()}).Warn("slow mongo call")
	}
}

func fail(c ctx.Ctx, err error) error {
	if _, ok := err.(topology.ConnectionError); ok {
		met.BumpSum("conn.err", 1)
	}
	c.WithField("err", err).Error("mongo call failed")
	return err
}

func (im *impl) Insert(c ctx.Ctx, table domain.Table, doc interface{}) error {
	c, end := begin(c, table, "insert", nil)
	defer end()

	if _, err := im.coll(table).InsertOne(c, doc); mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	} else if err != nil {
		return fail(c, err)
	}
	return nil
}

func (im *impl) FindOne(c ctx.Ctx, table domain.Table, filter, result interface{}) error {
	c, end := begin(c, table, "findone", filter)
	defer end()

	err := im.coll(table).FindOne(c, filter, options.FindOne().SetMaxTime(queryMaxTime)).Decode(result)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	} else if err != nil {
		return fail(c, err)
	}
	return nil
}

func (im *impl) Count(c ctx.Ctx, table domain.Table, filter interface{}) (int, error) {
	c, end := begin(c, table, "count", filter)
	defer end()

	n, err := im.coll(table).CountDocuments(c, filter, options.Count().SetMaxTime(queryMaxTime))
	if err != nil {
		return 0, fail(c, err)
	}
	return int(n), nil
}

func (im *impl) Upsert(c ctx.Ctx, table domain.Table, filter, doc interface{}) error {
	c, end := begin(c, table, "upsert", filter)
	defer end()

	if _, err := im.coll(table).ReplaceOne(c, filter, doc, options.Replace().SetUpsert(true)); err != nil {
		return fail(c, err)
	}
	return nil
}

// sortKeys turns "field" / "-field" names into an ordered sort document
func sortKeys(fields ...string) bson.D {
	d := bson.D{}
	for _, f := range fields {
		switch {
		case f == "":
		case f[0] == '-':
			d = append(d, bson.E{Key: f[1:], Value: -1})
		default:
			d = append(d, bson.E{Key: f, Value: 1})
		}
	}
	return d
}

func (im *impl) Search(c ctx.Ctx, table domain.Table, offset, limit int, sort string, filter, results interface{}) error {
	c, end := begin(c, table, "search", filter)
	defer end()

	opts := options.Find().SetMaxTime(queryMaxTime).SetSkip(int64(offset)).SetLimit(int64(limit))
	if s := sortKeys(sort); len(s) > 0 {
		opts.SetSort(s)
	}
	cur, err := im.coll(table).Find(c, filter, opts)
	if err != nil {
		return fail(c, err)
	}
	defer cur.Close(c)

	if err := cur.All(c, results); err != nil {
		return fail(c, err)
	}
	return nil
}

func (im *impl) Remove(c ctx.Ctx, table domain.Table, filter interface{}) error {
	c, end := begin(c, table, "remove", filter)
	defer end()

	res, err := im.coll(table).DeleteOne(c, filter)
	if err != nil {
		return fail(c, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (im *impl) CustomPatch(c ctx.Ctx, table domain.Table, filter, update bson.M, upsert bool) error {
	c, end := begin(c, table, "patch", filter)
	defer end()

	res, err := im.coll(table).UpdateOne(c, filter, update, options.Update().SetUpsert(upsert))
	if err != nil {
		return fail(c, err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (im *impl) IncrementMany(c ctx.Ctx, table domain.Table, filter interface{}, inc bson.M, setOnInsert bson.M, result interface{}) error {
	c, end := begin(c, table, "increment", filter)
	defer end()

	update := bson.M{"$inc": inc}
	if setOnInsert != nil {
		update["$setOnInsert"] = setOnInsert
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true)
	if err := im.coll(table).FindOneAndUpdate(c, filter, update, opts).Decode(result); err != nil {
		return fail(c, err)
	}
	return nil
}

func (im *impl) EnsureIndexes(c ctx.Ctx, table domain.Table, indexes ...Index) error {
	if len(indexes) == 0 {
		return nil
	}
	c, end := begin(c, table, "indexes", nil)
	defer end()

	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		models = append(models, mongo.IndexModel{
			Keys:    sortKeys(idx.Keys...),
			Options: options.Index().SetUnique(idx.Unique),
		})
	}
	if _, err := im.coll(table).Indexes().CreateMany(c, models); err != nil {
		return fail(c, err)
	}
	return nil
}

func (im *impl) RunWithTransaction(c ctx.Ctx, fn func(ctx.Ctx) error) error {
	select {
	case <-c.Done():
		return c.Err()
	case im.txns <- struct{}{}:
	}
	defer func() { <-im.txns }()

	session, err := im.client.StartSession()
	if err != nil {
		return fail(c, err)
	}
	defer session.EndSession(c)

	_, err = session.WithTransaction(c, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(ctx.Ctx{Context: sc, Logger: c.Logger})
	})
	return err
}

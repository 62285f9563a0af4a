package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/database/mongoclient"
	"github.com/x-xyz/gatemarket/domain/healthcheck"
	"github.com/x-xyz/gatemarket/domain/keys"
	"github.com/x-xyz/gatemarket/service/redis"
)

const pingTimeout = 2 * time.Second

var probeKey = keys.RedisKey(keys.PfxHealthCheck, "probe")

type impl struct {
	mongo *mongoclient.Client
	redis redis.Service
}

// New probes the configured backends, either of them may be nil
func New(mongo *mongoclient.Client, r redis.Service) healthcheck.Repo {
	return &impl{mongo: mongo, redis: r}
}

func (im *impl) Ping(c ctx.Ctx) map[string]error {
	c, cancel := ctx.WithTimeout(c, pingTimeout)
	defer cancel()

	res := map[string]error{}
	if im.mongo != nil {
		res[healthcheck.ComponentMongo] = im.mongo.Ping(c, readpref.Primary())
	}
	if im.redis != nil {
		res[healthcheck.ComponentRedis] = im.redis.Set(c, probeKey, []byte("1"), 30*time.Second)
	}
	return res
}

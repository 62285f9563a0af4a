package redis

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/base/metrics"
	"github.com/x-xyz/gatemarket/domain/keys"
)

// TTL answers -2 for a missing key
const ttlNoKey = -2

var (
	delBatchSize = 100

	errNoKeys = errors.New("no keys given")

	delIfEqualScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

type impl struct {
	name string
	met  metrics.Service
	pool *redis.Pool
}

// New wraps pool, name tags every metric so several clusters can be told apart
func New(name string, met metrics.Service, pool *redis.Pool) Service {
	return &impl{name: name, met: met, pool: pool}
}

func (r *impl) conn() (redis.Conn, error) {
	conn := r.pool.Get()
	if err := conn.Err(); err != nil {
		r.met.BumpSum("conn.err", 1, "cluster", r.name)
		return nil, err
	}
	return conn, nil
}

// do runs one command on a pooled connection, ErrNil replies are expected and not logged
func (r *impl) do(c ctx.Ctx, key, cmd string, args ...interface{}) (interface{}, error) {
	defer r.met.BumpTime("time", "cmd", cmd, "cluster", r.name, "prefix", keys.GetPrefix(key)).End()

	conn, err := r.conn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	reply, err := conn.Do(cmd, args...)
	if err != nil && err != redis.ErrNil {
		c.WithFields(log.Fields{"err": err, "cmd": cmd, "key": key}).Error("redis command failed")
	}
	return reply, err
}

func expiry(expire time.Duration) []interface{} {
	if expire == Forever {
		return nil
	}
	return []interface{}{"PX", expire.Milliseconds()}
}

func (r *impl) Get(c ctx.Ctx, key string) ([]byte, error) {
	return redis.Bytes(r.do(c, key, "GET", key))
}

func (r *impl) Set(c ctx.Ctx, key string, val []byte, expire time.Duration) error {
	r.met.BumpHistogram("bytes", float64(len(val)), "cluster", r.name, "prefix", keys.GetPrefix(key))
	_, err := r.do(c, key, "SET", append([]interface{}{key, val}, expiry(expire)...)...)
	return err
}

func (r *impl) SetNX(c ctx.Ctx, key string, val []byte, expire time.Duration) error {
	// a skipped SET NX replies nil, which redis.String turns into ErrNil
	_, err := redis.String(r.do(c, key, "SET", append([]interface{}{key, val, "NX"}, expiry(expire)...)...))
	return err
}

func (r *impl) DelIfEqual(c ctx.Ctx, key string, val []byte) (bool, error) {
	defer r.met.BumpTime("time", "cmd", "DELIFEQUAL", "cluster", r.name, "prefix", keys.GetPrefix(key)).End()

	conn, err := r.conn()
	if err != nil {
		return false, err
	}
	defer conn.Close()

	n, err := redis.Int(delIfEqualScript.Do(conn, key, val))
	if err != nil {
		c.WithFields(log.Fields{"err": err, "key": key}).Error("DelIfEqual failed")
		return false, err
	}
	return n == 1, nil
}

// Del removes keys in batches of delBatchSize and returns how many existed
func (r *impl) Del(c ctx.Ctx, ks ...string) (int, error) {
	if len(ks) == 0 {
		return 0, errNoKeys
	}
	removed := 0
	for len(ks) > 0 {
		n := delBatchSize
		if n > len(ks) {
			n = len(ks)
		}
		res, err := redis.Int(r.do(c, ks[0], "DEL", redis.Args{}.AddFlat(ks[:n])...))
		if err != nil {
			return 0, err
		}
		removed += res
		ks = ks[n:]
	}
	return removed, nil
}

func (r *impl) TTL(c ctx.Ctx, key string) (int, error) {
	res, err := redis.Int(r.do(c, key, "TTL", key))
	if err != nil {
		return 0, err
	}
	if res == ttlNoKey {
		return 0, ErrNotFound
	}
	return res, nil
}

package redis

import (
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/x-xyz/gatemarket/base/ctx"
)

// Forever means the key never expires
const Forever = time.Duration(0)

// ErrNotFound is returned when the key does not exist, or a conditional write is skipped
var ErrNotFound = redis.ErrNil

// Service holds the commands behind the response cache, the health probe and the serial lease
type Service interface {
	Get(c ctx.Ctx, key string) ([]byte, error)
	Set(c ctx.Ctx, key string, val []byte, expire time.Duration) error

	// SetNX sets the key only when it does not exist. ErrNotFound means the key is held by someone else.
	SetNX(c ctx.Ctx, key string, val []byte, expire time.Duration) error

	// DelIfEqual deletes the key only when it still holds val, reports whether it was deleted
	DelIfEqual(c ctx.Ctx, key string, val []byte) (bool, error)

	Del(c ctx.Ctx, keys ...string) (int, error)

	// TTL returns the remaining seconds of the key, ErrNotFound when it is missing
	TTL(c ctx.Ctx, key string) (int, error)
}

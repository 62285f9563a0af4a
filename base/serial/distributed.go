package serial

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/x-xyz/gatemarket/base/backoff"
	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/base/metrics"
	"github.com/x-xyz/gatemarket/domain/keys"
	"github.com/x-xyz/gatemarket/service/redis"
)

const (
	backoffStart = 5 * time.Millisecond
	backoffLimit = 200 * time.Millisecond
)

type distributed struct {
	mu    sync.Mutex
	key   string
	ttl   time.Duration
	redis redis.Service
	met   metrics.Service
}

// NewDistributed serializes calls across every replica of service through a redis lease.
// ttl bounds how long a crashed holder blocks the others, it must exceed the longest call.
func NewDistributed(service string, r redis.Service, ttl time.Duration) Executor {
	return &distributed{
		key:   keys.RedisKey(keys.PfxSerial, service),
		ttl:   ttl,
		redis: r,
		met:   metrics.New("serial"),
	}
}

func (d *distributed) Do(c ctx.Ctx, fn func(ctx.Ctx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	defer d.met.BumpTime("lease.time").End()
	token := []byte(uuid.NewString())
	if err := d.acquire(c, token); err != nil {
		c.WithFields(log.Fields{"err": err, "key": d.key}).Error("failed to acquire lease")
		return err
	}
	defer d.release(c, token)

	return fn(c)
}

func (d *distributed) acquire(c ctx.Ctx, token []byte) error {
	b := backoff.NewExponential(backoffStart, backoffLimit)
	for {
		err := d.redis.SetNX(c, d.key, token, d.ttl)
		if err == nil {
			return nil
		} else if err != redis.ErrNotFound {
			return xerrors.Errorf("redis.SetNX: %w", err)
		}

		d.met.BumpSum("lease.wait", 1)
		if err := b.Wait(c); err != nil {
			return xerrors.Errorf("wait for lease: %w", err)
		}
	}
}

func (d *distributed) release(c ctx.Ctx, token []byte) {
	ok, err := d.redis.DelIfEqual(c, d.key, token)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "key": d.key}).Error("failed to release lease")
		return
	}
	if !ok {
		// lease expired while fn was running, another replica may have overlapped
		d.met.BumpSum("lease.expired", 1)
		c.WithField("key", d.key).Warn("lease expired before release")
	}
}
